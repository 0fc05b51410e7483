package valueconv

import (
	"math"

	"github.com/x448/float16"

	"ortbridge/internal/engine"
)

// Float32ToFloat16 returns the IEEE 754 binary16 bits nearest to f.
func Float32ToFloat16(f float32) uint16 { return float16.Fromfloat32(f).Bits() }

// Float16ToFloat32 widens binary16 bits to float32.
func Float16ToFloat32(h uint16) float32 { return float16.Frombits(h).Float32() }

// Float32ToBFloat16 truncates f to bfloat16 with round-to-nearest-even.
func Float32ToBFloat16(f float32) uint16 {
	b := math.Float32bits(f)
	if math.IsNaN(float64(f)) {
		// keep NaN quiet after truncation
		return uint16(b>>16) | 0x0040
	}
	b += 0x7fff + ((b >> 16) & 1)
	return uint16(b >> 16)
}

// BFloat16ToFloat32 widens bfloat16 bits to float32.
func BFloat16ToFloat32(h uint16) float32 { return math.Float32frombits(uint32(h) << 16) }

func halfToFloat32(t engine.ElementType, bits []uint16) []float32 {
	out := make([]float32, len(bits))
	for i, h := range bits {
		if t == engine.BFloat16 {
			out[i] = BFloat16ToFloat32(h)
		} else {
			out[i] = Float16ToFloat32(h)
		}
	}
	return out
}

func float32ToHalf(t engine.ElementType, f []float32) []uint16 {
	out := make([]uint16, len(f))
	for i, v := range f {
		if t == engine.BFloat16 {
			out[i] = Float32ToBFloat16(v)
		} else {
			out[i] = Float32ToFloat16(v)
		}
	}
	return out
}
