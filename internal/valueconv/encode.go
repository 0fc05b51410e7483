package valueconv

import (
	"encoding/base64"
	"encoding/binary"
	"math"

	"ortbridge/internal/engine"
)

// Encode renders buffer contents for the wire. List encoding yields a flat
// JSON-safe slice; float16/bfloat16 are widened to float32 and uint8 is
// emitted as numbers rather than a byte string. Base64 encoding yields the
// little-endian packed buffer.
func Encode(buf engine.Buffer, enc Encoding) (any, error) {
	if enc == EncodingBase64 {
		b, err := Pack(buf)
		if err != nil {
			return nil, err
		}
		return base64.StdEncoding.EncodeToString(b), nil
	}
	switch d := buf.Data.(type) {
	case []float32:
		if err := checkFinite(d); err != nil {
			return nil, err
		}
		return d, nil
	case []float64:
		if err := checkFinite(d); err != nil {
			return nil, err
		}
		return d, nil
	case []uint16:
		if buf.Type == engine.Float16 || buf.Type == engine.BFloat16 {
			f := halfToFloat32(buf.Type, d)
			if err := checkFinite(f); err != nil {
				return nil, err
			}
			return f, nil
		}
		return d, nil
	case []uint8:
		out := make([]int, len(d))
		for i, v := range d {
			out[i] = int(v)
		}
		return out, nil
	case []int8, []int16, []int32, []uint32, []int64, []uint64, []bool, []string:
		return d, nil
	default:
		return nil, engine.ErrUnsupportedType(buf.Type.String())
	}
}

// Pack serializes buffer contents little-endian. Bool is one byte per element.
func Pack(buf engine.Buffer) ([]byte, error) {
	size := buf.Type.Size()
	n := buf.Len()
	if size == 0 || n < 0 {
		return nil, engine.ErrUnsupportedType(buf.Type.String())
	}
	out := make([]byte, size*n)
	le := binary.LittleEndian
	switch d := buf.Data.(type) {
	case []float32:
		for i, v := range d {
			le.PutUint32(out[4*i:], math.Float32bits(v))
		}
	case []float64:
		for i, v := range d {
			le.PutUint64(out[8*i:], math.Float64bits(v))
		}
	case []int8:
		for i, v := range d {
			out[i] = byte(v)
		}
	case []uint8:
		copy(out, d)
	case []bool:
		for i, v := range d {
			if v {
				out[i] = 1
			}
		}
	case []int16:
		for i, v := range d {
			le.PutUint16(out[2*i:], uint16(v))
		}
	case []uint16:
		for i, v := range d {
			le.PutUint16(out[2*i:], v)
		}
	case []int32:
		for i, v := range d {
			le.PutUint32(out[4*i:], uint32(v))
		}
	case []uint32:
		for i, v := range d {
			le.PutUint32(out[4*i:], v)
		}
	case []int64:
		for i, v := range d {
			le.PutUint64(out[8*i:], uint64(v))
		}
	case []uint64:
		for i, v := range d {
			le.PutUint64(out[8*i:], v)
		}
	}
	return out, nil
}

func checkFinite[T float32 | float64](d []T) error {
	for i, v := range d {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nonFiniteError{index: i}
		}
	}
	return nil
}
