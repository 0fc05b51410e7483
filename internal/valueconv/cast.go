package valueconv

import (
	"ortbridge/internal/engine"
)

type number interface {
	~float32 | ~float64 | ~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64
}

// Cast converts buf to target element type. Numeric conversions follow Go
// conversion rules (floats truncate toward zero); nonzero becomes true for
// bool and bool becomes 0/1. Half-precision types pass through float32.
// Casting to the source type returns buf unchanged.
func Cast(buf engine.Buffer, target engine.ElementType) (engine.Buffer, error) {
	if !target.Numeric() {
		return engine.Buffer{}, engine.ErrUnsupportedType(target.String())
	}
	if buf.Type == target {
		return buf, nil
	}
	var (
		data any
		err  error
	)
	switch d := buf.Data.(type) {
	case []float32:
		data, err = castTo(d, target)
	case []float64:
		data, err = castTo(d, target)
	case []int8:
		data, err = castTo(d, target)
	case []uint8:
		data, err = castTo(d, target)
	case []int16:
		data, err = castTo(d, target)
	case []uint16:
		if buf.Type == engine.Float16 || buf.Type == engine.BFloat16 {
			data, err = castTo(halfToFloat32(buf.Type, d), target)
		} else {
			data, err = castTo(d, target)
		}
	case []int32:
		data, err = castTo(d, target)
	case []uint32:
		data, err = castTo(d, target)
	case []int64:
		data, err = castTo(d, target)
	case []uint64:
		data, err = castTo(d, target)
	case []bool:
		u := make([]uint8, len(d))
		for i, b := range d {
			if b {
				u[i] = 1
			}
		}
		data, err = castTo(u, target)
	default:
		return engine.Buffer{}, engine.ErrUnsupportedType(buf.Type.String())
	}
	if err != nil {
		return engine.Buffer{}, err
	}
	return engine.Buffer{Type: target, Shape: buf.Shape.Clone(), Data: data}, nil
}

func castTo[S number](src []S, target engine.ElementType) (any, error) {
	switch target {
	case engine.Float32:
		return convertSlice[S, float32](src), nil
	case engine.Float64:
		return convertSlice[S, float64](src), nil
	case engine.Int8:
		return convertSlice[S, int8](src), nil
	case engine.Uint8:
		return convertSlice[S, uint8](src), nil
	case engine.Int16:
		return convertSlice[S, int16](src), nil
	case engine.Uint16:
		return convertSlice[S, uint16](src), nil
	case engine.Int32:
		return convertSlice[S, int32](src), nil
	case engine.Uint32:
		return convertSlice[S, uint32](src), nil
	case engine.Int64:
		return convertSlice[S, int64](src), nil
	case engine.Uint64:
		return convertSlice[S, uint64](src), nil
	case engine.Float16, engine.BFloat16:
		return float32ToHalf(target, convertSlice[S, float32](src)), nil
	case engine.Bool:
		out := make([]bool, len(src))
		for i, v := range src {
			out[i] = v != 0
		}
		return out, nil
	default:
		return nil, engine.ErrUnsupportedType(target.String())
	}
}

func convertSlice[S, D number](src []S) []D {
	out := make([]D, len(src))
	for i, v := range src {
		out[i] = D(v)
	}
	return out
}
