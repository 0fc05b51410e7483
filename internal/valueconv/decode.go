package valueconv

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"math"
	"strconv"

	"ortbridge/internal/engine"
)

// DecodeData turns a channel data argument into a typed slice for t. raw may
// be a list of numbers/bools, a base64 string holding a little-endian packed
// buffer, raw bytes, or a Go slice already of t's host type.
func DecodeData(t engine.ElementType, raw any) (any, error) {
	if !t.Numeric() {
		return nil, engine.ErrUnsupportedType(t.String())
	}
	switch v := raw.(type) {
	case nil:
		return nil, invalidData("data is required")
	case string:
		b, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, invalidData("data is not valid base64: %v", err)
		}
		return Unpack(t, b)
	case []any:
		return decodeList(t, v)
	case []float64:
		items := make([]any, len(v))
		for i, f := range v {
			items[i] = f
		}
		return decodeList(t, items)
	case []int:
		items := make([]any, len(v))
		for i, n := range v {
			items[i] = n
		}
		return decodeList(t, items)
	}
	b := engine.Buffer{Type: t, Shape: engine.Shape{}, Data: raw}
	if n := b.Len(); n >= 0 {
		b.Shape = engine.Shape{int64(n)}
		if b.Validate() == nil {
			return b.Clone().Data, nil
		}
	}
	return nil, invalidData("data must be a list or base64 string, got %T", raw)
}

// Unpack decodes a little-endian packed buffer. Bool elements are one byte,
// nonzero meaning true.
func Unpack(t engine.ElementType, b []byte) (any, error) {
	size := t.Size()
	if size == 0 {
		return nil, engine.ErrUnsupportedType(t.String())
	}
	if len(b)%size != 0 {
		return nil, invalidData("buffer length %d is not a multiple of %s size %d", len(b), t, size)
	}
	n := len(b) / size
	le := binary.LittleEndian
	switch t {
	case engine.Float32:
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(le.Uint32(b[4*i:]))
		}
		return out, nil
	case engine.Float64:
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Float64frombits(le.Uint64(b[8*i:]))
		}
		return out, nil
	case engine.Int8:
		out := make([]int8, n)
		for i := range out {
			out[i] = int8(b[i])
		}
		return out, nil
	case engine.Uint8:
		return append([]uint8{}, b...), nil
	case engine.Bool:
		out := make([]bool, n)
		for i := range out {
			out[i] = b[i] != 0
		}
		return out, nil
	case engine.Int16:
		out := make([]int16, n)
		for i := range out {
			out[i] = int16(le.Uint16(b[2*i:]))
		}
		return out, nil
	case engine.Uint16, engine.Float16, engine.BFloat16:
		out := make([]uint16, n)
		for i := range out {
			out[i] = le.Uint16(b[2*i:])
		}
		return out, nil
	case engine.Int32:
		out := make([]int32, n)
		for i := range out {
			out[i] = int32(le.Uint32(b[4*i:]))
		}
		return out, nil
	case engine.Uint32:
		out := make([]uint32, n)
		for i := range out {
			out[i] = le.Uint32(b[4*i:])
		}
		return out, nil
	case engine.Int64:
		out := make([]int64, n)
		for i := range out {
			out[i] = int64(le.Uint64(b[8*i:]))
		}
		return out, nil
	case engine.Uint64:
		out := make([]uint64, n)
		for i := range out {
			out[i] = le.Uint64(b[8*i:])
		}
		return out, nil
	default:
		return nil, engine.ErrUnsupportedType(t.String())
	}
}

func decodeList(t engine.ElementType, items []any) (any, error) {
	switch t {
	case engine.Float32, engine.Float16, engine.BFloat16:
		out := make([]float32, len(items))
		for i, it := range items {
			f, err := toFloat(it, i)
			if err != nil {
				return nil, err
			}
			out[i] = float32(f)
		}
		if t == engine.Float32 {
			return out, nil
		}
		return float32ToHalf(t, out), nil
	case engine.Float64:
		out := make([]float64, len(items))
		for i, it := range items {
			f, err := toFloat(it, i)
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil
	case engine.Int8:
		return decodeInts[int8](items, math.MinInt8, math.MaxInt8)
	case engine.Int16:
		return decodeInts[int16](items, math.MinInt16, math.MaxInt16)
	case engine.Int32:
		return decodeInts[int32](items, math.MinInt32, math.MaxInt32)
	case engine.Int64:
		return decodeInts[int64](items, math.MinInt64, math.MaxInt64)
	case engine.Uint8:
		return decodeUints[uint8](items, math.MaxUint8)
	case engine.Uint16:
		return decodeUints[uint16](items, math.MaxUint16)
	case engine.Uint32:
		return decodeUints[uint32](items, math.MaxUint32)
	case engine.Uint64:
		return decodeUints[uint64](items, math.MaxUint64)
	case engine.Bool:
		out := make([]bool, len(items))
		for i, it := range items {
			b, err := toBool(it, i)
			if err != nil {
				return nil, err
			}
			out[i] = b
		}
		return out, nil
	default:
		return nil, engine.ErrUnsupportedType(t.String())
	}
}

func decodeInts[T int8 | int16 | int32 | int64](items []any, lo, hi int64) ([]T, error) {
	out := make([]T, len(items))
	for i, it := range items {
		n, err := toInt(it, i)
		if err != nil {
			return nil, err
		}
		if n < lo || n > hi {
			return nil, invalidData("value %d at index %d out of range", n, i)
		}
		out[i] = T(n)
	}
	return out, nil
}

func decodeUints[T uint8 | uint16 | uint32 | uint64](items []any, hi uint64) ([]T, error) {
	out := make([]T, len(items))
	for i, it := range items {
		n, err := toUint(it, i)
		if err != nil {
			return nil, err
		}
		if n > hi {
			return nil, invalidData("value %d at index %d out of range", n, i)
		}
		out[i] = T(n)
	}
	return out, nil
}

func toFloat(v any, i int) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, invalidData("index %d: %v", i, err)
		}
		return f, nil
	}
	if n, ok := asInt64(v); ok {
		return float64(n), nil
	}
	if n, ok := v.(uint64); ok {
		return float64(n), nil
	}
	return 0, invalidData("index %d: expected number, got %T", i, v)
}

func toInt(v any, i int) (int64, error) {
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) || x < math.MinInt64 || x >= math.MaxInt64 {
			return 0, invalidData("index %d: %v is not an integer", i, x)
		}
		return int64(x), nil
	case float32:
		return toInt(float64(x), i)
	case json.Number:
		n, err := strconv.ParseInt(string(x), 10, 64)
		if err != nil {
			return 0, invalidData("index %d: %v", i, err)
		}
		return n, nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, invalidData("index %d: %d out of range", i, x)
		}
		return int64(x), nil
	}
	if n, ok := asInt64(v); ok {
		return n, nil
	}
	return 0, invalidData("index %d: expected integer, got %T", i, v)
}

func toUint(v any, i int) (uint64, error) {
	switch x := v.(type) {
	case uint64:
		return x, nil
	case json.Number:
		n, err := strconv.ParseUint(string(x), 10, 64)
		if err != nil {
			return 0, invalidData("index %d: %v", i, err)
		}
		return n, nil
	case float64:
		if x != math.Trunc(x) || x < 0 || x >= math.MaxUint64 {
			return 0, invalidData("index %d: %v is not an unsigned integer", i, x)
		}
		return uint64(x), nil
	}
	n, err := toInt(v, i)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, invalidData("index %d: negative value %d for unsigned type", i, n)
	}
	return uint64(n), nil
}

func toBool(v any, i int) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	f, err := toFloat(v, i)
	if err != nil {
		return false, invalidData("index %d: expected bool, got %T", i, v)
	}
	return f != 0, nil
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), x <= math.MaxInt64
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	}
	return 0, false
}
