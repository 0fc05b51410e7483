package valueconv

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ortbridge/internal/engine"
)

func TestParseElementType(t *testing.T) {
	cases := map[string]engine.ElementType{
		"float32": engine.Float32,
		"FLOAT":   engine.Float32,
		"double":  engine.Float64,
		"int64":   engine.Int64,
		"long":    engine.Int64,
		"uint8":   engine.Uint8,
		"bool":    engine.Bool,
		"float16": engine.Float16,
	}
	for in, want := range cases {
		got, err := ParseElementType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"string", "complex64", "tensor", ""} {
		_, err := ParseElementType(bad)
		assert.True(t, engine.IsUnsupportedType(err), bad)
	}
}

func TestParseEncoding(t *testing.T) {
	enc, err := ParseEncoding("")
	require.NoError(t, err)
	assert.Equal(t, EncodingList, enc)
	enc, err = ParseEncoding("BASE64")
	require.NoError(t, err)
	assert.Equal(t, EncodingBase64, enc)
	_, err = ParseEncoding("hex")
	assert.True(t, IsInvalidData(err))
}

func TestDecodeList(t *testing.T) {
	got, err := DecodeData(engine.Float32, []any{1.5, 2.0, json.Number("3.25")})
	require.NoError(t, err)
	assert.Equal(t, []float32{1.5, 2, 3.25}, got)

	got, err = DecodeData(engine.Int64, []any{float64(1), 2, json.Number("9007199254740993")})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 9007199254740993}, got)

	got, err = DecodeData(engine.Bool, []any{true, false, 1.0, 0.0})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true, false}, got)

	got, err = DecodeData(engine.Uint8, []any{0.0, 255.0})
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 255}, got)
}

func TestDecodeList_Errors(t *testing.T) {
	_, err := DecodeData(engine.Int32, []any{1.5})
	assert.True(t, IsInvalidData(err), "fractional int")

	_, err = DecodeData(engine.Int8, []any{128.0})
	assert.True(t, IsInvalidData(err), "int8 overflow")

	_, err = DecodeData(engine.Uint8, []any{-1.0})
	assert.True(t, IsInvalidData(err), "negative unsigned")

	_, err = DecodeData(engine.Float32, []any{"x"})
	assert.True(t, IsInvalidData(err), "string element")

	_, err = DecodeData(engine.Float32, nil)
	assert.True(t, IsInvalidData(err), "nil data")

	_, err = DecodeData(engine.Float32, map[string]any{})
	assert.True(t, IsInvalidData(err), "map data")

	_, err = DecodeData(engine.String, []any{"a"})
	assert.True(t, engine.IsUnsupportedType(err), "string tensor")
}

func TestDecodeTypedSlice(t *testing.T) {
	src := []int32{1, 2, 3}
	got, err := DecodeData(engine.Int32, src)
	require.NoError(t, err)
	src[0] = 99
	assert.Equal(t, []int32{1, 2, 3}, got)

	got, err = DecodeData(engine.Float32, []float64{0.5, 1})
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 1}, got)

	_, err = DecodeData(engine.Int32, []int64{1})
	assert.True(t, IsInvalidData(err))
}

func TestBase64RoundTrip(t *testing.T) {
	bufs := []engine.Buffer{
		{Type: engine.Float32, Shape: engine.Shape{3}, Data: []float32{1, float32(math.NaN()), -2.5}},
		{Type: engine.Int64, Shape: engine.Shape{2}, Data: []int64{math.MinInt64, math.MaxInt64}},
		{Type: engine.Bool, Shape: engine.Shape{2}, Data: []bool{true, false}},
		{Type: engine.Float16, Shape: engine.Shape{1}, Data: []uint16{0x3c00}},
		{Type: engine.Int8, Shape: engine.Shape{2}, Data: []int8{-128, 127}},
		{Type: engine.Uint64, Shape: engine.Shape{1}, Data: []uint64{math.MaxUint64}},
	}
	for _, b := range bufs {
		enc, err := Encode(b, EncodingBase64)
		require.NoError(t, err, b.Type.String())
		got, err := DecodeData(b.Type, enc)
		require.NoError(t, err, b.Type.String())
		if b.Type == engine.Float32 {
			f := got.([]float32)
			assert.True(t, math.IsNaN(float64(f[1])))
			assert.Equal(t, float32(-2.5), f[2])
			continue
		}
		assert.Equal(t, b.Data, got, b.Type.String())
	}
}

func TestUnpack_BadLength(t *testing.T) {
	_, err := DecodeData(engine.Float32, base64.StdEncoding.EncodeToString([]byte{1, 2, 3}))
	assert.True(t, IsInvalidData(err))
	_, err = DecodeData(engine.Float32, "not base64!")
	assert.True(t, IsInvalidData(err))
}

func TestEncodeList(t *testing.T) {
	got, err := Encode(engine.Buffer{Type: engine.Uint8, Data: []uint8{1, 2}}, EncodingList)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, got)

	got, err = Encode(engine.Buffer{Type: engine.Float16, Data: []uint16{0x3c00, 0xc000}}, EncodingList)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, -2}, got)

	_, err = Encode(engine.Buffer{Type: engine.Float64, Data: []float64{math.Inf(1)}}, EncodingList)
	assert.True(t, IsNonFinite(err))

	b, err := json.Marshal(mustEncode(t, engine.Buffer{Type: engine.Uint8, Data: []uint8{7}}))
	require.NoError(t, err)
	assert.JSONEq(t, `[7]`, string(b))
}

func mustEncode(t *testing.T, b engine.Buffer) any {
	t.Helper()
	v, err := Encode(b, EncodingList)
	require.NoError(t, err)
	return v
}

func TestHalfConversions(t *testing.T) {
	assert.Equal(t, uint16(0x3c00), Float32ToFloat16(1))
	assert.Equal(t, float32(1), Float16ToFloat32(0x3c00))
	assert.Equal(t, uint16(0x3f80), Float32ToBFloat16(1))
	assert.Equal(t, float32(1), BFloat16ToFloat32(0x3f80))
	// 1 + 2^-8 is a tie between two bfloat16 values; rounds to even.
	assert.Equal(t, uint16(0x3f80), Float32ToBFloat16(math.Float32frombits(0x3f808000)))
	assert.True(t, math.IsNaN(float64(BFloat16ToFloat32(Float32ToBFloat16(float32(math.NaN()))))))
}

func TestCast(t *testing.T) {
	src := engine.Buffer{Type: engine.Float32, Shape: engine.Shape{4}, Data: []float32{-1.7, 0, 2.9, 3}}

	out, err := Cast(src, engine.Int32)
	require.NoError(t, err)
	assert.Equal(t, []int32{-1, 0, 2, 3}, out.Data)
	assert.Equal(t, engine.Shape{4}, out.Shape)

	out, err = Cast(src, engine.Bool)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true, true}, out.Data)

	out, err = Cast(src, engine.Float16)
	require.NoError(t, err)
	back, err := Cast(out, engine.Float32)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{-1.7, 0, 2.9, 3}, back.Data, 0.01)

	out, err = Cast(engine.Buffer{Type: engine.Bool, Shape: engine.Shape{2}, Data: []bool{true, false}}, engine.Float64)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, out.Data)

	same, err := Cast(src, engine.Float32)
	require.NoError(t, err)
	assert.Equal(t, src, same)

	_, err = Cast(src, engine.String)
	assert.True(t, engine.IsUnsupportedType(err))
}

func TestStringBuffers(t *testing.T) {
	buf := engine.Buffer{Type: engine.String, Shape: engine.Shape{2}, Data: []string{"cat", "dog"}}
	got, err := Encode(buf, EncodingList)
	require.NoError(t, err)
	assert.Equal(t, []string{"cat", "dog"}, got)

	_, err = Encode(buf, EncodingBase64)
	assert.True(t, engine.IsUnsupportedType(err), "%v", err)
	_, err = Cast(buf, engine.Float32)
	assert.True(t, engine.IsUnsupportedType(err), "%v", err)
	_, err = ParseElementType("string")
	assert.True(t, engine.IsUnsupportedType(err), "string values are output-only")
}
