// Package valueconv converts between loosely typed channel arguments and
// typed tensor buffers.
package valueconv

import (
	"strings"

	"ortbridge/internal/engine"
)

var typeAliases = map[string]engine.ElementType{
	"float32":  engine.Float32,
	"float":    engine.Float32,
	"float64":  engine.Float64,
	"double":   engine.Float64,
	"float16":  engine.Float16,
	"half":     engine.Float16,
	"bfloat16": engine.BFloat16,
	"int8":     engine.Int8,
	"uint8":    engine.Uint8,
	"int16":    engine.Int16,
	"uint16":   engine.Uint16,
	"int32":    engine.Int32,
	"int":      engine.Int32,
	"uint32":   engine.Uint32,
	"int64":    engine.Int64,
	"long":     engine.Int64,
	"uint64":   engine.Uint64,
	"bool":     engine.Bool,
	"boolean":  engine.Bool,
}

// ParseElementType maps a wire type name onto an element type usable for
// host buffers. String and complex types are rejected.
func ParseElementType(name string) (engine.ElementType, error) {
	t, ok := typeAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return engine.Undefined, engine.ErrUnsupportedType(name)
	}
	return t, nil
}

// Encoding selects how tensor data is returned.
type Encoding string

const (
	EncodingList   Encoding = "list"
	EncodingBase64 Encoding = "base64"
)

// ParseEncoding accepts "", "list" and "base64".
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(EncodingList):
		return EncodingList, nil
	case string(EncodingBase64):
		return EncodingBase64, nil
	default:
		return "", invalidData("unknown encoding %q", s)
	}
}
