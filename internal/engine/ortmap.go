package engine

import (
	"encoding/binary"
	"fmt"
)

// preallocated reports whether an output must be bound to a caller-owned
// tensor before the run. Runtime-allocated float16 and bfloat16 outputs are
// copied one byte per element by the binding, so they are preallocated when
// the declared shape is static, non-scalar and non-empty, which the binding
// requires of caller-owned tensors.
func preallocated(n NodeInfo) bool {
	if !n.IsTensor || (n.Type != Float16 && n.Type != BFloat16) || len(n.Shape) == 0 || !n.Shape.Static() {
		return false
	}
	count, err := n.Shape.ElementCount()
	return err == nil && count > 0
}

// customElementType resolves the element type of a byte-backed runtime
// tensor from the model's declared type and checks the byte length.
func customElementType(hint ElementType, nbytes int, shape Shape) (ElementType, error) {
	count, err := shape.ElementCount()
	if err != nil {
		return Undefined, err
	}
	typ := hint
	if typ == Undefined {
		switch {
		case count > 0 && int64(nbytes) == count:
			typ = Bool
		case count > 0 && int64(nbytes) == 2*count:
			typ = Float16
		default:
			return Undefined, fmt.Errorf("cannot infer element type of %d-byte tensor with shape %s", nbytes, shape)
		}
	}
	var want int64
	switch typ {
	case Bool, Uint8, Int8:
		want = count
	case Float16, BFloat16:
		want = 2 * count
	default:
		return Undefined, fmt.Errorf("unexpected byte-backed %s tensor", typ)
	}
	if int64(nbytes) != want {
		return Undefined, fmt.Errorf("%s tensor with shape %s holds %d bytes, want %d", typ, shape, nbytes, want)
	}
	return typ, nil
}

func packUint16(d []uint16) []byte {
	b := make([]byte, 2*len(d))
	for i, x := range d {
		binary.LittleEndian.PutUint16(b[2*i:], x)
	}
	return b
}

func unpackUint16(b []byte) []uint16 {
	out := make([]uint16, len(b)/2)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return out
}

func bytesToBools(b []byte) []bool {
	out := make([]bool, len(b))
	for i, x := range b {
		out[i] = x != 0
	}
	return out
}
