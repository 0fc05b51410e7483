package engine

import (
	"strings"
	"testing"
)

func TestPreallocated(t *testing.T) {
	cases := []struct {
		node NodeInfo
		want bool
	}{
		{NodeInfo{Type: Float16, Shape: Shape{1, 3}, IsTensor: true}, true},
		{NodeInfo{Type: BFloat16, Shape: Shape{1}, IsTensor: true}, true},
		{NodeInfo{Type: BFloat16, Shape: Shape{}, IsTensor: true}, false},
		{NodeInfo{Type: Float16, Shape: Shape{0, 3}, IsTensor: true}, false},
		{NodeInfo{Type: Float16, Shape: Shape{-1, 3}, IsTensor: true}, false},
		{NodeInfo{Type: Float32, Shape: Shape{1, 3}, IsTensor: true}, false},
		{NodeInfo{Type: Float16, Shape: Shape{2}}, false},
	}
	for i, c := range cases {
		if got := preallocated(c.node); got != c.want {
			t.Fatalf("case %d: preallocated(%+v) = %v, want %v", i, c.node, got, c.want)
		}
	}
}

func TestCustomElementType(t *testing.T) {
	cases := []struct {
		hint   ElementType
		nbytes int
		shape  Shape
		want   ElementType
		errSub string
	}{
		{Bool, 6, Shape{2, 3}, Bool, ""},
		{Float16, 12, Shape{2, 3}, Float16, ""},
		{BFloat16, 2, Shape{}, BFloat16, ""},
		{Undefined, 4, Shape{4}, Bool, ""},
		{Undefined, 8, Shape{4}, Float16, ""},
		// The runtime binding copies one byte per element for half types.
		{Float16, 6, Shape{2, 3}, Undefined, "holds 6 bytes, want 12"},
		{Bool, 5, Shape{2, 3}, Undefined, "holds 5 bytes"},
		{Undefined, 3, Shape{4}, Undefined, "cannot infer"},
		{Float32, 16, Shape{4}, Undefined, "unexpected"},
		{Float16, 0, Shape{1 << 32, 1 << 32}, Undefined, "overflows"},
	}
	for i, c := range cases {
		got, err := customElementType(c.hint, c.nbytes, c.shape)
		if c.errSub != "" {
			if err == nil || !strings.Contains(err.Error(), c.errSub) {
				t.Fatalf("case %d: expected error containing %q, got %v", i, c.errSub, err)
			}
			continue
		}
		if err != nil || got != c.want {
			t.Fatalf("case %d: got %v, %v; want %v", i, got, err, c.want)
		}
	}
}

func TestPackUint16RoundTrip(t *testing.T) {
	in := []uint16{0x3c00, 0x0001, 0xffff}
	b := packUint16(in)
	if len(b) != 6 || b[0] != 0x00 || b[1] != 0x3c {
		t.Fatalf("not little-endian: % x", b)
	}
	out := unpackUint16(b)
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("round trip %v -> %v", in, out)
		}
	}
	if got := unpackUint16([]byte{1, 2, 3}); len(got) != 1 {
		t.Fatalf("odd trailing byte must be dropped, got %v", got)
	}
}

func TestBytesToBools(t *testing.T) {
	got := bytesToBools([]byte{0, 1, 2})
	if got[0] || !got[1] || !got[2] {
		t.Fatalf("got %v", got)
	}
}
