package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ElementType is a tensor element type. Values follow the ONNX
// TensorProto.DataType numbering so they map 1:1 onto the runtime enum.
type ElementType int

const (
	Undefined  ElementType = 0
	Float32    ElementType = 1
	Uint8      ElementType = 2
	Int8       ElementType = 3
	Uint16     ElementType = 4
	Int16      ElementType = 5
	Int32      ElementType = 6
	Int64      ElementType = 7
	String     ElementType = 8
	Bool       ElementType = 9
	Float16    ElementType = 10
	Float64    ElementType = 11
	Uint32     ElementType = 12
	Uint64     ElementType = 13
	Complex64  ElementType = 14
	Complex128 ElementType = 15
	BFloat16   ElementType = 16
)

var elementNames = map[ElementType]string{
	Undefined:  "undefined",
	Float32:    "float32",
	Uint8:      "uint8",
	Int8:       "int8",
	Uint16:     "uint16",
	Int16:      "int16",
	Int32:      "int32",
	Int64:      "int64",
	String:     "string",
	Bool:       "bool",
	Float16:    "float16",
	Float64:    "float64",
	Uint32:     "uint32",
	Uint64:     "uint64",
	Complex64:  "complex64",
	Complex128: "complex128",
	BFloat16:   "bfloat16",
}

func (t ElementType) String() string {
	if s, ok := elementNames[t]; ok {
		return s
	}
	return "unknown(" + strconv.Itoa(int(t)) + ")"
}

// Size returns the packed size of one element in bytes, or 0 for types
// without a fixed-width host representation.
func (t ElementType) Size() int {
	switch t {
	case Uint8, Int8, Bool:
		return 1
	case Uint16, Int16, Float16, BFloat16:
		return 2
	case Float32, Int32, Uint32:
		return 4
	case Float64, Int64, Uint64:
		return 8
	default:
		return 0
	}
}

// Numeric reports whether buffers of this type can be created and converted.
func (t ElementType) Numeric() bool { return t.Size() > 0 }

// Hosted reports whether values of this type can be copied to a Buffer.
// Strings are hosted but not numeric: they can be read, never packed or cast.
func (t ElementType) Hosted() bool { return t.Numeric() || t == String }

// Shape is a tensor shape. An empty shape denotes a scalar.
type Shape []int64

// ElementCount returns the product of the dimensions. Negative dimensions
// (symbolic/dynamic) and products that overflow int64 are rejected.
func (s Shape) ElementCount() (int64, error) {
	n := int64(1)
	for i, d := range s {
		if d < 0 {
			return 0, fmt.Errorf("invalid dimension %d at index %d", d, i)
		}
		if d != 0 && n > math.MaxInt64/d {
			return 0, fmt.Errorf("element count overflows at index %d", i)
		}
		n *= d
	}
	return n, nil
}

// Static reports whether every dimension is known.
func (s Shape) Static() bool {
	for _, d := range s {
		if d < 0 {
			return false
		}
	}
	return true
}

func (s Shape) Clone() Shape {
	if s == nil {
		return Shape{}
	}
	return append(Shape{}, s...)
}

func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = strconv.FormatInt(d, 10)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Buffer is a typed host buffer. Data holds a Go slice matching Type:
// []float32, []float64, []int8, []uint8, []int16, []uint16, []int32,
// []uint32, []int64, []uint64, []bool or []string. Float16 and BFloat16
// carry raw bits in a []uint16.
type Buffer struct {
	Type  ElementType
	Shape Shape
	Data  any
}

// Len returns the number of elements in Data, or -1 if Data is not a
// supported slice type.
func (b Buffer) Len() int {
	switch d := b.Data.(type) {
	case []float32:
		return len(d)
	case []float64:
		return len(d)
	case []int8:
		return len(d)
	case []uint8:
		return len(d)
	case []int16:
		return len(d)
	case []uint16:
		return len(d)
	case []int32:
		return len(d)
	case []uint32:
		return len(d)
	case []int64:
		return len(d)
	case []uint64:
		return len(d)
	case []bool:
		return len(d)
	case []string:
		return len(d)
	default:
		return -1
	}
}

// Validate checks that Data matches Type and that the element count agrees
// with Shape.
func (b Buffer) Validate() error {
	if !b.Type.Hosted() {
		return ErrUnsupportedType(b.Type.String())
	}
	if !dataMatches(b.Type, b.Data) {
		return fmt.Errorf("buffer data %T does not hold %s elements", b.Data, b.Type)
	}
	want, err := b.Shape.ElementCount()
	if err != nil {
		return shapeMismatchError{shape: b.Shape, msg: err.Error()}
	}
	// The runtime sizes tensors in bytes.
	if size := int64(b.Type.Size()); size > 0 && want > math.MaxInt64/size {
		return shapeMismatchError{shape: b.Shape, msg: "byte size overflows"}
	}
	if got := int64(b.Len()); got != want {
		return shapeMismatchError{shape: b.Shape, count: got, want: want}
	}
	return nil
}

// Clone returns a deep copy of the buffer.
func (b Buffer) Clone() Buffer {
	return Buffer{Type: b.Type, Shape: b.Shape.Clone(), Data: cloneData(b.Data)}
}

func dataMatches(t ElementType, data any) bool {
	switch data.(type) {
	case []float32:
		return t == Float32
	case []float64:
		return t == Float64
	case []int8:
		return t == Int8
	case []uint8:
		return t == Uint8
	case []int16:
		return t == Int16
	case []uint16:
		return t == Uint16 || t == Float16 || t == BFloat16
	case []int32:
		return t == Int32
	case []uint32:
		return t == Uint32
	case []int64:
		return t == Int64
	case []uint64:
		return t == Uint64
	case []bool:
		return t == Bool
	case []string:
		return t == String
	default:
		return false
	}
}

func cloneData(data any) any {
	switch d := data.(type) {
	case []float32:
		return append([]float32{}, d...)
	case []float64:
		return append([]float64{}, d...)
	case []int8:
		return append([]int8{}, d...)
	case []uint8:
		return append([]uint8{}, d...)
	case []int16:
		return append([]int16{}, d...)
	case []uint16:
		return append([]uint16{}, d...)
	case []int32:
		return append([]int32{}, d...)
	case []uint32:
		return append([]uint32{}, d...)
	case []int64:
		return append([]int64{}, d...)
	case []uint64:
		return append([]uint64{}, d...)
	case []bool:
		return append([]bool{}, d...)
	case []string:
		return append([]string{}, d...)
	default:
		return data
	}
}
