//go:build onnx

package engine

import (
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// ortValue wraps a runtime tensor with its element type and shape cached.
type ortValue struct {
	mu    sync.Mutex
	v     ort.Value
	typ   ElementType
	shape Shape
}

func (e *ortEngine) NewValue(buf Buffer) (Value, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	v, err := newOrtTensor(buf.Clone())
	if err != nil {
		return nil, err
	}
	return &ortValue{v: v, typ: buf.Type, shape: buf.Shape.Clone()}, nil
}

// newOrtTensor hands buf.Data to the runtime; buf must not be reused.
func newOrtTensor(buf Buffer) (ort.Value, error) {
	shape := ort.Shape(buf.Shape.Clone())
	var (
		v   ort.Value
		err error
	)
	switch d := buf.Data.(type) {
	case []float32:
		v, err = ort.NewTensor(shape, d)
	case []float64:
		v, err = ort.NewTensor(shape, d)
	case []int8:
		v, err = ort.NewTensor(shape, d)
	case []uint8:
		v, err = ort.NewTensor(shape, d)
	case []int16:
		v, err = ort.NewTensor(shape, d)
	case []uint16:
		switch buf.Type {
		case Float16:
			v, err = ort.NewCustomDataTensor(shape, packUint16(d), ort.TensorElementDataTypeFloat16)
		case BFloat16:
			v, err = ort.NewCustomDataTensor(shape, packUint16(d), ort.TensorElementDataTypeBFloat16)
		default:
			v, err = ort.NewTensor(shape, d)
		}
	case []int32:
		v, err = ort.NewTensor(shape, d)
	case []uint32:
		v, err = ort.NewTensor(shape, d)
	case []int64:
		v, err = ort.NewTensor(shape, d)
	case []uint64:
		v, err = ort.NewTensor(shape, d)
	case []bool:
		v, err = ort.NewTensor(shape, d)
	case []string:
		var st *ort.StringTensor
		if st, err = ort.NewStringTensor(shape); err == nil {
			if err = st.SetContents(d); err != nil {
				st.Destroy()
			} else {
				v = st
			}
		}
	default:
		return nil, ErrUnsupportedType(buf.Type.String())
	}
	if err != nil {
		return nil, ErrRuntime(errors.Wrapf(err, "create %s tensor", buf.Type))
	}
	return v, nil
}

// asOrtValue returns the runtime value behind v. Host values are copied into
// a temporary runtime tensor and tmp is true.
func asOrtValue(v Value) (ov ort.Value, tmp bool, err error) {
	if w, ok := v.(*ortValue); ok {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.v == nil {
			return nil, false, ErrClosed
		}
		return w.v, false, nil
	}
	buf, err := v.Buffer()
	if err != nil {
		return nil, false, err
	}
	ov, err = newOrtTensor(buf)
	return ov, err == nil, err
}

// wrapOrtValue adopts a runtime-allocated output. hint is the element type
// declared by the model, used for tensors without a Go element type.
func wrapOrtValue(v ort.Value, hint ElementType) (*ortValue, error) {
	if v.GetONNXType() != ort.ONNXTypeTensor {
		return nil, errors.New("non-tensor outputs are not supported")
	}
	typ, err := ortElementType(v, hint)
	if err != nil {
		return nil, err
	}
	return &ortValue{v: v, typ: typ, shape: Shape(v.GetShape()).Clone()}, nil
}

func ortElementType(v ort.Value, hint ElementType) (ElementType, error) {
	switch t := v.(type) {
	case *ort.Tensor[float32]:
		return Float32, nil
	case *ort.Tensor[float64]:
		return Float64, nil
	case *ort.Tensor[int8]:
		return Int8, nil
	case *ort.Tensor[uint8]:
		return Uint8, nil
	case *ort.Tensor[int16]:
		return Int16, nil
	case *ort.Tensor[uint16]:
		return Uint16, nil
	case *ort.Tensor[int32]:
		return Int32, nil
	case *ort.Tensor[uint32]:
		return Uint32, nil
	case *ort.Tensor[int64]:
		return Int64, nil
	case *ort.Tensor[uint64]:
		return Uint64, nil
	case *ort.Tensor[bool]:
		return Bool, nil
	case *ort.StringTensor:
		return String, nil
	case *ort.CustomDataTensor:
		return customElementType(hint, len(t.GetData()), Shape(t.GetShape()))
	default:
		return Undefined, errors.Errorf("unsupported runtime value %T", v)
	}
}

func (v *ortValue) Type() ElementType { return v.typ }
func (v *ortValue) Shape() Shape      { return v.shape.Clone() }
func (v *ortValue) Device() string    { return DeviceCPU }

func (v *ortValue) Buffer() (Buffer, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.v == nil {
		return Buffer{}, ErrClosed
	}
	buf := Buffer{Type: v.typ, Shape: v.shape.Clone()}
	switch t := v.v.(type) {
	case *ort.Tensor[float32]:
		buf.Data = append([]float32{}, t.GetData()...)
	case *ort.Tensor[float64]:
		buf.Data = append([]float64{}, t.GetData()...)
	case *ort.Tensor[int8]:
		buf.Data = append([]int8{}, t.GetData()...)
	case *ort.Tensor[uint8]:
		buf.Data = append([]uint8{}, t.GetData()...)
	case *ort.Tensor[int16]:
		buf.Data = append([]int16{}, t.GetData()...)
	case *ort.Tensor[uint16]:
		buf.Data = append([]uint16{}, t.GetData()...)
	case *ort.Tensor[int32]:
		buf.Data = append([]int32{}, t.GetData()...)
	case *ort.Tensor[uint32]:
		buf.Data = append([]uint32{}, t.GetData()...)
	case *ort.Tensor[int64]:
		buf.Data = append([]int64{}, t.GetData()...)
	case *ort.Tensor[uint64]:
		buf.Data = append([]uint64{}, t.GetData()...)
	case *ort.Tensor[bool]:
		buf.Data = append([]bool{}, t.GetData()...)
	case *ort.StringTensor:
		s, err := t.GetContents()
		if err != nil {
			return Buffer{}, ErrRuntime(errors.Wrap(err, "read string tensor"))
		}
		buf.Data = s
	case *ort.CustomDataTensor:
		raw := t.GetData()
		if v.typ == Bool {
			buf.Data = bytesToBools(raw)
		} else {
			buf.Data = unpackUint16(raw)
		}
	default:
		return Buffer{}, ErrRuntime(errors.Errorf("unsupported runtime value %T", v.v))
	}
	if err := buf.Validate(); err != nil {
		return Buffer{}, ErrRuntime(errors.Wrapf(err, "%s tensor contents", v.typ))
	}
	return buf, nil
}

func (v *ortValue) Destroy() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.v == nil {
		return nil
	}
	err := v.v.Destroy()
	v.v = nil
	if err != nil {
		return ErrRuntime(errors.Wrap(err, "destroy value"))
	}
	return nil
}
