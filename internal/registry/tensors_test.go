package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ortbridge/internal/engine"
	"ortbridge/internal/engine/enginetest"
)

func f32(shape engine.Shape, data ...float32) engine.Buffer {
	return engine.Buffer{Type: engine.Float32, Shape: shape, Data: data}
}

func TestTensorsCreateAndData(t *testing.T) {
	eng := enginetest.New()
	pub := NewMemoryPublisher()
	tr := NewTensors(eng, pub)

	e, err := tr.Create(f32(engine.Shape{1, 3}, 1, 2, 3))
	require.NoError(t, err)
	info := e.Info()
	assert.Equal(t, "float32", info.DataType)
	assert.Equal(t, []int64{1, 3}, info.Shape)
	assert.Equal(t, "cpu", info.Device)

	buf, err := tr.Data(e.ID)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, buf.Data)
	assert.Equal(t, 1, tr.Len())
	assert.Equal(t, 1, eng.LiveValues())
	assert.Equal(t, 1, pub.Count(EventValueCreated))
}

func TestTensorsCreateRejectsBadBuffers(t *testing.T) {
	eng := enginetest.New()
	tr := NewTensors(eng, nil)

	_, err := tr.Create(f32(engine.Shape{2, 2}, 1, 2, 3))
	assert.True(t, engine.IsShapeMismatch(err), "got %v", err)

	_, err = tr.Create(engine.Buffer{Type: engine.String, Shape: engine.Shape{1}, Data: []string{"x"}})
	assert.True(t, engine.IsUnsupportedType(err), "got %v", err)

	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, 0, eng.LiveValues())
}

func TestTensorsReleaseIsIdempotent(t *testing.T) {
	eng := enginetest.New()
	pub := NewMemoryPublisher()
	tr := NewTensors(eng, pub)
	e, err := tr.Create(f32(engine.Shape{1}, 1))
	require.NoError(t, err)

	ok, err := tr.Release(e.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = tr.Release(e.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = tr.Data(e.ID)
	assert.True(t, IsValueNotFound(err))
	assert.Equal(t, 0, eng.LiveValues())
	assert.Equal(t, 1, pub.Count(EventValueReleased))
}

func TestTensorsReleaseWhilePinned(t *testing.T) {
	eng := enginetest.New()
	tr := NewTensors(eng, nil)
	a, err := tr.Create(f32(engine.Shape{1}, 1))
	require.NoError(t, err)
	b, err := tr.Create(f32(engine.Shape{1}, 2))
	require.NoError(t, err)

	entries, unpin, err := tr.Acquire(a.ID, b.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	ok, err := tr.Release(a.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	// Released ids disappear immediately but the value survives until unpinned.
	_, err = tr.Get(a.ID)
	assert.True(t, IsValueNotFound(err))
	assert.Equal(t, 2, eng.LiveValues())
	buf, err := entries[0].Value.Buffer()
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, buf.Data)

	unpin()
	unpin()
	assert.Equal(t, 1, eng.LiveValues())
}

func TestTensorsAcquireUnknownPinsNothing(t *testing.T) {
	eng := enginetest.New()
	tr := NewTensors(eng, nil)
	a, err := tr.Create(f32(engine.Shape{1}, 1))
	require.NoError(t, err)

	_, unpin, err := tr.Acquire(a.ID, "missing")
	assert.True(t, IsValueNotFound(err))
	unpin()

	ok, err := tr.Release(a.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, eng.LiveValues())
}

func TestTensorsConvert(t *testing.T) {
	eng := enginetest.New()
	tr := NewTensors(eng, nil)
	src, err := tr.Create(f32(engine.Shape{3}, 1.5, -2, 3))
	require.NoError(t, err)

	same, err := tr.Convert(src.ID, engine.Float32)
	require.NoError(t, err)
	assert.Equal(t, src.ID, same.ID)

	dst, err := tr.Convert(src.ID, engine.Float64)
	require.NoError(t, err)
	assert.NotEqual(t, src.ID, dst.ID)
	assert.Equal(t, "float64", dst.Info().DataType)
	buf, err := tr.Data(dst.ID)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -2, 3}, buf.Data)

	// Source stays live.
	_, err = tr.Get(src.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, tr.Len())

	_, err = tr.Convert(src.ID, engine.String)
	assert.True(t, engine.IsUnsupportedType(err), "got %v", err)
	_, err = tr.Convert("missing", engine.Float64)
	assert.True(t, IsValueNotFound(err))
}

func TestTensorsMoveToDevice(t *testing.T) {
	tr := NewTensors(enginetest.New(), nil)
	e, err := tr.Create(f32(engine.Shape{1}, 1))
	require.NoError(t, err)

	moved, err := tr.MoveToDevice(e.ID, " CPU ")
	require.NoError(t, err)
	assert.Equal(t, e.ID, moved.ID)

	_, err = tr.MoveToDevice(e.ID, "cuda")
	assert.True(t, IsUnsupportedDevice(err))
	_, err = tr.MoveToDevice("missing", "cpu")
	assert.True(t, IsValueNotFound(err))
}

func TestTensorsReleaseAll(t *testing.T) {
	eng := enginetest.New()
	tr := NewTensors(eng, nil)
	for i := 0; i < 4; i++ {
		_, err := tr.Create(f32(engine.Shape{1}, float32(i)))
		require.NoError(t, err)
	}
	assert.Equal(t, 4, tr.ReleaseAll())
	assert.Equal(t, 0, tr.Len())
	assert.Equal(t, 0, eng.LiveValues())

	_, err := tr.Create(f32(engine.Shape{1}, 1))
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 0, eng.LiveValues())
}
