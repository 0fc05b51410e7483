package registry

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ortbridge/internal/engine"
	"ortbridge/internal/valueconv"
	"ortbridge/pkg/types"
)

// TensorEntry owns one engine value. Type, Shape and Device are cached at
// registration so metadata queries never touch the value.
type TensorEntry struct {
	ID      string
	Value   engine.Value
	Type    engine.ElementType
	Shape   engine.Shape
	Device  string
	Created time.Time

	// guarded by Tensors.mu
	refs     int
	released bool
}

// Info returns the wire description of the entry.
func (e *TensorEntry) Info() types.ValueInfo {
	return types.ValueInfo{ValueID: e.ID, DataType: e.Type.String(), Shape: []int64(e.Shape.Clone()), Device: e.Device}
}

// Tensors maps opaque ids to engine values. Values in use by a run or a data
// read are reference counted so a concurrent release defers destruction until
// the last user is done.
type Tensors struct {
	mu      sync.Mutex
	eng     engine.Engine
	entries map[string]*TensorEntry
	closed  bool
	pub     EventPublisher
}

// NewTensors constructs a tensor registry backed by eng.
func NewTensors(eng engine.Engine, pub EventPublisher) *Tensors {
	if pub == nil {
		pub = noopPublisher{}
	}
	return &Tensors{eng: eng, entries: make(map[string]*TensorEntry), pub: pub}
}

// Create validates buf, copies it into a new engine value and registers it.
func (t *Tensors) Create(buf engine.Buffer) (*TensorEntry, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}
	v, err := t.eng.NewValue(buf)
	if err != nil {
		return nil, err
	}
	return t.register(v)
}

// Adopt registers a value produced by the engine (e.g., a run output).
// Ownership passes to the registry.
func (t *Tensors) Adopt(v engine.Value) (*TensorEntry, error) { return t.register(v) }

func (t *Tensors) register(v engine.Value) (*TensorEntry, error) {
	e := &TensorEntry{
		ID:      uuid.NewString(),
		Value:   v,
		Type:    v.Type(),
		Shape:   v.Shape(),
		Device:  v.Device(),
		Created: time.Now(),
	}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		_ = v.Destroy()
		return nil, ErrClosed
	}
	t.entries[e.ID] = e
	t.mu.Unlock()
	liveValues.Inc()
	t.pub.Publish(Event{Name: EventValueCreated, ID: e.ID, Fields: map[string]any{"type": e.Type.String(), "shape": []int64(e.Shape)}})
	return e, nil
}

// Get returns the entry registered under id.
func (t *Tensors) Get(id string) (*TensorEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.entries[id]
	if e == nil {
		return nil, ErrValueNotFound(id)
	}
	return e, nil
}

// Acquire pins the values for ids and returns a func that unpins them.
// Fails without pinning anything if any id is unknown.
func (t *Tensors) Acquire(ids ...string) ([]*TensorEntry, func(), error) {
	t.mu.Lock()
	out := make([]*TensorEntry, 0, len(ids))
	for _, id := range ids {
		e := t.entries[id]
		if e == nil {
			t.mu.Unlock()
			return nil, func() {}, ErrValueNotFound(id)
		}
		out = append(out, e)
	}
	for _, e := range out {
		e.refs++
	}
	t.mu.Unlock()

	var once sync.Once
	return out, func() {
		once.Do(func() {
			var dead []*TensorEntry
			t.mu.Lock()
			for _, e := range out {
				e.refs--
				if e.refs == 0 && e.released {
					dead = append(dead, e)
				}
			}
			t.mu.Unlock()
			for _, e := range dead {
				t.destroy(e)
			}
		})
	}, nil
}

// Data returns a host copy of the value's contents.
func (t *Tensors) Data(id string) (engine.Buffer, error) {
	entries, release, err := t.Acquire(id)
	if err != nil {
		return engine.Buffer{}, err
	}
	defer release()
	return entries[0].Value.Buffer()
}

// Convert returns an entry holding id's contents as target. Converting to
// the current type returns the same entry; otherwise a new value is
// registered and the source stays live.
func (t *Tensors) Convert(id string, target engine.ElementType) (*TensorEntry, error) {
	entries, release, err := t.Acquire(id)
	if err != nil {
		return nil, err
	}
	defer release()
	src := entries[0]
	if src.Type == target {
		return src, nil
	}
	buf, err := src.Value.Buffer()
	if err != nil {
		return nil, err
	}
	out, err := valueconv.Cast(buf, target)
	if err != nil {
		return nil, err
	}
	return t.Create(out)
}

// MoveToDevice places id on device. Only host memory is supported, so moving
// to "cpu" returns the same entry.
func (t *Tensors) MoveToDevice(id, device string) (*TensorEntry, error) {
	e, err := t.Get(id)
	if err != nil {
		return nil, err
	}
	if strings.ToLower(strings.TrimSpace(device)) != e.Device {
		return nil, unsupportedDeviceError{device: device}
	}
	return e, nil
}

// Release unregisters id. Releasing an unknown or already released id is a
// no-op and reports false.
func (t *Tensors) Release(id string) (bool, error) {
	t.mu.Lock()
	e := t.entries[id]
	if e == nil {
		t.mu.Unlock()
		return false, nil
	}
	delete(t.entries, id)
	e.released = true
	pinned := e.refs > 0
	t.mu.Unlock()
	liveValues.Dec()
	if pinned {
		return true, nil
	}
	return true, t.destroy(e)
}

func (t *Tensors) destroy(e *TensorEntry) error {
	err := e.Value.Destroy()
	t.pub.Publish(Event{Name: EventValueReleased, ID: e.ID})
	return err
}

// ReleaseAll tears down every value and rejects further registrations.
func (t *Tensors) ReleaseAll() int {
	t.mu.Lock()
	t.closed = true
	var now []*TensorEntry
	n := len(t.entries)
	for id, e := range t.entries {
		delete(t.entries, id)
		e.released = true
		if e.refs == 0 {
			now = append(now, e)
		}
	}
	t.mu.Unlock()
	liveValues.Sub(float64(n))
	for _, e := range now {
		_ = t.destroy(e)
	}
	return n
}

// Len returns the number of live values.
func (t *Tensors) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
