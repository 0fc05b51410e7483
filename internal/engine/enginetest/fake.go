// Package enginetest provides an in-memory engine for tests.
package enginetest

import (
	"context"
	"errors"
	"sync"

	"ortbridge/internal/engine"
)

// RunFunc computes output buffers from input buffers.
type RunFunc func(ctx context.Context, inputs map[string]engine.Buffer) (map[string]engine.Buffer, error)

// Model describes a fake model reachable at a path.
type Model struct {
	Inputs   []engine.NodeInfo
	Outputs  []engine.NodeInfo
	Metadata engine.ModelMetadata
	// OnMetadata, when set, runs after Metadata has read the model and
	// before it returns.
	OnMetadata func()
	// Run defaults to echoing the first declared input into every output.
	Run RunFunc
}

// Engine is a fake engine. Values live in Go memory and are counted so tests
// can assert that every value was destroyed.
type Engine struct {
	mu            sync.Mutex
	models        map[string]*Model
	sessions      []*Session
	liveValues    int
	ProviderNames []string
	// SessionErr, when set, is returned by NewSession.
	SessionErr error
}

// New returns a fake engine with no models.
func New() *Engine {
	return &Engine{models: map[string]*Model{}, ProviderNames: []string{"CPU"}}
}

// AddModel registers a model at path.
func (e *Engine) AddModel(path string, m *Model) {
	e.mu.Lock()
	e.models[path] = m
	e.mu.Unlock()
}

// Sessions returns every session opened so far.
func (e *Engine) Sessions() []*Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Session(nil), e.sessions...)
}

// LiveValues returns the number of values not yet destroyed.
func (e *Engine) LiveValues() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.liveValues
}

func (e *Engine) Name() string        { return "fake" }
func (e *Engine) Version() string     { return "0.0.0" }
func (e *Engine) Providers() []string { return append([]string(nil), e.ProviderNames...) }
func (e *Engine) Close() error        { return nil }

func (e *Engine) NewSession(path string, opts engine.SessionOptions) (engine.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.SessionErr != nil {
		return nil, e.SessionErr
	}
	m, ok := e.models[path]
	if !ok {
		return nil, engine.ErrRuntime(errors.New("load model: no such file " + path))
	}
	s := &Session{eng: e, model: m, Options: opts}
	e.sessions = append(e.sessions, s)
	return s, nil
}

func (e *Engine) NewValue(buf engine.Buffer) (engine.Value, error) {
	v, err := engine.NewHostValue(buf)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.liveValues++
	e.mu.Unlock()
	return &value{Value: v, eng: e}, nil
}

type value struct {
	engine.Value
	eng  *Engine
	once sync.Once
}

func (v *value) Destroy() error {
	v.once.Do(func() {
		v.eng.mu.Lock()
		v.eng.liveValues--
		v.eng.mu.Unlock()
	})
	return v.Value.Destroy()
}

// Session is a fake session.
type Session struct {
	eng     *Engine
	model   *Model
	Options engine.SessionOptions

	mu            sync.Mutex
	closed        bool
	closeCount    int
	runs          int
	metadataCalls int
	lastRunOpts   engine.RunOptions
}

func (s *Session) Inputs() []engine.NodeInfo  { return append([]engine.NodeInfo(nil), s.model.Inputs...) }
func (s *Session) Outputs() []engine.NodeInfo { return append([]engine.NodeInfo(nil), s.model.Outputs...) }

func (s *Session) Metadata() (engine.ModelMetadata, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return engine.ModelMetadata{}, engine.ErrClosed
	}
	s.metadataCalls++
	md, hook := s.model.Metadata, s.model.OnMetadata
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return md, nil
}

func (s *Session) Run(ctx context.Context, inputs map[string]engine.Value, outputNames []string, opts engine.RunOptions) (map[string]engine.Value, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, engine.ErrClosed
	}
	s.lastRunOpts = opts
	s.mu.Unlock()

	in := make(map[string]engine.Buffer, len(inputs))
	for name, v := range inputs {
		b, err := v.Buffer()
		if err != nil {
			return nil, err
		}
		in[name] = b
	}
	run := s.model.Run
	if run == nil {
		run = s.echo
	}
	out, err := run(ctx, in)
	if err != nil {
		return nil, err
	}
	want := map[string]bool{}
	for _, n := range outputNames {
		want[n] = true
	}
	res := make(map[string]engine.Value, len(out))
	for name, b := range out {
		if len(want) > 0 && !want[name] {
			continue
		}
		v, err := s.eng.NewValue(b)
		if err != nil {
			for _, r := range res {
				r.Destroy()
			}
			return nil, err
		}
		res[name] = v
	}
	s.mu.Lock()
	s.runs++
	s.mu.Unlock()
	return res, nil
}

func (s *Session) echo(ctx context.Context, in map[string]engine.Buffer) (map[string]engine.Buffer, error) {
	if len(s.model.Inputs) == 0 {
		return nil, nil
	}
	src, ok := in[s.model.Inputs[0].Name]
	if !ok {
		return nil, errors.New("missing input " + s.model.Inputs[0].Name)
	}
	out := make(map[string]engine.Buffer, len(s.model.Outputs))
	for _, o := range s.model.Outputs {
		out[o.Name] = src.Clone()
	}
	return out, nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	s.closed = true
	s.closeCount++
	s.mu.Unlock()
	return nil
}

// Closed reports whether Close was called and how many times.
func (s *Session) Closed() (bool, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed, s.closeCount
}

// Runs returns the number of completed runs.
func (s *Session) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

// MetadataCalls returns how many times Metadata was queried.
func (s *Session) MetadataCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metadataCalls
}

// LastRunOptions returns the options passed to the most recent run.
func (s *Session) LastRunOptions() engine.RunOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunOpts
}

// SimpleModel is a one-input/one-output float32 model.
func SimpleModel() *Model {
	return &Model{
		Inputs:  []engine.NodeInfo{{Name: "input", Shape: engine.Shape{-1, 3}, Type: engine.Float32, IsTensor: true}},
		Outputs: []engine.NodeInfo{{Name: "output", Shape: engine.Shape{-1, 3}, Type: engine.Float32, IsTensor: true}},
		Metadata: engine.ModelMetadata{
			ProducerName: "pytorch",
			GraphName:    "main_graph",
			Domain:       "ai.test",
			Description:  "echo model",
			Version:      3,
			Custom:       map[string]string{"author": "tests"},
		},
	}
}
