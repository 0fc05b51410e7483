package registry

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"ortbridge/internal/engine"
	"ortbridge/pkg/types"
)

// State represents the lifecycle state of a session entry.
type State string

const (
	StateReady    State = "ready"
	StateDraining State = "draining"
)

// SessionEntry owns one engine session.
type SessionEntry struct {
	ID        string
	ModelPath string
	Session   engine.Session
	Created   time.Time

	inputNames  []string
	outputNames []string

	mu       sync.Mutex
	state    State
	lastUsed time.Time
	runs     uint64

	// Queueing primitives
	genCh   chan struct{} // buffered to MaxConcurrentRuns: in-flight runs
	queueCh chan struct{} // buffered to MaxQueueDepth: queue slots
	// admitted counts callers between admission and release.
	admitted  sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// InputNames returns the model input names in declaration order.
func (e *SessionEntry) InputNames() []string { return append([]string(nil), e.inputNames...) }

// OutputNames returns the model output names in declaration order.
func (e *SessionEntry) OutputNames() []string { return append([]string(nil), e.outputNames...) }

func (e *SessionEntry) close() error {
	e.closeOnce.Do(func() { e.closeErr = e.Session.Close() })
	return e.closeErr
}

func (e *SessionEntry) status() types.SessionStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := types.SessionStatus{
		SessionID:     e.ID,
		ModelPath:     e.ModelPath,
		State:         string(e.state),
		CreatedUnix:   e.Created.Unix(),
		Runs:          e.runs,
		QueueLen:      len(e.queueCh),
		Inflight:      len(e.genCh),
		MaxQueueDepth: cap(e.queueCh),
	}
	if !e.lastUsed.IsZero() {
		st.LastUsed = e.lastUsed.Unix()
	}
	return st
}

// Sessions maps opaque ids to engine sessions.
type Sessions struct {
	mu      sync.RWMutex
	eng     engine.Engine
	entries map[string]*SessionEntry
	closed  bool

	cfg     Config
	tooBusy atomic.Uint64

	// deferred tracks closes that outlived DrainTimeout.
	deferred sync.WaitGroup
	pending  atomic.Int64
}

// NewSessions constructs a session registry backed by eng.
func NewSessions(eng engine.Engine, cfg Config) *Sessions {
	return &Sessions{eng: eng, entries: make(map[string]*SessionEntry), cfg: cfg.withDefaults()}
}

// Create opens modelPath and registers the session under a new id.
func (s *Sessions) Create(ctx context.Context, modelPath string, opts engine.SessionOptions) (*SessionEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, ErrClosed
	}
	sess, err := s.eng.NewSession(modelPath, opts)
	if err != nil {
		return nil, err
	}
	e := &SessionEntry{
		ID:        uuid.NewString(),
		ModelPath: modelPath,
		Session:   sess,
		Created:   time.Now(),
		state:     StateReady,
		genCh:     make(chan struct{}, s.cfg.MaxConcurrentRuns),
		queueCh:   make(chan struct{}, s.cfg.MaxQueueDepth),
	}
	for _, in := range sess.Inputs() {
		e.inputNames = append(e.inputNames, in.Name)
	}
	for _, out := range sess.Outputs() {
		e.outputNames = append(e.outputNames, out.Name)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = sess.Close()
		return nil, ErrClosed
	}
	s.entries[e.ID] = e
	s.mu.Unlock()

	liveSessions.Inc()
	s.cfg.Publisher.Publish(Event{Name: EventSessionCreated, ID: e.ID, Fields: map[string]any{"model_path": modelPath}})
	return e, nil
}

// Get returns the live session registered under id.
func (s *Sessions) Get(id string) (*SessionEntry, error) {
	s.mu.RLock()
	e := s.entries[id]
	s.mu.RUnlock()
	if e == nil {
		return nil, ErrSessionNotFound(id)
	}
	return e, nil
}

// Close unregisters id and destroys its session once admitted runs finish.
// Closing an unknown or already closed id is a no-op and reports false.
func (s *Sessions) Close(id string) (bool, error) {
	s.mu.Lock()
	e := s.entries[id]
	delete(s.entries, id)
	s.mu.Unlock()
	if e == nil {
		return false, nil
	}
	liveSessions.Dec()
	return true, s.drainAndClose(e)
}

func (s *Sessions) drainAndClose(e *SessionEntry) error {
	e.mu.Lock()
	e.state = StateDraining
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.admitted.Wait()
		close(done)
	}()
	timer := time.NewTimer(s.cfg.DrainTimeout)
	defer timer.Stop()
	select {
	case <-done:
		err := e.close()
		s.cfg.Publisher.Publish(Event{Name: EventSessionClosed, ID: e.ID})
		return err
	case <-timer.C:
		// Runs still hold native memory; finish the close when they return.
		s.deferred.Add(1)
		s.pending.Add(1)
		go func() {
			defer s.deferred.Done()
			defer s.pending.Add(-1)
			<-done
			_ = e.close()
			s.cfg.Publisher.Publish(Event{Name: EventSessionClosed, ID: e.ID, Fields: map[string]any{"deferred": true}})
		}()
		return nil
	}
}

// CloseAll tears down every session and rejects further creates. Closes
// deferred past DrainTimeout, including earlier ones from Close, are awaited
// for at most one more DrainTimeout.
func (s *Sessions) CloseAll() int {
	s.mu.Lock()
	s.closed = true
	entries := make([]*SessionEntry, 0, len(s.entries))
	for id, e := range s.entries {
		entries = append(entries, e)
		delete(s.entries, id)
	}
	s.mu.Unlock()
	for _, e := range entries {
		liveSessions.Dec()
		_ = s.drainAndClose(e)
	}
	s.waitDeferred(s.cfg.DrainTimeout)
	return len(entries)
}

// waitDeferred waits up to timeout for deferred closes to finish.
func (s *Sessions) waitDeferred(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.deferred.Wait()
		close(done)
	}()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

// PendingCloses returns the number of deferred closes still waiting on runs.
func (s *Sessions) PendingCloses() int { return int(s.pending.Load()) }

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// TooBusyTotal returns the number of runs rejected by admission control.
func (s *Sessions) TooBusyTotal() uint64 { return s.tooBusy.Load() }

// List returns status for every live session ordered by creation time.
func (s *Sessions) List() []types.SessionStatus {
	s.mu.RLock()
	entries := make([]*SessionEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()
	sort.Slice(entries, func(i, j int) bool { return entries[i].Created.Before(entries[j].Created) })
	out := make([]types.SessionStatus, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.status())
	}
	return out
}
