package registry

import (
	"context"
	"time"
)

// BeginRun reserves a queue slot and then a run slot on session id.
// Returns the entry and a release func to be deferred.
func (s *Sessions) BeginRun(ctx context.Context, id string) (*SessionEntry, func(), error) {
	noop := func() {}
	e, err := s.Get(id)
	if err != nil {
		return nil, noop, err
	}
	// Draining sessions accept no new work.
	e.mu.Lock()
	if e.state == StateDraining {
		e.mu.Unlock()
		return nil, noop, ErrSessionNotFound(id)
	}
	e.admitted.Add(1)
	e.mu.Unlock()

	acquired := false
	defer func() {
		if !acquired {
			e.admitted.Done()
		}
	}()

	// Fast path: respect an already-canceled context
	if err := ctx.Err(); err != nil {
		return nil, noop, err
	}
	start := time.Now()
	timer := time.NewTimer(s.cfg.MaxWait)
	defer timer.Stop()
	select {
	case e.queueCh <- struct{}{}:
		// reserved queue slot
	case <-ctx.Done():
		return nil, noop, ctx.Err()
	case <-timer.C:
		return nil, noop, s.rejectBusy(e, "queue")
	}

	// Wait to acquire a run slot
	defer func() {
		if !acquired {
			<-e.queueCh
		}
	}()
	if err := ctx.Err(); err != nil {
		return nil, noop, err
	}
	timer2 := time.NewTimer(s.cfg.MaxWait)
	defer timer2.Stop()
	select {
	case e.genCh <- struct{}{}:
	case <-ctx.Done():
		return nil, noop, ctx.Err()
	case <-timer2.C:
		return nil, noop, s.rejectBusy(e, "run")
	}

	e.mu.Lock()
	if e.state == StateDraining {
		e.mu.Unlock()
		<-e.genCh
		return nil, noop, ErrSessionNotFound(id)
	}
	e.lastUsed = time.Now()
	e.mu.Unlock()
	admissionWait.Observe(time.Since(start).Seconds())

	acquired = true
	return e, func() {
		<-e.genCh
		<-e.queueCh
		e.mu.Lock()
		e.runs++
		e.mu.Unlock()
		e.admitted.Done()
	}, nil
}

func (s *Sessions) rejectBusy(e *SessionEntry, stage string) error {
	s.tooBusy.Add(1)
	tooBusyTotal.WithLabelValues(stage).Inc()
	s.cfg.Publisher.Publish(Event{Name: EventRunRejected, ID: e.ID, Fields: map[string]any{"stage": stage}})
	return tooBusyError{sessionID: e.ID}
}
