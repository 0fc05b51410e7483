package registry

import (
	"sync"

	"github.com/rs/zerolog"
)

// Lifecycle event names.
const (
	EventSessionCreated = "session_created"
	EventSessionClosed  = "session_closed"
	EventValueCreated   = "value_created"
	EventValueReleased  = "value_released"
	EventRunRejected    = "run_rejected"
)

// Event represents a registry lifecycle event.
// Minimal and stable: name + object ID and optional fields.
type Event struct {
	Name   string
	ID     string
	Fields map[string]any
}

// EventPublisher receives events from the registries. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// MemoryPublisher stores events in-memory for tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

func (p *MemoryPublisher) Publish(e Event) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// Count returns how many events named name were published.
func (p *MemoryPublisher) Count(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Name == name {
			n++
		}
	}
	return n
}

// LogPublisher writes events to a zerolog logger at debug level.
type LogPublisher struct {
	Log zerolog.Logger
}

func (p LogPublisher) Publish(e Event) {
	ev := p.Log.Debug().Str("event", e.Name).Str("id", e.ID)
	for k, v := range e.Fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg("registry event")
}
