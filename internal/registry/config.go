package registry

import "time"

// Defaults applied when corresponding Config fields are unset.
const (
	defaultMaxQueueDepth     = 32
	defaultMaxWait           = 30 * time.Second
	defaultMaxConcurrentRuns = 1
	defaultDrainTimeout      = 5 * time.Second
)

// Config tunes session admission and teardown.
type Config struct {
	// MaxQueueDepth bounds callers waiting for or holding a run slot per session.
	MaxQueueDepth int
	// MaxConcurrentRuns bounds simultaneous runs per session.
	MaxConcurrentRuns int
	// MaxWait bounds how long a caller waits for a queue or run slot.
	MaxWait time.Duration
	// DrainTimeout bounds how long closeSession waits for admitted runs.
	DrainTimeout time.Duration
	Publisher    EventPublisher
}

func (c Config) withDefaults() Config {
	if c.MaxQueueDepth <= 0 {
		c.MaxQueueDepth = defaultMaxQueueDepth
	}
	if c.MaxConcurrentRuns <= 0 {
		c.MaxConcurrentRuns = defaultMaxConcurrentRuns
	}
	if c.MaxConcurrentRuns > c.MaxQueueDepth {
		c.MaxConcurrentRuns = c.MaxQueueDepth
	}
	if c.MaxWait <= 0 {
		c.MaxWait = defaultMaxWait
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = defaultDrainTimeout
	}
	if c.Publisher == nil {
		c.Publisher = noopPublisher{}
	}
	return c
}
