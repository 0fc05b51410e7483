package bridge

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"ortbridge/pkg/types"
)

// Handler serves one method.
type Handler func(ctx context.Context, args Args) (any, error)

// Dispatcher routes named calls to handlers and turns their errors into
// in-band MethodErrors.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	log      zerolog.Logger
	calls    atomic.Uint64
}

// NewDispatcher returns an empty dispatcher logging to log.
func NewDispatcher(log zerolog.Logger) *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler), log: log}
}

// Register installs h under name. It panics on an empty name or a duplicate
// registration.
func (d *Dispatcher) Register(name string, h Handler) {
	if name == "" || h == nil {
		panic("bridge: invalid handler registration")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, dup := d.handlers[name]; dup {
		panic("bridge: duplicate handler for " + name)
	}
	d.handlers[name] = h
}

// Methods returns the registered method names in sorted order.
func (d *Dispatcher) Methods() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Calls returns the number of calls dispatched so far.
func (d *Dispatcher) Calls() uint64 { return d.calls.Load() }

// Dispatch runs call and always returns a result envelope carrying call.ID.
func (d *Dispatcher) Dispatch(ctx context.Context, call types.MethodCall) types.MethodResult {
	d.calls.Add(1)
	res := types.MethodResult{ID: call.ID}
	log := d.logger(ctx).With().Str("method", call.Method).Logger()

	d.mu.RLock()
	h := d.handlers[call.Method]
	d.mu.RUnlock()
	if h == nil {
		res.NotImplemented = true
		callsTotal.WithLabelValues(call.Method, codeNotImplemented).Inc()
		log.Debug().Msg("method not implemented")
		return res
	}

	start := time.Now()
	out, err := invoke(ctx, h, Args(call.Args))
	dur := time.Since(start)
	callDuration.WithLabelValues(call.Method).Observe(dur.Seconds())
	if err != nil {
		res.Error = toMethodError(err)
		callsTotal.WithLabelValues(call.Method, res.Error.Code).Inc()
		ev := log.Warn()
		if res.Error.Code == CodeGenericError {
			ev = log.Error()
		}
		ev.Str("code", res.Error.Code).Dur("dur", dur).Err(err).Msg("call failed")
		return res
	}
	res.Result = out
	callsTotal.WithLabelValues(call.Method, codeOK).Inc()
	log.Debug().Dur("dur", dur).Msg("call ok")
	return res
}

func invoke(ctx context.Context, h Handler, args Args) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = withCode(CodeGenericError, panicError{v: r})
		}
	}()
	if args == nil {
		args = Args{}
	}
	return h(ctx, args)
}

// logger prefers a request-scoped logger attached to ctx.
func (d *Dispatcher) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &d.log
}

