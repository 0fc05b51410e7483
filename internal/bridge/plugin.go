package bridge

import (
	"context"
	"errors"
	"maps"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"ortbridge/internal/engine"
	"ortbridge/internal/registry"
	"ortbridge/pkg/types"
)

const defaultMetadataTTL = 10 * time.Minute

// Config wires a Plugin.
type Config struct {
	Engine engine.Engine
	// Models resolves model references; nil accepts file paths only.
	Models   *registry.Models
	Registry registry.Config
	// MetadataTTL bounds how long getMetadata results are cached per session.
	MetadataTTL time.Duration
	Logger      zerolog.Logger
}

// Plugin owns the engine, both registries and the method table.
type Plugin struct {
	eng      engine.Engine
	sessions *registry.Sessions
	tensors  *registry.Tensors
	models   *registry.Models
	disp     *Dispatcher
	log      zerolog.Logger

	meta    *ttlcache.Cache[string, types.ModelMetadata]
	metaSF  singleflight.Group
	started time.Time
	closed  atomic.Bool
}

// NewPlugin builds a plugin and registers every method.
func NewPlugin(cfg Config) (*Plugin, error) {
	if cfg.Engine == nil {
		return nil, errors.New("bridge: engine is required")
	}
	models := cfg.Models
	if models == nil {
		var err error
		if models, err = registry.NewModels(""); err != nil {
			return nil, err
		}
	}
	ttl := cfg.MetadataTTL
	if ttl <= 0 {
		ttl = defaultMetadataTTL
	}
	meta := ttlcache.New(
		ttlcache.WithTTL[string, types.ModelMetadata](ttl),
		ttlcache.WithDisableTouchOnHit[string, types.ModelMetadata](),
	)
	go meta.Start()

	p := &Plugin{
		eng:      cfg.Engine,
		sessions: registry.NewSessions(cfg.Engine, cfg.Registry),
		tensors:  registry.NewTensors(cfg.Engine, cfg.Registry.Publisher),
		models:   models,
		disp:     NewDispatcher(cfg.Logger),
		log:      cfg.Logger,
		meta:     meta,
		started:  time.Now(),
	}
	p.registerMethods()
	return p, nil
}

func (p *Plugin) registerMethods() {
	p.disp.Register("getPlatformVersion", p.getPlatformVersion)
	p.disp.Register("getAvailableProviders", p.getAvailableProviders)
	p.disp.Register("listModels", p.listModels)
	p.disp.Register("createSession", p.createSession)
	p.disp.Register("runInference", p.runInference)
	p.disp.Register("closeSession", p.closeSession)
	p.disp.Register("getMetadata", p.getMetadata)
	p.disp.Register("getInputInfo", p.getInputInfo)
	p.disp.Register("getOutputInfo", p.getOutputInfo)
	p.disp.Register("createOrtValue", p.createOrtValue)
	p.disp.Register("convertOrtValue", p.convertOrtValue)
	p.disp.Register("moveOrtValueToDevice", p.moveOrtValueToDevice)
	p.disp.Register("getOrtValueData", p.getOrtValueData)
	p.disp.Register("releaseOrtValue", p.releaseOrtValue)
}

// Dispatch runs one call. After Close every call fails with GENERIC_ERROR.
func (p *Plugin) Dispatch(ctx context.Context, call types.MethodCall) types.MethodResult {
	if p.closed.Load() {
		return types.MethodResult{ID: call.ID, Error: &types.MethodError{Code: CodeGenericError, Message: "plugin closed"}}
	}
	return p.disp.Dispatch(ctx, call)
}

// Methods lists the registered method names.
func (p *Plugin) Methods() []string { return p.disp.Methods() }

// Ready reports whether the plugin accepts calls.
func (p *Plugin) Ready() bool { return !p.closed.Load() }

// ListModels returns the indexed models.
func (p *Plugin) ListModels() []types.Model { return p.models.List() }

// Status builds a detailed status response for /status.
func (p *Plugin) Status() types.StatusResponse {
	return types.StatusResponse{
		Engine:         p.eng.Name(),
		EngineVersion:  p.eng.Version(),
		Providers:      p.eng.Providers(),
		Ready:          p.Ready(),
		Sessions:       p.sessions.List(),
		LiveValues:     p.tensors.Len(),
		CallsTotal:     p.disp.Calls(),
		TooBusyTotal:   p.sessions.TooBusyTotal(),
		UptimeSeconds:  int64(time.Since(p.started).Seconds()),
		ServerTimeUnix: time.Now().Unix(),
	}
}

// Close destroys every session and value. It is safe to call more than once.
func (p *Plugin) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	sessions := p.sessions.CloseAll()
	values := p.tensors.ReleaseAll()
	p.meta.Stop()
	p.meta.DeleteAll()
	if n := p.sessions.PendingCloses(); n > 0 {
		p.log.Warn().Int("pending", n).Msg("sessions still running at shutdown")
	}
	p.log.Info().Int("sessions", sessions).Int("values", values).Msg("bridge closed")
	return nil
}

// metadata returns the cached metadata for e, loading it at most once per
// TTL window even under concurrent callers.
func (p *Plugin) metadata(e *registry.SessionEntry) (types.ModelMetadata, error) {
	if item := p.meta.Get(e.ID); item != nil {
		metadataCacheTotal.WithLabelValues("hit").Inc()
		return item.Value(), nil
	}
	v, err, _ := p.metaSF.Do(e.ID, func() (any, error) {
		metadataCacheTotal.WithLabelValues("miss").Inc()
		md, err := e.Session.Metadata()
		if err != nil {
			return nil, err
		}
		out := types.ModelMetadata{
			ProducerName:      md.ProducerName,
			GraphName:         md.GraphName,
			Domain:            md.Domain,
			Description:       md.Description,
			Version:           md.Version,
			CustomMetadataMap: maps.Clone(md.Custom),
		}
		if out.CustomMetadataMap == nil {
			out.CustomMetadataMap = map[string]string{}
		}
		// closeSession unregisters the id before evicting it, so an entry
		// set after that eviction is caught here.
		p.meta.Set(e.ID, out, ttlcache.DefaultTTL)
		if _, err := p.sessions.Get(e.ID); err != nil {
			p.meta.Delete(e.ID)
		}
		return out, nil
	})
	if err != nil {
		return types.ModelMetadata{}, err
	}
	return v.(types.ModelMetadata), nil
}
