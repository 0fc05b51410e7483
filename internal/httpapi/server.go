package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ortbridge/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListModels() []types.Model
	Status() types.StatusResponse
	Dispatch(ctx context.Context, call types.MethodCall) types.MethodResult
	Ready() bool
}

// codeTooBusy mirrors the bridge code counted as backpressure.
const codeTooBusy = "TOO_BUSY"

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	// WebSocket upgrades must not pass through the compressor.
	r.Get("/channel", channelHandler(svc))

	r.Group(func(r chi.Router) {
		// Compression for JSON endpoints
		r.Use(middleware.Compress(5))

		r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
			models := svc.ListModels()
			if models == nil {
				models = []types.Model{}
			}
			writeJSON(w, types.ModelsResponse{Models: models})
		})

		r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, svc.Status())
		})

		r.Post("/call", callHandler(svc))

		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})

		r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
			if svc.Ready() {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("ready"))
				return
			}
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("closed"))
		})

		// Prometheus metrics endpoint
		r.Get("/metrics", promhttp.Handler().ServeHTTP)

		MountSwagger(r)
	})

	return r
}

// callHandler serves POST /call. Transport problems map to HTTP status codes;
// method failures are returned in-band with 200.
func callHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Content-Type check
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		call, err := decodeCall(r)
		if err != nil {
			// Oversized bodies also land here; report 400 without size details.
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(call.Method) == "" {
			writeJSONError(w, http.StatusBadRequest, "method is required")
			return
		}

		log := requestLogger(r)
		ctx, cancel := callContext(r.Context())
		defer cancel()
		ctx = log.WithContext(ctx)

		start := time.Now()
		log.Info().Str("method", call.Method).Msg("call start")
		res := svc.Dispatch(ctx, call)
		logResult(log.Info(), res, time.Since(start))
		if res.Error != nil && res.Error.Code == codeTooBusy {
			IncrementBackpressure("call")
		}
		writeJSON(w, res)
	}
}

// decodeCall reads a MethodCall keeping numbers as json.Number so large
// integers survive.
func decodeCall(r *http.Request) (types.MethodCall, error) {
	var call types.MethodCall
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	err := dec.Decode(&call)
	return call, err
}
