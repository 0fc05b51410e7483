package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ortbridge/internal/bridge"
	"ortbridge/internal/config"
	"ortbridge/internal/engine"
	"ortbridge/internal/httpapi"
	"ortbridge/internal/registry"
)

type serveFlags struct {
	configPath  string
	addr        string
	modelsDir   string
	libraryPath string
	providers   string
	logLevel    string
	logFormat   string
	cors        bool
	corsOrigins string
}

func newServeCmd() *cobra.Command {
	f := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the method channel over HTTP and WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.resolve()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", envStr("ORTBRIDGE_CONFIG", ""), "Config file (.yaml, .json, .toml)")
	fl.StringVar(&f.addr, "addr", envStr("ORTBRIDGE_ADDR", ""), "HTTP listen address, e.g. :8080")
	fl.StringVar(&f.modelsDir, "models-dir", envStr("ORTBRIDGE_MODELS_DIR", ""), "Directory to scan for *.onnx and *.ort model files")
	fl.StringVar(&f.libraryPath, "library-path", envStr("ORTBRIDGE_LIBRARY_PATH", ""), "Path to the onnxruntime shared library")
	fl.StringVar(&f.providers, "providers", envStr("ORTBRIDGE_PROVIDERS", ""), "Comma-separated execution providers to offer (CPU is always on)")
	fl.StringVar(&f.logLevel, "log-level", envStr("ORTBRIDGE_LOG_LEVEL", ""), "Log level: debug|info|warn|error")
	fl.StringVar(&f.logFormat, "log-format", envStr("ORTBRIDGE_LOG_FORMAT", ""), "Log format: console|json")
	fl.BoolVar(&f.cors, "cors", envStr("ORTBRIDGE_CORS", "") == "true", "Enable CORS")
	fl.StringVar(&f.corsOrigins, "cors-origins", envStr("ORTBRIDGE_CORS_ORIGINS", ""), "Comma-separated allowed origins")
	return cmd
}

// resolve layers defaults, the config file and explicit flags.
func (f *serveFlags) resolve() (config.Config, error) {
	cfg := config.Defaults()
	if f.configPath != "" {
		fileCfg, err := config.Load(f.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = cfg.Merge(fileCfg)
	}
	cfg = cfg.Merge(config.Config{
		Addr:        f.addr,
		ModelsDir:   f.modelsDir,
		LibraryPath: f.libraryPath,
		Providers:   splitCSV(f.providers),
		LogLevel:    f.logLevel,
		LogFormat:   f.logFormat,
		CORSEnabled: f.cors,
		CORSOrigins: splitCSV(f.corsOrigins),
	})
	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	var l zerolog.Logger
	if strings.EqualFold(cfg.LogFormat, "json") {
		l = zerolog.New(os.Stderr)
	} else {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return l.Level(level).With().Timestamp().Str("component", "ortbridge").Logger()
}

func serve(ctx context.Context, cfg config.Config) error {
	log := newLogger(cfg)

	eng, err := engine.New(engine.Config{LibraryPath: cfg.LibraryPath, Providers: cfg.Providers})
	if err != nil {
		return err
	}
	defer func() {
		if err := eng.Close(); err != nil {
			log.Warn().Err(err).Msg("engine close")
		}
	}()

	models, err := registry.NewModels(cfg.ModelsDir)
	if err != nil {
		return err
	}
	plugin, err := bridge.NewPlugin(bridge.Config{
		Engine: eng,
		Models: models,
		Registry: registry.Config{
			MaxQueueDepth:     cfg.MaxQueueDepth,
			MaxConcurrentRuns: cfg.MaxConcurrentRuns,
			MaxWait:           cfg.MaxWait.Std(),
			DrainTimeout:      cfg.DrainTimeout.Std(),
			Publisher:         registry.LogPublisher{Log: log.With().Str("component", "registry").Logger()},
		},
		MetadataTTL: cfg.MetadataTTL.Std(),
		Logger:      log.With().Str("component", "bridge").Logger(),
	})
	if err != nil {
		return err
	}
	defer func() { _ = plugin.Close() }()

	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetCallTimeout(cfg.CallTimeout.Std())
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins, nil, nil)
	httpapi.SetBaseContext(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(plugin),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", cfg.Addr).
			Str("models_dir", models.Dir()).
			Str("engine", eng.Name()).
			Str("engine_version", eng.Version()).
			Strs("providers", eng.Providers()).
			Msg("ortbridge listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	// Graceful shutdown (Ctrl+C / SIGTERM)
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	return nil
}
