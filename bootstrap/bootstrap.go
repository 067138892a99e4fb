// Package bootstrap wires all dependencies and starts the application.
// Configuration comes from shapegen.yaml when present, with SHAPEGEN_*
// environment variables layered on top.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/artpar/shapegen/adapters/clock"
	apihttp "github.com/artpar/shapegen/adapters/http"
	"github.com/artpar/shapegen/adapters/idgen"
	"github.com/artpar/shapegen/adapters/metrics"
	"github.com/artpar/shapegen/app"
	"github.com/artpar/shapegen/config"
	"github.com/artpar/shapegen/core/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Options provides optional configuration for application initialization.
type Options struct {
	// ConfigPath is the YAML file to load. When empty config.DefaultPath is
	// tried and environment variables are used if it does not exist.
	ConfigPath string

	// LogLevel and LogFormat override the configured logging when set.
	LogLevel  string
	LogFormat string

	// LogOutput receives log lines (default: stderr).
	LogOutput io.Writer

	// Registry receives the metrics. nil uses the process-wide registry.
	Registry *prometheus.Registry

	// Version is reported by the version endpoint.
	Version string
}

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Holder
	Generator  *app.Generator
	Metrics    *metrics.Collector
	Handler    http.Handler
	HTTPServer *http.Server

	generate *apihttp.GenerateHandler
}

// OpenConfig loads the configuration named by path. An empty path falls back
// to config.DefaultPath and then to environment variables. File backed
// configuration can be hot reloaded; environment-only configuration cannot.
func OpenConfig(path string, logger zerolog.Logger) (*config.Holder, error) {
	explicit := path != ""
	if !explicit {
		path = config.DefaultPath
	}

	if _, err := os.Stat(path); err == nil {
		return config.NewHolder(path, logger)
	}

	cfg, err := config.LoadWithFallback(path, explicit)
	if err != nil {
		return nil, err
	}
	return config.NewStaticHolder(cfg, logger), nil
}

// NewGenerator creates a generator backed by the real clock and UUID batch
// ids. m may be nil.
func NewGenerator(logger zerolog.Logger, m *metrics.Collector) *app.Generator {
	gen := app.NewGenerator(clock.Real{}, idgen.UUID{}, logger)
	if m != nil {
		gen = gen.WithRecorder(m)
	}
	return gen
}

// New creates and initializes the application.
func New(opts Options) (*App, error) {
	// Logging is configured twice: once from the overrides so that config
	// loading is logged, then again from the loaded config.
	logger := NewLogger(opts.LogLevel, opts.LogFormat, opts.LogOutput)

	holder, err := OpenConfig(opts.ConfigPath, logger)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := holder.Get()

	level, format := cfg.Logging.Level, cfg.Logging.Format
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	if opts.LogFormat != "" {
		format = opts.LogFormat
	}
	logger = NewLogger(level, format, opts.LogOutput)

	logger.Info().
		Str("config", holder.Path()).
		Msg("initializing shapegen")

	a := &App{
		Logger: logger,
		Config: holder,
	}

	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if cfg.Metrics.On() {
		if opts.Registry != nil {
			a.Metrics = metrics.NewWithRegistry(opts.Registry)
			gatherer = opts.Registry
		} else {
			a.Metrics = metrics.New()
		}
		holder.SetRecorder(a.Metrics)
		logger.Info().Str("path", cfg.Metrics.Path).Msg("prometheus metrics enabled")
	}

	a.Generator = NewGenerator(logger, a.Metrics)

	a.generate = apihttp.NewGenerateHandler(a.Generator, a.options, logger)
	a.generate.SetMaxBodyBytes(cfg.Server.MaxBodyBytes)

	routerCfg := apihttp.RouterConfig{
		Metrics:        a.Metrics,
		MetricsPath:    cfg.Metrics.Path,
		Version:        opts.Version,
		RequestTimeout: cfg.Server.RequestTimeout,
	}
	if a.Metrics != nil {
		routerCfg.MetricsHandler = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}
	a.Handler = apihttp.NewRouter(a.generate, logger, routerCfg)

	a.HTTPServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      a.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	holder.OnChange(a.applyConfig)

	return a, nil
}

// options returns the generator options of the current configuration.
func (a *App) options() schema.Options {
	return a.Config.Get().Options()
}

func (a *App) applyConfig(cfg *config.Config) {
	SetLevel(cfg.Logging.Level)
}

// Run listens on the configured address and serves until ctx is done or
// SIGINT/SIGTERM arrives.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.HTTPServer.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
// File backed configuration is watched for changes and SIGHUP while serving.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	if a.Config.Path() != "" {
		if err := a.Config.WatchFile(); err != nil {
			a.Logger.Warn().Err(err).Msg("config file watch disabled")
		}
		a.Config.WatchSignals()
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", ln.Addr().String()).
			Msg("starting http server")
		if err := a.HTTPServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.Config.Stop()
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		a.Logger.Info().Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	timeout := a.Config.Get().Server.ShutdownTimeout
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	a.Config.Stop()

	var err error
	if a.HTTPServer != nil {
		if err = a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return err
}
