package config

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ErrNoConfigFile is returned when reloading a holder that was not loaded
// from a file.
var ErrNoConfigFile = errors.New("configuration was not loaded from a file")

// ReloadRecorder receives reload outcomes.
type ReloadRecorder interface {
	ObserveReload(err error, at time.Time)
}

// Holder provides thread-safe access to configuration with hot reload support.
type Holder struct {
	mu       sync.RWMutex
	config   *Config
	path     string
	logger   zerolog.Logger
	recorder ReloadRecorder
	watcher  *fsnotify.Watcher
	onChange []func(*Config)
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewHolder creates a new config holder and loads the initial configuration.
func NewHolder(path string, logger zerolog.Logger) (*Holder, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}

	h := NewStaticHolder(cfg, logger)
	h.path = absPath
	return h, nil
}

// NewStaticHolder wraps an already loaded configuration. It cannot be
// reloaded from disk.
func NewStaticHolder(cfg *Config, logger zerolog.Logger) *Holder {
	return &Holder{
		config: cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// Path returns the watched file, or "" for a static holder.
func (h *Holder) Path() string {
	return h.path
}

// SetRecorder registers where reload outcomes are reported.
func (h *Holder) SetRecorder(r ReloadRecorder) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recorder = r
}

// Get returns the current configuration (thread-safe).
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.config
}

// Reload reloads the configuration from disk.
// Returns error if loading fails (keeps old config).
func (h *Holder) Reload() error {
	if h.path == "" {
		return ErrNoConfigFile
	}

	h.logger.Info().Str("path", h.path).Msg("reloading configuration")

	newCfg, err := Load(h.path)
	if err != nil {
		h.record(err)
		h.logger.Error().Err(err).Msg("config reload failed, keeping old config")
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	oldCfg := h.config
	h.config = newCfg
	listeners := append([]func(*Config){}, h.onChange...)
	h.mu.Unlock()

	h.record(nil)

	// Log what changed
	h.logChanges(oldCfg, newCfg)

	// Notify listeners
	for _, fn := range listeners {
		fn(newCfg)
	}

	h.logger.Info().Msg("configuration reloaded successfully")
	return nil
}

func (h *Holder) record(err error) {
	h.mu.RLock()
	r := h.recorder
	h.mu.RUnlock()
	if r != nil {
		r.ObserveReload(err, time.Now())
	}
}

// OnChange registers a callback to be called when config changes.
func (h *Holder) OnChange(fn func(*Config)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// WatchFile starts watching the config file for changes.
// Changes trigger automatic reload.
func (h *Holder) WatchFile() error {
	if h.path == "" {
		return ErrNoConfigFile
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	h.watcher = watcher

	// Watch the directory (more reliable for editors that do atomic saves)
	dir := filepath.Dir(h.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}

	go h.watchLoop()

	h.logger.Info().Str("path", h.path).Msg("watching config file for changes")
	return nil
}

// WatchSignals starts listening for SIGHUP to trigger reload.
func (h *Holder) WatchSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)

	go func() {
		for {
			select {
			case <-sigCh:
				h.logger.Info().Msg("received SIGHUP, reloading config")
				if err := h.Reload(); err != nil {
					h.logger.Error().Err(err).Msg("SIGHUP reload failed")
				}
			case <-h.stopCh:
				signal.Stop(sigCh)
				return
			}
		}
	}()

	h.logger.Info().Msg("listening for SIGHUP to reload config")
}

// Stop stops watching for file changes and signals. It is safe to call more
// than once.
func (h *Holder) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		if h.watcher != nil {
			h.watcher.Close()
		}
	})
}

func (h *Holder) watchLoop() {
	filename := filepath.Base(h.path)

	for {
		select {
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}

			// Only react to our config file
			if filepath.Base(event.Name) != filename {
				continue
			}

			// React to write or create (atomic save = create)
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				h.logger.Debug().
					Str("event", event.Op.String()).
					Str("file", event.Name).
					Msg("config file changed")

				if err := h.Reload(); err != nil {
					h.logger.Error().Err(err).Msg("file watch reload failed")
				}
			}

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("file watcher error")

		case <-h.stopCh:
			return
		}
	}
}

func (h *Holder) logChanges(old, new *Config) {
	if old.Logging.Level != new.Logging.Level {
		h.logger.Info().
			Str("old", old.Logging.Level).
			Str("new", new.Logging.Level).
			Msg("log level changed")
	}

	if oldOpts, newOpts := old.Options(), new.Options(); oldOpts != newOpts {
		h.logger.Info().
			Bool("include_inherited", newOpts.IncludeInherited).
			Bool("include_non_enumerable", newOpts.IncludeNonEnumerable).
			Bool("generate_callbacks", newOpts.GenerateCallbacks).
			Int("max_chain_depth", newOpts.MaxChainDepth).
			Msg("generator options changed")
	}

	if old.Output.SummaryFormat != new.Output.SummaryFormat {
		h.logger.Info().
			Str("old", old.Output.SummaryFormat).
			Str("new", new.Output.SummaryFormat).
			Msg("summary format changed")
	}

	for _, field := range restartRequired(old, new) {
		h.logger.Warn().Str("field", field).Msg("change requires restart to take effect")
	}
}

func restartRequired(old, new *Config) []string {
	var fields []string
	if old.Server.Host != new.Server.Host {
		fields = append(fields, "server.host")
	}
	if old.Server.Port != new.Server.Port {
		fields = append(fields, "server.port")
	}
	if old.Metrics.Path != new.Metrics.Path {
		fields = append(fields, "metrics.path")
	}
	if old.Metrics.On() != new.Metrics.On() {
		fields = append(fields, "metrics.enabled")
	}
	return fields
}

// ReloadableFields returns which fields can be changed without restart.
func ReloadableFields() []string {
	return []string{
		"generator.include_inherited",
		"generator.include_non_enumerable",
		"generator.generate_callbacks",
		"generator.max_chain_depth",
		"output.summary_format",
		"logging.level",
	}
}

// NonReloadableFields returns which fields require a restart.
func NonReloadableFields() []string {
	return []string{
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.max_body_bytes",
		"metrics.enabled",
		"metrics.path",
	}
}
