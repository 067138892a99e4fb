// Package config provides configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/shapegen/core/formatter"
	"github.com/artpar/shapegen/core/schema"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "shapegen.yaml"

// Config is the root configuration structure.
type Config struct {
	Generator GeneratorConfig `yaml:"generator"`
	Output    OutputConfig    `yaml:"output"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// GeneratorConfig sets the analysis defaults. Unset flags default to true.
type GeneratorConfig struct {
	IncludeInherited     *bool `yaml:"include_inherited"`
	IncludeNonEnumerable *bool `yaml:"include_non_enumerable"`
	GenerateCallbacks    *bool `yaml:"generate_callbacks"`
	MaxChainDepth        int   `yaml:"max_chain_depth"`
}

// OutputConfig configures where documents and reports go.
type OutputConfig struct {
	Dir           string `yaml:"dir"`
	SummaryFormat string `yaml:"summary_format"` // "table", "json" or "yaml"
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled *bool  `yaml:"enabled"` // Expose the metrics endpoint (default: true)
	Path    string `yaml:"path"`    // Custom path (default: /metrics)
}

// On reports whether the metrics endpoint is enabled.
func (m MetricsConfig) On() bool {
	return m.Enabled == nil || *m.Enabled
}

// Options converts the generator section to analysis options.
func (c *Config) Options() schema.Options {
	opts := schema.DefaultOptions()
	opts.IncludeInherited = boolOr(c.Generator.IncludeInherited, true)
	opts.IncludeNonEnumerable = boolOr(c.Generator.IncludeNonEnumerable, true)
	opts.GenerateCallbacks = boolOr(c.Generator.GenerateCallbacks, true)
	if c.Generator.MaxChainDepth > 0 {
		opts.MaxChainDepth = c.Generator.MaxChainDepth
	}
	return opts
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return finish(&cfg)
}

// LoadFromEnv creates configuration from defaults and environment variables.
//
// Environment variables:
//
//	SHAPEGEN_INCLUDE_INHERITED       - Walk the whole prototype chain (default: true)
//	SHAPEGEN_INCLUDE_NON_ENUMERABLE  - Keep non-enumerable properties (default: true)
//	SHAPEGEN_GENERATE_CALLBACKS      - Emit callback names (default: true)
//	SHAPEGEN_MAX_CHAIN_DEPTH         - Prototype walk bound
//	SHAPEGEN_OUTPUT_DIR              - Output directory for batch and watch
//	SHAPEGEN_SUMMARY_FORMAT          - table, json or yaml (default: table)
//	SHAPEGEN_SERVER_HOST             - Server host (default: 0.0.0.0)
//	SHAPEGEN_SERVER_PORT             - Server port (default: 8080)
//	SHAPEGEN_SERVER_READ_TIMEOUT     - Read timeout (default: 30s)
//	SHAPEGEN_SERVER_WRITE_TIMEOUT    - Write timeout (default: 60s)
//	SHAPEGEN_SERVER_MAX_BODY_BYTES   - Request body limit (default: 10 MiB)
//	SHAPEGEN_LOG_LEVEL               - debug, info, warn, error (default: info)
//	SHAPEGEN_LOG_FORMAT              - json or console (default: json)
//	SHAPEGEN_METRICS_ENABLED         - Expose /metrics (default: true)
//	SHAPEGEN_METRICS_PATH            - Metrics path (default: /metrics)
func LoadFromEnv() (*Config, error) {
	return finish(&Config{})
}

// LoadWithFallback loads path when it exists and falls back to environment
// variables otherwise. An explicitly named file that is missing is an error.
func LoadWithFallback(path string, explicit bool) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		} else if explicit {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return LoadFromEnv()
}

func finish(cfg *Config) (*Config, error) {
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	setDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies SHAPEGEN_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) error {
	var errs []error
	envBool := func(key string, dst **bool) {
		if v := os.Getenv(key); v != "" {
			b := parseBool(v)
			*dst = &b
		}
	}
	envInt := func(key string, set func(int64)) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			set(n)
		}
	}
	envDuration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	// Generator configuration
	envBool("SHAPEGEN_INCLUDE_INHERITED", &cfg.Generator.IncludeInherited)
	envBool("SHAPEGEN_INCLUDE_NON_ENUMERABLE", &cfg.Generator.IncludeNonEnumerable)
	envBool("SHAPEGEN_GENERATE_CALLBACKS", &cfg.Generator.GenerateCallbacks)
	envInt("SHAPEGEN_MAX_CHAIN_DEPTH", func(n int64) { cfg.Generator.MaxChainDepth = int(n) })

	// Output configuration
	if v := os.Getenv("SHAPEGEN_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("SHAPEGEN_SUMMARY_FORMAT"); v != "" {
		cfg.Output.SummaryFormat = v
	}

	// Server configuration
	if v := os.Getenv("SHAPEGEN_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	envInt("SHAPEGEN_SERVER_PORT", func(n int64) { cfg.Server.Port = int(n) })
	envDuration("SHAPEGEN_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SHAPEGEN_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envInt("SHAPEGEN_SERVER_MAX_BODY_BYTES", func(n int64) { cfg.Server.MaxBodyBytes = n })

	// Logging configuration
	if v := os.Getenv("SHAPEGEN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SHAPEGEN_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics configuration
	envBool("SHAPEGEN_METRICS_ENABLED", &cfg.Metrics.Enabled)
	if v := os.Getenv("SHAPEGEN_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}

	if len(errs) > 0 {
		return fmt.Errorf("environment overrides: %w", errors.Join(errs...))
	}
	return nil
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func setDefaults(cfg *Config) {
	if cfg.Generator.MaxChainDepth == 0 {
		cfg.Generator.MaxChainDepth = schema.DefaultOptions().MaxChainDepth
	}

	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "."
	}
	if cfg.Output.SummaryFormat == "" {
		cfg.Output.SummaryFormat = "table"
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 30 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 10 << 20
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	if cfg.Generator.MaxChainDepth < 0 {
		return fmt.Errorf("generator.max_chain_depth must be positive, got %d", cfg.Generator.MaxChainDepth)
	}

	if _, ok := formatter.Get(cfg.Output.SummaryFormat); !ok {
		return fmt.Errorf("output.summary_format must be one of: %s, got %q",
			strings.Join(formatter.List(), ", "), cfg.Output.SummaryFormat)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxBodyBytes < 0 {
		return fmt.Errorf("server.max_body_bytes must be positive, got %d", cfg.Server.MaxBodyBytes)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error, got %q", cfg.Logging.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", cfg.Metrics.Path)
	}

	return nil
}
