package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"ortbridge/internal/common/fsutil"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Duration is a time.Duration that reads and writes as "30s", "5m", etc.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) { return []byte(time.Duration(d).String()), nil }

func (d *Duration) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are filled from Defaults.
type Config struct {
	Addr        string   `json:"addr" yaml:"addr" toml:"addr"`
	ModelsDir   string   `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	LibraryPath string   `json:"library_path" yaml:"library_path" toml:"library_path"`
	Providers   []string `json:"providers" yaml:"providers" toml:"providers"`

	LogLevel  string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format" toml:"log_format"`

	MaxBodyBytes      int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	MaxQueueDepth     int      `json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth"`
	MaxWait           Duration `json:"max_wait" yaml:"max_wait" toml:"max_wait"`
	MaxConcurrentRuns int      `json:"max_concurrent_runs" yaml:"max_concurrent_runs" toml:"max_concurrent_runs"`
	DrainTimeout      Duration `json:"drain_timeout" yaml:"drain_timeout" toml:"drain_timeout"`
	MetadataTTL       Duration `json:"metadata_ttl" yaml:"metadata_ttl" toml:"metadata_ttl"`
	CallTimeout       Duration `json:"call_timeout" yaml:"call_timeout" toml:"call_timeout"`

	CORSEnabled bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Addr:              ":8080",
		ModelsDir:         "~/models/onnx",
		LogLevel:          "info",
		LogFormat:         "console",
		MaxBodyBytes:      1 << 20,
		MaxQueueDepth:     32,
		MaxWait:           Duration(30 * time.Second),
		MaxConcurrentRuns: 1,
		DrainTimeout:      Duration(5 * time.Second),
		MetadataTTL:       Duration(10 * time.Minute),
	}
}

// Merge returns c with every non-zero field of o applied on top.
func (c Config) Merge(o Config) Config {
	if o.Addr != "" {
		c.Addr = o.Addr
	}
	if o.ModelsDir != "" {
		c.ModelsDir = o.ModelsDir
	}
	if o.LibraryPath != "" {
		c.LibraryPath = o.LibraryPath
	}
	if len(o.Providers) > 0 {
		c.Providers = append([]string(nil), o.Providers...)
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.LogFormat != "" {
		c.LogFormat = o.LogFormat
	}
	if o.MaxBodyBytes > 0 {
		c.MaxBodyBytes = o.MaxBodyBytes
	}
	if o.MaxQueueDepth > 0 {
		c.MaxQueueDepth = o.MaxQueueDepth
	}
	if o.MaxWait > 0 {
		c.MaxWait = o.MaxWait
	}
	if o.MaxConcurrentRuns > 0 {
		c.MaxConcurrentRuns = o.MaxConcurrentRuns
	}
	if o.DrainTimeout > 0 {
		c.DrainTimeout = o.DrainTimeout
	}
	if o.MetadataTTL > 0 {
		c.MetadataTTL = o.MetadataTTL
	}
	if o.CallTimeout > 0 {
		c.CallTimeout = o.CallTimeout
	}
	if o.CORSEnabled {
		c.CORSEnabled = true
	}
	if len(o.CORSOrigins) > 0 {
		c.CORSOrigins = append([]string(nil), o.CORSOrigins...)
	}
	return c
}

// Validate reports settings that cannot be served.
func (c Config) Validate() error {
	switch strings.ToLower(c.LogFormat) {
	case "", "console", "json":
	default:
		return fmt.Errorf("unsupported log_format: %s", c.LogFormat)
	}
	if c.MaxBodyBytes < 0 || c.MaxQueueDepth < 0 || c.MaxConcurrentRuns < 0 {
		return fmt.Errorf("limits must not be negative")
	}
	if c.MaxQueueDepth > 0 && c.MaxConcurrentRuns > c.MaxQueueDepth {
		return fmt.Errorf("max_concurrent_runs (%d) exceeds max_queue_depth (%d)", c.MaxConcurrentRuns, c.MaxQueueDepth)
	}
	if c.LibraryPath != "" {
		p, err := fsutil.ExpandHome(c.LibraryPath)
		if err != nil {
			return err
		}
		if !fsutil.PathExists(p) {
			return fmt.Errorf("library_path not found: %s", c.LibraryPath)
		}
	}
	return nil
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
