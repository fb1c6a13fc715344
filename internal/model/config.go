package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the complete claimflow configuration.
// Populated from defaults, then ~/.claimflow/config.yaml, then CLAIMFLOW_* env, then flags.
type Config struct {
	Source     SourceConfig     `yaml:"source" mapstructure:"source"`
	Validation ValidationConfig `yaml:"validation" mapstructure:"validation"`
	Routing    RoutingConfig    `yaml:"routing" mapstructure:"routing"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Metrics    MetricsConfig    `yaml:"metrics" mapstructure:"metrics"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
}

// SourceConfig controls how documents are loaded
type SourceConfig struct {
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent  string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBytes   int64         `yaml:"max_bytes" mapstructure:"max_bytes"`
	MaxRetries int           `yaml:"max_retries" mapstructure:"max_retries"`
	HTTPProxy  string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// ValidationConfig holds the consistency check bounds.
// MaxYear 0 means "one year past the current calendar year" at evaluation time.
type ValidationConfig struct {
	MinYear   int     `yaml:"min_year" mapstructure:"min_year"`
	MaxYear   int     `yaml:"max_year" mapstructure:"max_year"`
	MaxDamage float64 `yaml:"max_damage" mapstructure:"max_damage"`
}

// RoutingConfig holds routing thresholds
type RoutingConfig struct {
	FastTrackThreshold float64 `yaml:"fast_track_threshold" mapstructure:"fast_track_threshold"`
}

// CacheConfig controls the result cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// StoreConfig controls the SQLite claim history
type StoreConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// MetricsConfig controls the Prometheus textfile export
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path,omitempty" mapstructure:"textfile_path"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // console, json
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultFastTrackThreshold is the exclusive upper bound for fast-track routing
const DefaultFastTrackThreshold = 25000.0

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	dataDir := DefaultDataDir()

	return &Config{
		Source: SourceConfig{
			Timeout:    30 * time.Second,
			UserAgent:  "claimflow/0.1 (+https://github.com/ppiankov/claimflow)",
			MaxBytes:   5_000_000,
			MaxRetries: 3,
		},
		Validation: ValidationConfig{
			MinYear:   1900,
			MaxYear:   0,
			MaxDamage: 1_000_000,
		},
		Routing: RoutingConfig{
			FastTrackThreshold: DefaultFastTrackThreshold,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       filepath.Join(dataDir, "cache"),
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Store: StoreConfig{
			Enabled: false,
			Path:    filepath.Join(dataDir, "claims.db"),
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}

// DefaultDataDir is ~/.claimflow, or .claimflow when no home directory is available
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".claimflow"
	}
	return filepath.Join(home, ".claimflow")
}

// Validate rejects configurations the pipeline cannot run with
func (c *Config) Validate() error {
	var errs []error

	if c.Routing.FastTrackThreshold <= 0 {
		errs = append(errs, fmt.Errorf("routing.fast_track_threshold must be positive, got %v", c.Routing.FastTrackThreshold))
	}
	if c.Validation.MinYear <= 0 {
		errs = append(errs, fmt.Errorf("validation.min_year must be positive, got %d", c.Validation.MinYear))
	}
	if c.Validation.MaxYear != 0 && c.Validation.MaxYear < c.Validation.MinYear {
		errs = append(errs, fmt.Errorf("validation.max_year %d is before min_year %d", c.Validation.MaxYear, c.Validation.MinYear))
	}
	if c.Validation.MaxDamage <= 0 {
		errs = append(errs, fmt.Errorf("validation.max_damage must be positive, got %v", c.Validation.MaxDamage))
	}
	if c.Source.MaxBytes <= 0 {
		errs = append(errs, fmt.Errorf("source.max_bytes must be positive, got %d", c.Source.MaxBytes))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of console, json", c.Log.Format))
	}

	return errors.Join(errs...)
}
