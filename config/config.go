package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/brettbedarf/asyncfs/internal/util"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Verbosity levels accepted from users (CLI flag, config files, env).
// They map onto [util.LogLevel] in reverse order.
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

// DefaultEnvPrefix is the prefix for environment overrides, e.g. ASYNCFS_WORKERS.
const DefaultEnvPrefix = "ASYNCFS"

// Default configuration constants. See [Config] for field descriptions.
const (
	DefaultLogLvl = util.InfoLevel

	// DefaultWorkers matches the classic 4-thread filesystem pool
	DefaultWorkers = 4

	// DefaultMaxInFlight bounds queued asynchronous requests
	DefaultMaxInFlight = 1024

	// DefaultCompletionQueue is the initial capacity of the completion queue
	DefaultCompletionQueue = 256

	DefaultMetricsNamespace = "asyncfs"

	DefaultLogMaxSizeMB  = 100
	DefaultLogMaxBackups = 3
	DefaultLogMaxAgeDays = 28
)

// Config contains runtime configuration values for the engine.
type Config struct {
	LogLvl        util.LogLevel // Internal log level (Default info)
	LogFile       string        // Rotated log file; empty logs to stderr
	LogMaxSizeMB  int           // Rotate after this many megabytes (Default 100)
	LogMaxBackups int           // Rotated files to keep (Default 3)
	LogMaxAgeDays int           // Days to keep rotated files (Default 28)

	Workers         int // Worker goroutines running blocking syscalls (Default 4)
	MaxInFlight     int // Max queued async requests; 0 disables the bound (Default 1024)
	CompletionQueue int // Initial completion queue capacity (Default 256)

	MetricsNamespace string // Prometheus namespace (Default "asyncfs")
	MetricsAddr      string // Listen address for /metrics; empty disables
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
// LogLvl is a verbosity between 1 (error) and 5 (trace).
type ConfigOverride struct {
	LogLvl           *int    `yaml:"verbose,omitempty" json:"verbose,omitempty" envconfig:"verbose"`
	LogFile          *string `yaml:"log_file,omitempty" json:"log_file,omitempty" envconfig:"log_file"`
	LogMaxSizeMB     *int    `yaml:"log_max_size_mb,omitempty" json:"log_max_size_mb,omitempty" envconfig:"log_max_size_mb"`
	LogMaxBackups    *int    `yaml:"log_max_backups,omitempty" json:"log_max_backups,omitempty" envconfig:"log_max_backups"`
	LogMaxAgeDays    *int    `yaml:"log_max_age_days,omitempty" json:"log_max_age_days,omitempty" envconfig:"log_max_age_days"`
	Workers          *int    `yaml:"workers,omitempty" json:"workers,omitempty" envconfig:"workers"`
	MaxInFlight      *int    `yaml:"max_in_flight,omitempty" json:"max_in_flight,omitempty" envconfig:"max_in_flight"`
	CompletionQueue  *int    `yaml:"completion_queue,omitempty" json:"completion_queue,omitempty" envconfig:"completion_queue"`
	MetricsNamespace *string `yaml:"metrics_namespace,omitempty" json:"metrics_namespace,omitempty" envconfig:"metrics_namespace"`
	MetricsAddr      *string `yaml:"metrics_addr,omitempty" json:"metrics_addr,omitempty" envconfig:"metrics_addr"`
}

// NewConfig creates a new Config with defaults and applies override if non-nil
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		LogLvl:           DefaultLogLvl,
		LogMaxSizeMB:     DefaultLogMaxSizeMB,
		LogMaxBackups:    DefaultLogMaxBackups,
		LogMaxAgeDays:    DefaultLogMaxAgeDays,
		Workers:          DefaultWorkers,
		MaxInFlight:      DefaultMaxInFlight,
		CompletionQueue:  DefaultCompletionQueue,
		MetricsNamespace: DefaultMetricsNamespace,
	}
}

// VerboseToLogLvl clamps v into [ErrorVerbose, TraceVerbose] and converts it.
func VerboseToLogLvl(v int) util.LogLevel {
	if v < ErrorVerbose {
		v = ErrorVerbose
	}
	if v > TraceVerbose {
		v = TraceVerbose
	}
	return util.LogLevel(TraceVerbose - v)
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.LogLvl != nil {
		c.LogLvl = VerboseToLogLvl(*override.LogLvl)
	}
	if override.LogFile != nil {
		c.LogFile = *override.LogFile
	}
	if override.LogMaxSizeMB != nil {
		c.LogMaxSizeMB = *override.LogMaxSizeMB
	}
	if override.LogMaxBackups != nil {
		c.LogMaxBackups = *override.LogMaxBackups
	}
	if override.LogMaxAgeDays != nil {
		c.LogMaxAgeDays = *override.LogMaxAgeDays
	}
	if override.Workers != nil {
		c.Workers = *override.Workers
	}
	if override.MaxInFlight != nil {
		c.MaxInFlight = *override.MaxInFlight
	}
	if override.CompletionQueue != nil {
		c.CompletionQueue = *override.CompletionQueue
	}
	if override.MetricsNamespace != nil {
		c.MetricsNamespace = *override.MetricsNamespace
	}
	if override.MetricsAddr != nil {
		c.MetricsAddr = *override.MetricsAddr
	}
}

// Validate reports values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.MaxInFlight < 0 {
		return fmt.Errorf("max_in_flight must not be negative, got %d", c.MaxInFlight)
	}
	if c.CompletionQueue < 0 {
		return fmt.Errorf("completion_queue must not be negative, got %d", c.CompletionQueue)
	}
	return nil
}

// FileOutput returns the rotated-log settings for [util.InitializeFileLogger].
func (c *Config) FileOutput() util.FileOutput {
	return util.FileOutput{
		Filename:   c.LogFile,
		MaxSizeMB:  c.LogMaxSizeMB,
		MaxBackups: c.LogMaxBackups,
		MaxAgeDays: c.LogMaxAgeDays,
	}
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// LoadEnvOverride reads overrides from environment variables named
// PREFIX_FIELD, e.g. ASYNCFS_WORKERS=8. Unset variables stay nil.
func LoadEnvOverride(prefix string) (*ConfigOverride, error) {
	var override ConfigOverride
	if err := envconfig.Process(prefix, &override); err != nil {
		return nil, fmt.Errorf("failed to read environment overrides: %w", err)
	}
	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
// This is a convenience function that combines NewDefaultConfig, LoadConfigOverrideFile, and Merge.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	cfg.Merge(override)
	return cfg, nil
}
