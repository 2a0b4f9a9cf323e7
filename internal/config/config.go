package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all query configuration.
type Config struct {
	// LogDirectory is the root of the aggregated log archive.
	LogDirectory string `yaml:"logDirectory" envconfig:"LOG_DIRECTORY"`

	// WorkerPoolSize is the number of compute workers; 0 means one per
	// logical core.
	WorkerPoolSize int `yaml:"workerPoolSize" envconfig:"WORKER_POOL_SIZE"`

	// WorkerCoreIDs optionally pins worker i to core WorkerCoreIDs[i].
	// Pinning is best-effort; a missing or failing entry is ignored.
	WorkerCoreIDs []int `yaml:"workerCoreIDs" envconfig:"WORKER_CORE_IDS"`

	// SourceIPs holds IP match expressions: exact address, CIDR, or
	// "low-high" range. Empty matches every address.
	SourceIPs []string `yaml:"sourceIPs" envconfig:"SOURCE_IPS"`

	// QueryDomains holds domain match expressions: exact or "*.suffix"
	// wildcard. Empty matches every domain.
	QueryDomains []string `yaml:"queryDomains" envconfig:"QUERY_DOMAINS"`

	// QueryTimeDay / QueryTimeHour select files by timestamp prefix,
	// e.g. "20251209" or "2025120915". Both empty selects everything.
	QueryTimeDay  []string `yaml:"queryTime_day" envconfig:"QUERY_TIME_DAY"`
	QueryTimeHour []string `yaml:"queryTime_hour" envconfig:"QUERY_TIME_HOUR"`

	// IsQueryNativeLog enables the native-log task when set to "yes"
	// (case-insensitive). Kept as a string for config compatibility.
	IsQueryNativeLog string `yaml:"isQueryNativeLog" envconfig:"IS_QUERY_NATIVE_LOG"`

	// NativeLogLoc is the root of the native log archive; required when
	// the native task is enabled.
	NativeLogLoc string `yaml:"nativeLogLoc" envconfig:"NATIVE_LOG_LOC"`

	// Result base directories per task kind. Default to the working
	// directory when unset.
	AggregatedLogResultLoc string `yaml:"aggregatedLogResultLoc" envconfig:"AGGREGATED_LOG_RESULT_LOC"`
	NativeLogResultLoc     string `yaml:"nativeLogResultLoc" envconfig:"NATIVE_LOG_RESULT_LOC"`

	// MetricsAddr, when non-empty, serves Prometheus metrics on this
	// address (e.g. ":9090") for the duration of the run.
	MetricsAddr string `yaml:"metricsAddr" envconfig:"METRICS_ADDR"`

	Logging LogConfig `yaml:"logging"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Development bool   `yaml:"development" envconfig:"LOG_DEV"`
}

// Load reads the YAML file at path, applies LOGQUERY_* environment
// overrides, fills defaults, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := envconfig.Process("logquery", &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AggregatedLogResultLoc == "" {
		c.AggregatedLogResultLoc = "./"
	}
	if c.NativeLogResultLoc == "" {
		c.NativeLogResultLoc = "./"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks constraints that make a run impossible.
func (c *Config) Validate() error {
	if c.LogDirectory == "" {
		return fmt.Errorf("logDirectory must not be empty")
	}
	if c.WorkerPoolSize < 0 {
		return fmt.Errorf("workerPoolSize must not be negative, got %d", c.WorkerPoolSize)
	}
	for _, id := range c.WorkerCoreIDs {
		if id < 0 {
			return fmt.Errorf("workerCoreIDs must not contain negative ids, got %d", id)
		}
	}
	if c.NativeLogEnabled() && c.NativeLogLoc == "" {
		return fmt.Errorf("nativeLogLoc required when isQueryNativeLog is %q", c.IsQueryNativeLog)
	}
	return nil
}

// NativeLogEnabled reports whether the native-log task should run.
func (c *Config) NativeLogEnabled() bool {
	return strings.EqualFold(strings.TrimSpace(c.IsQueryNativeLog), "yes")
}

// TimePrefixes returns the combined day and hour filters in order.
func (c *Config) TimePrefixes() []string {
	prefixes := make([]string, 0, len(c.QueryTimeDay)+len(c.QueryTimeHour))
	prefixes = append(prefixes, c.QueryTimeDay...)
	prefixes = append(prefixes, c.QueryTimeHour...)
	return prefixes
}

// FirstDay returns the first configured day filter, or "unknown" when no
// day filter is set. Used for result directory naming.
func (c *Config) FirstDay() string {
	if len(c.QueryTimeDay) > 0 {
		return c.QueryTimeDay[0]
	}
	return "unknown"
}
