// Package config loads the configuration recognized by the core:
// sampling policy, index directory, schedule window, and crawl pacing.
// Precedence, low to high: built-in defaults, user
// config (~/.config/my-search-buddy/config.yaml), project config
// (.searchbuddy.yaml in the current directory), environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// SamplingConfig is the content-sampling policy applied to every crawled file.
type SamplingConfig struct {
	CoverageFraction   float64 `yaml:"coverage_fraction" json:"coverage_fraction"`
	HeadFraction       float64 `yaml:"head_fraction" json:"head_fraction"`
	TailFraction       float64 `yaml:"tail_fraction" json:"tail_fraction"`
	SmallFileThreshold int64   `yaml:"small_file_threshold" json:"small_file_threshold"`
	MaxBytes           int64   `yaml:"max_bytes" json:"max_bytes"`
	MinHeadBytes       int64   `yaml:"min_head_bytes" json:"min_head_bytes"`
	MinTailBytes       int64   `yaml:"min_tail_bytes" json:"min_tail_bytes"`
	SniffBytes         int     `yaml:"sniff_bytes" json:"sniff_bytes"`
}

// DefaultSampling returns the built-in sampling policy defaults.
func DefaultSampling() SamplingConfig {
	return SamplingConfig{
		CoverageFraction:   0.10,
		HeadFraction:       0.08,
		TailFraction:       0.02,
		SmallFileThreshold: 128 * 1024,
		MaxBytes:           1572864, // 1.5 MiB
		MinHeadBytes:       4 * 1024,
		MinTailBytes:       1 * 1024,
		SniffBytes:         8192,
	}
}

// CrawlConfig covers crawl-pacing options and enumeration caps.
type CrawlConfig struct {
	InitialPhaseEnumerationCap int `yaml:"initial_phase_enumeration_cap" json:"initial_phase_enumeration_cap"`
	InitialCommitIntervalS     int `yaml:"initial_commit_interval_s" json:"initial_commit_interval_s"`
	InitialCommitBatch         int `yaml:"initial_commit_batch" json:"initial_commit_batch"`
	BackgroundCommitIntervalS  int `yaml:"background_commit_interval_s" json:"background_commit_interval_s"`
	AutoIncrementalMinInterval int `yaml:"auto_incremental_min_interval_s" json:"auto_incremental_min_interval_s"`
}

// DefaultCrawl returns the built-in crawl-pacing defaults.
func DefaultCrawl() CrawlConfig {
	return CrawlConfig{
		InitialPhaseEnumerationCap: 20000,
		InitialCommitIntervalS:     2,
		InitialCommitBatch:         1000,
		BackgroundCommitIntervalS:  1800,
		AutoIncrementalMinInterval: 60,
	}
}

// Config is the complete configuration recognized by the core.
type Config struct {
	IndexDir              string         `yaml:"index_dir" json:"index_dir"`
	DataDir               string         `yaml:"data_dir" json:"data_dir"`
	Roots                 []string       `yaml:"roots" json:"roots"`
	Sampling              SamplingConfig `yaml:"sampling" json:"sampling"`
	Crawl                 CrawlConfig    `yaml:"crawl" json:"crawl"`
	ScheduleWindowEnabled bool           `yaml:"schedule_window_enabled" json:"schedule_window_enabled"`
	LogLevel              string         `yaml:"log_level" json:"log_level"`
	ExcludeNoiseDirs      []string       `yaml:"exclude_noise_dirs" json:"exclude_noise_dirs"`
}

// New returns a Config populated entirely with defaults.
func New() *Config {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".my-search-buddy")
	return &Config{
		IndexDir:              filepath.Join(dataDir, "index"),
		DataDir:               dataDir,
		Sampling:              DefaultSampling(),
		Crawl:                 DefaultCrawl(),
		ScheduleWindowEnabled: false,
		LogLevel:              "info",
		ExcludeNoiseDirs:      DefaultNoiseDirs(),
	}
}

// DefaultNoiseDirs lists directory names excluded by internal/ignore in
// addition to dot-hidden entries.
func DefaultNoiseDirs() []string {
	return []string{".git", "node_modules", ".cache", "__pycache__", ".venv", "vendor"}
}

// Load builds a Config by layering user config, project config, and env
// overrides on top of defaults, then validates the result.
func Load(projectDir string) (*Config, error) {
	cfg := New()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(projectDir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "my-search-buddy", "config.yaml")
}

func loadUserConfig() (*Config, error) {
	path := userConfigPath()
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}
	cfg := &Config{}
	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{".searchbuddy.yaml", ".searchbuddy.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return c.loadYAML(path)
		}
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.mergeWith(&parsed)
	return nil
}

// mergeWith overlays non-zero fields from other onto c.
func (c *Config) mergeWith(other *Config) {
	if other.IndexDir != "" {
		c.IndexDir = other.IndexDir
	}
	if other.DataDir != "" {
		c.DataDir = other.DataDir
	}
	if len(other.Roots) > 0 {
		c.Roots = other.Roots
	}
	if other.Sampling.CoverageFraction != 0 {
		c.Sampling.CoverageFraction = other.Sampling.CoverageFraction
	}
	if other.Sampling.HeadFraction != 0 {
		c.Sampling.HeadFraction = other.Sampling.HeadFraction
	}
	if other.Sampling.TailFraction != 0 {
		c.Sampling.TailFraction = other.Sampling.TailFraction
	}
	if other.Sampling.SmallFileThreshold != 0 {
		c.Sampling.SmallFileThreshold = other.Sampling.SmallFileThreshold
	}
	if other.Sampling.MaxBytes != 0 {
		c.Sampling.MaxBytes = other.Sampling.MaxBytes
	}
	if other.Sampling.MinHeadBytes != 0 {
		c.Sampling.MinHeadBytes = other.Sampling.MinHeadBytes
	}
	if other.Sampling.MinTailBytes != 0 {
		c.Sampling.MinTailBytes = other.Sampling.MinTailBytes
	}
	if other.Sampling.SniffBytes != 0 {
		c.Sampling.SniffBytes = other.Sampling.SniffBytes
	}
	if other.Crawl.InitialPhaseEnumerationCap != 0 {
		c.Crawl.InitialPhaseEnumerationCap = other.Crawl.InitialPhaseEnumerationCap
	}
	if other.Crawl.InitialCommitIntervalS != 0 {
		c.Crawl.InitialCommitIntervalS = other.Crawl.InitialCommitIntervalS
	}
	if other.Crawl.InitialCommitBatch != 0 {
		c.Crawl.InitialCommitBatch = other.Crawl.InitialCommitBatch
	}
	if other.Crawl.BackgroundCommitIntervalS != 0 {
		c.Crawl.BackgroundCommitIntervalS = other.Crawl.BackgroundCommitIntervalS
	}
	if other.Crawl.AutoIncrementalMinInterval != 0 {
		c.Crawl.AutoIncrementalMinInterval = other.Crawl.AutoIncrementalMinInterval
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if len(other.ExcludeNoiseDirs) > 0 {
		c.ExcludeNoiseDirs = other.ExcludeNoiseDirs
	}
	// ScheduleWindowEnabled has no reliable zero-value sentinel for a
	// bool merge, so once either layer sets it true it stays true.
	c.ScheduleWindowEnabled = c.ScheduleWindowEnabled || other.ScheduleWindowEnabled
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SEARCHBUDDY_INDEX_DIR"); v != "" {
		c.IndexDir = v
	}
	if v := os.Getenv("SEARCHBUDDY_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("SEARCHBUDDY_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("SEARCHBUDDY_SCHEDULE_WINDOW"); v != "" {
		c.ScheduleWindowEnabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("SEARCHBUDDY_COVERAGE_FRACTION"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			c.Sampling.CoverageFraction = f
		}
	}
	if v := os.Getenv("SEARCHBUDDY_AUTO_INCREMENTAL_MIN_INTERVAL_S"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Crawl.AutoIncrementalMinInterval = n
		}
	}
}

// Validate rejects configurations that violate the sampling policy's ordering
// constraints or otherwise cannot be acted on.
func (c *Config) Validate() error {
	s := c.Sampling
	if s.CoverageFraction < 0 || s.CoverageFraction > 1 {
		return fmt.Errorf("sampling.coverage_fraction must be within [0,1], got %f", s.CoverageFraction)
	}
	if s.HeadFraction < 0 || s.HeadFraction > s.CoverageFraction {
		return fmt.Errorf("sampling.head_fraction must be within [0, coverage_fraction], got %f > %f", s.HeadFraction, s.CoverageFraction)
	}
	if s.MaxBytes <= 0 {
		return fmt.Errorf("sampling.max_bytes must be positive, got %d", s.MaxBytes)
	}
	if c.Crawl.InitialPhaseEnumerationCap <= 0 {
		return fmt.Errorf("crawl.initial_phase_enumeration_cap must be positive, got %d", c.Crawl.InitialPhaseEnumerationCap)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %s", c.LogLevel)
	}
	return nil
}

// WriteYAML persists the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
