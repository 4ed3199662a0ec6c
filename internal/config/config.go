// Package config loads browserdb settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"browserdb/internal/report"
	"browserdb/internal/stats"
)

const DefaultPath = "browserdb.yaml"

// Config holds all browserdb configuration.
type Config struct {
	DataFile    string            `yaml:"data_file"`
	OutputDir   string            `yaml:"output_dir"`
	Logging     LoggingConfig     `yaml:"logging"`
	Sort        SortConfig        `yaml:"sort"`
	Report      ReportConfig      `yaml:"report"`
	MarketShare MarketShareConfig `yaml:"market_share"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

type SortConfig struct {
	// Strict rejects unparsable ids, versions and years instead of
	// sorting them with a fallback key.
	Strict bool `yaml:"strict"`
}

type ReportConfig struct {
	DefaultType   string `yaml:"default_type"`
	DefaultFormat string `yaml:"default_format"`
	TrustedHTML   bool   `yaml:"trusted_html"`
}

// MarketShareConfig overrides the synthetic market share weights.
type MarketShareConfig struct {
	Weights       map[string]float64 `yaml:"weights"`
	DefaultWeight float64            `yaml:"default_weight"`
	ModernYear    int                `yaml:"modern_year"`
	ModernBonus   float64            `yaml:"modern_bonus"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	weights := make(map[string]float64, len(stats.DefaultWeights))
	for k, v := range stats.DefaultWeights {
		weights[k] = v
	}
	return &Config{
		DataFile:  "browsers.csv",
		OutputDir: "reports",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Report: ReportConfig{
			DefaultType:   string(report.Summary),
			DefaultFormat: string(report.KindText),
		},
		MarketShare: MarketShareConfig{
			Weights:       weights,
			DefaultWeight: stats.DefaultUnknownWeight,
			ModernYear:    stats.DefaultModernYear,
			ModernBonus:   stats.DefaultModernBonus,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
// Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("BROWSERDB_DATA"); v != "" {
		c.DataFile = v
	}
	if v := os.Getenv("BROWSERDB_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("BROWSERDB_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
}

var validLevels = []string{"debug", "info", "warn", "error"}

// Validate checks the values a command depends on.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DataFile) == "" {
		errs = append(errs, errors.New("data_file must not be empty"))
	}
	if !contains(validLevels, strings.ToLower(c.Logging.Level)) {
		errs = append(errs, fmt.Errorf("invalid logging level: %s (valid: %v)", c.Logging.Level, validLevels))
	}
	if f := c.Logging.Format; f != "json" && f != "console" {
		errs = append(errs, fmt.Errorf("invalid logging format: %s (valid: json, console)", f))
	}
	if _, err := report.ParseType(c.Report.DefaultType); err != nil {
		errs = append(errs, fmt.Errorf("report.default_type: %w", err))
	}
	if _, err := report.ParseKind(c.Report.DefaultFormat); err != nil {
		errs = append(errs, fmt.Errorf("report.default_format: %w", err))
	}
	ms := c.MarketShare
	if ms.DefaultWeight < 0 || ms.ModernBonus <= 0 {
		errs = append(errs, errors.New("market_share: default_weight must be >= 0 and modern_bonus > 0"))
	}
	for dev, w := range ms.Weights {
		if w < 0 {
			errs = append(errs, fmt.Errorf("market_share: negative weight for %q", dev))
		}
	}
	return errors.Join(errs...)
}

// Estimator builds the market share estimator described by the config.
func (c *Config) Estimator() stats.Estimator {
	ms := c.MarketShare
	return stats.Estimator{
		Weights:       ms.Weights,
		UnknownWeight: ms.DefaultWeight,
		ModernYear:    ms.ModernYear,
		ModernBonus:   ms.ModernBonus,
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
