package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/zeebo/errs/v2"
	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by all commands.
type Config struct {
	LogLevel string       `yaml:"log_level"`
	Filter   FilterConfig `yaml:"filter"`
	Window   WindowConfig `yaml:"window"`
	Replay   ReplayConfig `yaml:"replay"`
}

// FilterConfig selects which top-level events are shown.
type FilterConfig struct {
	MinDurationMs float64 `yaml:"min_duration_ms"`
	Expr          string  `yaml:"expr,omitempty"`
}

// WindowConfig is the initial window. Right may be "live".
type WindowConfig struct {
	Left  string `yaml:"left"`
	Right string `yaml:"right"`
}

// ReplayConfig paces replayed events.
type ReplayConfig struct {
	Rate  float64 `yaml:"rate"`
	Burst int     `yaml:"burst"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		LogLevel: "INFO",
		Filter:   FilterConfig{MinDurationMs: 3},
		Window:   WindowConfig{Left: "0", Right: "live"},
		Replay:   ReplayConfig{Rate: 1000, Burst: 1},
	}
}

// Load reads the YAML file at path, when path is not empty, and applies
// EVENTVIEW_* environment overrides on top.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.Errorf("load config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errs.Errorf("parse config %q: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) applyEnv() error {
	if v := os.Getenv("EVENTVIEW_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("EVENTVIEW_MIN_DURATION_MS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errs.Errorf("EVENTVIEW_MIN_DURATION_MS: %w", err)
		}
		cfg.Filter.MinDurationMs = f
	}
	if v := os.Getenv("EVENTVIEW_FILTER"); v != "" {
		cfg.Filter.Expr = v
	}
	if v := os.Getenv("EVENTVIEW_WINDOW_LEFT"); v != "" {
		cfg.Window.Left = v
	}
	if v := os.Getenv("EVENTVIEW_WINDOW_RIGHT"); v != "" {
		cfg.Window.Right = v
	}
	if v := os.Getenv("EVENTVIEW_REPLAY_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errs.Errorf("EVENTVIEW_REPLAY_RATE: %w", err)
		}
		cfg.Replay.Rate = f
	}
	if v := os.Getenv("EVENTVIEW_REPLAY_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errs.Errorf("EVENTVIEW_REPLAY_BURST: %w", err)
		}
		cfg.Replay.Burst = n
	}
	return nil
}

// Validate checks value ranges.
func (cfg *Config) Validate() error {
	if _, err := cfg.Level(); err != nil {
		return err
	}
	if cfg.Filter.MinDurationMs < 0 {
		return errs.Errorf("negative filter.min_duration_ms %v", cfg.Filter.MinDurationMs)
	}
	if cfg.Replay.Rate < 0 {
		return errs.Errorf("negative replay.rate %v", cfg.Replay.Rate)
	}
	if cfg.Replay.Burst < 1 {
		return errs.Errorf("replay.burst %d must be at least 1", cfg.Replay.Burst)
	}
	return nil
}

// Level parses LogLevel.
func (cfg *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(cfg.LogLevel))); err != nil {
		return 0, errs.Errorf("log_level %q: %w", cfg.LogLevel, err)
	}
	return level, nil
}
