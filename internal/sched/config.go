package sched

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	yaml "github.com/goccy/go-yaml"
)

// Config mirrors config.yml
type Config struct {
	TickMS          int           `yaml:"tick_ms"`          // 16 (by default), used by TickClock hosts
	TimeoutMS       int           `yaml:"timeout_ms"`       // 10000 (by default), <= 0 disables timeouts
	TimeoutBehavior AbortBehavior `yaml:"timeout_behavior"` // abort_current (by default)
	ErrorBehavior   AbortBehavior `yaml:"error_behavior"`   // abort_current (by default)
	Debug           bool          `yaml:"debug"`            // log task lifecycle
}

// DefaultConfig is used when no config file is given or found.
func DefaultConfig() Config {
	return Config{
		TickMS:          16,
		TimeoutMS:       10000,
		TimeoutBehavior: AbortCurrent,
		ErrorBehavior:   AbortCurrent,
	}
}

// Load reads YAML and overrides defaults; empty path or missing file = defaults only.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	// sanity clamps
	if cfg.TickMS <= 0 {
		cfg.TickMS = 16
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects abort behaviors that cannot serve as scheduler defaults.
func (c Config) Validate() error {
	if err := checkDefault(c.TimeoutBehavior); err != nil {
		return fmt.Errorf("timeout_behavior: %w", err)
	}
	if err := checkDefault(c.ErrorBehavior); err != nil {
		return fmt.Errorf("error_behavior: %w", err)
	}
	return nil
}

// Timeout returns the global task timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// TickInterval returns the interval for a TickClock.
func (c Config) TickInterval() time.Duration {
	return time.Duration(c.TickMS) * time.Millisecond
}
