// Package config loads expurgate's optional YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eliteGoblin/expurgate/internal/domain"
	"github.com/eliteGoblin/expurgate/internal/infra"
	"github.com/eliteGoblin/expurgate/internal/policy"
)

// FileName is the config file name inside the data directory.
const FileName = "config.yaml"

// StoreConfig selects where the allow/kill lists are kept.
type StoreConfig struct {
	// Backend is "json" (plain state.json) or "sqlcipher" (encrypted lists.db)
	Backend string `yaml:"backend"`
	// Dir overrides the data directory for list files
	Dir string `yaml:"dir,omitempty"`
}

// LogConfig configures the run loop's log file.
type LogConfig struct {
	File  string `yaml:"file,omitempty"`
	Level string `yaml:"level"`
}

// Config is the effective configuration.
type Config struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	Hotkey       string        `yaml:"hotkey"`
	Store        StoreConfig   `yaml:"store"`
	Log          LogConfig     `yaml:"log"`
}

// ValidationError reports the offending YAML path.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config %s: %v", e.Path, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		PollInterval: policy.DefaultPollInterval,
		Hotkey:       domain.DefaultHotkey,
		Store:        StoreConfig{Backend: infra.StoreBackendJSON},
		Log:          LogConfig{Level: "info"},
	}
}

// DefaultPath returns <data dir>/config.yaml.
func DefaultPath() string {
	return filepath.Join(infra.DefaultDataDir(), FileName)
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field that has a closed set of values.
func (c *Config) Validate() error {
	if c.PollInterval < 100*time.Millisecond {
		return &ValidationError{Path: "poll_interval", Err: fmt.Errorf("poll_interval must be at least 100ms")}
	}
	if _, err := domain.ParseHotkey(c.Hotkey); err != nil {
		return &ValidationError{Path: "hotkey", Err: err}
	}
	switch c.Store.Backend {
	case infra.StoreBackendJSON, infra.StoreBackendSQLCipher:
	default:
		return &ValidationError{Path: "store.backend", Err: fmt.Errorf("store.backend must be one of: json, sqlcipher")}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "log.level", Err: fmt.Errorf("log.level must be one of: debug, info, warn, error")}
	}
	return nil
}

// DataDir is where lists (and their key) live.
func (c *Config) DataDir() string {
	if c.Store.Dir != "" {
		return infra.ExpandHome(c.Store.Dir)
	}
	return infra.DefaultDataDir()
}

// LogFile is the run loop's log file path.
func (c *Config) LogFile() string {
	if c.Log.File != "" {
		return infra.ExpandHome(c.Log.File)
	}
	return filepath.Join(infra.DefaultDataDir(), "expurgate.log")
}
