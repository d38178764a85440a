package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Sync scopes.
const (
	ScopeAll  = "all"
	ScopeMine = "mine"
)

// Config holds the application configuration
type Config struct {
	Database DatabaseConfig `toml:"database" yaml:"database"`
	People   PeopleConfig   `toml:"people" yaml:"people"`
	Sync     SyncConfig     `toml:"sync" yaml:"sync"`
	Log      LogConfig      `toml:"log" yaml:"log"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path string `toml:"path" yaml:"path"`
}

// PeopleConfig sizes the People view's paging and loading.
type PeopleConfig struct {
	PageSize      int `toml:"page_size" yaml:"page_size"`
	BatchSize     int `toml:"batch_size" yaml:"batch_size"`
	InitialLoad   int `toml:"initial_load" yaml:"initial_load"`
	EnrichWorkers int `toml:"enrich_workers" yaml:"enrich_workers"`
}

// SyncConfig controls the live snapshot feeds.
type SyncConfig struct {
	// Scope is "all", or "mine" for contacts owned by or assigned to UserID.
	Scope          string `toml:"scope" yaml:"scope"`
	UserID         string `toml:"user_id" yaml:"user_id"`
	RestoreTimeout string `toml:"restore_timeout" yaml:"restore_timeout"`
	Debounce       string `toml:"debounce" yaml:"debounce"`
}

// LogConfig holds logging configuration. An empty Path disables logging.
type LogConfig struct {
	Path  string `toml:"path" yaml:"path"`
	Level string `toml:"level" yaml:"level"`
}

// Default returns the default configuration
func Default() *Config {
	dir := configDir()
	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(dir, "people.db"),
		},
		People: PeopleConfig{
			PageSize:      50,
			BatchSize:     50,
			InitialLoad:   200,
			EnrichWorkers: 8,
		},
		Sync: SyncConfig{
			Scope:          ScopeAll,
			RestoreTimeout: "3s",
			Debounce:       "200ms",
		},
		Log: LogConfig{
			Path:  filepath.Join(dir, "people.log"),
			Level: "info",
		},
	}
}

func configDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "people-tui")
}

// DefaultPath is where Load looks for the configuration file.
func DefaultPath() string {
	return filepath.Join(configDir(), "config.toml")
}

// Load loads configuration from the standard location
func Load() (*Config, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom loads configuration from a specific path. Files ending in .yaml
// or .yml are read as YAML, anything else as TOML.
func LoadFrom(configPath string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Log.Path = expandPath(cfg.Log.Path)

	return cfg, nil
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	switch c.Sync.Scope {
	case ScopeAll, "":
	case ScopeMine:
		if c.Sync.UserID == "" {
			return fmt.Errorf("sync.scope %q needs sync.user_id", ScopeMine)
		}
	default:
		return fmt.Errorf("unknown sync.scope %q", c.Sync.Scope)
	}
	if _, err := parseDuration(c.Sync.RestoreTimeout); err != nil {
		return fmt.Errorf("sync.restore_timeout: %w", err)
	}
	if _, err := parseDuration(c.Sync.Debounce); err != nil {
		return fmt.Errorf("sync.debounce: %w", err)
	}
	return nil
}

// RestoreTimeoutDuration returns sync.restore_timeout, or 0 when unset.
func (s SyncConfig) RestoreTimeoutDuration() time.Duration {
	d, _ := parseDuration(s.RestoreTimeout)
	return d
}

// DebounceDuration returns sync.debounce, or 0 when unset.
func (s SyncConfig) DebounceDuration() time.Duration {
	d, _ := parseDuration(s.Debounce)
	return d
}

func parseDuration(s string) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Save saves the configuration to the standard location
func (c *Config) Save() error {
	if err := os.MkdirAll(configDir(), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return c.SaveTo(DefaultPath())
}

// SaveTo saves the configuration to a specific path
func (c *Config) SaveTo(configPath string) error {
	f, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	return nil
}
