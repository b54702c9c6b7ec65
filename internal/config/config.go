package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	appLog "fahrplan/internal/log"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions.

const (
	DefaultColumns        = 4
	DefaultLogLevel       = "info"
	DefaultICSHorizonDays = 14
)

// Config is the top-level application configuration.
type Config struct {
	// Schedule is the default schedule path or http(s) URL. A positional
	// CLI argument takes precedence.
	Schedule string `yaml:"schedule"`

	// Columns is the number of concurrent events the grid view can show per
	// row. Events beyond it are left out of the grid.
	Columns int `yaml:"columns"`

	// Timezone is the IANA timezone used for display (e.g. "Europe/Berlin").
	// Empty keeps each event's own offset.
	Timezone string `yaml:"timezone"`

	// CacheDir stores the HTTP cache for remote schedules and, unless
	// LogFile is set, the log file.
	CacheDir string `yaml:"cache_dir"`

	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`

	// ICSHorizonDays bounds recurrence expansion for iCalendar schedules.
	ICSHorizonDays int `yaml:"ics_horizon_days"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{
		Columns:        DefaultColumns,
		LogLevel:       DefaultLogLevel,
		ICSHorizonDays: DefaultICSHorizonDays,
	}
	c.Normalize()
	return c
}

// DefaultPath is <user config dir>/fahrplan/config.yaml, or a relative path
// if the user config dir cannot be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "fahrplan.yaml")
	}
	return filepath.Join(dir, "fahrplan", "config.yaml")
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".", "cache")
	}
	return filepath.Join(dir, "fahrplan")
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Columns <= 0 {
		c.Columns = DefaultColumns
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir()
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(c.CacheDir, "fahrplan.log")
	}
	if _, ok := appLog.ParseLevel(c.LogLevel); !ok || c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.ICSHorizonDays <= 0 {
		c.ICSHorizonDays = DefaultICSHorizonDays
	}
}

// ICSHorizon is ICSHorizonDays as a duration.
func (c *Config) ICSHorizon() time.Duration {
	return time.Duration(c.ICSHorizonDays) * 24 * time.Hour
}

// Location resolves Timezone. It returns nil when no timezone is configured,
// meaning times keep their own offset. An unknown zone falls back to
// time.Local.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", c.Timezone)
		return time.Local
	}
	return loc
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".fahrplan-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
