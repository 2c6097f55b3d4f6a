// Package config loads passmatch settings from a TOML file.
package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// HomeEnv overrides the passmatch home directory.
const HomeEnv = "PASSMATCH_HOME"

// Config represents the structure of config.toml
type Config struct {
	// Database is the path of the credential database.
	Database string `toml:"database"`
	// ReadOnly opens the database read-only.
	ReadOnly bool `toml:"read_only"`
	// Verbose logs every resolution stage.
	Verbose bool `toml:"verbose"`

	Fetch struct {
		// Titles enables looking up page titles for new entries.
		Titles bool `toml:"titles"`
		// TimeoutSeconds bounds a title lookup.
		TimeoutSeconds int `toml:"timeout_seconds"`
		// UserAgent overrides the default User-Agent.
		UserAgent string `toml:"user_agent"`
		// Locales is the preferred page language order, e.g. "en,ja".
		Locales string `toml:"locales"`
	} `toml:"fetch"`

	Backup struct {
		// Enabled archives the database before it is written.
		Enabled bool `toml:"enabled"`
		// Dir is where archives go. Relative paths are resolved against the home directory.
		Dir string `toml:"dir"`
		// Keep is the number of archives retained. Zero keeps all.
		Keep int `toml:"keep"`
	} `toml:"backup"`
}

// Default returns the settings used when no config file exists.
func Default(home string) *Config {
	cfg := &Config{
		Database: filepath.Join(home, "vault.yaml"),
	}
	cfg.Fetch.Titles = true
	cfg.Fetch.TimeoutSeconds = 10
	cfg.Fetch.Locales = "en,ja"
	cfg.Backup.Enabled = true
	cfg.Backup.Dir = "backups"
	cfg.Backup.Keep = 10
	return cfg
}

// Home returns the passmatch home directory.
// It checks the PASSMATCH_HOME environment variable first, then falls back to ~/.passmatch
func Home() (string, error) {
	if home := os.Getenv(HomeEnv); home != "" {
		return home, nil
	}

	usr, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("failed to get current user: %w", err)
	}

	return filepath.Join(usr.HomeDir, ".passmatch"), nil
}

// Load reads config.toml from the home directory.
// A missing file yields the defaults.
func Load() (*Config, error) {
	home, err := Home()
	if err != nil {
		return nil, err
	}
	return LoadFile(filepath.Join(home, "config.toml"), home)
}

// LoadFile reads configPath on top of the defaults for home.
func LoadFile(configPath, home string) (*Config, error) {
	cfg := Default(home)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
	}

	cfg.Database = expand(cfg.Database, home)
	cfg.Backup.Dir = expand(cfg.Backup.Dir, home)
	return cfg, nil
}

// BackupDir returns the absolute backup directory.
func (c *Config) BackupDir(home string) string {
	return expand(c.Backup.Dir, home)
}

// FetchTimeout returns the title lookup timeout.
func (c *Config) FetchTimeout() time.Duration {
	if c.Fetch.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// expand resolves "~/" and relative paths against home.
func expand(path, home string) string {
	if path == "" {
		return path
	}
	if len(path) >= 2 && path[:2] == "~/" {
		if usr, err := user.Current(); err == nil {
			return filepath.Join(usr.HomeDir, path[2:])
		}
	}
	if !filepath.IsAbs(path) {
		return filepath.Join(home, path)
	}
	return path
}
