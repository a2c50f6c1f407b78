// Package config loads backoffice configuration from defaults, a YAML file,
// BACKOFFICE_ environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// DatabaseConfig selects the store backend.
type DatabaseConfig struct {
	Driver string `koanf:"driver" yaml:"driver"`
	DSN    string `koanf:"dsn" yaml:"dsn"`
}

// ServerConfig holds configuration for the web UI server.
type ServerConfig struct {
	Port          int    `koanf:"port" yaml:"port"`
	SessionSecret string `koanf:"session_secret" yaml:"session_secret"`

	// Watch broadcasts an invalidation when the database file changes
	// outside the server.
	Watch bool `koanf:"watch" yaml:"watch"`

	// APIToken, when set, is required as a bearer token on /api routes.
	APIToken string `koanf:"api_token" yaml:"api_token"`
}

// APIConfig points the tables at a remote REST API instead of the local
// database.
type APIConfig struct {
	BaseURL string        `koanf:"base_url" yaml:"base_url"`
	Token   string        `koanf:"token" yaml:"token"`
	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`
}

// Enabled reports whether a remote API is configured.
func (a APIConfig) Enabled() bool {
	return strings.TrimSpace(a.BaseURL) != ""
}

// TableConfig customizes one table.
type TableConfig struct {
	PerPage          int      `koanf:"per_page" yaml:"per_page,omitempty"`
	Columns          []string `koanf:"columns" yaml:"columns,omitempty"`
	Sortables        []string `koanf:"sortables" yaml:"sortables,omitempty"`
	PersistSelection bool     `koanf:"persist_selection" yaml:"persist_selection,omitempty"`
}

// Config holds all configuration options.
type Config struct {
	Database DatabaseConfig         `koanf:"database" yaml:"database"`
	Server   ServerConfig           `koanf:"server" yaml:"server"`
	API      APIConfig              `koanf:"api" yaml:"api"`
	Tables   map[string]TableConfig `koanf:"tables" yaml:"tables,omitempty"`
	LogLevel string                 `koanf:"log_level" yaml:"log_level"`
	Output   string                 `koanf:"output" yaml:"output"`
	Dev      bool                   `koanf:"dev" yaml:"dev"`

	// File is the config file that was loaded, if any.
	File string `koanf:"-" yaml:"-"`
}

// Table returns the configuration of a table. Unset page sizes fall back to
// DefaultPerPage; nil Sortables mean the table's own defaults apply.
func (c *Config) Table(name string) TableConfig {
	t := c.Tables[name]
	if t.PerPage <= 0 {
		t.PerPage = DefaultPerPage
	}
	return t
}

// Level parses LogLevel, defaulting to info.
func (c *Config) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Redacted returns a copy with secrets masked, for display.
func (c *Config) Redacted() Config {
	out := *c
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	out.Server.SessionSecret = mask(out.Server.SessionSecret)
	out.Server.APIToken = mask(out.Server.APIToken)
	out.API.Token = mask(out.API.Token)
	return out
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("log_level %q: must be debug, info, warn or error", c.LogLevel))
	}

	if !slices.Contains(OutputFormats, c.Output) {
		errs = append(errs, fmt.Errorf("output %q: must be one of %s", c.Output, strings.Join(OutputFormats, ", ")))
	}

	if c.API.Timeout < 0 {
		errs = append(errs, fmt.Errorf("api.timeout must not be negative"))
	}

	for name, t := range c.Tables {
		if t.PerPage < 0 || t.PerPage > MaxPerPage {
			errs = append(errs, fmt.Errorf("tables.%s.per_page must be between 1 and %d", name, MaxPerPage))
		}
	}

	return errors.Join(errs...)
}
