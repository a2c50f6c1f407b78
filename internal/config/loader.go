package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read as configuration.
// A double underscore separates nesting levels:
// BACKOFFICE_SERVER__PORT -> server.port.
const EnvPrefix = "BACKOFFICE_"

// ConfigFileNames are searched in the working directory, in order.
var ConfigFileNames = []string{"backoffice.yaml", "backoffice.yml"}

// flagKeys maps flag names to config keys. Flags not listed map kebab-case
// to snake_case.
var flagKeys = map[string]string{
	"driver":         "database.driver",
	"db":             "database.dsn",
	"port":           "server.port",
	"watch":          "server.watch",
	"session-secret": "server.session_secret",
	"api-url":        "api.base_url",
	"api-token":      "api.token",
	"api-timeout":    "api.timeout",
}

// loggerKey is used to store logger in context.
type loggerKey struct{}

// configKey is used to store the loaded config in context.
type configKey struct{}

// findConfigFile finds the config file to use.
// Priority: explicit path > backoffice.yaml > backoffice.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range ConfigFileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Load environment variables (BACKOFFICE_ prefix)
	// Transform: BACKOFFICE_TABLES__MEMBERS__PER_PAGE -> tables.members.per_page
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			key, ok := flagKeys[f.Name]
			if !ok {
				key = strings.ReplaceAll(f.Name, "-", "_")
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used
	cfg.Database.DSN = os.ExpandEnv(cfg.Database.DSN)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ToLower(strings.ReplaceAll(s, "__", "."))
}

// NewLogger creates the process logger: text on w at the configured level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// WithLogger stores a logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

// WithConfig stores cfg in ctx.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext returns the config stored in ctx, or the defaults when none
// was loaded.
func FromContext(ctx context.Context) *Config {
	if c, ok := ctx.Value(configKey{}).(*Config); ok {
		return c
	}
	cfg, err := LoadConfig("", nil)
	if err != nil {
		return &Config{
			Database: DatabaseConfig{Driver: DefaultDriver, DSN: DefaultDSN},
			Server:   ServerConfig{Port: DefaultPort},
			LogLevel: DefaultLogLevel,
			Output:   DefaultOutput,
		}
	}
	return cfg
}
