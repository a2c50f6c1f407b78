package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leapstack-labs/backoffice/internal/config"
	"github.com/leapstack-labs/backoffice/internal/remote"
	"github.com/leapstack-labs/backoffice/internal/state"
)

// Output modes accepted by --output.
const (
	ModeAuto     = "auto"
	ModeText     = "text"
	ModeMarkdown = "markdown"
	ModeJSON     = "json"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger

	// Store is nil for commands that only read through the remote API.
	Store *state.SQLStore

	// API is set when api.base_url is configured.
	API *remote.Client
}

// NewCommandContext creates a CommandContext with an open, migrated store.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cc := NewCommandContextWithoutStore(cmd)

	store, err := openStore(cc.Cfg, cc.Logger)
	if err != nil {
		return nil, nil, err
	}
	cc.Store = store

	cleanup := func() {
		_ = store.Close()
	}
	return cc, cleanup, nil
}

// NewTableContext creates a CommandContext for reading tables: the remote
// API when one is configured, the database otherwise.
func NewTableContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cc := NewCommandContextWithoutStore(cmd)
	if cc.API != nil {
		return cc, func() {}, nil
	}
	return NewCommandContext(cmd)
}

// NewCommandContextWithoutStore creates a CommandContext without a store.
// Useful for commands that don't need database access.
func NewCommandContextWithoutStore(cmd *cobra.Command) *CommandContext {
	cfg := config.FromContext(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	cc := &CommandContext{Cfg: cfg, Logger: logger}
	if cfg.API.Enabled() {
		cc.API = remote.NewClient(cfg.API.BaseURL, cfg.API.Token, cfg.API.Timeout, logger)
	}
	return cc
}

func openStore(cfg *config.Config, logger *slog.Logger) (*state.SQLStore, error) {
	driver, err := state.ParseDriver(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}

	dsn := cfg.Database.DSN
	if driver == state.DriverSQLite && dsn != ":memory:" {
		// Ensure the database directory exists
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	store := state.NewSQLStore(driver, logger)
	if err := store.Open(dsn); err != nil {
		return nil, err
	}
	if err := store.InitSchema(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// outputMode resolves auto to text on a terminal and markdown otherwise.
func outputMode(cfg *config.Config, w io.Writer) string {
	switch cfg.Output {
	case ModeText, ModeMarkdown, ModeJSON:
		return cfg.Output
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return ModeText
	}
	return ModeMarkdown
}
