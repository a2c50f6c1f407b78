package state

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its base FS, dialect and logger in package globals.
var gooseMu sync.Mutex

// Migrate runs all pending database migrations.
func (s *SQLStore) Migrate() error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	return migrateDB(s.db, s.driver, s.logger)
}

// MigrateWithDB runs migrations using a raw database connection.
// This is useful for testing or when you have a db connection from elsewhere.
func MigrateWithDB(db *sql.DB, driver Driver) error {
	return migrateDB(db, driver, nil)
}

func migrateDB(db *sql.DB, driver Driver, logger *slog.Logger) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := configureGoose(driver, logger); err != nil {
		return err
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// MigrationVersion returns the current migration version.
func (s *SQLStore) MigrationVersion() (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	if err := configureGoose(s.driver, s.logger); err != nil {
		return 0, err
	}

	return goose.GetDBVersion(s.db)
}

func configureGoose(driver Driver, logger *slog.Logger) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{logger: logger})

	dialect := "sqlite3"
	if driver == DriverPostgres {
		dialect = "postgres"
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return nil
}

// gooseLogger routes goose output to slog at debug level.
type gooseLogger struct {
	logger *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "goose"))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	// goose only calls Fatalf from its CLI helpers
	panic(fmt.Sprintf(format, v...))
}
