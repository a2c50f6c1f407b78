// Package state implements core.Store on database/sql. SQLite (pure Go,
// modernc.org/sqlite) is the default driver; Postgres is reached through
// pgx's database/sql driver.
package state

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver

	"github.com/leapstack-labs/backoffice/pkg/core"
)

// Driver names a supported database backend.
type Driver string

// Supported drivers.
const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// ParseDriver maps a configured driver name to a Driver. An empty name
// selects SQLite.
func ParseDriver(name string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "postgres", "postgresql", "pgx":
		return DriverPostgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", name)
	}
}

// sqlDriver is the database/sql driver name registered for d.
func (d Driver) sqlDriver() string {
	if d == DriverPostgres {
		return "pgx"
	}
	return "sqlite"
}

// SQLStore implements core.Store.
type SQLStore struct {
	db     *sql.DB
	driver Driver
	dsn    string
	logger *slog.Logger
	now    func() time.Time
}

var _ core.QueryableStore = (*SQLStore)(nil)

// NewSQLStore creates a store for driver. If logger is nil, a discard logger
// is used.
func NewSQLStore(driver Driver, logger *slog.Logger) *SQLStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if driver == "" {
		driver = DriverSQLite
	}
	return &SQLStore{
		driver: driver,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Open opens a connection to the database.
// For SQLite, dsn is a file path; use ":memory:" for an in-memory database.
func (s *SQLStore) Open(dsn string) error {
	connStr := dsn
	if s.driver == DriverSQLite {
		connStr = sqliteDSN(dsn)
	}

	db, err := sql.Open(s.driver.sqlDriver(), connStr)
	if err != nil {
		return fmt.Errorf("failed to open %s database: %w", s.driver, err)
	}

	if s.driver == DriverSQLite {
		// One writer at a time; an in-memory database also lives on a
		// single connection.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping %s database: %w", s.driver, err)
	}

	s.logger.Debug("database opened", slog.String("driver", string(s.driver)))

	s.db = db
	s.dsn = dsn
	return nil
}

// sqliteDSN enables foreign keys, WAL and a busy timeout on file databases.
func sqliteDSN(path string) string {
	if path == ":memory:" || path == "" {
		return "file::memory:?_pragma=foreign_keys(1)"
	}
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitSchema brings the schema up to date.
func (s *SQLStore) InitSchema() error {
	return s.Migrate()
}

// DB exposes the underlying database handle.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Driver returns the backend the store talks to.
func (s *SQLStore) Driver() Driver {
	return s.driver
}

// Path returns the dsn the store was opened with.
func (s *SQLStore) Path() string {
	return s.dsn
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inString := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inString = !inString
			b.WriteByte(c)
		case c == '?' && !inString:
			n++
			fmt.Fprintf(&b, "$%d", n)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}
