// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/backoffice/internal/state"
	"github.com/leapstack-labs/backoffice/pkg/core"
)

// SetupTestDatabase creates a migrated SQLite file seeded with opts and
// returns its path. The store is closed before returning so commands under
// test can open it themselves.
func SetupTestDatabase(t *testing.T, opts core.SeedOptions) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "backoffice.db")

	store := state.NewSQLStore(state.DriverSQLite, nil)
	if err := store.Open(path); err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.InitSchema(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	if err := store.Seed(context.Background(), opts); err != nil {
		t.Fatalf("failed to seed test database: %v", err)
	}

	return path
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdownTable checks that every non-empty line of md up to the
// first blank line is a pipe table row, and that the second row is the
// header separator.
func AssertValidMarkdownTable(t *testing.T, md string) {
	t.Helper()

	lines := strings.Split(strings.TrimSpace(md), "\n")
	if len(lines) < 2 {
		t.Fatalf("markdown table needs a header and separator, got %q", md)
	}
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			break
		}
		if !strings.HasPrefix(trimmed, "|") || !strings.HasSuffix(trimmed, "|") {
			t.Errorf("line %d is not a table row: %q", i+1, line)
		}
	}
	if !strings.Contains(lines[1], "---") {
		t.Errorf("missing header separator, got %q", lines[1])
	}
}
