// Package testutil holds test helpers shared across packages.
package testutil

import (
	"log/slog"
	"strings"
	"testing"
)

// NewTestLogger returns a debug logger that writes to t.Log, so lines only
// show for failing tests or with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return NewTestLoggerAt(t, slog.LevelDebug)
}

// NewTestLoggerAt is NewTestLogger with a minimum level.
func NewTestLoggerAt(t testing.TB, level slog.Level) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: level}))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}
