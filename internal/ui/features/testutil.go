// Package features provides shared test utilities for UI feature tests.
package features

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/backoffice/internal/config"
	"github.com/leapstack-labs/backoffice/internal/exports"
	"github.com/leapstack-labs/backoffice/internal/state"
	"github.com/leapstack-labs/backoffice/internal/testutil"
	"github.com/leapstack-labs/backoffice/internal/ui/features/common"
	"github.com/leapstack-labs/backoffice/internal/ui/notifier"
	"github.com/leapstack-labs/backoffice/pkg/core"
)

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Store    *state.SQLStore
	Notifier *notifier.Notifier
	Exports  *exports.Service
	Deps     common.Deps
}

// SetupTestFixture creates an in-memory store seeded with opts, plus the
// notifier and export service the tables are wired to.
func SetupTestFixture(t *testing.T, opts core.SeedOptions) *TestFixture {
	t.Helper()

	logger := testutil.NewTestLogger(t)
	store := state.NewSQLStore(state.DriverSQLite, logger)
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.InitSchema())
	require.NoError(t, store.Seed(context.Background(), opts))
	t.Cleanup(func() { _ = store.Close() })

	notify := notifier.New()
	svc := exports.NewService(store, notify, exports.Options{Logger: logger})

	cfg := &config.Config{Tables: map[string]config.TableConfig{}}
	return &TestFixture{
		Store:    store,
		Notifier: notify,
		Exports:  svc,
		Deps: common.Deps{
			Store:    store,
			Sessions: NewTestSessionStore(),
			Notifier: notify,
			Exports:  svc,
			Config:   cfg,
			Logger:   logger,
			IsDev:    true,
		},
	}
}

// RequestWithTimeout wraps a request with a context timeout. The returned
// cancel func must be called.
func RequestWithTimeout(r *http.Request, timeout time.Duration) (*http.Request, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	return r.WithContext(ctx), cancel
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}

// Visitor replays the session cookie across requests like a browser tab.
type Visitor struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
}

// NewVisitor returns a visitor sending requests to handler.
func NewVisitor(t *testing.T, handler http.Handler) *Visitor {
	return &Visitor{t: t, handler: handler}
}

// Get performs a GET request.
func (v *Visitor) Get(target string) *httptest.ResponseRecorder {
	return v.Do(httptest.NewRequest(http.MethodGet, target, nil))
}

// Post performs a POST request with a form body.
func (v *Visitor) Post(target, form string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form))
	if form != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return v.Do(req)
}

// Do sends req with the visitor's cookies and keeps any new ones.
func (v *Visitor) Do(req *http.Request) *httptest.ResponseRecorder {
	v.t.Helper()
	for _, c := range v.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	v.handler.ServeHTTP(rec, req)
	if fresh := rec.Result().Cookies(); len(fresh) > 0 {
		v.cookies = fresh
	}
	return rec
}
