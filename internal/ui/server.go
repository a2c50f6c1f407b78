// Package ui serves the back-office dashboard: one datatable page per
// resource, kept live over datastar SSE.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/backoffice/internal/config"
	"github.com/leapstack-labs/backoffice/internal/exports"
	"github.com/leapstack-labs/backoffice/internal/remote"
	"github.com/leapstack-labs/backoffice/internal/ui/features/common"
	"github.com/leapstack-labs/backoffice/internal/ui/notifier"
	"github.com/leapstack-labs/backoffice/internal/ui/router"
	"github.com/leapstack-labs/backoffice/pkg/core"
)

// watchDebounce coalesces bursts of database writes into one refresh.
const watchDebounce = 250 * time.Millisecond

// Server is the main UI server.
type Server struct {
	store        core.Store
	config       *config.Config
	api          *remote.Client
	sessionStore *sessions.CookieStore
	logger       *slog.Logger
	notifier     *notifier.Notifier
	exports      *exports.Service

	// dbPath is the SQLite file to watch for external writes, if any.
	dbPath string
}

// Options holds what the UI server is built from.
type Options struct {
	Store  core.Store
	Config *config.Config
	Logger *slog.Logger

	// API, when set, serves table rows instead of the store.
	API *remote.Client

	// DBPath is the SQLite database file. Empty disables watching.
	DBPath string
}

// NewServer creates a new UI server instance.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{}
	}

	secret := []byte(cfg.Server.SessionSecret)
	if len(secret) == 0 {
		logger.Warn("server.session_secret not set, sessions will not survive a restart")
		secret = securecookie.GenerateRandomKey(32)
	}
	sessionStore := sessions.NewCookieStore(secret)
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	notify := notifier.New()
	return &Server{
		store:        opts.Store,
		config:       cfg,
		api:          opts.API,
		sessionStore: sessionStore,
		logger:       logger,
		notifier:     notify,
		exports:      exports.NewService(opts.Store, notify, exports.Options{Logger: logger}),
		dbPath:       opts.DBPath,
	}
}

// Handler builds the router with every feature mounted.
func (s *Server) Handler() (http.Handler, error) {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	deps := common.Deps{
		Store:    s.store,
		Sessions: s.sessionStore,
		Notifier: s.notifier,
		Exports:  s.exports,
		Config:   s.config,
		Logger:   s.logger,
		IsDev:    s.IsDev(),
		API:      s.api,
		APIToken: s.config.Server.APIToken,
	}
	if err := router.SetupRoutes(r, deps); err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}
	return r, nil
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	port := s.config.Server.Port
	if port == 0 {
		port = config.DefaultPort
	}
	s.logger.Info("starting UI server", slog.String("addr", fmt.Sprintf("http://localhost:%d", port)))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		return s.exports.Run(egctx)
	})

	if s.config.Server.Watch && s.dbPath != "" {
		eg.Go(func() error {
			return s.watchDatabase(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// IsDev reports whether development affordances (hot reload, strict column
// checks) are on.
func (s *Server) IsDev() bool {
	return s.config.Dev
}

// Notifier returns the server's notifier for SSE updates.
func (s *Server) Notifier() *notifier.Notifier {
	return s.notifier
}

// watchDatabase refreshes every open table when the SQLite file changes
// under us, e.g. after `backoffice seed` from another shell.
func (s *Server) watchDatabase(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(s.dbPath)
	if err := watcher.Add(dir); err != nil {
		s.logger.Error("failed to watch database directory", slog.String("dir", dir), slog.String("error", err.Error()))
		// Don't fail - continue without watching
		<-ctx.Done()
		return nil
	}

	base := filepath.Base(s.dbPath)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isDatabaseWrite(event, base) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(watchDebounce, func() {
				s.logger.Debug("database changed, refreshing tables", slog.String("file", event.Name))
				s.notifier.Broadcast()
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", slog.String("error", err.Error()))
		}
	}
}

// isDatabaseWrite matches writes to the database file and its -wal/-journal
// companions.
func isDatabaseWrite(event fsnotify.Event, base string) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	return strings.HasPrefix(filepath.Base(event.Name), base)
}
