package common

import (
	"log/slog"
	"sync"
	"time"

	"github.com/leapstack-labs/backoffice/internal/ui/notifier"
	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

// Binding is one visitor's mounted table.
type Binding[R any] struct {
	Controller *datatable.Controller[R]

	// changes fires after every controller transition.
	changes *notifier.Notifier

	lastSeen time.Time
	streams  int
}

// Changes subscribes to the binding's transitions. Unsubscribe with
// Unwatch.
func (b *Binding[R]) Changes() chan struct{} {
	return b.changes.Subscribe(notifier.AllTopics)
}

// Unwatch ends a Changes subscription.
func (b *Binding[R]) Unwatch(ch chan struct{}) {
	b.changes.Unsubscribe(ch)
}

// Registry keeps one controller per visitor session. Bindings without open
// update streams are dropped after the idle timeout.
type Registry[R any] struct {
	mu       sync.Mutex
	bindings map[string]*Binding[R]
	idle     time.Duration
	build    func(opts datatable.ControllerOptions[R]) *datatable.Controller[R]
	opts     datatable.ControllerOptions[R]
	logger   *slog.Logger
	now      func() time.Time
}

// NewRegistry creates a registry building controllers over fetcher with
// opts. A zero idle uses DefaultIdleTimeout.
func NewRegistry[R any](fetcher datatable.Fetcher[R], opts datatable.ControllerOptions[R], idle time.Duration) *Registry[R] {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry[R]{
		bindings: make(map[string]*Binding[R]),
		idle:     idle,
		build: func(o datatable.ControllerOptions[R]) *datatable.Controller[R] {
			return datatable.NewController(fetcher, o)
		},
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// Get returns the binding of a session, creating it on first use.
func (g *Registry[R]) Get(sid string) *Binding[R] {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sweepLocked()
	return g.getLocked(sid)
}

// Acquire is Get for long-lived streams; the binding is not evicted until
// the matching Release.
func (g *Registry[R]) Acquire(sid string) *Binding[R] {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sweepLocked()
	b := g.getLocked(sid)
	b.streams++
	return b
}

// Release ends an Acquire.
func (g *Registry[R]) Release(sid string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if b, ok := g.bindings[sid]; ok {
		b.streams--
		b.lastSeen = g.now()
	}
}

// Len returns the number of live bindings.
func (g *Registry[R]) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.bindings)
}

func (g *Registry[R]) getLocked(sid string) *Binding[R] {
	b, ok := g.bindings[sid]
	if !ok {
		b = &Binding[R]{changes: notifier.New()}
		opts := g.opts
		opts.Logger = g.logger.With(slog.String("session", shortID(sid)))
		opts.OnChange = func(datatable.Snapshot[R]) { b.changes.Broadcast() }
		b.Controller = g.build(opts)
		g.bindings[sid] = b
	}
	b.lastSeen = g.now()
	return b
}

func (g *Registry[R]) sweepLocked() {
	cutoff := g.now().Add(-g.idle)
	for sid, b := range g.bindings {
		if b.streams > 0 || b.lastSeen.After(cutoff) {
			continue
		}
		delete(g.bindings, sid)
		b.Controller.Unmount()
		g.logger.Debug("evicted idle table", slog.String("session", shortID(sid)))
	}
}

func shortID(sid string) string {
	if len(sid) > 8 {
		return sid[:8]
	}
	return sid
}
