package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/backoffice/internal/remote"
	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

// Action is a table intent beyond the built-in ones, such as approving a
// row. A nil error invalidates the table for every visitor.
type Action func(ctx context.Context, form url.Values) (string, error)

// TableSpec declares one dashboard table.
type TableSpec[R any] struct {
	// Name is the resource name. The table lives at "/" + Name.
	Name  string
	Title string

	Columns   []datatable.Column[R]
	Sortables []string
	Style     datatable.PaginationStyle
	Filters   []datatable.Filter
	Empty     datatable.EmptyState

	// Selectable enables row selection and the export toolbar.
	Selectable bool

	Fetcher  datatable.Fetcher[R]
	Exporter datatable.Exporter
	Actions  map[string]Action
}

// Table serves one dashboard table: the page, its intents, its update
// stream and its export endpoint.
type Table[R interface{ RowID() string }] struct {
	spec     TableSpec[R]
	deps     Deps
	path     string
	columns  []datatable.Column[R]
	registry *Registry[R]
	logger   *slog.Logger
}

// NewTable binds spec to the per-table configuration. In development
// builds a misconfigured column set is an error.
func NewTable[R interface{ RowID() string }](deps Deps, spec TableSpec[R]) (*Table[R], error) {
	cfg := deps.table(spec.Name)
	cols := datatable.ColumnConfig{Sortables: spec.Sortables, Columns: cfg.Columns}
	if cfg.Sortables != nil {
		cols.Sortables = cfg.Sortables
	}
	logger := deps.logger().With(slog.String("table", spec.Name))

	if err := datatable.ValidateColumns(cols, spec.Columns); err != nil {
		if deps.IsDev {
			return nil, fmt.Errorf("table %s: %w", spec.Name, err)
		}
		logger.Warn("column configuration", slog.String("error", err.Error()))
	}

	columns := datatable.Produce(cols, spec.Columns)
	opts := datatable.ControllerOptions[R]{
		PerPage:          cfg.PerPage,
		Style:            spec.Style,
		Sortables:        datatable.SortableIDs(columns),
		PersistSelection: cfg.PersistSelection,
		Logger:           logger,
	}
	if spec.Selectable {
		opts.RowID = func(r R) string { return r.RowID() }
	}

	return &Table[R]{
		spec:     spec,
		deps:     deps,
		path:     "/" + spec.Name,
		columns:  columns,
		registry: NewRegistry(spec.Fetcher, opts, deps.IdleTimeout),
		logger:   logger,
	}, nil
}

// Routes registers the table endpoints on router.
func (t *Table[R]) Routes(router chi.Router) {
	router.Get(t.path, t.Page)
	router.Post(t.path+"/intent", t.Intent)
	router.Get(t.path+"/updates", t.Updates)
	if t.spec.Exporter != nil {
		router.Post(t.path+"/export", t.Export)
	}
	router.With(RequireToken(t.deps.APIToken)).
		Get("/api/v1"+t.path, remote.Handler(t.spec.Fetcher, t.style(), t.logger))
}

// Registry exposes the per-session controllers.
func (t *Table[R]) Registry() *Registry[R] { return t.registry }

// Page mounts the visitor's table from the URL and renders the full page
// after a synchronous load. A failed load renders inline.
func (t *Table[R]) Page(w http.ResponseWriter, r *http.Request) {
	sid := SessionID(t.deps.Sessions, w, r, t.logger)
	b := t.registry.Get(sid)

	q := r.URL.Query()
	state := datatable.DecodeQuery(q, b.Controller.Defaults())
	snap := b.Controller.MountAt(r.Context(), state, t.path, datatable.DecodeCursor(q))

	page := Page(PageData{
		Title:       t.spec.Title,
		CurrentPath: t.path,
		IsDev:       t.deps.IsDev,
		UpdatesURL:  t.path + "/updates",
	}, Flash(t.flashID(), "", false), t.View(snap).Component())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Intent applies one action and answers with a patch of the table and the
// URL of the new state.
func (t *Table[R]) Intent(w http.ResponseWriter, r *http.Request) {
	sid := SessionID(t.deps.Sessions, w, r, t.logger)
	b := t.registry.Get(sid)
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	action := r.Form.Get("action")

	var (
		snap    datatable.Snapshot[R]
		message string
		err     error
	)
	if fn, ok := t.spec.Actions[action]; ok {
		message, err = fn(ctx, r.Form)
		if err == nil {
			t.deps.Notifier.Broadcast(t.spec.Name)
		}
		snap = b.Controller.Invalidate(ctx)
	} else {
		snap, err = datatable.Apply(ctx, b.Controller, action, r.Form)
	}

	sse := datastar.NewSSE(w, r)
	if err != nil {
		t.logger.Warn("intent failed", slog.String("action", action), slog.String("error", err.Error()))
		_ = sse.ConsoleError(err)
		if !errors.Is(err, datatable.ErrUnknownAction) {
			_ = sse.PatchElementTempl(Flash(t.flashID(), err.Error(), true))
		}
	} else if message != "" {
		_ = sse.PatchElementTempl(Flash(t.flashID(), message, false))
	}

	if err := sse.PatchElementTempl(t.View(snap).Component()); err != nil {
		t.logger.Debug("patch failed", slog.String("error", err.Error()))
		return
	}
	_ = sse.ExecuteScript(replaceState(t.href(snap, b.Controller.Params().Cursor)))
}

// Updates is the long-lived SSE endpoint of a table page. Invalidations
// for the table refetch and every controller transition is patched.
func (t *Table[R]) Updates(w http.ResponseWriter, r *http.Request) {
	sid := SessionID(t.deps.Sessions, w, r, t.logger)
	b := t.registry.Acquire(sid)
	defer t.registry.Release(sid)

	invalidations := t.deps.Notifier.Subscribe(t.spec.Name)
	defer t.deps.Notifier.Unsubscribe(invalidations)
	changes := b.Changes()
	defer b.Unwatch(changes)

	sse := datastar.NewSSE(w, r)
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-invalidations:
			b.Controller.Invalidate(ctx)
		case <-changes:
			if err := sse.PatchElementTempl(t.View(b.Controller.Snapshot()).Component()); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

// Export hands the current selection, or the active criteria when nothing
// is selected, to the exporter.
func (t *Table[R]) Export(w http.ResponseWriter, r *http.Request) {
	sid := SessionID(t.deps.Sessions, w, r, t.logger)
	b := t.registry.Get(sid)
	snap := b.Controller.Snapshot()

	req := datatable.NewExportRequest(t.path+"/export", snap)
	id, err := t.spec.Exporter.Export(r.Context(), req)

	sse := datastar.NewSSE(w, r)
	if err != nil {
		t.logger.Warn("export failed", slog.String("error", err.Error()))
		_ = sse.ConsoleError(err)
		_ = sse.PatchElementTempl(Flash(t.flashID(), "Export failed: "+err.Error(), true))
		return
	}

	scope := "all matching rows"
	if n := len(req.IDs); n > 0 {
		scope = strconv.Itoa(n) + " selected rows"
	}
	_ = sse.PatchElementTempl(Flash(t.flashID(), "Export "+shortID(id)+" queued for "+scope+".", false))
}

// View is the render surface of a snapshot.
func (t *Table[R]) View(snap datatable.Snapshot[R]) datatable.Table[R] {
	view := datatable.Table[R]{
		ID:         t.spec.Name + "-table",
		Columns:    t.columns,
		Snapshot:   snap,
		Selectable: t.spec.Selectable,
		Empty:      t.spec.Empty,
		Filters:    t.spec.Filters,
		Links:      datatable.Links{Path: t.path},
	}
	if t.spec.Selectable {
		view.RowID = func(r R) string { return r.RowID() }
	}
	if t.spec.Exporter != nil {
		view.Toolbar = exportButton(t.path, snap.State.Selected.Len())
	}
	return view
}

func (t *Table[R]) href(snap datatable.Snapshot[R], cur datatable.Cursor) string {
	if t.style() == datatable.PaginationCursor {
		return datatable.CursorHref(t.path, snap.State, cur)
	}
	return datatable.Href(t.path, snap.State)
}

func (t *Table[R]) style() datatable.PaginationStyle {
	if t.spec.Style == "" {
		return datatable.PaginationOffset
	}
	return t.spec.Style
}

func (t *Table[R]) flashID() string { return t.spec.Name + "-flash" }

func exportLabel(selected int) string {
	if selected > 0 {
		return "Export " + strconv.Itoa(selected) + " selected"
	}
	return "Export all"
}

// replaceState syncs the address bar without adding a history entry.
func replaceState(href string) string {
	return "window.history.replaceState(null, '', " + strconv.Quote(href) + ")"
}
