package datatable

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// Status is the lifecycle state of a Controller.
type Status int

// Controller states.
const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusErrored:
		return "errored"
	default:
		return "idle"
	}
}

// ControllerOptions configures a Controller.
type ControllerOptions[R any] struct {
	// PerPage is the default page size.
	PerPage int

	// Base filters are fixed by the page and always sent.
	Base map[string]string

	// Style selects offset or cursor pagination.
	Style PaginationStyle

	// Sortables is the allow-list of sort fields, normally SortableIDs of the
	// produced columns. Empty disables sorting.
	Sortables []string

	// RowID identifies rows for selection. Nil disables selection.
	RowID func(R) string

	// PersistSelection keeps the selection across refetches that change the
	// set of rows on the page.
	PersistSelection bool

	Logger *slog.Logger

	// OnChange is called after every transition, outside the controller's
	// lock. It must not block.
	OnChange func(Snapshot[R])
}

// Snapshot is an immutable copy of a controller's state.
type Snapshot[R any] struct {
	State    QueryState
	Result   Result[R]
	Status   Status
	Style    PaginationStyle
	RouteKey string
}

// Rows returns the committed rows.
func (s Snapshot[R]) Rows() []R { return s.Result.Rows }

// IsLoading reports whether a request is outstanding.
func (s Snapshot[R]) IsLoading() bool { return s.Status == StatusLoading }

// Err returns the last fetch error, if any.
func (s Snapshot[R]) Err() *FetchError { return s.Result.Err }

// HasPrev reports whether a previous page exists. The pagination style is
// taken from the result metadata.
func (s Snapshot[R]) HasPrev() bool {
	if s.Result.Meta.Style() == PaginationCursor {
		return s.State.Page > 1 && s.Result.Meta.EndingBefore != ""
	}
	return s.State.Page > 1
}

// HasNext reports whether a following page exists.
func (s Snapshot[R]) HasNext() bool {
	if s.Result.Meta.Style() == PaginationCursor {
		return s.Result.Meta.HasMore && s.Result.Meta.StartingAfter != ""
	}
	return s.State.Page < s.Result.Meta.TotalPages
}

// Controller owns the query state of one mounted table and turns user
// intents into fetches through a Query. It is safe for concurrent use.
type Controller[R any] struct {
	opts   ControllerOptions[R]
	logger *slog.Logger
	query  *Query[R]

	mu       sync.Mutex
	state    QueryState
	status   Status
	result   Result[R]
	lastGen  uint64
	pending  uint64 // generation of the latest load
	cursor   Cursor
	routeKey string
	mounted  bool
	pageIDs  []string
}

// NewController builds an unmounted controller over fetcher.
func NewController[R any](fetcher Fetcher[R], opts ControllerOptions[R]) *Controller[R] {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Style == "" {
		opts.Style = PaginationOffset
	}
	c := &Controller[R]{
		opts:   opts,
		logger: logger,
		state:  DefaultQueryState(opts.PerPage),
	}
	c.query = NewQuery(fetcher, QueryOptions[R]{
		Logger:   logger,
		OnCommit: c.commit,
	})
	return c
}

// Defaults returns the state a fresh mount starts from.
func (c *Controller[R]) Defaults() QueryState {
	return DefaultQueryState(c.opts.PerPage)
}

// Mount initializes the controller from state, typically decoded from the
// URL, and loads. A different routeKey than the previous mount starts over
// with an empty selection; the same routeKey keeps the selection.
func (c *Controller[R]) Mount(ctx context.Context, state QueryState, routeKey string) Snapshot[R] {
	return c.MountAt(ctx, state, routeKey, Cursor{})
}

// MountAt is Mount positioned at a cursor. The cursor is ignored for
// offset pagination.
func (c *Controller[R]) MountAt(ctx context.Context, state QueryState, routeKey string, cur Cursor) Snapshot[R] {
	c.mu.Lock()
	next := state.Clone()
	if c.mounted && c.routeKey == routeKey {
		next.Selected = c.state.Selected.Clone()
	} else {
		next.Selected = Selection{}
		c.pageIDs = nil
		if c.mounted {
			c.logger.Debug("route changed, resetting table",
				slog.String("from", c.routeKey), slog.String("to", routeKey))
		}
	}
	if next.PerPage < 1 {
		next.PerPage = c.Defaults().PerPage
	}
	if next.Page < 1 {
		next.Page = 1
	}
	if next.SortField != "" && !c.canSort(next.SortField) {
		c.logger.Debug("dropping sort on field that is not sortable", slog.String("field", next.SortField))
		next.SortField, next.SortDirection = "", SortAsc
	}
	c.state = next
	c.cursor = Cursor{}
	if c.opts.Style == PaginationCursor {
		c.cursor = cur
	}
	c.routeKey = routeKey
	c.mounted = true
	c.mu.Unlock()
	return c.load(ctx)
}

// Unmount discards outstanding responses and returns to idle.
func (c *Controller[R]) Unmount() {
	c.query.Detach()
	c.mu.Lock()
	c.mounted = false
	c.status = StatusIdle
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// SetPage moves to page n.
func (c *Controller[R]) SetPage(ctx context.Context, n int) Snapshot[R] {
	c.mu.Lock()
	c.state = c.state.WithPage(n)
	c.cursor = Cursor{}
	c.mu.Unlock()
	return c.load(ctx)
}

// SetSort orders by field. Fields outside Sortables are ignored.
func (c *Controller[R]) SetSort(ctx context.Context, field string, dir SortDirection) Snapshot[R] {
	if !c.canSort(field) {
		c.logger.Warn("ignoring sort on field that is not sortable", slog.String("field", field))
		return c.Snapshot()
	}
	c.mu.Lock()
	c.state = c.state.WithSort(field, ParseSortDirection(string(dir)))
	c.cursor = Cursor{}
	c.mu.Unlock()
	return c.load(ctx)
}

// ToggleSort applies the sort a header click on field produces.
func (c *Controller[R]) ToggleSort(ctx context.Context, field string) Snapshot[R] {
	c.mu.Lock()
	f, dir := NextSort(c.state, field)
	c.mu.Unlock()
	return c.SetSort(ctx, f, dir)
}

// SetFilters replaces the dynamic filters.
func (c *Controller[R]) SetFilters(ctx context.Context, filters map[string]string) Snapshot[R] {
	c.mu.Lock()
	c.state = c.state.WithFilters(filters)
	c.cursor = Cursor{}
	c.mu.Unlock()
	return c.load(ctx)
}

// SetSearch sets the free-text search term.
func (c *Controller[R]) SetSearch(ctx context.Context, term string) Snapshot[R] {
	c.mu.Lock()
	c.state = c.state.WithSearch(term)
	c.cursor = Cursor{}
	c.mu.Unlock()
	return c.load(ctx)
}

// ClearCriteria drops search and filters.
func (c *Controller[R]) ClearCriteria(ctx context.Context) Snapshot[R] {
	c.mu.Lock()
	c.state = c.state.WithoutCriteria()
	c.cursor = Cursor{}
	c.mu.Unlock()
	return c.load(ctx)
}

// NextCursor follows the starting_after token of the current page.
func (c *Controller[R]) NextCursor(ctx context.Context) Snapshot[R] {
	c.mu.Lock()
	token := c.result.Meta.StartingAfter
	if c.opts.Style != PaginationCursor || token == "" || !c.result.Meta.HasMore {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap
	}
	c.cursor = Cursor{StartingAfter: token}
	c.state = c.state.WithPage(c.state.Page + 1)
	c.mu.Unlock()
	return c.load(ctx)
}

// PrevCursor follows the ending_before token of the current page.
func (c *Controller[R]) PrevCursor(ctx context.Context) Snapshot[R] {
	c.mu.Lock()
	token := c.result.Meta.EndingBefore
	if c.opts.Style != PaginationCursor || token == "" || c.state.Page <= 1 {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap
	}
	c.state = c.state.WithPage(c.state.Page - 1)
	if c.state.Page == 1 {
		c.cursor = Cursor{}
	} else {
		c.cursor = Cursor{EndingBefore: token}
	}
	c.mu.Unlock()
	return c.load(ctx)
}

// ToggleRowSelection flips the selection of a row on the loaded page.
// Ids not on the page are ignored.
func (c *Controller[R]) ToggleRowSelection(id string) Snapshot[R] {
	c.mu.Lock()
	if c.opts.RowID == nil || !slices.Contains(c.pageIDs, id) {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap
	}
	c.state.Selected.Toggle(id)
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
	return snap
}

// SelectAllOnPage selects every loaded row, or clears them when all are
// already selected.
func (c *Controller[R]) SelectAllOnPage() Snapshot[R] {
	c.mu.Lock()
	if c.opts.RowID == nil || len(c.pageIDs) == 0 {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap
	}
	all := true
	for _, id := range c.pageIDs {
		if !c.state.Selected.Has(id) {
			all = false
			break
		}
	}
	for _, id := range c.pageIDs {
		if all {
			delete(c.state.Selected, id)
		} else {
			c.state.Selected[id] = struct{}{}
		}
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
	return snap
}

// ClearSelection empties the selection.
func (c *Controller[R]) ClearSelection() Snapshot[R] {
	c.mu.Lock()
	if c.state.Selected == nil {
		c.state.Selected = Selection{}
	}
	c.state.Selected.Clear()
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
	return snap
}

// Refetch reloads with the current params. Concurrent refetches share a
// fetch.
func (c *Controller[R]) Refetch(ctx context.Context) Snapshot[R] {
	return c.load(ctx)
}

// Invalidate handles an external "data changed" signal: cached data is
// dropped and the table reloads.
func (c *Controller[R]) Invalidate(ctx context.Context) Snapshot[R] {
	c.query.Invalidate()
	return c.load(ctx)
}

// Snapshot returns a copy of the current state.
func (c *Controller[R]) Snapshot() Snapshot[R] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Params returns the params the next load would send.
func (c *Controller[R]) Params() Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return BuildParams(c.state, c.opts.Base, c.opts.Style, c.cursor)
}

func (c *Controller[R]) load(ctx context.Context) Snapshot[R] {
	c.mu.Lock()
	p := BuildParams(c.state, c.opts.Base, c.opts.Style, c.cursor)
	gen := c.query.Issue(p)
	c.pending = gen
	c.mounted = true
	c.status = StatusLoading
	c.result.IsLoading = true
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)

	c.query.Await(ctx, gen, p)
	return c.Snapshot()
}

// commit reconciles a committed fetch. It runs outside the query's lock.
// A response older than the latest load installs its rows but the table
// stays loading until that load lands.
func (c *Controller[R]) commit(gen uint64, res Result[R]) {
	c.mu.Lock()
	if gen < c.lastGen {
		c.mu.Unlock()
		return
	}
	c.lastGen = gen
	c.result = res

	switch {
	case gen < c.pending && c.status == StatusLoading:
		c.result.IsLoading = true
	case res.Err != nil:
		c.status = StatusErrored
		c.logger.Debug("table load failed", slog.String("route", c.routeKey), slog.Any("error", res.Err))
	default:
		c.status = StatusLoaded
	}

	ids := c.rowIDs(res.Rows)
	if !c.opts.PersistSelection && !sameIDs(c.pageIDs, ids) && c.state.Selected.Len() > 0 {
		c.logger.Debug("rows changed, clearing selection", slog.Int("selected", c.state.Selected.Len()))
		c.state.Selected = Selection{}
	}
	c.pageIDs = ids
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(snap)
}

func (c *Controller[R]) canSort(field string) bool {
	return slices.Contains(c.opts.Sortables, field)
}

func (c *Controller[R]) rowIDs(rows []R) []string {
	if c.opts.RowID == nil {
		return nil
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = c.opts.RowID(r)
	}
	return ids
}

func (c *Controller[R]) snapshotLocked() Snapshot[R] {
	res := c.result
	res.Rows = slices.Clone(c.result.Rows)
	res.Meta = c.result.Meta
	res.IsLoading = c.status == StatusLoading
	if c.result.Err != nil {
		e := *c.result.Err
		res.Err = &e
	}
	return Snapshot[R]{
		State:    c.state.Clone(),
		Result:   res,
		Status:   c.status,
		Style:    c.opts.Style,
		RouteKey: c.routeKey,
	}
}

func (c *Controller[R]) notify(snap Snapshot[R]) {
	if c.opts.OnChange != nil {
		c.opts.OnChange(snap)
	}
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := NewSelection(a...)
	for _, id := range b {
		if !as.Has(id) {
			return false
		}
	}
	return true
}
