package datatable

import (
	"context"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/backoffice/internal/testutil"
)

func rowID(r testRow) string { return r.ID }

func newTestController(t *testing.T, f Fetcher[testRow], opts ControllerOptions[testRow]) *Controller[testRow] {
	t.Helper()
	if opts.PerPage == 0 {
		opts.PerPage = 10
	}
	if opts.RowID == nil {
		opts.RowID = rowID
	}
	opts.Logger = testutil.NewTestLogger(t)
	return NewController(f, opts)
}

func ids(rows []testRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestController_SetPageThenSearchResetsPage(t *testing.T) {
	c := newTestController(t, newMemoryFetcher(100), ControllerOptions[testRow]{})
	ctx := context.Background()
	c.Mount(ctx, c.Defaults(), "members")

	snap := c.SetPage(ctx, 3)
	require.Equal(t, 3, snap.State.Page)
	assert.Equal(t, "r21", snap.Rows()[0].ID)

	snap = c.SetSearch(ctx, "foo")
	assert.Equal(t, 1, snap.State.Page)
}

func TestController_CriteriaIntentsResetPage(t *testing.T) {
	c := newTestController(t, newMemoryFetcher(100), ControllerOptions[testRow]{Sortables: []string{"name"}})
	ctx := context.Background()
	c.Mount(ctx, c.Defaults(), "members")

	intents := []struct {
		name  string
		apply func() Snapshot[testRow]
	}{
		{"sort", func() Snapshot[testRow] { return c.SetSort(ctx, "name", SortDesc) }},
		{"filters", func() Snapshot[testRow] { return c.SetFilters(ctx, map[string]string{"status": "active"}) }},
		{"search", func() Snapshot[testRow] { return c.SetSearch(ctx, "member") }},
		{"sort again", func() Snapshot[testRow] { return c.ToggleSort(ctx, "name") }},
		{"clear", func() Snapshot[testRow] { return c.ClearCriteria(ctx) }},
	}

	for _, in := range intents {
		c.SetPage(ctx, 4)
		snap := in.apply()
		assert.Equal(t, 1, snap.State.Page, "after %s", in.name)
		assert.Equal(t, 1, c.Params().Page, "after %s", in.name)
	}
}

func TestController_StatusTransitions(t *testing.T) {
	f := newMemoryFetcher(5)

	var mu sync.Mutex
	var seen []Status
	c := newTestController(t, f, ControllerOptions[testRow]{
		OnChange: func(s Snapshot[testRow]) {
			mu.Lock()
			seen = append(seen, s.Status)
			mu.Unlock()
		},
	})
	ctx := context.Background()

	assert.Equal(t, StatusIdle, c.Snapshot().Status)

	snap := c.Mount(ctx, c.Defaults(), "members")
	assert.Equal(t, StatusLoaded, snap.Status)
	assert.Len(t, snap.Rows(), 5)

	f.setErr(&FetchError{Status: 503, Message: "unavailable"})
	snap = c.Refetch(ctx)
	assert.Equal(t, StatusErrored, snap.Status)
	require.NotNil(t, snap.Err())
	assert.Equal(t, 503, snap.Err().Status)
	assert.Len(t, snap.Rows(), 5, "previous rows are kept on error")

	f.setErr(nil)
	snap = c.Refetch(ctx)
	assert.Equal(t, StatusLoaded, snap.Status)
	assert.Nil(t, snap.Err())

	c.Unmount()
	assert.Equal(t, StatusIdle, c.Snapshot().Status)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{
		StatusLoading, StatusLoaded,
		StatusLoading, StatusErrored,
		StatusLoading, StatusLoaded,
		StatusIdle,
	}, seen)
}

func TestController_LateCommitKeepsLoading(t *testing.T) {
	f := newGatedFetcher("b")
	c := newTestController(t, f, ControllerOptions[testRow]{})
	ctx := context.Background()

	first := c.Mount(ctx, c.Defaults().WithSearch("a"), "members")
	f.waitStarted(t, "a")
	require.Equal(t, StatusLoaded, first.Status)

	done := make(chan Snapshot[testRow], 1)
	go func() { done <- c.SetSearch(ctx, "b") }()
	f.waitStarted(t, "b")

	// the response to the mount reaches the controller after the next load
	// was issued
	c.commit(1, first.Result)
	snap := c.Snapshot()
	assert.Equal(t, StatusLoading, snap.Status)
	assert.True(t, snap.IsLoading())
	assert.Equal(t, "b", snap.State.Search)

	f.open("b")
	snap = <-done
	assert.Equal(t, StatusLoaded, snap.Status)
	assert.Equal(t, []string{"b"}, ids(snap.Rows()))
}

func TestController_Selection(t *testing.T) {
	f := newMemoryFetcher(30)
	c := newTestController(t, f, ControllerOptions[testRow]{})
	ctx := context.Background()
	c.Mount(ctx, c.Defaults(), "members")

	snap := c.ToggleRowSelection("r02")
	assert.Equal(t, []string{"r02"}, snap.State.Selected.IDs())

	snap = c.ToggleRowSelection("r25")
	assert.Equal(t, []string{"r02"}, snap.State.Selected.IDs(), "ids not on the page are ignored")

	snap = c.Refetch(ctx)
	assert.Equal(t, []string{"r02"}, snap.State.Selected.IDs(), "same rows keep the selection")

	snap = c.SetPage(ctx, 2)
	assert.Zero(t, snap.State.Selected.Len(), "new rows clear the selection")

	snap = c.SelectAllOnPage()
	assert.Equal(t, ids(snap.Rows()), snap.State.Selected.IDs())

	snap = c.SelectAllOnPage()
	assert.Zero(t, snap.State.Selected.Len())

	c.ToggleRowSelection("r11")
	snap = c.ClearSelection()
	assert.Zero(t, snap.State.Selected.Len())
}

func TestController_InvalidateClearsSelectionWhenRowsChange(t *testing.T) {
	f := newMemoryFetcher(5)
	c := newTestController(t, f, ControllerOptions[testRow]{})
	ctx := context.Background()
	c.Mount(ctx, c.Defaults(), "members")
	c.ToggleRowSelection("r01")

	f.setRows(newMemoryFetcher(4).rows)
	snap := c.Invalidate(ctx)

	assert.Len(t, snap.Rows(), 4)
	assert.Zero(t, snap.State.Selected.Len())
}

func TestController_PersistSelection(t *testing.T) {
	c := newTestController(t, newMemoryFetcher(30), ControllerOptions[testRow]{PersistSelection: true})
	ctx := context.Background()
	c.Mount(ctx, c.Defaults(), "members")

	c.ToggleRowSelection("r01")
	c.SetPage(ctx, 2)
	snap := c.ToggleRowSelection("r12")

	assert.Equal(t, []string{"r01", "r12"}, snap.State.Selected.IDs())
}

func TestController_MountRouteKey(t *testing.T) {
	c := newTestController(t, newMemoryFetcher(30), ControllerOptions[testRow]{})
	ctx := context.Background()

	c.Mount(ctx, c.Defaults().WithSearch("member"), "course/1")
	c.ToggleRowSelection("r03")

	snap := c.Mount(ctx, c.Defaults().WithSearch("member"), "course/1")
	assert.Equal(t, []string{"r03"}, snap.State.Selected.IDs())

	snap = c.Mount(ctx, c.Defaults(), "course/2")
	assert.Zero(t, snap.State.Selected.Len())
	assert.Equal(t, "course/2", snap.RouteKey)
	assert.Empty(t, snap.State.Search)
}

func TestController_SortAllowList(t *testing.T) {
	f := newMemoryFetcher(10)
	c := newTestController(t, f, ControllerOptions[testRow]{Sortables: []string{"name"}})
	ctx := context.Background()
	c.Mount(ctx, c.Defaults(), "members")

	snap := c.SetSort(ctx, "email", SortAsc)
	assert.Empty(t, snap.State.SortField)

	snap = c.SetSort(ctx, "name", SortDesc)
	assert.Equal(t, "name", snap.State.SortField)
	assert.Equal(t, "r10", snap.Rows()[0].ID)

	snap = c.ToggleSort(ctx, "name")
	assert.Equal(t, SortAsc, snap.State.SortDirection)
	assert.Equal(t, "r01", snap.Rows()[0].ID)
}

func TestController_SortRestrictedToProducedColumns(t *testing.T) {
	all := []Column[testRow]{
		{ID: "name", Sortable: true},
		{ID: "secret"},
	}

	tests := []struct {
		name      string
		sortables []string
		field     string
		want      string
	}{
		{name: "empty allow-list", sortables: []string{}, field: "name", want: ""},
		{name: "nil allow-list", sortables: nil, field: "secret", want: ""},
		{name: "listed but not sortable", sortables: []string{"secret"}, field: "secret", want: ""},
		{name: "listed and sortable", sortables: []string{"name", "secret"}, field: "name", want: "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols := Produce(ColumnConfig{Sortables: tt.sortables}, all)
			c := newTestController(t, newMemoryFetcher(10), ControllerOptions[testRow]{Sortables: SortableIDs(cols)})
			ctx := context.Background()
			c.Mount(ctx, c.Defaults(), "members")

			snap := c.SetSort(ctx, tt.field, SortDesc)
			assert.Equal(t, tt.want, snap.State.SortField)
			assert.Equal(t, tt.want, c.Params().SortField)

			snap = c.ToggleSort(ctx, tt.field)
			assert.Equal(t, tt.want, snap.State.SortField)
		})
	}
}

func TestController_MountDropsUnsortableField(t *testing.T) {
	f := newMemoryFetcher(10)
	c := newTestController(t, f, ControllerOptions[testRow]{Sortables: []string{"name"}})
	ctx := context.Background()

	snap := c.Mount(ctx, c.Defaults().WithSort("password_hash", SortDesc), "members")
	assert.Empty(t, snap.State.SortField)
	assert.Equal(t, SortAsc, snap.State.SortDirection)
	assert.Empty(t, f.lastParams().SortField)

	snap = c.Mount(ctx, c.Defaults().WithSort("name", SortDesc), "members")
	assert.Equal(t, "name", snap.State.SortField)
	assert.Equal(t, "name", f.lastParams().SortField)
}

func TestController_BaseFiltersWin(t *testing.T) {
	f := newMemoryFetcher(9)
	c := newTestController(t, f, ControllerOptions[testRow]{Base: map[string]string{"status": "pending"}})
	ctx := context.Background()

	snap := c.Mount(ctx, c.Defaults().WithFilters(map[string]string{"status": "active"}), "members")

	assert.Equal(t, []string{"r03", "r06", "r09"}, ids(snap.Rows()))
	assert.Equal(t, "pending", f.lastParams().AllFilters()["status"])
	assert.Empty(t, f.lastParams().Filters)
}

func TestController_CursorPagination(t *testing.T) {
	f := newMemoryFetcher(25)
	c := newTestController(t, f, ControllerOptions[testRow]{Style: PaginationCursor})
	ctx := context.Background()

	snap := c.Mount(ctx, c.Defaults(), "invoices")
	assert.Equal(t, "r01", snap.Rows()[0].ID)
	assert.True(t, snap.HasNext())
	assert.False(t, snap.HasPrev())

	snap = c.NextCursor(ctx)
	assert.Equal(t, 2, snap.State.Page)
	assert.Equal(t, "r11", snap.Rows()[0].ID)
	assert.Equal(t, "r10", f.lastParams().Cursor.StartingAfter)

	snap = c.NextCursor(ctx)
	assert.Equal(t, []string{"r21", "r22", "r23", "r24", "r25"}, ids(snap.Rows()))
	assert.False(t, snap.HasNext())

	snap = c.NextCursor(ctx)
	assert.Equal(t, 3, snap.State.Page, "next without has_more is a no-op")

	snap = c.PrevCursor(ctx)
	assert.Equal(t, 2, snap.State.Page)
	assert.Equal(t, "r11", snap.Rows()[0].ID)
	assert.Equal(t, "r21", f.lastParams().Cursor.EndingBefore)

	snap = c.PrevCursor(ctx)
	assert.Equal(t, 1, snap.State.Page)
	assert.Equal(t, Cursor{}, f.lastParams().Cursor)

	snap = c.NextCursor(ctx)
	require.Equal(t, 2, snap.State.Page)
	snap = c.SetSearch(ctx, "member")
	assert.Equal(t, 1, snap.State.Page)
	assert.Equal(t, Cursor{}, f.lastParams().Cursor, "criteria changes drop the cursor")
}

func TestApply(t *testing.T) {
	c := newTestController(t, newMemoryFetcher(30), ControllerOptions[testRow]{Sortables: []string{"name"}})
	ctx := context.Background()
	c.Mount(ctx, c.Defaults(), "members")

	tests := []struct {
		name    string
		action  string
		form    url.Values
		check   func(t *testing.T, s Snapshot[testRow])
		wantErr bool
	}{
		{
			name:   "page",
			action: ActionPage,
			form:   url.Values{KeyPage: {"2"}},
			check:  func(t *testing.T, s Snapshot[testRow]) { assert.Equal(t, 2, s.State.Page) },
		},
		{
			name:    "bad page",
			action:  ActionPage,
			form:    url.Values{KeyPage: {"two"}},
			wantErr: true,
		},
		{
			name:   "sort with direction",
			action: ActionSort,
			form:   url.Values{KeyField: {"name"}, KeyDir: {"desc"}},
			check: func(t *testing.T, s Snapshot[testRow]) {
				assert.Equal(t, SortDesc, s.State.SortDirection)
				assert.Equal(t, 1, s.State.Page)
			},
		},
		{
			name:   "sort toggle",
			action: ActionSort,
			form:   url.Values{KeyField: {"name"}},
			check:  func(t *testing.T, s Snapshot[testRow]) { assert.Equal(t, SortAsc, s.State.SortDirection) },
		},
		{
			name:    "sort without field",
			action:  ActionSort,
			wantErr: true,
		},
		{
			name:   "filter",
			action: ActionFilter,
			form:   url.Values{FilterKey("status"): {"pending"}},
			check:  func(t *testing.T, s Snapshot[testRow]) { assert.Len(t, s.Rows(), 10) },
		},
		{
			name:   "search",
			action: ActionSearch,
			form:   url.Values{KeySearch: {"Member 0"}},
			check:  func(t *testing.T, s Snapshot[testRow]) { assert.Equal(t, "Member 0", s.State.Search) },
		},
		{
			name:   "clear filters",
			action: ActionClearFilters,
			check:  func(t *testing.T, s Snapshot[testRow]) { assert.False(t, s.State.HasCriteria()) },
		},
		{
			name:   "select",
			action: ActionSelect,
			form:   url.Values{KeyID: {"r01"}},
			check:  func(t *testing.T, s Snapshot[testRow]) { assert.True(t, s.State.Selected.Has("r01")) },
		},
		{
			name:    "unknown",
			action:  "explode",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := Apply(ctx, c, tt.action, tt.form)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, snap)
		})
	}

	_, err := Apply(ctx, c, "explode", nil)
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestNewExportRequest(t *testing.T) {
	c := newTestController(t, newMemoryFetcher(10), ControllerOptions[testRow]{})
	ctx := context.Background()
	c.Mount(ctx, c.Defaults().WithFilters(map[string]string{"status": "active"}).WithSearch("member"), "members")
	c.ToggleRowSelection("r02")
	snap := c.ToggleRowSelection("r01")

	req := NewExportRequest("/exports/members", snap)
	assert.Equal(t, "/exports/members", req.Endpoint)
	assert.Equal(t, []string{"r01", "r02"}, req.IDs)
	assert.Equal(t, map[string]string{"status": "active", "q": "member"}, req.Filters)
}
