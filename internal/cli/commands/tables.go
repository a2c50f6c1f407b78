package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/leapstack-labs/backoffice/internal/remote"
	"github.com/leapstack-labs/backoffice/internal/tui"
	"github.com/leapstack-labs/backoffice/internal/ui/features/courses"
	"github.com/leapstack-labs/backoffice/internal/ui/features/exports"
	"github.com/leapstack-labs/backoffice/internal/ui/features/invoices"
	"github.com/leapstack-labs/backoffice/internal/ui/features/members"
	"github.com/leapstack-labs/backoffice/internal/ui/features/orders"
	"github.com/leapstack-labs/backoffice/pkg/core"
	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

// resource is one table as the terminal commands see it.
type resource interface {
	Name() string
	List(ctx context.Context, cc *CommandContext, q listQuery) (*listing, error)
	Browse(ctx context.Context, cc *CommandContext, q listQuery, in io.Reader, out io.Writer) error
}

// listing is one loaded page, flattened to text.
type listing struct {
	Resource string
	Headers  []string
	Rows     [][]string
	State    datatable.QueryState
	Meta     datatable.Meta
	Style    datatable.PaginationStyle

	// Page is the typed page, encoded as is in JSON mode.
	Page any
}

// listQuery holds the query-state flags shared by list and browse.
type listQuery struct {
	Page    int
	PerPage int
	Sort    string
	Dir     string
	Search  string
	Filters []string
	After   string
	Before  string
}

// values mirrors the flags into URL values so they go through the same
// decoding as a page URL.
func (q listQuery) values() (url.Values, error) {
	v := url.Values{}
	if q.Page > 0 {
		v.Set(datatable.KeyPage, strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set(datatable.KeyPerPage, strconv.Itoa(q.PerPage))
	}
	if q.Sort != "" {
		v.Set(datatable.KeySort, q.Sort)
		v.Set(datatable.KeyDir, q.Dir)
	}
	if q.Search != "" {
		v.Set(datatable.KeySearch, q.Search)
	}
	for _, f := range q.Filters {
		key, value, ok := strings.Cut(f, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid filter %q: expected key=value", f)
		}
		v.Set(datatable.FilterKey(strings.TrimSpace(key)), value)
	}
	if q.After != "" {
		v.Set(datatable.KeyStartingAfter, q.After)
	}
	if q.Before != "" {
		v.Set(datatable.KeyEndingBefore, q.Before)
	}
	return v, nil
}

type table[R interface{ RowID() string }] struct {
	name      string
	title     string
	columns   []datatable.Column[R]
	sortables []string
	style     datatable.PaginationStyle
	local     func(core.Store) datatable.FetcherFunc[R]
}

func (t *table[R]) Name() string { return t.name }

func (t *table[R]) fetcher(cc *CommandContext) datatable.Fetcher[R] {
	if cc.API != nil {
		return remote.NewFetcher[R](cc.API, t.name)
	}
	return t.local(cc.Store)
}

// controller builds a controller and the visible columns from the table's
// configuration.
func (t *table[R]) controller(cc *CommandContext) (*datatable.Controller[R], []datatable.Column[R]) {
	cfg := cc.Cfg.Table(t.name)
	cols := datatable.ColumnConfig{Sortables: t.sortables, Columns: cfg.Columns}
	if cfg.Sortables != nil {
		cols.Sortables = cfg.Sortables
	}
	if err := datatable.ValidateColumns(cols, t.columns); err != nil {
		cc.Logger.Warn("column configuration", slog.String("table", t.name), slog.String("error", err.Error()))
	}

	columns := datatable.Produce(cols, t.columns)
	ctrl := datatable.NewController(t.fetcher(cc), datatable.ControllerOptions[R]{
		PerPage:          cfg.PerPage,
		Style:            t.style,
		Sortables:        datatable.SortableIDs(columns),
		RowID:            func(r R) string { return r.RowID() },
		PersistSelection: cfg.PersistSelection,
		Logger:           cc.Logger.With(slog.String("table", t.name)),
	})
	return ctrl, columns
}

func (t *table[R]) decode(ctrl *datatable.Controller[R], q listQuery) (datatable.QueryState, datatable.Cursor, error) {
	v, err := q.values()
	if err != nil {
		return datatable.QueryState{}, datatable.Cursor{}, err
	}
	return datatable.DecodeQuery(v, ctrl.Defaults()), datatable.DecodeCursor(v), nil
}

func (t *table[R]) List(ctx context.Context, cc *CommandContext, q listQuery) (*listing, error) {
	ctrl, cols := t.controller(cc)
	defer ctrl.Unmount()

	st, cur, err := t.decode(ctrl, q)
	if err != nil {
		return nil, err
	}

	snap := ctrl.MountAt(ctx, st, "cli:"+t.name, cur)
	if fe := snap.Err(); fe != nil {
		return nil, fmt.Errorf("failed to list %s: %w", t.name, fe)
	}

	l := &listing{
		Resource: t.name,
		State:    snap.State,
		Meta:     snap.Result.Meta,
		Style:    snap.Style,
		Page:     datatable.Page[R]{Rows: snap.Rows(), Meta: snap.Result.Meta},
	}
	for _, c := range cols {
		if c.Accessor == nil {
			continue
		}
		l.Headers = append(l.Headers, c.Title())
	}
	for _, row := range snap.Rows() {
		cells := make([]string, 0, len(l.Headers))
		for _, c := range cols {
			if c.Accessor == nil {
				continue
			}
			cells = append(cells, c.Text(row))
		}
		l.Rows = append(l.Rows, cells)
	}
	return l, nil
}

func (t *table[R]) Browse(ctx context.Context, cc *CommandContext, q listQuery, in io.Reader, out io.Writer) error {
	ctrl, cols := t.controller(cc)
	defer ctrl.Unmount()

	st, cur, err := t.decode(ctrl, q)
	if err != nil {
		return err
	}

	m := tui.New(ctx, ctrl, tui.Options[R]{
		Title:   t.title,
		Columns: cols,
		RowID:   func(r R) string { return r.RowID() },
		State:   st,
		Cursor:  cur,
	})
	return tui.Run(ctx, m, in, out)
}

// resources lists the tables in navigation order. Columns and sortables are
// shared with the web UI.
var resources = []resource{
	&table[core.Course]{
		name: core.ResourceCourses, title: "Courses",
		columns: courses.Columns(), sortables: courses.Sortables,
		local: func(s core.Store) datatable.FetcherFunc[core.Course] { return s.ListCourses },
	},
	&table[core.Order]{
		name: core.ResourceOrders, title: "Orders",
		columns: orders.Columns(), sortables: orders.Sortables,
		local: func(s core.Store) datatable.FetcherFunc[core.Order] { return s.ListOrders },
	},
	&table[core.Member]{
		name: core.ResourceMembers, title: "Members",
		columns: members.Columns(), sortables: members.Sortables,
		local: func(s core.Store) datatable.FetcherFunc[core.Member] { return s.ListMembers },
	},
	&table[core.Invoice]{
		name: core.ResourceInvoices, title: "Invoices",
		columns: invoices.Columns(), sortables: invoices.Sortables,
		style: datatable.PaginationCursor,
		local: func(s core.Store) datatable.FetcherFunc[core.Invoice] { return s.ListInvoices },
	},
	&table[core.ExportJob]{
		name: core.ResourceExports, title: "Exports",
		columns: exports.Columns(), sortables: exports.Sortables,
		local: func(s core.Store) datatable.FetcherFunc[core.ExportJob] { return s.ListExportJobs },
	},
}

func findResource(name string) (resource, error) {
	i := slices.IndexFunc(resources, func(r resource) bool { return r.Name() == name })
	if i < 0 {
		return nil, fmt.Errorf("unknown table %q (available: %s)", name, strings.Join(core.Resources, ", "))
	}
	return resources[i], nil
}
