package state

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/backoffice/internal/testutil"
	"github.com/leapstack-labs/backoffice/pkg/core"
	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

func setupTestStore(t *testing.T) *SQLStore {
	t.Helper()
	store := NewSQLStore(DriverSQLite, testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.InitSchema())
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func offsetParams(perPage, page int) datatable.Params {
	return datatable.BuildParams(datatable.DefaultQueryState(perPage).WithPage(page), nil, datatable.PaginationOffset, datatable.Cursor{})
}

func TestParseDriver(t *testing.T) {
	tests := []struct {
		in      string
		want    Driver
		wantErr bool
	}{
		{in: "", want: DriverSQLite},
		{in: "sqlite3", want: DriverSQLite},
		{in: " Postgres ", want: DriverPostgres},
		{in: "pgx", want: DriverPostgres},
		{in: "mysql", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDriver(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSQLStore_Rebind(t *testing.T) {
	query := `SELECT * FROM t WHERE a = ? AND b LIKE ? ESCAPE '\' AND c = '?'`

	assert.Equal(t, query, NewSQLStore(DriverSQLite, nil).rebind(query))
	assert.Equal(t,
		`SELECT * FROM t WHERE a = $1 AND b LIKE $2 ESCAPE '\' AND c = '?'`,
		NewSQLStore(DriverPostgres, nil).rebind(query))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
}

func TestSQLStore_NotOpened(t *testing.T) {
	store := NewSQLStore(DriverSQLite, nil)
	ctx := context.Background()

	assert.NoError(t, store.Close())
	assert.ErrorContains(t, store.InitSchema(), "database not opened")
	_, err := store.ListCourses(ctx, offsetParams(10, 1))
	assert.ErrorContains(t, err, "database not opened")
	_, err = store.ApproveMember(ctx, "x")
	assert.ErrorContains(t, err, "database not opened")
}

func TestSQLStore_InitSchema(t *testing.T) {
	store := setupTestStore(t)

	for _, table := range []string{"courses", "members", "orders", "invoices", "export_jobs"} {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		if assert.NoError(t, err, "table %s should exist", table) {
			_ = rows.Close()
		}
	}

	version, err := store.MigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// migrating again is a no-op
	assert.NoError(t, store.Migrate())
}

func TestSQLStore_Seed(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	opts := core.SeedOptions{Courses: 4, Members: 30, Orders: 50, Invoices: 12}

	require.NoError(t, store.Seed(ctx, opts))
	require.NoError(t, store.Seed(ctx, opts), "seeding twice is a no-op")

	courses, err := store.ListCourses(ctx, offsetParams(50, 1))
	require.NoError(t, err)
	assert.Equal(t, 4, courses.Meta.TotalCount)

	members, err := store.ListMembers(ctx, offsetParams(10, 1))
	require.NoError(t, err)
	assert.Equal(t, 30, members.Meta.TotalCount)
	assert.Equal(t, 3, members.Meta.TotalPages)

	orders, err := store.ListOrders(ctx, offsetParams(10, 1))
	require.NoError(t, err)
	assert.Equal(t, 50, orders.Meta.TotalCount)
	for _, o := range orders.Rows {
		assert.NotEmpty(t, o.CourseTitle)
	}

	// the same options always produce the same ids
	other := setupTestStore(t)
	require.NoError(t, other.Seed(ctx, opts))
	again, err := other.ListMembers(ctx, offsetParams(10, 1))
	require.NoError(t, err)
	assert.Equal(t, members.Rows[0].ID, again.Rows[0].ID)
}

func insertMember(t *testing.T, store *SQLStore, id, name string, status core.MemberStatus, joined time.Time) {
	t.Helper()
	_, err := store.db.Exec(
		`INSERT INTO members (id, name, email, status, joined_at) VALUES (?, ?, ?, ?, ?)`,
		id, name, id+"@example.com", status, joined,
	)
	require.NoError(t, err)
}

func memberIDs(rows []core.Member) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}

func TestSQLStore_ListMembers(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	day := func(n int) time.Time { return time.Date(2024, 3, n, 0, 0, 0, 0, time.UTC) }
	insertMember(t, store, "m1", "Ada Lovelace", core.MemberActive, day(1))
	insertMember(t, store, "m2", "Grace Hopper", core.MemberPending, day(2))
	insertMember(t, store, "m3", "Alan Turing", core.MemberPending, day(3))
	insertMember(t, store, "m4", "Barbara 100% Liskov", core.MemberActive, day(4))
	insertMember(t, store, "m5", "Edsger Dijkstra", core.MemberSuspended, day(5))

	tests := []struct {
		name      string
		state     datatable.QueryState
		base      map[string]string
		wantIDs   []string
		wantTotal int
	}{
		{
			name:      "default order is newest first",
			state:     datatable.DefaultQueryState(10),
			wantIDs:   []string{"m5", "m4", "m3", "m2", "m1"},
			wantTotal: 5,
		},
		{
			name:      "second page",
			state:     datatable.DefaultQueryState(2).WithPage(2),
			wantIDs:   []string{"m3", "m2"},
			wantTotal: 5,
		},
		{
			name:      "page past the end is empty",
			state:     datatable.DefaultQueryState(2).WithPage(9),
			wantIDs:   []string{},
			wantTotal: 5,
		},
		{
			name:      "status filter",
			state:     datatable.DefaultQueryState(10).WithFilters(map[string]string{"status": "pending"}),
			wantIDs:   []string{"m3", "m2"},
			wantTotal: 2,
		},
		{
			name:      "base filter wins",
			state:     datatable.DefaultQueryState(10).WithFilters(map[string]string{"status": "pending"}),
			base:      map[string]string{"status": "suspended"},
			wantIDs:   []string{"m5"},
			wantTotal: 1,
		},
		{
			name:      "search is case insensitive over name and email",
			state:     datatable.DefaultQueryState(10).WithSearch("ALAN"),
			wantIDs:   []string{"m3"},
			wantTotal: 1,
		},
		{
			name:      "search escapes wildcards",
			state:     datatable.DefaultQueryState(10).WithSearch("100%"),
			wantIDs:   []string{"m4"},
			wantTotal: 1,
		},
		{
			name:      "sort by name descending",
			state:     datatable.DefaultQueryState(10).WithSort("name", datatable.SortDesc),
			wantIDs:   []string{"m2", "m5", "m4", "m3", "m1"},
			wantTotal: 5,
		},
		{
			name:      "unknown sort falls back to default order",
			state:     datatable.DefaultQueryState(10).WithSort("password", datatable.SortAsc),
			wantIDs:   []string{"m5", "m4", "m3", "m2", "m1"},
			wantTotal: 5,
		},
		{
			name:      "unknown filter is ignored",
			state:     datatable.DefaultQueryState(10).WithFilters(map[string]string{"role": "admin"}),
			wantIDs:   []string{"m5", "m4", "m3", "m2", "m1"},
			wantTotal: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := datatable.BuildParams(tt.state, tt.base, datatable.PaginationOffset, datatable.Cursor{})
			page, err := store.ListMembers(ctx, p)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, memberIDs(page.Rows))
			assert.Equal(t, tt.wantTotal, page.Meta.TotalCount)
		})
	}
}

func TestSQLStore_ListOrders_InvalidFilter(t *testing.T) {
	store := setupTestStore(t)

	p := datatable.BuildParams(
		datatable.DefaultQueryState(10).WithFilters(map[string]string{"min_total": "lots"}),
		nil, datatable.PaginationOffset, datatable.Cursor{})
	_, err := store.ListOrders(context.Background(), p)

	fe := datatable.AsFetchError(err)
	require.NotNil(t, fe)
	assert.Equal(t, 400, fe.Status)
	assert.Contains(t, fe.Message, "invalid orders filter")
}

func TestSQLStore_ListOrders_Filters(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Seed(ctx, core.SeedOptions{Courses: 3, Members: 5, Orders: 40}))

	p := datatable.BuildParams(
		datatable.DefaultQueryState(100).WithFilters(map[string]string{"currency": "EUR", "min_total": "2500"}),
		nil, datatable.PaginationOffset, datatable.Cursor{})
	page, err := store.ListOrders(ctx, p)
	require.NoError(t, err)

	for _, o := range page.Rows {
		assert.Equal(t, "EUR", o.Currency)
		assert.GreaterOrEqual(t, o.TotalCents, int64(2500))
	}
	assert.Equal(t, len(page.Rows), page.Meta.TotalCount)
}

func TestSQLStore_ApproveMember(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	insertMember(t, store, "m1", "Ada Lovelace", core.MemberPending, fixed.Add(-time.Hour))

	m, err := store.ApproveMember(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, core.MemberActive, m.Status)
	require.NotNil(t, m.ApprovedAt)
	assert.True(t, fixed.Equal(*m.ApprovedAt))

	_, err = store.ApproveMember(ctx, "m1")
	assert.ErrorIs(t, err, core.ErrInvalidState)

	_, err = store.ApproveMember(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSQLStore_ApproveMember_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := NewSQLStore(DriverPostgres, testutil.NewTestLogger(t))
	store.db = db

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM members WHERE id = $1`)).
		WithArgs("m1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("active"))
	mock.ExpectRollback()

	_, err = store.ApproveMember(context.Background(), "m1")
	assert.ErrorIs(t, err, core.ErrInvalidState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_ListCourses_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	store := NewSQLStore(DriverPostgres, testutil.NewTestLogger(t))
	store.db = db

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT COUNT(*) FROM courses WHERE status = $1 AND (lower(title) LIKE $2 ESCAPE '\' OR lower(slug) LIKE $3 ESCAPE '\')`)).
		WithArgs("draft", "%go%", "%go%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(
		`ORDER BY price_cents DESC, id ASC LIMIT $4 OFFSET $5`)).
		WithArgs("draft", "%go%", "%go%", 5, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "slug", "status", "price_cents", "enrollments", "created_at"}).
			AddRow("c1", "Go Foundations", "go-foundations-1", "draft", 4900, 12, created))

	state := datatable.DefaultQueryState(5).
		WithFilters(map[string]string{"status": "draft"}).
		WithSearch("Go").
		WithSort("price", datatable.SortDesc).
		WithPage(3)
	page, err := store.ListCourses(context.Background(),
		datatable.BuildParams(state, nil, datatable.PaginationOffset, datatable.Cursor{}))
	require.NoError(t, err)

	require.Len(t, page.Rows, 1)
	assert.Equal(t, "Go Foundations", page.Rows[0].Title)
	assert.Equal(t, 11, page.Meta.TotalCount)
	assert.Equal(t, 3, page.Meta.TotalPages)
	assert.NoError(t, mock.ExpectationsWereMet())
}
