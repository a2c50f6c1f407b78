package exports

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/backoffice/internal/state"
	"github.com/leapstack-labs/backoffice/internal/testutil"
	"github.com/leapstack-labs/backoffice/pkg/core"
	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

type recorder struct {
	mu     sync.Mutex
	topics [][]string
}

func (r *recorder) Broadcast(topics ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topics)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.topics)
}

func setupStore(t *testing.T) *state.SQLStore {
	t.Helper()
	store := state.NewSQLStore(state.DriverSQLite, testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.InitSchema())
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Seed(context.Background(), core.SeedOptions{Courses: 2, Members: 12, Orders: 6, Invoices: 4}))
	return store
}

func jobsByID(t *testing.T, store core.Store) map[string]core.ExportJob {
	t.Helper()
	page, err := store.ListExportJobs(context.Background(),
		datatable.BuildParams(datatable.DefaultQueryState(50), nil, datatable.PaginationOffset, datatable.Cursor{}))
	require.NoError(t, err)
	out := map[string]core.ExportJob{}
	for _, j := range page.Rows {
		out[j.ID] = j
	}
	return out
}

func TestService_ExportAndProcess(t *testing.T) {
	store := setupStore(t)
	rec := &recorder{}
	svc := NewService(store, rec, Options{Logger: testutil.NewTestLogger(t)})
	ctx := context.Background()

	members, err := store.ListMembers(ctx,
		datatable.BuildParams(datatable.DefaultQueryState(3), nil, datatable.PaginationOffset, datatable.Cursor{}))
	require.NoError(t, err)
	selected := []string{members.Rows[0].ID, members.Rows[1].ID}

	byIDs, err := svc.For(core.ResourceMembers).Export(ctx, datatable.ExportRequest{IDs: selected})
	require.NoError(t, err)
	byFilter, err := svc.For(core.ResourceInvoices).Export(ctx, datatable.ExportRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, rec.count(), "each queued export invalidates the exports table")

	n, err := svc.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	jobs := jobsByID(t, store)
	assert.Equal(t, core.ExportCompleted, jobs[byIDs].Status)
	assert.Equal(t, 2, jobs[byIDs].RowCount)
	assert.Equal(t, core.ExportCompleted, jobs[byFilter].Status)
	assert.Equal(t, 4, jobs[byFilter].RowCount)

	n, err = svc.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestService_ExportUnknownResource(t *testing.T) {
	store := setupStore(t)
	svc := NewService(store, nil, Options{})

	_, err := svc.For("payments").Export(context.Background(), datatable.ExportRequest{})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestService_InvalidFilterFailsJob(t *testing.T) {
	store := setupStore(t)
	svc := NewService(store, nil, Options{Logger: testutil.NewTestLogger(t)})
	ctx := context.Background()

	id, err := svc.For(core.ResourceOrders).Export(ctx, datatable.ExportRequest{
		Filters: map[string]string{"min_total": "lots"},
	})
	require.NoError(t, err)

	_, err = svc.ProcessPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.ExportFailed, jobsByID(t, store)[id].Status)
}

func TestService_RunWakesOnExport(t *testing.T) {
	store := setupStore(t)
	svc := NewService(store, nil, Options{Interval: time.Hour, Logger: testutil.NewTestLogger(t)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	id, err := svc.For(core.ResourceCourses).Export(context.Background(), datatable.ExportRequest{})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return jobsByID(t, store)[id].Status == core.ExportCompleted
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
