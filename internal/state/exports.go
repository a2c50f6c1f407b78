package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/leapstack-labs/backoffice/pkg/core"
	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

const exportColumns = "id, resource, status, ids, filters, row_count, created_at"

type exportFilters struct {
	Resource string `mapstructure:"resource"`
	Status   string `mapstructure:"status"`
}

func (s *SQLStore) exportQuery(p datatable.Params) (listQuery, error) {
	q := listQuery{
		resource: core.ResourceExports,
		columns:  exportColumns,
		from:     "export_jobs",
		search:   []string{"resource", "id"},
		sorts: map[string]string{
			"resource":   "resource",
			"status":     "status",
			"rows":       "row_count",
			"created_at": "created_at",
		},
		order:    "created_at DESC",
		tiebreak: "id ASC",
	}

	var f exportFilters
	if err := s.decodeFilters(q.resource, p.AllFilters(), &f); err != nil {
		return q, err
	}
	q.filter("resource = ?", f.Resource)
	q.filter("status = ?", f.Status)
	q.matchSearch(p.Search)
	return q, nil
}

// ListExportJobs returns one page of export jobs.
func (s *SQLStore) ListExportJobs(ctx context.Context, p datatable.Params) (datatable.Page[core.ExportJob], error) {
	q, err := s.exportQuery(p)
	if err != nil {
		return datatable.Page[core.ExportJob]{}, err
	}
	return listOffset(ctx, s, q, p, scanExportJob)
}

// CreateExportJob records a queued export of resource.
func (s *SQLStore) CreateExportJob(ctx context.Context, resource string, req datatable.ExportRequest) (*core.ExportJob, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if !slices.Contains(core.Resources, resource) || resource == core.ResourceExports {
		return nil, fmt.Errorf("cannot export %q: %w", resource, core.ErrNotFound)
	}

	job := &core.ExportJob{
		ID:        generateID(),
		Resource:  resource,
		Status:    core.ExportQueued,
		IDs:       slices.Clone(req.IDs),
		Filters:   maps.Clone(req.Filters),
		CreatedAt: s.now(),
	}
	if job.IDs == nil {
		job.IDs = []string{}
	}
	if job.Filters == nil {
		job.Filters = map[string]string{}
	}

	ids, err := json.Marshal(job.IDs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode export ids: %w", err)
	}
	filters, err := json.Marshal(job.Filters)
	if err != nil {
		return nil, fmt.Errorf("failed to encode export filters: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		s.rebind(`INSERT INTO export_jobs (id, resource, status, ids, filters, row_count, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		job.ID, job.Resource, job.Status, string(ids), string(filters), 0, job.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create export job: %w", err)
	}

	return job, nil
}

// UpdateExportJob records the outcome of an export job.
func (s *SQLStore) UpdateExportJob(ctx context.Context, id string, status core.ExportStatus, rowCount int) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	res, err := s.db.ExecContext(ctx,
		s.rebind(`UPDATE export_jobs SET status = ?, row_count = ? WHERE id = ?`),
		status, rowCount, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update export job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update export job: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("export job %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// PendingExportJobs returns queued jobs, oldest first.
func (s *SQLStore) PendingExportJobs(ctx context.Context) ([]*core.ExportJob, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	query := `SELECT ` + exportColumns + ` FROM export_jobs WHERE status = ? ORDER BY created_at ASC, id ASC`
	jobs, err := queryRows(ctx, s, core.ResourceExports, query, []any{core.ExportQueued}, scanExportJob)
	if err != nil {
		return nil, err
	}

	out := make([]*core.ExportJob, len(jobs))
	for i := range jobs {
		out[i] = &jobs[i]
	}
	return out, nil
}

// CountRows returns how many rows of resource an export request covers:
// the selected ids when any are given, otherwise every row matching the
// filters, with "q" as the search term.
func (s *SQLStore) CountRows(ctx context.Context, resource string, req datatable.ExportRequest) (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}

	var p datatable.Params
	if len(req.IDs) == 0 {
		filters := maps.Clone(req.Filters)
		p.Search = filters["q"]
		delete(filters, "q")
		p.Filters = filters
	}

	var (
		q   listQuery
		err error
		id  = "id"
	)
	switch resource {
	case core.ResourceCourses:
		q, err = s.courseQuery(p)
	case core.ResourceOrders:
		q, err = s.orderQuery(p)
		id = "o.id"
	case core.ResourceMembers:
		q, err = s.memberQuery(p)
	case core.ResourceInvoices:
		q, err = s.invoiceQuery(p)
	default:
		return 0, fmt.Errorf("cannot count %q: %w", resource, core.ErrNotFound)
	}
	if err != nil {
		return 0, err
	}

	q.onlyIDs(id, req.IDs)
	return s.count(ctx, q)
}

func scanExportJob(rows *sql.Rows) (core.ExportJob, error) {
	var j core.ExportJob
	var ids, filters string
	if err := rows.Scan(&j.ID, &j.Resource, &j.Status, &ids, &filters, &j.RowCount, &j.CreatedAt); err != nil {
		return j, err
	}
	if err := json.Unmarshal([]byte(ids), &j.IDs); err != nil {
		return j, fmt.Errorf("decode ids: %w", err)
	}
	if err := json.Unmarshal([]byte(filters), &j.Filters); err != nil {
		return j, fmt.Errorf("decode filters: %w", err)
	}
	return j, nil
}
