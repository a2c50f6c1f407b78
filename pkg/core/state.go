package core

import (
	"context"
	"database/sql"
	"errors"

	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

// Sentinel errors returned by Store implementations.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state transition")
)

// Store defines the persistence operations behind the dashboard tables.
//
// List operations receive the params produced by a datatable controller and
// return one page already ordered by the requested sort.
type Store interface {
	Open(dsn string) error
	Close() error
	InitSchema() error

	// Table listings
	ListCourses(ctx context.Context, p datatable.Params) (datatable.Page[Course], error)
	ListOrders(ctx context.Context, p datatable.Params) (datatable.Page[Order], error)
	ListMembers(ctx context.Context, p datatable.Params) (datatable.Page[Member], error)
	ListInvoices(ctx context.Context, p datatable.Params) (datatable.Page[Invoice], error)
	ListExportJobs(ctx context.Context, p datatable.Params) (datatable.Page[ExportJob], error)

	// Mutations
	ApproveMember(ctx context.Context, id string) (*Member, error)
	CreateExportJob(ctx context.Context, resource string, req datatable.ExportRequest) (*ExportJob, error)
	UpdateExportJob(ctx context.Context, id string, status ExportStatus, rowCount int) error
	PendingExportJobs(ctx context.Context) ([]*ExportJob, error)
	CountRows(ctx context.Context, resource string, req datatable.ExportRequest) (int, error)

	// Seed fills an empty database with demo data.
	Seed(ctx context.Context, opts SeedOptions) error
}

// QueryableStore is a Store that exposes its database handle.
type QueryableStore interface {
	Store
	DB() *sql.DB
}

// SeedOptions controls how much demo data Seed writes.
type SeedOptions struct {
	Courses  int
	Members  int
	Orders   int
	Invoices int
}

// DefaultSeedOptions is a dataset big enough to page through.
func DefaultSeedOptions() SeedOptions {
	return SeedOptions{Courses: 12, Members: 80, Orders: 240, Invoices: 120}
}
