package invoices

import (
	"github.com/leapstack-labs/backoffice/internal/ui/features/common"
	"github.com/leapstack-labs/backoffice/pkg/core"
	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

// Handlers provides HTTP handlers for the invoices feature.
type Handlers struct {
	*common.Table[core.Invoice]
}

// NewHandlers creates the invoices table, paged with cursors.
func NewHandlers(deps common.Deps) (*Handlers, error) {
	spec := common.TableSpec[core.Invoice]{
		Name:       core.ResourceInvoices,
		Title:      "Invoices",
		Columns:    Columns(),
		Sortables:  Sortables,
		Style:      datatable.PaginationCursor,
		Filters:    Filters(),
		Empty:      datatable.EmptyState{NoData: "No invoices issued."},
		Selectable: true,
		Fetcher:    common.Source[core.Invoice](deps, core.ResourceInvoices, deps.Store.ListInvoices),
	}
	if deps.Exports != nil {
		spec.Exporter = deps.Exports.For(core.ResourceInvoices)
	}

	table, err := common.NewTable(deps, spec)
	if err != nil {
		return nil, err
	}
	return &Handlers{Table: table}, nil
}
