package orders

import (
	"github.com/leapstack-labs/backoffice/internal/ui/features/common"
	"github.com/leapstack-labs/backoffice/pkg/core"
	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

// Handlers provides HTTP handlers for the orders feature.
type Handlers struct {
	*common.Table[core.Order]
}

// NewHandlers creates the orders table bound to deps.
func NewHandlers(deps common.Deps) (*Handlers, error) {
	spec := common.TableSpec[core.Order]{
		Name:      core.ResourceOrders,
		Title:     "Orders",
		Columns:   Columns(),
		Sortables: Sortables,
		Filters:   Filters(),
		Empty: datatable.EmptyState{
			NoData:    "No orders have been placed.",
			NoResults: "No orders match. Try another course or status.",
		},
		Selectable: true,
		Fetcher:    common.Source[core.Order](deps, core.ResourceOrders, deps.Store.ListOrders),
	}
	if deps.Exports != nil {
		spec.Exporter = deps.Exports.For(core.ResourceOrders)
	}

	table, err := common.NewTable(deps, spec)
	if err != nil {
		return nil, err
	}
	return &Handlers{Table: table}, nil
}
