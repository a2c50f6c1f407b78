package orders

import (
	"github.com/a-h/templ"

	"github.com/leapstack-labs/backoffice/internal/ui/features/common"
	"github.com/leapstack-labs/backoffice/pkg/core"
	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

// Sortables are the default sortable fields of the orders table.
var Sortables = []string{"number", "member", "course", "status", "total", "created_at"}

// Columns is the full column set of the orders table.
func Columns() []datatable.Column[core.Order] {
	return []datatable.Column[core.Order]{
		{
			ID:       "number",
			Header:   "Order",
			Accessor: func(o core.Order) any { return o.Number },
			Sortable: true,
			Render:   func(o core.Order) templ.Component { return common.Mono(o.Number) },
		},
		{ID: "member", Accessor: func(o core.Order) any { return o.MemberEmail }, Sortable: true},
		{ID: "course", Accessor: func(o core.Order) any { return o.CourseTitle }, Sortable: true},
		{
			ID:       "status",
			Accessor: func(o core.Order) any { return string(o.Status) },
			Sortable: true,
			Render:   func(o core.Order) templ.Component { return common.Badge(string(o.Status)) },
		},
		{ID: "total", Accessor: func(o core.Order) any { return core.Money(o.TotalCents, o.Currency) }, Sortable: true},
		{ID: "created_at", Header: "Placed", Accessor: func(o core.Order) any { return common.Date(o.CreatedAt) }, Sortable: true},
	}
}

// Filters are the toolbar selects of the orders table.
func Filters() []datatable.Filter {
	return []datatable.Filter{
		{
			Key:     "status",
			Label:   "Status",
			Options: common.Options(string(core.OrderPending), string(core.OrderPaid), string(core.OrderRefunded)),
		},
		{
			Key:     "currency",
			Label:   "Currency",
			Options: []datatable.FilterOption{{Value: "EUR", Label: "EUR"}, {Value: "USD", Label: "USD"}},
		},
	}
}
