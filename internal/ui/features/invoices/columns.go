package invoices

import (
	"github.com/a-h/templ"

	"github.com/leapstack-labs/backoffice/internal/ui/features/common"
	"github.com/leapstack-labs/backoffice/pkg/core"
	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

// Sortables are the default sortable fields. Cursors are keyed on the
// invoice number, so it is the only one.
var Sortables = []string{"number"}

// Columns is the full column set of the invoices table.
func Columns() []datatable.Column[core.Invoice] {
	return []datatable.Column[core.Invoice]{
		{
			ID:       "number",
			Header:   "Invoice",
			Accessor: func(i core.Invoice) any { return i.Number },
			Sortable: true,
			Render:   func(i core.Invoice) templ.Component { return common.Mono(i.Number) },
		},
		{
			ID:       "status",
			Accessor: func(i core.Invoice) any { return string(i.Status) },
			Render:   func(i core.Invoice) templ.Component { return common.Badge(string(i.Status)) },
		},
		{ID: "amount", Accessor: func(i core.Invoice) any { return core.Money(i.AmountCents, i.Currency) }},
		{ID: "issued_at", Header: "Issued", Accessor: func(i core.Invoice) any { return common.Date(i.IssuedAt) }},
	}
}

// Filters are the toolbar selects of the invoices table.
func Filters() []datatable.Filter {
	return []datatable.Filter{
		{
			Key:     "status",
			Label:   "Status",
			Options: common.Options(string(core.InvoiceOpen), string(core.InvoicePaid), string(core.InvoiceVoid)),
		},
		{
			Key:     "currency",
			Label:   "Currency",
			Options: []datatable.FilterOption{{Value: "EUR", Label: "EUR"}, {Value: "USD", Label: "USD"}},
		},
	}
}
