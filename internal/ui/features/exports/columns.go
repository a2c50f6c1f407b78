package exports

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/backoffice/internal/ui/features/common"
	"github.com/leapstack-labs/backoffice/pkg/core"
	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

// Sortables are the default sortable fields of the exports table.
var Sortables = []string{"resource", "status", "rows", "created_at"}

// Columns is the full column set of the exports table.
func Columns() []datatable.Column[core.ExportJob] {
	return []datatable.Column[core.ExportJob]{
		{
			ID:       "id",
			Header:   "Job",
			Accessor: func(j core.ExportJob) any { return j.ID },
			Render:   func(j core.ExportJob) templ.Component { return common.Mono(shortJobID(j.ID)) },
		},
		{ID: "resource", Header: "Table", Accessor: func(j core.ExportJob) any { return j.Resource }, Sortable: true},
		{
			ID:       "status",
			Accessor: func(j core.ExportJob) any { return string(j.Status) },
			Sortable: true,
			Render:   func(j core.ExportJob) templ.Component { return common.Badge(string(j.Status)) },
		},
		{ID: "scope", Accessor: scope},
		{ID: "rows", Accessor: func(j core.ExportJob) any { return strconv.Itoa(j.RowCount) }, Sortable: true},
		{ID: "created_at", Header: "Requested", Accessor: func(j core.ExportJob) any { return j.CreatedAt.Format("2006-01-02 15:04") }, Sortable: true},
	}
}

// Filters are the toolbar selects of the exports table.
func Filters() []datatable.Filter {
	return []datatable.Filter{
		{
			Key:     "status",
			Label:   "Status",
			Options: common.Options(string(core.ExportQueued), string(core.ExportCompleted), string(core.ExportFailed)),
		},
		{
			Key:     "resource",
			Label:   "Table",
			Options: common.Options(core.ResourceCourses, core.ResourceOrders, core.ResourceMembers, core.ResourceInvoices),
		},
	}
}

// scope describes what a job exports: picked rows or the criteria.
func scope(j core.ExportJob) any {
	if n := len(j.IDs); n > 0 {
		return strconv.Itoa(n) + " selected"
	}
	if len(j.Filters) == 0 {
		return "everything"
	}
	parts := make([]string, 0, len(j.Filters))
	for _, k := range slices.Sorted(maps.Keys(j.Filters)) {
		parts = append(parts, k+"="+j.Filters[k])
	}
	return strings.Join(parts, ", ")
}

func shortJobID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
