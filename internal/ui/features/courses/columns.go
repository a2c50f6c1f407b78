package courses

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/backoffice/internal/ui/features/common"
	"github.com/leapstack-labs/backoffice/pkg/core"
	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

// Sortables are the default sortable fields of the courses table.
var Sortables = []string{"title", "status", "price", "enrollments", "created_at"}

// Currency is the price currency of the catalog.
const Currency = "EUR"

// Columns is the full column set of the courses table.
func Columns() []datatable.Column[core.Course] {
	return []datatable.Column[core.Course]{
		{ID: "title", Accessor: func(c core.Course) any { return c.Title }, Sortable: true},
		{
			ID:       "slug",
			Accessor: func(c core.Course) any { return c.Slug },
			Render:   func(c core.Course) templ.Component { return common.Mono(c.Slug) },
		},
		{
			ID:       "status",
			Accessor: func(c core.Course) any { return string(c.Status) },
			Sortable: true,
			Render:   func(c core.Course) templ.Component { return common.Badge(string(c.Status)) },
		},
		{ID: "price", Accessor: func(c core.Course) any { return core.Money(c.PriceCents, Currency) }, Sortable: true},
		{ID: "enrollments", Accessor: func(c core.Course) any { return strconv.Itoa(c.Enrollments) }, Sortable: true, Width: 6},
		{ID: "created_at", Header: "Created", Accessor: func(c core.Course) any { return common.Date(c.CreatedAt) }, Sortable: true},
	}
}

// Filters are the toolbar selects of the courses table.
func Filters() []datatable.Filter {
	return []datatable.Filter{{
		Key:     "status",
		Label:   "Status",
		Options: common.Options(string(core.CourseDraft), string(core.CoursePublished), string(core.CourseArchived)),
	}}
}
