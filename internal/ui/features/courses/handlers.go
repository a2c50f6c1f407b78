package courses

import (
	"github.com/leapstack-labs/backoffice/internal/ui/features/common"
	"github.com/leapstack-labs/backoffice/pkg/core"
	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

// Handlers provides HTTP handlers for the courses feature.
type Handlers struct {
	*common.Table[core.Course]
}

// NewHandlers creates the courses table bound to deps.
func NewHandlers(deps common.Deps) (*Handlers, error) {
	spec := common.TableSpec[core.Course]{
		Name:       core.ResourceCourses,
		Title:      "Courses",
		Columns:    Columns(),
		Sortables:  Sortables,
		Filters:    Filters(),
		Empty:      datatable.EmptyState{NoData: "No courses yet. Run `backoffice seed` to load demo data."},
		Selectable: true,
		Fetcher:    common.Source[core.Course](deps, core.ResourceCourses, deps.Store.ListCourses),
	}
	if deps.Exports != nil {
		spec.Exporter = deps.Exports.For(core.ResourceCourses)
	}

	table, err := common.NewTable(deps, spec)
	if err != nil {
		return nil, err
	}
	return &Handlers{Table: table}, nil
}
