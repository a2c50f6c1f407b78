package exports

import (
	"github.com/leapstack-labs/backoffice/internal/ui/features/common"
	"github.com/leapstack-labs/backoffice/pkg/core"
	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

// Handlers provides HTTP handlers for the export jobs feature. The table is
// read-only; jobs are queued from the other tables.
type Handlers struct {
	*common.Table[core.ExportJob]
}

// NewHandlers creates the exports table bound to deps.
func NewHandlers(deps common.Deps) (*Handlers, error) {
	table, err := common.NewTable(deps, common.TableSpec[core.ExportJob]{
		Name:      core.ResourceExports,
		Title:     "Exports",
		Columns:   Columns(),
		Sortables: Sortables,
		Filters:   Filters(),
		Empty: datatable.EmptyState{
			NoData: "No exports yet. Select rows in any table and press Export.",
		},
		Fetcher: common.Source[core.ExportJob](deps, core.ResourceExports, deps.Store.ListExportJobs),
	})
	if err != nil {
		return nil, err
	}
	return &Handlers{Table: table}, nil
}
