package datatable

import (
	"context"
	"maps"
)

// ExportRequest is everything an export collaborator receives from a table.
type ExportRequest struct {
	Endpoint string            `json:"endpoint"`
	IDs      []string          `json:"ids"`
	Filters  map[string]string `json:"filters"`
}

// Exporter submits an out-of-band export and returns a job identifier.
type Exporter interface {
	Export(ctx context.Context, req ExportRequest) (string, error)
}

// NewExportRequest captures the selection and the active criteria of a
// snapshot. The search term travels as the "q" filter.
func NewExportRequest[R any](endpoint string, snap Snapshot[R]) ExportRequest {
	filters := maps.Clone(snap.State.Filters)
	if filters == nil {
		filters = map[string]string{}
	}
	if snap.State.Search != "" {
		filters[KeySearch] = snap.State.Search
	}
	return ExportRequest{
		Endpoint: endpoint,
		IDs:      snap.State.Selected.IDs(),
		Filters:  filters,
	}
}
