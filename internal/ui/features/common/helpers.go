package common

import (
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/backoffice/internal/remote"
	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

// Source picks the row source of a table: the remote API when configured,
// the local store otherwise.
func Source[R any](d Deps, resource string, local datatable.FetcherFunc[R]) datatable.Fetcher[R] {
	if d.API != nil {
		return remote.NewFetcher[R](d.API, resource)
	}
	return local
}

// Date formats a timestamp as a calendar date.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// Options builds filter choices whose labels are the title-cased values.
func Options(values ...string) []datatable.FilterOption {
	caser := cases.Title(language.English)
	out := make([]datatable.FilterOption, len(values))
	for i, v := range values {
		out[i] = datatable.FilterOption{Value: v, Label: caser.String(v)}
	}
	return out
}
