package remote

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

// MaxPerPage caps the page size a client may request.
const MaxPerPage = 200

// DecodeParams is the server side of Params.Values. Filters are read from
// filter[<name>] keys only. Malformed numbers fall back to defaults.
func DecodeParams(v url.Values, style datatable.PaginationStyle) datatable.Params {
	state := datatable.DefaultQueryState(datatable.DefaultPerPage)
	if n, err := strconv.Atoi(v.Get("per_page")); err == nil && n > 0 {
		state.PerPage = min(n, MaxPerPage)
	}
	if n, err := strconv.Atoi(v.Get("page")); err == nil && n > 0 {
		state.Page = n
	}
	if field := strings.TrimSpace(v.Get("sort")); field != "" {
		state.SortField = field
		state.SortDirection = datatable.ParseSortDirection(v.Get("order"))
	}
	state.Search = strings.TrimSpace(v.Get("search"))

	state.Filters = datatable.DecodeFilters(v)

	cur := datatable.Cursor{
		StartingAfter: v.Get("starting_after"),
		EndingBefore:  v.Get("ending_before"),
	}
	if cur.StartingAfter != "" {
		cur.EndingBefore = ""
	}
	return datatable.BuildParams(state, nil, style, cur)
}

// Handler serves a fetcher under the REST contract.
func Handler[R any](fetcher datatable.Fetcher[R], style datatable.PaginationStyle, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		p := DecodeParams(r.URL.Query(), style)

		page, err := fetcher.Fetch(r.Context(), p)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			fe := datatable.AsFetchError(err)
			status := fe.Status
			if status < 400 {
				status = http.StatusInternalServerError
			}
			logger.Warn("api fetch failed",
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.String("error", fe.Message))
			WriteError(w, status, fe.Message)
			return
		}
		if page.Rows == nil {
			page.Rows = []R{}
		}

		writeJSON(w, http.StatusOK, page)
	}
}

// WriteError writes {"message": msg} with status.
func WriteError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
