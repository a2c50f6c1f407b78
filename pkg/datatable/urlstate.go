package datatable

import (
	"net/url"
	"strconv"
	"strings"
)

// Query-string keys used to mirror QueryState into the URL.
const (
	KeyPage    = "page"
	KeyPerPage = "per_page"
	KeySort    = "sort"
	KeyDir     = "dir"
	KeySearch  = "q"

	KeyStartingAfter = "starting_after"
	KeyEndingBefore  = "ending_before"

	filterPrefix = "filter["
	filterSuffix = "]"
)

// FilterKey returns the query-string key for a filter.
func FilterKey(name string) string {
	return filterPrefix + name + filterSuffix
}

// EncodeQuery mirrors page, page size, sort, search and filters into URL
// values. Page 1 and empty criteria are omitted. Selection is never encoded.
func EncodeQuery(s QueryState) url.Values {
	v := url.Values{}
	if s.Page > 1 {
		v.Set(KeyPage, strconv.Itoa(s.Page))
	}
	if s.PerPage > 0 {
		v.Set(KeyPerPage, strconv.Itoa(s.PerPage))
	}
	if s.SortField != "" {
		v.Set(KeySort, s.SortField)
		v.Set(KeyDir, string(ParseSortDirection(string(s.SortDirection))))
	}
	if s.Search != "" {
		v.Set(KeySearch, s.Search)
	}
	for k, val := range s.Filters {
		if val != "" {
			v.Set(FilterKey(k), val)
		}
	}
	return v
}

// DecodeQuery reads a QueryState from URL values, starting from defaults.
// Malformed numbers keep the default; pages below 1 clamp to 1.
func DecodeQuery(v url.Values, defaults QueryState) QueryState {
	s := defaults.Clone()
	s.Selected = Selection{}

	if raw := v.Get(KeyPage); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			s.Page = max(n, 1)
		}
	}
	if raw := v.Get(KeyPerPage); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			s.PerPage = n
		}
	}
	if s.Page < 1 {
		s.Page = 1
	}
	if field := strings.TrimSpace(v.Get(KeySort)); field != "" {
		s.SortField = field
		s.SortDirection = ParseSortDirection(v.Get(KeyDir))
	}
	if q := strings.TrimSpace(v.Get(KeySearch)); q != "" {
		s.Search = q
	}
	for name, val := range DecodeFilters(v) {
		s.Filters[name] = val
	}
	return s
}

// DecodeFilters extracts the filter[<name>] values. Empty values are skipped.
func DecodeFilters(v url.Values) map[string]string {
	out := map[string]string{}
	for key, vals := range v {
		if !strings.HasPrefix(key, filterPrefix) || !strings.HasSuffix(key, filterSuffix) || len(vals) == 0 {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(key, filterPrefix), filterSuffix)
		val := strings.TrimSpace(vals[0])
		if name == "" || val == "" {
			continue
		}
		out[name] = val
	}
	return out
}

// DecodeCursor reads cursor tokens. When both are present, StartingAfter wins.
func DecodeCursor(v url.Values) Cursor {
	if after := v.Get(KeyStartingAfter); after != "" {
		return Cursor{StartingAfter: after}
	}
	return Cursor{EndingBefore: v.Get(KeyEndingBefore)}
}

// Href returns "path?query" for a state.
func Href(path string, s QueryState) string {
	return CursorHref(path, s, Cursor{})
}

// CursorHref is Href with cursor tokens appended.
func CursorHref(path string, s QueryState, cur Cursor) string {
	v := EncodeQuery(s)
	if cur.StartingAfter != "" {
		v.Set(KeyStartingAfter, cur.StartingAfter)
	} else if cur.EndingBefore != "" {
		v.Set(KeyEndingBefore, cur.EndingBefore)
	}
	if q := v.Encode(); q != "" {
		return path + "?" + q
	}
	return path
}
