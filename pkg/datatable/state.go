package datatable

import (
	"maps"
	"slices"
	"strings"
)

// SortDirection is the order applied to the sort field.
type SortDirection string

// Sort directions.
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ParseSortDirection parses a direction, defaulting to ascending.
func ParseSortDirection(s string) SortDirection {
	if strings.EqualFold(strings.TrimSpace(s), string(SortDesc)) {
		return SortDesc
	}
	return SortAsc
}

// Toggle returns the opposite direction.
func (d SortDirection) Toggle() SortDirection {
	if d == SortDesc {
		return SortAsc
	}
	return SortDesc
}

// DefaultPerPage is used when a table does not configure its page size.
const DefaultPerPage = 25

// Selection is a set of row identifiers.
type Selection map[string]struct{}

// NewSelection returns a selection holding ids.
func NewSelection(ids ...string) Selection {
	s := make(Selection, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is selected.
func (s Selection) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of selected ids.
func (s Selection) Len() int { return len(s) }

// Toggle flips the membership of id.
func (s Selection) Toggle(id string) {
	if s.Has(id) {
		delete(s, id)
		return
	}
	s[id] = struct{}{}
}

// Clear removes every id.
func (s Selection) Clear() { clear(s) }

// IDs returns the selected ids in sorted order.
func (s Selection) IDs() []string {
	return slices.Sorted(maps.Keys(s))
}

// Clone copies the selection.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	maps.Copy(out, s)
	return out
}

// QueryState is the user-controlled part of a table: what page, in which
// order, narrowed by which search and filters, with which rows selected.
type QueryState struct {
	Page          int
	PerPage       int
	SortField     string
	SortDirection SortDirection
	Search        string
	Filters       map[string]string
	Selected      Selection
}

// DefaultQueryState returns the state a table mounts with.
func DefaultQueryState(perPage int) QueryState {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	return QueryState{
		Page:          1,
		PerPage:       perPage,
		SortDirection: SortAsc,
		Filters:       map[string]string{},
		Selected:      Selection{},
	}
}

// HasCriteria reports whether a search or any filter narrows the results.
func (s QueryState) HasCriteria() bool {
	if strings.TrimSpace(s.Search) != "" {
		return true
	}
	for _, v := range s.Filters {
		if v != "" {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (s QueryState) Clone() QueryState {
	out := s
	out.Filters = maps.Clone(s.Filters)
	if out.Filters == nil {
		out.Filters = map[string]string{}
	}
	out.Selected = s.Selected.Clone()
	return out
}

// WithPage returns a copy on page n (clamped to 1).
func (s QueryState) WithPage(n int) QueryState {
	out := s.Clone()
	out.Page = max(n, 1)
	return out
}

// WithSort returns a copy sorted by field in dir, back on page 1.
func (s QueryState) WithSort(field string, dir SortDirection) QueryState {
	out := s.Clone()
	out.SortField = field
	out.SortDirection = dir
	out.Page = 1
	return out
}

// WithSearch returns a copy with the search term set, back on page 1.
func (s QueryState) WithSearch(term string) QueryState {
	out := s.Clone()
	out.Search = strings.TrimSpace(term)
	out.Page = 1
	return out
}

// WithFilters returns a copy with the filters replaced, back on page 1.
// Empty values are dropped.
func (s QueryState) WithFilters(filters map[string]string) QueryState {
	out := s.Clone()
	out.Filters = make(map[string]string, len(filters))
	for k, v := range filters {
		if v = strings.TrimSpace(v); v != "" {
			out.Filters[k] = v
		}
	}
	out.Page = 1
	return out
}

// WithoutCriteria returns a copy with search and filters cleared.
func (s QueryState) WithoutCriteria() QueryState {
	return s.WithFilters(nil).WithSearch("")
}

// NextSort returns the sort that a click on field's header produces: the
// opposite direction when field is already the active sort, ascending
// otherwise.
func NextSort(s QueryState, field string) (string, SortDirection) {
	if s.SortField == field {
		return field, s.SortDirection.Toggle()
	}
	return field, SortAsc
}
