package datatable

import (
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// PaginationStyle selects how a table addresses pages.
type PaginationStyle string

// Pagination styles.
const (
	PaginationOffset PaginationStyle = "offset"
	PaginationCursor PaginationStyle = "cursor"
)

// Cursor holds the opaque tokens of cursor-based pagination. At most one is
// set on a request: StartingAfter pages forward, EndingBefore backward.
type Cursor struct {
	StartingAfter string
	EndingBefore  string
}

// Params is what a Fetcher receives: base filters fixed by the page, the
// user's dynamic filters, pagination and sort.
type Params struct {
	Base          map[string]string
	Filters       map[string]string
	Page          int
	PerPage       int
	SortField     string
	SortDirection SortDirection
	Search        string
	Style         PaginationStyle
	Cursor        Cursor
}

// BuildParams derives request params from state. Base filters win over
// dynamic filters with the same key. Page is only meaningful for offset
// pagination and the cursor only for cursor pagination.
func BuildParams(s QueryState, base map[string]string, style PaginationStyle, cur Cursor) Params {
	if style == "" {
		style = PaginationOffset
	}
	p := Params{
		Base:          maps.Clone(base),
		Filters:       make(map[string]string, len(s.Filters)),
		PerPage:       s.PerPage,
		SortField:     s.SortField,
		SortDirection: s.SortDirection,
		Search:        s.Search,
		Style:         style,
	}
	for k, v := range s.Filters {
		if _, fixed := base[k]; fixed || v == "" {
			continue
		}
		p.Filters[k] = v
	}
	if p.PerPage < 1 {
		p.PerPage = DefaultPerPage
	}
	if p.SortField != "" && p.SortDirection == "" {
		p.SortDirection = SortAsc
	}
	switch style {
	case PaginationCursor:
		p.Cursor = cur
	default:
		p.Page = max(s.Page, 1)
	}
	return p
}

// AllFilters returns base and dynamic filters merged, base winning.
func (p Params) AllFilters() map[string]string {
	out := make(map[string]string, len(p.Base)+len(p.Filters))
	maps.Copy(out, p.Filters)
	maps.Copy(out, p.Base)
	return out
}

// Offset returns the zero-based row offset for offset pagination.
func (p Params) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

// Values encodes the params for a REST transport. Filters are sent under
// filter[<name>] so no filter can overwrite a pagination or sort key.
func (p Params) Values() url.Values {
	v := url.Values{}
	v.Set("per_page", strconv.Itoa(p.PerPage))
	if p.Style == PaginationCursor {
		if p.Cursor.StartingAfter != "" {
			v.Set("starting_after", p.Cursor.StartingAfter)
		}
		if p.Cursor.EndingBefore != "" {
			v.Set("ending_before", p.Cursor.EndingBefore)
		}
	} else {
		v.Set("page", strconv.Itoa(max(p.Page, 1)))
	}
	if p.SortField != "" {
		v.Set("sort", p.SortField)
		v.Set("order", string(p.SortDirection))
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	for k, val := range p.AllFilters() {
		v.Set(FilterKey(k), val)
	}
	return v
}

// canonical writes every field in a fixed order with sorted map keys.
func (p Params) canonical() string {
	var b strings.Builder
	writeMap := func(tag string, m map[string]string) {
		b.WriteString(tag)
		for _, k := range slices.Sorted(maps.Keys(m)) {
			b.WriteString(strconv.Quote(k))
			b.WriteByte('=')
			b.WriteString(strconv.Quote(m[k]))
			b.WriteByte(';')
		}
		b.WriteByte('|')
	}
	writeMap("base:", p.Base)
	writeMap("filters:", p.Filters)
	b.WriteString("style:" + string(p.Style) + "|")
	b.WriteString("page:" + strconv.Itoa(p.Page) + "|")
	b.WriteString("per:" + strconv.Itoa(p.PerPage) + "|")
	b.WriteString("sort:" + strconv.Quote(p.SortField) + ":" + string(p.SortDirection) + "|")
	b.WriteString("q:" + strconv.Quote(p.Search) + "|")
	b.WriteString("after:" + strconv.Quote(p.Cursor.StartingAfter) + "|")
	b.WriteString("before:" + strconv.Quote(p.Cursor.EndingBefore))
	return b.String()
}

// Fingerprint identifies the request. Equal params always produce equal
// fingerprints regardless of map iteration order.
func (p Params) Fingerprint() string {
	return strconv.FormatUint(xxhash.Sum64String(p.canonical()), 16)
}
