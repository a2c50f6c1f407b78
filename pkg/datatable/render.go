package datatable

import (
	"maps"
	"net/url"
	"slices"
	"strconv"

	"github.com/a-h/templ"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// EmptyState is the copy shown when a loaded table has no rows.
type EmptyState struct {
	// NoData is shown when the table holds nothing at all.
	NoData string
	// NoResults is shown when search or filters match nothing.
	NoResults string
	// ClearLabel labels the clear-filters affordance.
	ClearLabel string
}

func (e EmptyState) withDefaults() EmptyState {
	if e.NoData == "" {
		e.NoData = "Nothing here yet."
	}
	if e.NoResults == "" {
		e.NoResults = "No results match the current search or filters."
	}
	if e.ClearLabel == "" {
		e.ClearLabel = "Clear filters"
	}
	return e
}

// FilterOption is one choice of a Filter.
type FilterOption struct {
	Value string
	Label string
}

// Filter is a select control in the toolbar bound to filter[Key].
type Filter struct {
	Key     string
	Label   string
	Options []FilterOption
}

// Links builds the URLs a table emits. Path is the page path; intents are
// posted to Path + "/intent".
type Links struct {
	Path string
}

// Href is the plain link for a state, used as the no-script fallback.
func (l Links) Href(s QueryState) string { return Href(l.Path, s) }

// IntentURL returns the endpoint for action with extra form values.
func (l Links) IntentURL(action string, args url.Values) string {
	v := url.Values{}
	for k, vals := range args {
		v[k] = vals
	}
	v.Set("action", action)
	return l.Path + "/intent?" + v.Encode()
}

// Post returns the datastar expression posting action.
func (l Links) Post(action string, args url.Values) string {
	return "@post('" + l.IntentURL(action, args) + "')"
}

// PostForm returns the datastar expression posting action with the
// enclosing form's fields.
func (l Links) PostForm(action string) string {
	return "@post('" + l.IntentURL(action, nil) + "', {contentType: 'form'})"
}

// Table is the render surface: a pure view of a Snapshot.
type Table[R any] struct {
	// ID is the DOM id, the target of patches.
	ID       string
	Columns  []Column[R]
	Snapshot Snapshot[R]

	// RowID identifies rows. Required when Selectable.
	RowID      func(R) string
	Selectable bool

	Empty   EmptyState
	Filters []Filter
	Links   Links

	// Toolbar is extra toolbar content such as bulk actions.
	Toolbar templ.Component

	// Printer formats counts. Nil uses English.
	Printer *message.Printer
}

// The view types below are what the markup in components.templ renders.

type tableView struct {
	ID         string
	Status     string
	Toolbar    toolbarView
	Error      *errorView
	SelectAll  *selectAllView
	Headers    []headerView
	Rows       []rowView
	Skeleton   skeletonView
	Empty      *emptyView
	Pagination *paginationView
}

type hiddenField struct {
	Name  string
	Value string
}

type toolbarView struct {
	Path         string
	SearchAction string
	SearchHidden []hiddenField
	Search       string

	FilterAction string
	FilterHidden []hiddenField
	Filters      []filterView

	Count          string
	Selected       string
	ClearSelection string
	Extra          templ.Component
}

type filterView struct {
	Name    string
	Label   string
	Options []optionView
}

type optionView struct {
	Value    string
	Label    string
	Selected bool
}

type errorView struct {
	Message string
	Href    string
	Action  string
}

type selectAllView struct {
	Action   string
	Checked  bool
	Disabled bool
}

// headerView is a column header. Href is empty for columns that cannot be
// sorted.
type headerView struct {
	ID       string
	Title    string
	Width    string
	AriaSort string
	Arrow    string
	Href     string
	Action   string
}

type rowView struct {
	ID           string
	Selected     bool
	SelectAction string
	Cells        []cellView
}

type cellView struct {
	Column  string
	Content templ.Component
}

type skeletonView struct {
	Rows  int
	Cells int
}

type emptyView struct {
	Kind        string
	Colspan     int
	Message     string
	ClearHref   string
	ClearAction string
	ClearLabel  string
}

type paginationView struct {
	Style string
	Links []pageLinkView
}

type pageLinkView struct {
	Label    string
	Href     string
	Action   string
	Disabled bool
	Current  bool
	Gap      bool
}

// Component renders the table.
func (t Table[R]) Component() templ.Component {
	return tableSection(t.view())
}

// view flattens the snapshot into the markup's view model. Components
// cannot be generic, so cells are resolved to components here.
func (t Table[R]) view() tableView {
	snap := t.Snapshot
	rows := snap.Rows()
	selectable := t.Selectable && t.RowID != nil

	v := tableView{
		ID:      t.ID,
		Status:  snap.Status.String(),
		Toolbar: t.toolbar(selectable),
	}
	if fe := snap.Err(); fe != nil {
		v.Error = t.errorView(fe)
	}
	if selectable {
		v.SelectAll = t.selectAll()
	}
	for _, col := range t.Columns {
		v.Headers = append(v.Headers, t.header(col))
	}

	loading := snap.IsLoading() || snap.Status == StatusIdle
	switch {
	case len(rows) == 0 && loading:
		v.Skeleton = skeletonView{
			Rows:  min(max(snap.State.PerPage, 1), 10),
			Cells: t.colspan(selectable),
		}
	case len(rows) == 0 && snap.Err() == nil:
		v.Empty = t.empty(selectable)
	default:
		for _, row := range rows {
			v.Rows = append(v.Rows, t.row(row, selectable))
		}
	}

	v.Pagination = t.pagination()
	return v
}

func (t Table[R]) printer() *message.Printer {
	if t.Printer != nil {
		return t.Printer
	}
	return message.NewPrinter(language.English)
}

func (t Table[R]) colspan(selectable bool) int {
	n := len(t.Columns)
	if selectable {
		n++
	}
	return max(n, 1)
}

func (t Table[R]) toolbar(selectable bool) toolbarView {
	state := t.Snapshot.State
	v := toolbarView{
		Path:         t.Links.Path,
		SearchAction: t.Links.PostForm(ActionSearch),
		SearchHidden: hiddenState(state, false),
		Search:       state.Search,
		Extra:        t.Toolbar,
	}

	if len(t.Filters) > 0 {
		v.FilterAction = t.Links.PostForm(ActionFilter)
		v.FilterHidden = hiddenState(state, true)
		for _, f := range t.Filters {
			fv := filterView{Name: FilterKey(f.Key), Label: f.Label}
			for _, opt := range f.Options {
				fv.Options = append(fv.Options, optionView{
					Value:    opt.Value,
					Label:    opt.Label,
					Selected: state.Filters[f.Key] == opt.Value,
				})
			}
			v.Filters = append(v.Filters, fv)
		}
	}

	if total := t.Snapshot.Result.Meta.TotalCount; total > 0 {
		v.Count = t.printer().Sprintf("%d results", total)
	}
	if selectable && state.Selected.Len() > 0 {
		v.Selected = t.printer().Sprintf("%d selected", state.Selected.Len())
		v.ClearSelection = t.Links.Post(ActionClearSelection, nil)
	}
	return v
}

// hiddenState keeps the rest of the state when a toolbar form is submitted
// without scripts. Page is dropped since criteria changes restart at 1.
func hiddenState(s QueryState, search bool) []hiddenField {
	var out []hiddenField
	if s.PerPage > 0 {
		out = append(out, hiddenField{KeyPerPage, strconv.Itoa(s.PerPage)})
	}
	if s.SortField != "" {
		out = append(out,
			hiddenField{KeySort, s.SortField},
			hiddenField{KeyDir, string(s.SortDirection)},
		)
	}
	if search {
		if s.Search != "" {
			out = append(out, hiddenField{KeySearch, s.Search})
		}
		return out
	}
	for _, k := range slices.Sorted(maps.Keys(s.Filters)) {
		out = append(out, hiddenField{FilterKey(k), s.Filters[k]})
	}
	return out
}

func (t Table[R]) errorView(fe *FetchError) *errorView {
	msg := "Request failed: " + fe.Message
	if fe.Status > 0 {
		msg = "Request failed (" + strconv.Itoa(fe.Status) + "): " + fe.Message
	}
	return &errorView{
		Message: msg,
		Href:    t.Links.Href(t.Snapshot.State),
		Action:  t.Links.Post(ActionRefetch, nil),
	}
}

func (t Table[R]) selectAll() *selectAllView {
	rows := t.Snapshot.Rows()
	all := len(rows) > 0
	for _, row := range rows {
		if !t.Snapshot.State.Selected.Has(t.RowID(row)) {
			all = false
			break
		}
	}
	return &selectAllView{
		Action:   t.Links.Post(ActionSelectAll, nil),
		Checked:  all,
		Disabled: len(rows) == 0,
	}
}

func (t Table[R]) header(col Column[R]) headerView {
	state := t.Snapshot.State
	h := headerView{ID: col.ID, Title: col.Title()}
	if col.Width > 0 {
		h.Width = strconv.Itoa(col.Width) + "ch"
	}
	if !col.CanSort() {
		return h
	}

	if state.SortField == col.ID {
		h.AriaSort, h.Arrow = "ascending", "▲"
		if state.SortDirection == SortDesc {
			h.AriaSort, h.Arrow = "descending", "▼"
		}
	}
	field, dir := NextSort(state, col.ID)
	h.Href = t.Links.Href(state.WithSort(field, dir))
	h.Action = t.Links.Post(ActionSort, url.Values{
		KeyField: {field},
		KeyDir:   {string(dir)},
	})
	return h
}

func (t Table[R]) row(row R, selectable bool) rowView {
	var r rowView
	if t.RowID != nil {
		r.ID = t.RowID(row)
	}
	if selectable {
		r.Selected = t.Snapshot.State.Selected.Has(r.ID)
		r.SelectAction = t.Links.Post(ActionSelect, url.Values{KeyID: {r.ID}})
	}
	for _, col := range t.Columns {
		r.Cells = append(r.Cells, cellView{Column: col.ID, Content: col.Cell(row)})
	}
	return r
}

func (t Table[R]) empty(selectable bool) *emptyView {
	e := t.Empty.withDefaults()
	state := t.Snapshot.State

	if !state.HasCriteria() {
		return &emptyView{Kind: "no-data", Colspan: t.colspan(selectable), Message: e.NoData}
	}
	return &emptyView{
		Kind:        "no-results",
		Colspan:     t.colspan(selectable),
		Message:     e.NoResults,
		ClearHref:   t.Links.Href(state.WithoutCriteria()),
		ClearAction: t.Links.Post(ActionClearFilters, nil),
		ClearLabel:  e.ClearLabel,
	}
}

func (t Table[R]) pagination() *paginationView {
	snap := t.Snapshot
	meta := snap.Result.Meta
	state := snap.State

	switch meta.Style() {
	case PaginationCursor:
		if !snap.HasPrev() && !snap.HasNext() {
			return nil
		}
		prev := CursorHref(t.Links.Path, state.WithPage(state.Page-1), Cursor{EndingBefore: meta.EndingBefore})
		if state.Page <= 2 {
			prev = t.Links.Href(state.WithPage(1))
		}
		next := CursorHref(t.Links.Path, state.WithPage(state.Page+1), Cursor{StartingAfter: meta.StartingAfter})
		return &paginationView{Style: string(PaginationCursor), Links: []pageLinkView{
			{Label: "Previous", Href: prev, Action: t.Links.Post(ActionPrev, nil), Disabled: !snap.HasPrev()},
			{Label: "Next", Href: next, Action: t.Links.Post(ActionNext, nil), Disabled: !snap.HasNext()},
		}}

	default:
		if meta.TotalPages <= 1 {
			return nil
		}
		v := &paginationView{Style: string(PaginationOffset)}
		v.Links = append(v.Links, t.offsetLink("Previous", state.Page-1, !snap.HasPrev()))
		for _, n := range pageWindow(state.Page, meta.TotalPages) {
			if n == 0 {
				v.Links = append(v.Links, pageLinkView{Gap: true})
				continue
			}
			l := t.offsetLink(strconv.Itoa(n), n, false)
			l.Current = n == state.Page
			v.Links = append(v.Links, l)
		}
		v.Links = append(v.Links, t.offsetLink("Next", state.Page+1, !snap.HasNext()))
		return v
	}
}

func (t Table[R]) offsetLink(label string, page int, disabled bool) pageLinkView {
	return pageLinkView{
		Label:    label,
		Href:     t.Links.Href(t.Snapshot.State.WithPage(page)),
		Action:   t.Links.Post(ActionPage, url.Values{KeyPage: {strconv.Itoa(page)}}),
		Disabled: disabled,
	}
}

// pageWindow lists the page numbers to show around current. Zero marks a
// gap.
func pageWindow(current, total int) []int {
	const radius = 2
	var out []int
	last := 0
	for n := 1; n <= total; n++ {
		if n != 1 && n != total && (n < current-radius || n > current+radius) {
			continue
		}
		if last != 0 && n > last+1 {
			out = append(out, 0)
		}
		out = append(out, n)
		last = n
	}
	return out
}
