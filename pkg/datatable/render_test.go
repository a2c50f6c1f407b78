package datatable

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func renderDoc(t *testing.T, tbl Table[testRow]) (*html.Node, string) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, tbl.Component().Render(context.Background(), &buf))
	doc, err := html.Parse(strings.NewReader(buf.String()))
	require.NoError(t, err)
	return doc, buf.String()
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	v, _ := attr(n, "class")
	return strings.Contains(" "+v+" ", " "+class+" ")
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func byTag(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool { return n.Data == tag }
}

func byAttr(key, val string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		v, ok := attr(n, key)
		return ok && v == val
	}
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func testTable(snap Snapshot[testRow]) Table[testRow] {
	return Table[testRow]{
		ID:       "members-table",
		Columns:  Produce(ColumnConfig{Sortables: []string{"name", "created_at"}}, testColumns()),
		Snapshot: snap,
		RowID:    rowID,
		Links:    Links{Path: "/members"},
	}
}

func loadedSnapshot(state QueryState, rows []testRow, meta Meta) Snapshot[testRow] {
	return Snapshot[testRow]{
		State:  state,
		Status: StatusLoaded,
		Result: Result[testRow]{Rows: rows, Meta: meta},
		Style:  PaginationOffset,
	}
}

func TestRender_EmptyStates(t *testing.T) {
	tests := []struct {
		name      string
		state     QueryState
		wantEmpty string
		wantClear bool
	}{
		{name: "search with no results", state: DefaultQueryState(10).WithSearch("xyz"), wantEmpty: "no-results", wantClear: true},
		{name: "filter with no results", state: DefaultQueryState(10).WithFilters(map[string]string{"status": "gone"}), wantEmpty: "no-results", wantClear: true},
		{name: "no data at all", state: DefaultQueryState(10), wantEmpty: "no-data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, _ := renderDoc(t, testTable(loadedSnapshot(tt.state, nil, Meta{})))

			empties := findAll(doc, func(n *html.Node) bool { return hasClass(n, "datatable-empty") })
			require.Len(t, empties, 1)
			got, _ := attr(empties[0], "data-empty")
			assert.Equal(t, tt.wantEmpty, got)

			clear := findAll(doc, func(n *html.Node) bool { return hasClass(n, "clear-filters") })
			if !tt.wantClear {
				assert.Empty(t, clear)
				return
			}
			require.Len(t, clear, 1)
			href, _ := attr(clear[0], "href")
			assert.Equal(t, "/members?per_page=10", href)
			action, _ := attr(clear[0], "data-on:click__prevent")
			assert.Contains(t, action, "action=clear_filters")

			colspan, _ := attr(findAll(empties[0], byTag("td"))[0], "colspan")
			assert.Equal(t, "5", colspan)
		})
	}
}

func TestRender_Loading(t *testing.T) {
	t.Run("skeleton without rows", func(t *testing.T) {
		snap := Snapshot[testRow]{State: DefaultQueryState(3), Status: StatusLoading}
		doc, _ := renderDoc(t, testTable(snap))

		skeleton := findAll(doc, func(n *html.Node) bool { return hasClass(n, "datatable-skeleton") })
		assert.Len(t, skeleton, 3)
		assert.Empty(t, findAll(doc, func(n *html.Node) bool { return hasClass(n, "datatable-empty") }))
	})

	t.Run("previous rows while loading", func(t *testing.T) {
		snap := loadedSnapshot(DefaultQueryState(10), newMemoryFetcher(2).rows, Meta{TotalCount: 2, TotalPages: 1})
		snap.Status = StatusLoading
		doc, _ := renderDoc(t, testTable(snap))

		assert.Empty(t, findAll(doc, func(n *html.Node) bool { return hasClass(n, "datatable-skeleton") }))
		assert.Len(t, findAll(doc, func(n *html.Node) bool { _, ok := attr(n, "data-row-id"); return ok }), 2)
	})
}

func TestRender_Error(t *testing.T) {
	snap := loadedSnapshot(DefaultQueryState(10), nil, Meta{})
	snap.Status = StatusErrored
	snap.Result.Err = &FetchError{Status: 502, Message: "upstream <down>"}

	doc, raw := renderDoc(t, testTable(snap))

	alerts := findAll(doc, byAttr("role", "alert"))
	require.Len(t, alerts, 1)
	assert.Contains(t, textOf(alerts[0]), "Request failed (502): upstream <down>")
	assert.NotContains(t, raw, "upstream <down>")

	retry := findAll(alerts[0], func(n *html.Node) bool { return hasClass(n, "retry") })
	require.Len(t, retry, 1)
	action, _ := attr(retry[0], "data-on:click__prevent")
	assert.Equal(t, "@post('/members/intent?action=refetch')", action)

	assert.Empty(t, findAll(doc, func(n *html.Node) bool { return hasClass(n, "datatable-empty") }),
		"an error is not an empty result")
}

func TestRender_SortHeaders(t *testing.T) {
	state := DefaultQueryState(10).WithSort("name", SortAsc)
	doc, _ := renderDoc(t, testTable(loadedSnapshot(state, newMemoryFetcher(1).rows, Meta{TotalCount: 1, TotalPages: 1})))

	headers := findAll(doc, byTag("th"))
	require.Len(t, headers, 5)

	name := headers[1]
	sort, _ := attr(name, "aria-sort")
	assert.Equal(t, "ascending", sort)
	links := findAll(name, byTag("a"))
	require.Len(t, links, 1)
	href, _ := attr(links[0], "href")
	assert.Contains(t, href, "sort=name")
	assert.Contains(t, href, "dir=desc")
	assert.Contains(t, textOf(name), "▲")

	created := headers[3]
	links = findAll(created, byTag("a"))
	require.Len(t, links, 1)
	action, _ := attr(links[0], "data-on:click__prevent")
	assert.Contains(t, action, "dir=asc")
	assert.Contains(t, action, "field=created_at")
	assert.Equal(t, "Joined", textOf(created))

	// id is declared sortable but not in the allow-list
	assert.Empty(t, findAll(headers[0], byTag("a")))
	assert.Empty(t, findAll(headers[2], byTag("a")))
}

func TestRender_Selection(t *testing.T) {
	rows := newMemoryFetcher(3).rows
	state := DefaultQueryState(10)
	state.Selected = NewSelection("r02")

	t.Run("selectable", func(t *testing.T) {
		tbl := testTable(loadedSnapshot(state, rows, Meta{TotalCount: 3, TotalPages: 1}))
		tbl.Selectable = true
		doc, _ := renderDoc(t, tbl)

		boxes := findAll(doc, byAttr("type", "checkbox"))
		require.Len(t, boxes, 4)

		selectAll, _ := attr(boxes[0], "data-on:click")
		assert.Contains(t, selectAll, "action=select_all")
		_, checked := attr(boxes[0], "checked")
		assert.False(t, checked)

		_, checked = attr(boxes[2], "checked")
		assert.True(t, checked)
		rowAction, _ := attr(boxes[2], "data-on:click")
		assert.Contains(t, rowAction, "id=r02")

		selected := findAll(doc, func(n *html.Node) bool { return n.Data == "tr" && hasClass(n, "selected") })
		require.Len(t, selected, 1)
		id, _ := attr(selected[0], "data-row-id")
		assert.Equal(t, "r02", id)
	})

	t.Run("all selected", func(t *testing.T) {
		all := state.Clone()
		all.Selected = NewSelection("r01", "r02", "r03")
		tbl := testTable(loadedSnapshot(all, rows, Meta{TotalCount: 3, TotalPages: 1}))
		tbl.Selectable = true
		doc, _ := renderDoc(t, tbl)

		boxes := findAll(doc, byAttr("type", "checkbox"))
		_, checked := attr(boxes[0], "checked")
		assert.True(t, checked)
	})

	t.Run("not selectable", func(t *testing.T) {
		doc, _ := renderDoc(t, testTable(loadedSnapshot(state, rows, Meta{TotalCount: 3, TotalPages: 1})))
		assert.Empty(t, findAll(doc, byAttr("type", "checkbox")))
	})
}

func TestRender_Pagination(t *testing.T) {
	rows := newMemoryFetcher(1).rows

	t.Run("offset", func(t *testing.T) {
		state := DefaultQueryState(10).WithPage(5)
		doc, _ := renderDoc(t, testTable(loadedSnapshot(state, rows, Meta{TotalCount: 95, TotalPages: 10})))

		navs := findAll(doc, byTag("nav"))
		require.Len(t, navs, 1)
		style, _ := attr(navs[0], "data-style")
		assert.Equal(t, "offset", style)

		current := findAll(navs[0], byAttr("aria-current", "page"))
		require.Len(t, current, 1)
		assert.Equal(t, "5", textOf(current[0]))
		assert.Len(t, findAll(navs[0], func(n *html.Node) bool { return hasClass(n, "gap") }), 2)

		next := findAll(navs[0], func(n *html.Node) bool { return n.Data == "a" && textOf(n) == "Next" })
		require.Len(t, next, 1)
		href, _ := attr(next[0], "href")
		assert.Contains(t, href, "page=6")
	})

	t.Run("single page has no controls", func(t *testing.T) {
		doc, _ := renderDoc(t, testTable(loadedSnapshot(DefaultQueryState(10), rows, Meta{TotalCount: 1, TotalPages: 1})))
		assert.Empty(t, findAll(doc, byTag("nav")))
	})

	t.Run("cursor", func(t *testing.T) {
		state := DefaultQueryState(10).WithPage(3)
		snap := loadedSnapshot(state, rows, Meta{HasMore: true, StartingAfter: "r30", EndingBefore: "r21"})
		snap.Style = PaginationCursor
		doc, _ := renderDoc(t, testTable(snap))

		navs := findAll(doc, byTag("nav"))
		require.Len(t, navs, 1)
		style, _ := attr(navs[0], "data-style")
		assert.Equal(t, "cursor", style)
		assert.Empty(t, findAll(navs[0], byAttr("aria-current", "page")))

		links := findAll(navs[0], byTag("a"))
		require.Len(t, links, 2)
		prev, _ := attr(links[0], "href")
		assert.Contains(t, prev, "ending_before=r21")
		assert.Contains(t, prev, "page=2")
		next, _ := attr(links[1], "href")
		assert.Contains(t, next, "starting_after=r30")
		action, _ := attr(links[1], "data-on:click__prevent")
		assert.Equal(t, "@post('/members/intent?action=next')", action)
	})
}

func TestRender_ToolbarAndEscaping(t *testing.T) {
	rows := []testRow{{ID: "x", Name: "<script>alert(1)</script>"}}
	state := DefaultQueryState(10).WithSearch(`"quoted"`)
	tbl := testTable(loadedSnapshot(state, rows, Meta{TotalCount: 1234, TotalPages: 124}))
	tbl.Filters = []Filter{{Key: "status", Label: "Status", Options: []FilterOption{{Value: "active", Label: "Active"}}}}

	doc, raw := renderDoc(t, tbl)

	assert.NotContains(t, raw, "<script>")
	assert.Contains(t, raw, "1,234 results")

	search := findAll(doc, byAttr("type", "search"))
	require.Len(t, search, 1)
	val, _ := attr(search[0], "value")
	assert.Equal(t, `"quoted"`, val)

	selects := findAll(doc, byAttr("name", "filter[status]"))
	require.Len(t, selects, 1)
	assert.Len(t, findAll(selects[0], byTag("option")), 2)
}

func TestPageWindow(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, pageWindow(1, 3))
	assert.Equal(t, []int{1, 2, 3, 0, 10}, pageWindow(1, 10))
	assert.Equal(t, []int{1, 0, 3, 4, 5, 6, 7, 0, 10}, pageWindow(5, 10))
	assert.Equal(t, []int{1, 0, 8, 9, 10}, pageWindow(10, 10))
}

func TestHeaderCell(t *testing.T) {
	tests := []struct {
		name     string
		h        headerView
		links    int
		text     string
		style    string
		ariaSort string
	}{
		{name: "plain", h: headerView{ID: "id", Title: "ID"}, text: "ID"},
		{name: "sortable", h: headerView{ID: "created_at", Title: "Joined", Href: "/members?sort=created_at"}, links: 1, text: "Joined"},
		{
			name:     "sorted",
			h:        headerView{ID: "name", Title: "Name", Href: "/members?sort=name&dir=desc", Arrow: "▲", AriaSort: "ascending"},
			links:    1,
			text:     "Name▲",
			ariaSort: "ascending",
		},
		{name: "width", h: headerView{ID: "email", Title: "Email", Width: "12ch"}, text: "Email", style: "width:12ch;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, headerCell(tt.h).Render(context.Background(), &buf))
			doc, err := html.Parse(strings.NewReader("<table><tr>" + buf.String() + "</tr></table>"))
			require.NoError(t, err)

			th := findAll(doc, byTag("th"))
			require.Len(t, th, 1)
			col, _ := attr(th[0], "data-column")
			assert.Equal(t, tt.h.ID, col)
			assert.Equal(t, tt.text, textOf(th[0]))
			assert.Len(t, findAll(th[0], byTag("a")), tt.links)

			style, _ := attr(th[0], "style")
			assert.Equal(t, tt.style, style)
			sort, _ := attr(th[0], "aria-sort")
			assert.Equal(t, tt.ariaSort, sort)
		})
	}
}
