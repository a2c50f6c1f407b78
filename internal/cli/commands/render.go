package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	prettytable "github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

func renderListing(w io.Writer, l *listing, mode string) error {
	switch mode {
	case ModeJSON:
		return renderJSON(w, l.Page)
	case ModeMarkdown:
		return renderTable(w, l, true)
	default:
		return renderTable(w, l, false)
	}
}

func renderTable(w io.Writer, l *listing, markdown bool) error {
	if len(l.Rows) == 0 {
		_, _ = fmt.Fprintln(w, emptyMessage(l.State))
		return nil
	}

	t := prettytable.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(prettytable.StyleLight)

	// Header
	headerRow := make(prettytable.Row, len(l.Headers))
	for i, h := range l.Headers {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)

	// Rows
	for _, cells := range l.Rows {
		row := make(prettytable.Row, len(cells))
		for i, c := range cells {
			row[i] = c
		}
		t.AppendRow(row)
	}

	if markdown {
		t.RenderMarkdown()
	} else {
		t.Render()
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, footer(l))
	return nil
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func emptyMessage(s datatable.QueryState) string {
	if s.HasCriteria() {
		return "No results match the current search or filters."
	}
	return "Nothing here yet."
}

// footer summarizes the page and says how to get the next one.
func footer(l *listing) string {
	var parts []string
	if l.Style == datatable.PaginationCursor {
		parts = append(parts, fmt.Sprintf("%d rows", l.Meta.TotalCount))
		if l.Meta.HasMore && l.Meta.StartingAfter != "" {
			parts = append(parts, "next: --after "+l.Meta.StartingAfter)
		}
		if l.Meta.EndingBefore != "" {
			parts = append(parts, "prev: --before "+l.Meta.EndingBefore)
		}
	} else {
		pages := max(l.Meta.TotalPages, 1)
		parts = append(parts,
			fmt.Sprintf("page %d of %d", l.State.Page, pages),
			fmt.Sprintf("%d rows", l.Meta.TotalCount),
		)
	}
	if l.State.SortField != "" {
		parts = append(parts, fmt.Sprintf("sorted by %s %s", l.State.SortField, l.State.SortDirection))
	}
	return strings.Join(parts, ", ")
}
