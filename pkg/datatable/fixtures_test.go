package datatable

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// memoryFetcher serves testRows with search, status filter, sort and either
// offset or cursor pagination.
type memoryFetcher struct {
	mu    sync.Mutex
	rows  []testRow
	calls []Params
	err   *FetchError
}

func newMemoryFetcher(n int) *memoryFetcher {
	f := &memoryFetcher{}
	for i := 1; i <= n; i++ {
		status := "active"
		if i%3 == 0 {
			status = "pending"
		}
		f.rows = append(f.rows, testRow{
			ID:        fmt.Sprintf("r%02d", i),
			Name:      fmt.Sprintf("Member %02d", i),
			Email:     fmt.Sprintf("m%02d@example.com", i),
			Status:    status,
			CreatedAt: fmt.Sprintf("2024-01-%02d", i),
		})
	}
	return f
}

func (f *memoryFetcher) setRows(rows []testRow) {
	f.mu.Lock()
	f.rows = rows
	f.mu.Unlock()
}

func (f *memoryFetcher) setErr(err *FetchError) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *memoryFetcher) lastParams() Params {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func (f *memoryFetcher) Fetch(_ context.Context, p Params) (Page[testRow], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, p)
	if f.err != nil {
		return Page[testRow]{}, f.err
	}

	var rows []testRow
	for _, r := range f.rows {
		if p.Search != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(p.Search)) {
			continue
		}
		if status := p.AllFilters()["status"]; status != "" && r.Status != status {
			continue
		}
		rows = append(rows, r)
	}
	if p.SortField == "name" {
		slices.SortStableFunc(rows, func(a, b testRow) int {
			if p.SortDirection == SortDesc {
				return cmp.Compare(b.Name, a.Name)
			}
			return cmp.Compare(a.Name, b.Name)
		})
	}

	if p.Style == PaginationCursor {
		return cursorPage(rows, p), nil
	}

	total := len(rows)
	start := min(p.Offset(), total)
	end := min(start+p.PerPage, total)
	return Page[testRow]{
		Rows: rows[start:end],
		Meta: Meta{TotalCount: total, TotalPages: (total + p.PerPage - 1) / p.PerPage},
	}, nil
}

func cursorPage(rows []testRow, p Params) Page[testRow] {
	start, end := 0, min(p.PerPage, len(rows))
	switch {
	case p.Cursor.StartingAfter != "":
		i := slices.IndexFunc(rows, func(r testRow) bool { return r.ID == p.Cursor.StartingAfter })
		start = i + 1
		end = min(start+p.PerPage, len(rows))
	case p.Cursor.EndingBefore != "":
		i := slices.IndexFunc(rows, func(r testRow) bool { return r.ID == p.Cursor.EndingBefore })
		end = max(i, 0)
		start = max(end-p.PerPage, 0)
	}
	page := rows[start:end]
	meta := Meta{TotalCount: len(rows), HasMore: end < len(rows)}
	if len(page) > 0 {
		meta.StartingAfter = page[len(page)-1].ID
		if start > 0 {
			meta.EndingBefore = page[0].ID
		}
	}
	return Page[testRow]{Rows: page, Meta: meta}
}
