// Package tui is the interactive terminal surface of the dashboard tables.
// It drives the same datatable controller as the web UI.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

const (
	maxColumnWidth = 32
	defaultHeight  = 15
	selectedMark   = "●"
)

// snapshotMsg carries the result of a controller call back into Update.
// Calls run concurrently, so seq orders their results.
type snapshotMsg[R any] struct {
	seq  uint64
	snap datatable.Snapshot[R]
}

// Model browses one table. Intents run as commands so the UI stays
// responsive while a page loads.
type Model[R any] struct {
	ctx      context.Context
	title    string
	routeKey string
	ctrl     *datatable.Controller[R]
	columns  []datatable.Column[R]
	rowID    func(R) string
	initial  datatable.QueryState
	initCur  datatable.Cursor

	snap      datatable.Snapshot[R]
	issued    uint64 // seq of the latest controller call
	applied   uint64 // seq of the snapshot on screen
	table     table.Model
	search    textinput.Model
	searching bool
	sortCol   int
	width     int
	printer   *message.Printer
}

// Options configures a Model.
type Options[R any] struct {
	Title   string
	Columns []datatable.Column[R]

	// RowID enables selection.
	RowID func(R) string

	// State and Cursor are what the table mounts with.
	State  datatable.QueryState
	Cursor datatable.Cursor
}

// New creates a browser over ctrl.
func New[R any](ctx context.Context, ctrl *datatable.Controller[R], opts Options[R]) Model[R] {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search"
	search.CharLimit = 120
	_ = search.Cursor.SetMode(cursor.CursorStatic)

	t := table.New(table.WithFocused(true), table.WithHeight(defaultHeight))
	t.SetStyles(tableStyles())

	m := Model[R]{
		ctx:      ctx,
		title:    opts.Title,
		routeKey: "tui:" + opts.Title,
		ctrl:     ctrl,
		columns:  opts.Columns,
		rowID:    opts.RowID,
		initial:  opts.State,
		initCur:  opts.Cursor,
		snap:     ctrl.Snapshot(),
		issued:   1, // the mount in Init
		table:    t,
		search:   search,
		sortCol:  firstSortable(opts.Columns),
		printer:  message.NewPrinter(language.English),
	}
	m.refreshTable()
	return m
}

// Snapshot returns the last snapshot the model rendered.
func (m Model[R]) Snapshot() datatable.Snapshot[R] { return m.snap }

// Init mounts the table.
func (m Model[R]) Init() tea.Cmd {
	return m.call(1, func(ctx context.Context) datatable.Snapshot[R] {
		return m.ctrl.MountAt(ctx, m.initial, m.routeKey, m.initCur)
	})
}

// Update handles keys and controller results.
func (m Model[R]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg[R]:
		if msg.seq < m.applied {
			return m, nil
		}
		m.applied = msg.seq
		m.snap = msg.snap
		m.refreshTable()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.table.SetHeight(max(msg.Height-8, 3))
		m.refreshTable()
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model[R]) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "q", "ctrl+c":
		return tea.Quit, true
	case "n":
		if !m.snap.HasNext() {
			return nil, true
		}
		if m.snap.Style == datatable.PaginationCursor {
			return m.run(m.ctrl.NextCursor), true
		}
		page := m.snap.State.Page + 1
		return m.run(func(ctx context.Context) datatable.Snapshot[R] { return m.ctrl.SetPage(ctx, page) }), true
	case "p":
		if !m.snap.HasPrev() {
			return nil, true
		}
		if m.snap.Style == datatable.PaginationCursor {
			return m.run(m.ctrl.PrevCursor), true
		}
		page := m.snap.State.Page - 1
		return m.run(func(ctx context.Context) datatable.Snapshot[R] { return m.ctrl.SetPage(ctx, page) }), true
	case "tab":
		m.sortCol = nextSortable(m.columns, m.sortCol)
		m.refreshTable()
		return nil, true
	case "s":
		if m.sortCol < 0 {
			return nil, true
		}
		field := m.columns[m.sortCol].ID
		return m.run(func(ctx context.Context) datatable.Snapshot[R] { return m.ctrl.ToggleSort(ctx, field) }), true
	case "/":
		m.searching = true
		m.search.SetValue(m.snap.State.Search)
		m.search.CursorEnd()
		_ = m.search.Focus()
		return nil, true
	case " ":
		row, ok := m.currentRow()
		if !ok || m.rowID == nil {
			return nil, true
		}
		return m.now(m.ctrl.ToggleRowSelection(m.rowID(row))), true
	case "a":
		return m.now(m.ctrl.SelectAllOnPage()), true
	case "x":
		return m.now(m.ctrl.ClearSelection()), true
	case "r":
		return m.run(m.ctrl.Refetch), true
	}
	return nil, false
}

func (m Model[R]) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		term := m.search.Value()
		return m, m.run(func(ctx context.Context) datatable.Snapshot[R] { return m.ctrl.SetSearch(ctx, term) })
	case "esc":
		m.searching = false
		m.search.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

// run performs a blocking controller call off the update loop.
func (m *Model[R]) run(fn func(context.Context) datatable.Snapshot[R]) tea.Cmd {
	m.issued++
	return m.call(m.issued, fn)
}

func (m Model[R]) call(seq uint64, fn func(context.Context) datatable.Snapshot[R]) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return snapshotMsg[R]{seq: seq, snap: fn(ctx)}
	}
}

// now wraps an immediate controller result.
func (m *Model[R]) now(snap datatable.Snapshot[R]) tea.Cmd {
	m.issued++
	m.applied = m.issued
	m.snap = snap
	m.refreshTable()
	return nil
}

func (m Model[R]) currentRow() (R, bool) {
	rows := m.snap.Rows()
	i := m.table.Cursor()
	if i < 0 || i >= len(rows) {
		var zero R
		return zero, false
	}
	return rows[i], true
}

// refreshTable rebuilds the bubbles table from the snapshot.
func (m *Model[R]) refreshTable() {
	rows := m.snap.Rows()
	selectable := m.rowID != nil

	cols := make([]table.Column, 0, len(m.columns)+1)
	if selectable {
		cols = append(cols, table.Column{Title: " ", Width: 1})
	}
	for i, col := range m.columns {
		cols = append(cols, table.Column{Title: m.header(i, col), Width: columnWidth(col, rows, m.header(i, col))})
	}

	out := make([]table.Row, len(rows))
	for r, row := range rows {
		cells := make(table.Row, 0, len(cols))
		if selectable {
			mark := ""
			if m.snap.State.Selected.Has(m.rowID(row)) {
				mark = selectedMark
			}
			cells = append(cells, mark)
		}
		for _, col := range m.columns {
			cells = append(cells, col.Text(row))
		}
		out[r] = cells
	}

	// rows must be cleared before the columns shrink
	at := m.table.Cursor()
	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetRows(out)
	m.table.SetCursor(min(max(at, 0), max(len(out)-1, 0)))
}

func (m Model[R]) header(i int, col datatable.Column[R]) string {
	title := col.Title()
	if m.snap.State.SortField == col.ID && col.ID != "" {
		if m.snap.State.SortDirection == datatable.SortDesc {
			title += " ▼"
		} else {
			title += " ▲"
		}
	}
	if i == m.sortCol {
		title = "[" + title + "]"
	}
	return title
}

// View renders the browser.
func (m Model[R]) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("  ")
	b.WriteString(mutedStyle.Render(m.summary()))
	b.WriteString("\n\n")

	if fe := m.snap.Err(); fe != nil {
		b.WriteString(errorStyle.Render("Error: " + fe.Message))
		b.WriteString("\n")
	}

	switch {
	case len(m.snap.Rows()) == 0 && (m.snap.IsLoading() || m.snap.Status == datatable.StatusIdle):
		b.WriteString(mutedStyle.Render("Loading…"))
	case len(m.snap.Rows()) == 0 && m.snap.Err() == nil:
		if m.snap.State.HasCriteria() {
			b.WriteString(mutedStyle.Render("No results match the current search or filters."))
		} else {
			b.WriteString(mutedStyle.Render("Nothing here yet."))
		}
	default:
		b.WriteString(baseStyle.Render(m.table.View()))
	}
	b.WriteString("\n")

	if m.searching {
		b.WriteString(m.search.View())
	} else {
		b.WriteString(helpStyle.Render(m.help()))
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model[R]) summary() string {
	s := m.snap
	parts := make([]string, 0, 5)
	meta := s.Result.Meta
	if meta.Style() == datatable.PaginationCursor {
		parts = append(parts, fmt.Sprintf("page %d", s.State.Page))
	} else if meta.TotalPages > 0 {
		parts = append(parts, fmt.Sprintf("page %d/%d", s.State.Page, meta.TotalPages))
	}
	parts = append(parts, m.printer.Sprintf("%d rows", meta.TotalCount))
	if s.State.SortField != "" {
		parts = append(parts, "sort "+s.State.SortField+" "+string(s.State.SortDirection))
	}
	if s.State.Search != "" {
		parts = append(parts, fmt.Sprintf("search %q", s.State.Search))
	}
	if n := s.State.Selected.Len(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", n))
	}
	if s.IsLoading() {
		parts = append(parts, "loading")
	}
	return strings.Join(parts, " · ")
}

func (m Model[R]) help() string {
	keys := "n/p page · tab column · s sort · / search · r refetch · q quit"
	if m.rowID != nil {
		keys = "n/p page · tab column · s sort · / search · space select · a all · x clear · r refetch · q quit"
	}
	return keys
}

func columnWidth[R any](col datatable.Column[R], rows []R, title string) int {
	if col.Width > 0 {
		return max(col.Width, len([]rune(title)))
	}
	w := len([]rune(title))
	for _, row := range rows {
		w = max(w, len([]rune(col.Text(row))))
	}
	return min(w, maxColumnWidth)
}

func firstSortable[R any](cols []datatable.Column[R]) int {
	return nextSortable(cols, -1)
}

// nextSortable cycles through the columns that can sort; -1 when none can.
func nextSortable[R any](cols []datatable.Column[R], from int) int {
	for step := 1; step <= len(cols); step++ {
		i := (from + step) % len(cols)
		if i < 0 {
			i += len(cols)
		}
		if cols[i].CanSort() {
			return i
		}
	}
	return -1
}
