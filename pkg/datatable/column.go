package datatable

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/a-h/templ"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ActionsColumnID is the conventional id of the per-row action column.
// Its Render function may return nil to show nothing for a row.
const ActionsColumnID = "actions"

// Column describes one table column for rows of type R.
type Column[R any] struct {
	// ID is unique within a column set. It doubles as the sort field name.
	ID string

	// Header is the column label. Empty means a title-cased ID.
	Header string

	// Accessor maps a row to its raw value. Nil for pure action columns.
	Accessor func(R) any

	// Sortable declares that the column can be sorted. It is only honored
	// when the ID is also listed in ColumnConfig.Sortables.
	Sortable bool

	// DisableSortBy is computed by Produce.
	DisableSortBy bool

	// Width is an optional size hint in characters (0 = auto).
	Width int

	// Render draws the cell. Nil falls back to the accessor's text.
	Render func(R) templ.Component
}

// ColumnConfig selects and orders the columns a page shows.
type ColumnConfig struct {
	// Sortables is the allow-list of sortable field names.
	Sortables []string `koanf:"sortables"`

	// Columns restricts and orders the visible columns by id.
	// Empty keeps every column in declaration order.
	Columns []string `koanf:"columns"`
}

// Title returns the column label.
func (c Column[R]) Title() string {
	if c.Header != "" {
		return c.Header
	}
	// Casers keep state, so one is built per call.
	return cases.Title(language.English).String(strings.ReplaceAll(c.ID, "_", " "))
}

// CanSort reports whether clicking the header should change the sort.
func (c Column[R]) CanSort() bool {
	return c.Sortable && !c.DisableSortBy
}

// Value returns the raw cell value, or nil when the column has no accessor.
func (c Column[R]) Value(row R) any {
	if c.Accessor == nil {
		return nil
	}
	return c.Accessor(row)
}

// Text returns the cell value as plain text for terminal surfaces.
func (c Column[R]) Text(row R) string {
	v := c.Value(row)
	if v == nil {
		return ""
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}

// Cell returns the component for a row's cell. It never returns nil.
func (c Column[R]) Cell(row R) templ.Component {
	if c.Render != nil {
		if comp := c.Render(row); comp != nil {
			return comp
		}
		return templ.NopComponent
	}
	if c.Accessor == nil {
		return templ.NopComponent
	}
	return plainText(c.Text(row))
}

// Produce applies cfg to the full column list of a page.
//
// Columns not listed in cfg.Sortables get DisableSortBy set. When cfg.Columns
// is non-empty, only the listed ids are kept, in the listed order. Duplicate
// ids keep their first declaration. The input slice is never modified.
func Produce[R any](cfg ColumnConfig, all []Column[R]) []Column[R] {
	byID := make(map[string]Column[R], len(all))
	declared := make([]string, 0, len(all))
	for _, col := range all {
		if _, dup := byID[col.ID]; dup {
			continue
		}
		col.DisableSortBy = !(col.Sortable && slices.Contains(cfg.Sortables, col.ID))
		byID[col.ID] = col
		declared = append(declared, col.ID)
	}

	order := declared
	if len(cfg.Columns) > 0 {
		order = make([]string, 0, len(cfg.Columns))
		seen := make(map[string]bool, len(cfg.Columns))
		for _, id := range cfg.Columns {
			if _, ok := byID[id]; ok && !seen[id] {
				seen[id] = true
				order = append(order, id)
			}
		}
	}

	out := make([]Column[R], 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out
}

// ValidateColumns reports misconfiguration of a column set: duplicate ids,
// sortables that name no sortable column and visible ids that name no
// column. It is meant for development builds; Produce already falls back to
// the most restrictive interpretation.
func ValidateColumns[R any](cfg ColumnConfig, all []Column[R]) error {
	var errs []error
	seen := make(map[string]Column[R], len(all))
	for _, col := range all {
		if col.ID == "" {
			errs = append(errs, errors.New("column with empty id"))
			continue
		}
		if _, dup := seen[col.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate column id %q", col.ID))
			continue
		}
		seen[col.ID] = col
	}
	for _, field := range cfg.Sortables {
		col, ok := seen[field]
		if !ok {
			errs = append(errs, fmt.Errorf("sortable %q names no column", field))
			continue
		}
		if !col.Sortable {
			errs = append(errs, fmt.Errorf("sortable %q names a column that is not sortable", field))
		}
	}
	for _, id := range cfg.Columns {
		if _, ok := seen[id]; !ok {
			errs = append(errs, fmt.Errorf("visible column %q is not declared", id))
		}
	}
	return errors.Join(errs...)
}

// SortableIDs returns the ids of the columns that can sort, the allow-list a
// controller over cols should enforce.
func SortableIDs[R any](cols []Column[R]) []string {
	ids := make([]string, 0, len(cols))
	for _, c := range cols {
		if c.CanSort() {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// IDs returns the column ids in order.
func IDs[R any](cols []Column[R]) []string {
	ids := make([]string, len(cols))
	for i, c := range cols {
		ids[i] = c.ID
	}
	return ids
}
