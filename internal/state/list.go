package state

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

// listQuery describes how one resource is listed.
type listQuery struct {
	resource string
	columns  string
	from     string

	// search lists the columns matched by a free-text search.
	search []string

	// sorts maps the sort fields a client may request to SQL expressions.
	// Fields outside the map fall back to order.
	sorts map[string]string
	order string

	// tiebreak makes the order total so pages never overlap.
	tiebreak string

	where []string
	args  []any
}

// filter adds a condition when value is non-empty.
func (q *listQuery) filter(cond string, value string) {
	if value == "" {
		return
	}
	q.where = append(q.where, cond)
	q.args = append(q.args, value)
}

// matchSearch adds a case-insensitive LIKE over the search columns.
func (q *listQuery) matchSearch(term string) {
	term = strings.TrimSpace(term)
	if term == "" || len(q.search) == 0 {
		return
	}
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	ors := make([]string, len(q.search))
	for i, col := range q.search {
		ors[i] = fmt.Sprintf(`lower(%s) LIKE ? ESCAPE '\'`, col)
		q.args = append(q.args, pattern)
	}
	q.where = append(q.where, "("+strings.Join(ors, " OR ")+")")
}

// onlyIDs restricts the query to a set of row ids.
func (q *listQuery) onlyIDs(column string, ids []string) {
	if len(ids) == 0 {
		return
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	q.where = append(q.where, fmt.Sprintf("%s IN (%s)", column, marks))
	for _, id := range ids {
		q.args = append(q.args, id)
	}
}

func (q *listQuery) whereClause() string {
	if len(q.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.where, " AND ")
}

// orderBy resolves the requested sort against the allow-list.
func (q *listQuery) orderBy(p datatable.Params, logger *slog.Logger) string {
	expr, ok := q.sorts[p.SortField]
	if p.SortField == "" || !ok {
		if p.SortField != "" {
			logger.Debug("ignoring unsortable field",
				slog.String("resource", q.resource),
				slog.String("field", p.SortField))
		}
		return q.order + ", " + q.tiebreak
	}
	dir := "ASC"
	if p.SortDirection == datatable.SortDesc {
		dir = "DESC"
	}
	return expr + " " + dir + ", " + q.tiebreak
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// count returns the number of rows matching the query.
func (s *SQLStore) count(ctx context.Context, q listQuery) (int, error) {
	var n int
	query := s.rebind("SELECT COUNT(*) FROM " + q.from + q.whereClause())
	if err := s.db.QueryRowContext(ctx, query, q.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", q.resource, err)
	}
	return n, nil
}

// listOffset runs q as an offset-paginated listing.
func listOffset[T any](ctx context.Context, s *SQLStore, q listQuery, p datatable.Params, scan func(*sql.Rows) (T, error)) (datatable.Page[T], error) {
	if s.db == nil {
		return datatable.Page[T]{}, fmt.Errorf("database not opened")
	}

	total, err := s.count(ctx, q)
	if err != nil {
		return datatable.Page[T]{}, err
	}

	perPage := max(p.PerPage, 1)
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s LIMIT ? OFFSET ?",
		q.columns, q.from, q.whereClause(), q.orderBy(p, s.logger))
	args := append(append([]any{}, q.args...), perPage, p.Offset())

	rows, err := queryRows(ctx, s, q.resource, query, args, scan)
	if err != nil {
		return datatable.Page[T]{}, err
	}

	return datatable.Page[T]{
		Rows: rows,
		Meta: datatable.Meta{
			TotalCount: total,
			TotalPages: (total + perPage - 1) / perPage,
		},
	}, nil
}

// queryRows runs query and scans every row.
func queryRows[T any](ctx context.Context, s *SQLStore, resource, query string, args []any, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", resource, err)
	}
	defer func() { _ = rows.Close() }()

	out := []T{}
	for rows.Next() {
		row, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", resource, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", resource, err)
	}
	return out, nil
}

// decodeFilters decodes request filters into a typed filter struct. Keys
// the resource does not filter on are ignored.
func (s *SQLStore) decodeFilters(resource string, filters map[string]string, out any) error {
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Metadata:         &md,
		Result:           out,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(filters); err != nil {
		return &datatable.FetchError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("invalid %s filter: %v", resource, err),
		}
	}
	if len(md.Unused) > 0 {
		s.logger.Debug("ignoring unknown filters",
			slog.String("resource", resource),
			slog.Any("keys", md.Unused))
	}
	return nil
}
