package state

import (
	"context"
	"database/sql"

	"github.com/leapstack-labs/backoffice/pkg/core"
	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

type orderFilters struct {
	Status   string `mapstructure:"status"`
	CourseID string `mapstructure:"course_id"`
	Currency string `mapstructure:"currency"`
	MinTotal int64  `mapstructure:"min_total"`
}

func (s *SQLStore) orderQuery(p datatable.Params) (listQuery, error) {
	q := listQuery{
		resource: core.ResourceOrders,
		columns: "o.id, o.number, o.member_email, o.course_id, c.title, o.status, " +
			"o.total_cents, o.currency, o.created_at",
		from:   "orders o JOIN courses c ON c.id = o.course_id",
		search: []string{"o.number", "o.member_email", "c.title"},
		sorts: map[string]string{
			"number":     "o.number",
			"member":     "o.member_email",
			"course":     "c.title",
			"status":     "o.status",
			"total":      "o.total_cents",
			"created_at": "o.created_at",
		},
		order:    "o.created_at DESC",
		tiebreak: "o.id ASC",
	}

	var f orderFilters
	if err := s.decodeFilters(q.resource, p.AllFilters(), &f); err != nil {
		return q, err
	}
	q.filter("o.status = ?", f.Status)
	q.filter("o.course_id = ?", f.CourseID)
	q.filter("o.currency = ?", f.Currency)
	if f.MinTotal > 0 {
		q.where = append(q.where, "o.total_cents >= ?")
		q.args = append(q.args, f.MinTotal)
	}
	q.matchSearch(p.Search)
	return q, nil
}

// ListOrders returns one page of orders with their course title.
func (s *SQLStore) ListOrders(ctx context.Context, p datatable.Params) (datatable.Page[core.Order], error) {
	q, err := s.orderQuery(p)
	if err != nil {
		return datatable.Page[core.Order]{}, err
	}
	return listOffset(ctx, s, q, p, scanOrder)
}

func scanOrder(rows *sql.Rows) (core.Order, error) {
	var o core.Order
	err := rows.Scan(&o.ID, &o.Number, &o.MemberEmail, &o.CourseID, &o.CourseTitle,
		&o.Status, &o.TotalCents, &o.Currency, &o.CreatedAt)
	return o, err
}
