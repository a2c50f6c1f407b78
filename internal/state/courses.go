package state

import (
	"context"
	"database/sql"

	"github.com/leapstack-labs/backoffice/pkg/core"
	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

type courseFilters struct {
	Status string `mapstructure:"status"`
}

func (s *SQLStore) courseQuery(p datatable.Params) (listQuery, error) {
	q := listQuery{
		resource: core.ResourceCourses,
		columns:  "id, title, slug, status, price_cents, enrollments, created_at",
		from:     "courses",
		search:   []string{"title", "slug"},
		sorts: map[string]string{
			"title":       "title",
			"status":      "status",
			"price":       "price_cents",
			"enrollments": "enrollments",
			"created_at":  "created_at",
		},
		order:    "created_at DESC",
		tiebreak: "id ASC",
	}

	var f courseFilters
	if err := s.decodeFilters(q.resource, p.AllFilters(), &f); err != nil {
		return q, err
	}
	q.filter("status = ?", f.Status)
	q.matchSearch(p.Search)
	return q, nil
}

// ListCourses returns one page of courses.
func (s *SQLStore) ListCourses(ctx context.Context, p datatable.Params) (datatable.Page[core.Course], error) {
	q, err := s.courseQuery(p)
	if err != nil {
		return datatable.Page[core.Course]{}, err
	}
	return listOffset(ctx, s, q, p, scanCourse)
}

func scanCourse(rows *sql.Rows) (core.Course, error) {
	var c core.Course
	err := rows.Scan(&c.ID, &c.Title, &c.Slug, &c.Status, &c.PriceCents, &c.Enrollments, &c.CreatedAt)
	return c, err
}
