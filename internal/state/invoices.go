package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/leapstack-labs/backoffice/pkg/core"
	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

type invoiceFilters struct {
	Status   string `mapstructure:"status"`
	Currency string `mapstructure:"currency"`
}

func (s *SQLStore) invoiceQuery(p datatable.Params) (listQuery, error) {
	q := listQuery{
		resource: core.ResourceInvoices,
		columns:  "id, number, status, amount_cents, currency, issued_at",
		from:     "invoices",
		search:   []string{"number"},
	}

	var f invoiceFilters
	if err := s.decodeFilters(q.resource, p.AllFilters(), &f); err != nil {
		return q, err
	}
	q.filter("status = ?", f.Status)
	q.filter("currency = ?", f.Currency)
	q.matchSearch(p.Search)
	return q, nil
}

// ListInvoices returns one page of invoices using cursor pagination over the
// invoice number. Newest invoices come first unless an ascending sort on
// "number" is requested; other sort fields are ignored. Cursor tokens are
// invoice ids.
func (s *SQLStore) ListInvoices(ctx context.Context, p datatable.Params) (datatable.Page[core.Invoice], error) {
	if s.db == nil {
		return datatable.Page[core.Invoice]{}, fmt.Errorf("database not opened")
	}

	q, err := s.invoiceQuery(p)
	if err != nil {
		return datatable.Page[core.Invoice]{}, err
	}

	total, err := s.count(ctx, q)
	if err != nil {
		return datatable.Page[core.Invoice]{}, err
	}

	desc := p.SortField != "number" || p.SortDirection != datatable.SortAsc
	backward := p.Cursor.StartingAfter == "" && p.Cursor.EndingBefore != ""

	token := p.Cursor.StartingAfter
	if backward {
		token = p.Cursor.EndingBefore
	}
	if token != "" {
		number, err := s.invoiceNumber(ctx, token)
		if err != nil {
			return datatable.Page[core.Invoice]{}, err
		}
		// Forward pages continue past the token in display order, backward
		// pages walk the other way and are reversed afterwards.
		cmp := "<"
		if desc == backward {
			cmp = ">"
		}
		q.where = append(q.where, "number "+cmp+" ?")
		q.args = append(q.args, number)
	}

	dir := "DESC"
	if desc == backward {
		dir = "ASC"
	}

	perPage := max(p.PerPage, 1)
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY number %s LIMIT ?",
		q.columns, q.from, q.whereClause(), dir)
	args := append(append([]any{}, q.args...), perPage+1)

	rows, err := queryRows(ctx, s, q.resource, query, args, scanInvoice)
	if err != nil {
		return datatable.Page[core.Invoice]{}, err
	}

	overflow := len(rows) > perPage
	if overflow {
		rows = rows[:perPage]
	}

	var hasMore, hasEarlier bool
	if backward {
		slices.Reverse(rows)
		hasMore = true
		hasEarlier = overflow
	} else {
		hasMore = overflow
		hasEarlier = token != ""
	}

	meta := datatable.Meta{TotalCount: total, HasMore: hasMore}
	if len(rows) > 0 {
		meta.StartingAfter = rows[len(rows)-1].ID
		if hasEarlier {
			meta.EndingBefore = rows[0].ID
		}
	}

	return datatable.Page[core.Invoice]{Rows: rows, Meta: meta}, nil
}

// invoiceNumber resolves a cursor token to the invoice number it points at.
func (s *SQLStore) invoiceNumber(ctx context.Context, id string) (string, error) {
	var number string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT number FROM invoices WHERE id = ?`), id).Scan(&number)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &datatable.FetchError{Status: http.StatusBadRequest, Message: "invalid cursor"}
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve cursor: %w", err)
	}
	return number, nil
}

func scanInvoice(rows *sql.Rows) (core.Invoice, error) {
	var i core.Invoice
	err := rows.Scan(&i.ID, &i.Number, &i.Status, &i.AmountCents, &i.Currency, &i.IssuedAt)
	return i, err
}
