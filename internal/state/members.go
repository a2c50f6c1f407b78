package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/backoffice/pkg/core"
	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

const memberColumns = "id, name, email, status, joined_at, approved_at"

type memberFilters struct {
	Status string `mapstructure:"status"`
}

func (s *SQLStore) memberQuery(p datatable.Params) (listQuery, error) {
	q := listQuery{
		resource: core.ResourceMembers,
		columns:  memberColumns,
		from:     "members",
		search:   []string{"name", "email"},
		sorts: map[string]string{
			"name":      "name",
			"email":     "email",
			"status":    "status",
			"joined_at": "joined_at",
		},
		order:    "joined_at DESC",
		tiebreak: "id ASC",
	}

	var f memberFilters
	if err := s.decodeFilters(q.resource, p.AllFilters(), &f); err != nil {
		return q, err
	}
	q.filter("status = ?", f.Status)
	q.matchSearch(p.Search)
	return q, nil
}

// ListMembers returns one page of members.
func (s *SQLStore) ListMembers(ctx context.Context, p datatable.Params) (datatable.Page[core.Member], error) {
	q, err := s.memberQuery(p)
	if err != nil {
		return datatable.Page[core.Member]{}, err
	}
	return listOffset(ctx, s, q, p, scanMember)
}

// ApproveMember activates a pending member.
func (s *SQLStore) ApproveMember(ctx context.Context, id string) (*core.Member, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var status core.MemberStatus
	err = tx.QueryRowContext(ctx, s.rebind(`SELECT status FROM members WHERE id = ?`), id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("member %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	if status != core.MemberPending {
		return nil, fmt.Errorf("member %s is %s: %w", id, status, core.ErrInvalidState)
	}

	_, err = tx.ExecContext(ctx,
		s.rebind(`UPDATE members SET status = ?, approved_at = ? WHERE id = ?`),
		core.MemberActive, s.now(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to approve member: %w", err)
	}

	m := core.Member{}
	var approvedAt sql.NullTime
	err = tx.QueryRowContext(ctx, s.rebind(`SELECT `+memberColumns+` FROM members WHERE id = ?`), id).
		Scan(&m.ID, &m.Name, &m.Email, &m.Status, &m.JoinedAt, &approvedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to reload member: %w", err)
	}
	if approvedAt.Valid {
		m.ApprovedAt = &approvedAt.Time
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit approval: %w", err)
	}

	s.logger.Info("member approved", slog.String("id", id))
	return &m, nil
}

func scanMember(rows *sql.Rows) (core.Member, error) {
	var m core.Member
	var approvedAt sql.NullTime
	if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Status, &m.JoinedAt, &approvedAt); err != nil {
		return m, err
	}
	if approvedAt.Valid {
		m.ApprovedAt = &approvedAt.Time
	}
	return m, nil
}
