package state

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/backoffice/pkg/core"
)

var (
	seedFirstNames = []string{"Ada", "Grace", "Alan", "Edsger", "Barbara", "Ken", "Margaret", "Linus", "Frances", "Donald"}
	seedLastNames  = []string{"Lovelace", "Hopper", "Turing", "Dijkstra", "Liskov", "Thompson", "Hamilton", "Torvalds", "Allen", "Knuth"}
	seedTopics     = []string{"Go", "SQL", "Kubernetes", "Rust", "TypeScript", "Linux", "Networking", "Security", "Testing", "Design"}
	seedLevels     = []string{"Foundations", "in Practice", "Deep Dive"}
	seedCurrencies = []string{"EUR", "USD"}
)

// seedEpoch anchors generated timestamps so seeded data is reproducible.
var seedEpoch = time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)

// seedID derives a stable id for the n-th row of kind.
func seedID(kind string, n int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, fmt.Appendf(nil, "backoffice/%s/%d", kind, n)).String()
}

// Seed fills an empty database with reproducible demo data. It does nothing
// when courses already exist.
func (s *SQLStore) Seed(ctx context.Context, opts core.SeedOptions) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	var existing int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses`).Scan(&existing); err != nil {
		return fmt.Errorf("failed to inspect database: %w", err)
	}
	if existing > 0 {
		s.logger.Info("database already seeded", slog.Int("courses", existing))
		return nil
	}

	rng := rand.New(rand.NewPCG(1, 2)) //nolint:gosec // demo data

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	courses := make([]core.Course, 0, opts.Courses)
	for i := range opts.Courses {
		title := fmt.Sprintf("%s %s", seedTopics[i%len(seedTopics)], seedLevels[(i/len(seedTopics))%len(seedLevels)])
		c := core.Course{
			ID:          seedID("course", i),
			Title:       title,
			Slug:        fmt.Sprintf("%s-%d", strings.ToLower(strings.ReplaceAll(title, " ", "-")), i+1),
			Status:      []core.CourseStatus{core.CoursePublished, core.CoursePublished, core.CourseDraft, core.CourseArchived}[rng.IntN(4)],
			PriceCents:  int64(1900 + rng.IntN(30)*500),
			Enrollments: rng.IntN(400),
			CreatedAt:   seedEpoch.Add(time.Duration(i) * 72 * time.Hour),
		}
		courses = append(courses, c)
		if err := s.insert(ctx, tx,
			`INSERT INTO courses (id, title, slug, status, price_cents, enrollments, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.Title, c.Slug, c.Status, c.PriceCents, c.Enrollments, c.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to seed courses: %w", err)
		}
	}

	emails := make([]string, 0, opts.Members)
	for i := range opts.Members {
		first := seedFirstNames[i%len(seedFirstNames)]
		last := seedLastNames[(i/len(seedFirstNames))%len(seedLastNames)]
		m := core.Member{
			ID:       seedID("member", i),
			Name:     first + " " + last,
			Email:    fmt.Sprintf("%s.%s.%d@example.com", strings.ToLower(first), strings.ToLower(last), i+1),
			Status:   core.MemberActive,
			JoinedAt: seedEpoch.Add(time.Duration(i) * 26 * time.Hour),
		}
		var approvedAt sql.NullTime
		switch {
		case i%7 == 3:
			m.Status = core.MemberPending
		case i%11 == 5:
			m.Status = core.MemberSuspended
		default:
			approvedAt = sql.NullTime{Time: m.JoinedAt.Add(6 * time.Hour), Valid: true}
		}
		emails = append(emails, m.Email)
		if err := s.insert(ctx, tx,
			`INSERT INTO members (id, name, email, status, joined_at, approved_at) VALUES (?, ?, ?, ?, ?, ?)`,
			m.ID, m.Name, m.Email, m.Status, m.JoinedAt, approvedAt,
		); err != nil {
			return fmt.Errorf("failed to seed members: %w", err)
		}
	}

	if len(courses) > 0 && len(emails) > 0 {
		for i := range opts.Orders {
			c := courses[rng.IntN(len(courses))]
			status := core.OrderPaid
			switch r := rng.IntN(10); {
			case r == 0:
				status = core.OrderRefunded
			case r < 3:
				status = core.OrderPending
			}
			if err := s.insert(ctx, tx,
				`INSERT INTO orders (id, number, member_email, course_id, status, total_cents, currency, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				seedID("order", i), fmt.Sprintf("ORD-%06d", i+1), emails[rng.IntN(len(emails))], c.ID,
				status, c.PriceCents, seedCurrencies[rng.IntN(len(seedCurrencies))],
				seedEpoch.Add(time.Duration(i)*5*time.Hour),
			); err != nil {
				return fmt.Errorf("failed to seed orders: %w", err)
			}
		}
	}

	for i := range opts.Invoices {
		status := []core.InvoiceStatus{core.InvoicePaid, core.InvoicePaid, core.InvoiceOpen, core.InvoiceVoid}[rng.IntN(4)]
		if err := s.insert(ctx, tx,
			`INSERT INTO invoices (id, number, status, amount_cents, currency, issued_at) VALUES (?, ?, ?, ?, ?, ?)`,
			seedID("invoice", i), fmt.Sprintf("INV-%06d", i+1), status,
			int64(5000+rng.IntN(200)*250), seedCurrencies[i%len(seedCurrencies)],
			seedEpoch.Add(time.Duration(i)*24*time.Hour),
		); err != nil {
			return fmt.Errorf("failed to seed invoices: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}

	s.logger.Info("database seeded",
		"courses", opts.Courses,
		"members", opts.Members,
		"orders", opts.Orders,
		"invoices", opts.Invoices)
	return nil
}

func (s *SQLStore) insert(ctx context.Context, tx *sql.Tx, query string, args ...any) error {
	_, err := tx.ExecContext(ctx, s.rebind(query), args...)
	return err
}
