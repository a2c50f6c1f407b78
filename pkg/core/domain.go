package core

import (
	"fmt"
	"time"
)

// Resource names. They double as table names in URLs, config keys and
// export jobs.
const (
	ResourceCourses  = "courses"
	ResourceOrders   = "orders"
	ResourceMembers  = "members"
	ResourceInvoices = "invoices"
	ResourceExports  = "exports"
)

// Resources lists every table the dashboard shows.
var Resources = []string{ResourceCourses, ResourceOrders, ResourceMembers, ResourceInvoices, ResourceExports}

// CourseStatus is the publication state of a course.
type CourseStatus string

// Course statuses.
const (
	CourseDraft     CourseStatus = "draft"
	CoursePublished CourseStatus = "published"
	CourseArchived  CourseStatus = "archived"
)

// Course is a product sold by the academy.
type Course struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Slug        string       `json:"slug"`
	Status      CourseStatus `json:"status"`
	PriceCents  int64        `json:"price_cents"`
	Enrollments int          `json:"enrollments"`
	CreatedAt   time.Time    `json:"created_at"`
}

// RowID identifies the row in a table.
func (c Course) RowID() string { return c.ID }

// OrderStatus is the payment state of an order.
type OrderStatus string

// Order statuses.
const (
	OrderPending  OrderStatus = "pending"
	OrderPaid     OrderStatus = "paid"
	OrderRefunded OrderStatus = "refunded"
)

// Order is a purchase of a course by a member.
type Order struct {
	ID          string      `json:"id"`
	Number      string      `json:"number"`
	MemberEmail string      `json:"member_email"`
	CourseID    string      `json:"course_id"`
	CourseTitle string      `json:"course_title"`
	Status      OrderStatus `json:"status"`
	TotalCents  int64       `json:"total_cents"`
	Currency    string      `json:"currency"`
	CreatedAt   time.Time   `json:"created_at"`
}

// RowID identifies the row in a table.
func (o Order) RowID() string { return o.ID }

// MemberStatus is the membership state of a member.
type MemberStatus string

// Member statuses.
const (
	MemberPending   MemberStatus = "pending"
	MemberActive    MemberStatus = "active"
	MemberSuspended MemberStatus = "suspended"
)

// Member is a registered learner.
type Member struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Email      string       `json:"email"`
	Status     MemberStatus `json:"status"`
	JoinedAt   time.Time    `json:"joined_at"`
	ApprovedAt *time.Time   `json:"approved_at,omitempty"`
}

// RowID identifies the row in a table.
func (m Member) RowID() string { return m.ID }

// CanApprove reports whether the member is waiting for approval.
func (m Member) CanApprove() bool { return m.Status == MemberPending }

// InvoiceStatus is the billing state of an invoice.
type InvoiceStatus string

// Invoice statuses.
const (
	InvoiceOpen InvoiceStatus = "open"
	InvoicePaid InvoiceStatus = "paid"
	InvoiceVoid InvoiceStatus = "void"
)

// Invoice is a billing document issued to the academy. Invoices page with
// cursors.
type Invoice struct {
	ID          string        `json:"id"`
	Number      string        `json:"number"`
	Status      InvoiceStatus `json:"status"`
	AmountCents int64         `json:"amount_cents"`
	Currency    string        `json:"currency"`
	IssuedAt    time.Time     `json:"issued_at"`
}

// RowID identifies the row in a table.
func (i Invoice) RowID() string { return i.ID }

// ExportStatus is the lifecycle of an export job.
type ExportStatus string

// Export statuses.
const (
	ExportQueued    ExportStatus = "queued"
	ExportCompleted ExportStatus = "completed"
	ExportFailed    ExportStatus = "failed"
)

// ExportJob records an export requested from a table toolbar.
type ExportJob struct {
	ID        string            `json:"id"`
	Resource  string            `json:"resource"`
	Status    ExportStatus      `json:"status"`
	IDs       []string          `json:"ids"`
	Filters   map[string]string `json:"filters"`
	RowCount  int               `json:"row_count"`
	CreatedAt time.Time         `json:"created_at"`
}

// RowID identifies the row in a table.
func (e ExportJob) RowID() string { return e.ID }

// Money formats an amount in minor units, e.g. "EUR 12.50".
func Money(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s %s%d.%02d", currency, sign, cents/100, cents%100)
}
