// Package core defines the shared language of the backoffice.
//
// This package contains:
//   - Domain rows shown in the dashboard tables (Course, Order, Member, ...)
//   - The Store interface implemented by internal/state
//   - Sentinel errors shared by stores and handlers
//
// The Golden Rule: pkg/core imports ONLY pkg/datatable and stdlib.
// All other packages depend on core, not the reverse.
package core
