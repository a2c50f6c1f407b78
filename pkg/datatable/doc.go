// Package datatable binds declarative column sets, a remote data fetcher and
// a stateful list controller into the table used by every list page of the
// back-office.
//
// The pieces, leaves first:
//
//   - Column and Produce: the column-set producer. A page declares every
//     column it knows about once; Produce filters, orders and marks columns
//     sortable according to a ColumnConfig.
//   - Query: the query adapter. It wraps a Fetcher, deduplicates in-flight
//     requests by Params fingerprint and commits only the response of the
//     most recently issued request.
//   - Controller: the list state controller. It owns QueryState, turns user
//     intents into Params and reconciles row selection with fetched rows.
//   - Table: the render surface. A pure function of a Snapshot and the
//     column set that produces a templ component.
//
// Control flow is always intent → Controller → Query → Fetcher → Snapshot →
// Table. Nothing in this package knows about HTTP routing or storage.
package datatable
