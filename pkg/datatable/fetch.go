package datatable

import (
	"context"
	"errors"
	"fmt"
)

// Meta is the pagination metadata of a fetched page. Offset-style fetchers
// fill TotalPages; cursor-style fetchers fill HasMore and the tokens.
type Meta struct {
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages,omitempty"`

	HasMore bool `json:"has_more,omitempty"`

	// StartingAfter is the token requesting the next page.
	StartingAfter string `json:"starting_after,omitempty"`

	// EndingBefore is the token requesting the previous page.
	EndingBefore string `json:"ending_before,omitempty"`
}

// Style infers the pagination style the metadata describes.
func (m Meta) Style() PaginationStyle {
	if m.TotalPages > 0 {
		return PaginationOffset
	}
	if m.HasMore || m.StartingAfter != "" || m.EndingBefore != "" {
		return PaginationCursor
	}
	return PaginationOffset
}

// Page is one fetched page of rows, already ordered by the requested sort.
type Page[R any] struct {
	Rows []R  `json:"data"`
	Meta Meta `json:"meta"`
}

// Fetcher loads a page of rows for params. Implementations reject with a
// *FetchError (or any error, which is normalized by AsFetchError).
type Fetcher[R any] interface {
	Fetch(ctx context.Context, p Params) (Page[R], error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc[R any] func(ctx context.Context, p Params) (Page[R], error)

// Fetch calls f.
func (f FetcherFunc[R]) Fetch(ctx context.Context, p Params) (Page[R], error) {
	return f(ctx, p)
}

// FetchError is the structured failure of a fetch.
type FetchError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (e *FetchError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// AsFetchError normalizes err. Errors that are not a *FetchError are treated
// as transport failures with status 0.
func AsFetchError(err error) *FetchError {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return &FetchError{Message: err.Error()}
}

// Result is the adapter's read-only projection of the latest committed fetch.
type Result[R any] struct {
	Rows        []R
	Meta        Meta
	IsLoading   bool
	Err         *FetchError
	Fingerprint string
}
