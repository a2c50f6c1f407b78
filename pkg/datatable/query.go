package datatable

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// QueryOptions configures a Query.
type QueryOptions[R any] struct {
	Logger *slog.Logger

	// OnCommit is called after a response is committed, outside the
	// adapter's lock. gen increases with every issued request, so a
	// receiver can drop calls that arrive out of order.
	OnCommit func(gen uint64, res Result[R])
}

// Query is the query adapter. It normalizes a Fetcher into a Result and
// guarantees that only the response to the most recently issued request is
// committed, whatever order responses arrive in.
type Query[R any] struct {
	fetcher  Fetcher[R]
	logger   *slog.Logger
	onCommit func(uint64, Result[R])
	group    singleflight.Group

	mu     sync.Mutex
	issued uint64 // generation of the latest request
	epoch  uint64 // bumped by Invalidate to stop joining older flights
	last   *Params
	result Result[R]
}

// NewQuery wraps fetcher.
func NewQuery[R any](fetcher Fetcher[R], opts QueryOptions[R]) *Query[R] {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Query[R]{
		fetcher:  fetcher,
		logger:   logger,
		onCommit: opts.OnCommit,
	}
}

// Load issues a request for p and waits for it to settle. It returns the
// current result and whether this request's response was committed.
//
// Requests with the same fingerprint share one in-flight fetch. When ctx
// ends first the caller stops waiting; the fetch keeps running and its
// response is still committed if nothing newer was issued meanwhile.
func (q *Query[R]) Load(ctx context.Context, p Params) (Result[R], bool) {
	return q.Await(ctx, q.Issue(p), p)
}

// Issue reserves the generation of a request for p without fetching. From
// here on every older response is stale. Await performs the fetch.
func (q *Query[R]) Issue(p Params) uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.issued++
	params := p
	q.last = &params
	q.result.IsLoading = true
	return q.issued
}

// Await fetches p on behalf of generation gen, as returned by Issue.
func (q *Query[R]) Await(ctx context.Context, gen uint64, p Params) (Result[R], bool) {
	fp := p.Fingerprint()

	q.mu.Lock()
	key := fp + "@" + strconv.FormatUint(q.epoch, 10)
	q.mu.Unlock()

	ch := q.group.DoChan(key, func() (any, error) {
		q.logger.Debug("fetching", slog.String("fingerprint", fp))
		return q.fetcher.Fetch(context.WithoutCancel(ctx), p)
	})

	select {
	case res := <-ch:
		if res.Shared {
			q.logger.Debug("joined in-flight fetch", slog.String("fingerprint", fp))
		}
		committed := q.commit(gen, fp, res)
		return q.Result(), committed
	case <-ctx.Done():
		go func() { q.commit(gen, fp, <-ch) }()
		return q.Result(), false
	}
}

// commit applies a settled fetch if gen is still the latest request.
func (q *Query[R]) commit(gen uint64, fp string, res singleflight.Result) bool {
	q.mu.Lock()
	if gen != q.issued {
		latest := q.issued
		q.mu.Unlock()
		q.logger.Debug("discarding stale response",
			slog.String("fingerprint", fp),
			slog.Uint64("generation", gen),
			slog.Uint64("latest", latest))
		return false
	}

	q.result.IsLoading = false
	q.result.Fingerprint = fp
	if res.Err != nil {
		q.result.Err = AsFetchError(res.Err)
		q.logger.Debug("fetch failed", slog.String("fingerprint", fp), slog.Any("error", res.Err))
	} else {
		page, _ := res.Val.(Page[R])
		q.result.Rows = page.Rows
		q.result.Meta = page.Meta
		q.result.Err = nil
	}
	out := q.copyLocked()
	q.mu.Unlock()

	if q.onCommit != nil {
		q.onCommit(gen, out)
	}
	return true
}

// Refetch re-issues the last params. It is a no-op before the first Load.
func (q *Query[R]) Refetch(ctx context.Context) (Result[R], bool) {
	q.mu.Lock()
	last := q.last
	q.mu.Unlock()
	if last == nil {
		return q.Result(), false
	}
	return q.Load(ctx, *last)
}

// Invalidate marks the data stale: the next Load performs a new fetch even
// when a flight for the same params is still running.
func (q *Query[R]) Invalidate() {
	q.mu.Lock()
	q.epoch++
	q.mu.Unlock()
}

// Detach discards every outstanding response. Used when the owning view
// goes away.
func (q *Query[R]) Detach() {
	q.mu.Lock()
	q.issued++
	q.result.IsLoading = false
	q.mu.Unlock()
}

// Result returns a copy of the committed result.
func (q *Query[R]) Result() Result[R] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.copyLocked()
}

func (q *Query[R]) copyLocked() Result[R] {
	out := q.result
	out.Rows = slices.Clone(q.result.Rows)
	if q.result.Err != nil {
		e := *q.result.Err
		out.Err = &e
	}
	return out
}
