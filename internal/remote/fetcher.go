package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/leapstack-labs/backoffice/pkg/datatable"
)

// maxErrorBody caps how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

// Fetcher implements datatable.Fetcher[R] against one API path.
type Fetcher[R any] struct {
	client *Client
	path   string
}

var _ datatable.Fetcher[struct{}] = (*Fetcher[struct{}])(nil)

// NewFetcher returns a fetcher for the collection at path.
func NewFetcher[R any](client *Client, path string) *Fetcher[R] {
	return &Fetcher[R]{client: client, path: path}
}

// Fetch requests one page. Non-2xx responses become a *datatable.FetchError
// carrying the status and the server's message.
func (f *Fetcher[R]) Fetch(ctx context.Context, p datatable.Params) (datatable.Page[R], error) {
	endpoint := f.client.url(f.path) + "?" + p.Values().Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return datatable.Page[R]{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if f.client.Token != "" {
		req.Header.Set("Authorization", "Bearer "+f.client.Token)
	}

	start := time.Now()
	resp, err := f.client.HTTP.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return datatable.Page[R]{}, ctxErr
		}
		return datatable.Page[R]{}, &datatable.FetchError{Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	f.client.Logger.Debug("remote fetch",
		slog.String("path", f.path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("took", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return datatable.Page[R]{}, decodeError(resp)
	}

	var page datatable.Page[R]
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return datatable.Page[R]{}, &datatable.FetchError{
			Status:  http.StatusBadGateway,
			Message: fmt.Sprintf("invalid response body: %v", err),
		}
	}
	if page.Rows == nil {
		page.Rows = []R{}
	}
	return page, nil
}

// decodeError reads {"message": "..."} from a failed response, falling back
// to the status text.
func decodeError(resp *http.Response) error {
	fe := &datatable.FetchError{Status: resp.StatusCode}

	var body struct {
		Message string `json:"message"`
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && json.Unmarshal(raw, &body) == nil && body.Message != "" {
		fe.Message = body.Message
		return fe
	}

	fe.Message = http.StatusText(resp.StatusCode)
	if fe.Message == "" {
		fe.Message = "request failed"
	}
	return fe
}

// IsStatus reports whether err is a fetch error with the given status.
func IsStatus(err error, status int) bool {
	var fe *datatable.FetchError
	return errors.As(err, &fe) && fe.Status == status
}
