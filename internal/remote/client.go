// Package remote carries datatable fetches over a REST API. The contract is
// the one Params.Values encodes: a GET with page, per_page, sort, order,
// search, starting_after, ending_before and one query parameter per filter,
// answered by {"data": [...], "meta": {...}} or, on failure, a non-2xx
// status with {"message": "..."}.
package remote

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single fetch when the caller sets none.
const DefaultTimeout = 10 * time.Second

// Client talks to one REST API.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
	Logger  *slog.Logger
}

// NewClient creates a client for baseURL. Token, when set, is sent as a
// bearer token.
func NewClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: timeout},
		Logger:  logger,
	}
}

func (c *Client) url(path string) string {
	return c.BaseURL + "/" + strings.TrimLeft(path, "/")
}
