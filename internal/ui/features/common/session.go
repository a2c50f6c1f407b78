package common

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/backoffice/internal/remote"
)

const (
	sessionName  = "backoffice"
	sessionIDKey = "sid"
)

// SessionID returns the visitor id stored in the session cookie, issuing a
// new one when the request carries none or an unreadable cookie. It must run
// before anything is written to w.
func SessionID(store sessions.Store, w http.ResponseWriter, r *http.Request, logger *slog.Logger) string {
	sess, err := store.Get(r, sessionName)
	if err != nil {
		logger.Debug("discarding unreadable session", slog.String("error", err.Error()))
	}
	if sess == nil {
		sess = sessions.NewSession(store, sessionName)
	}
	if id, ok := sess.Values[sessionIDKey].(string); ok && id != "" {
		return id
	}

	id := uuid.NewString()
	sess.Values[sessionIDKey] = id
	if err := sess.Save(r, w); err != nil {
		logger.Warn("failed to save session", slog.String("error", err.Error()))
	}
	return id
}

// RequireToken rejects requests without the bearer token. An empty token
// disables the check.
func RequireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		want := []byte("Bearer " + token)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if subtle.ConstantTimeCompare([]byte(r.Header.Get("Authorization")), want) != 1 {
				remote.WriteError(w, http.StatusUnauthorized, "missing or invalid token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
