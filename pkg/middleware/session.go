package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"appshell/pkg/claims"
	"appshell/pkg/session"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*session.Session, *claims.Claims, error)
	CookieName() string
}

// RequireSession admits requests carrying a live session token, either as
// "Authorization: Bearer <token>" or in the session cookie. The verified
// claims are stored under claims.TokenContextKey.
func RequireSession(authn Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := requestToken(r, authn.CookieName())
			if !ok {
				writeJSON(w, r, logger, http.StatusUnauthorized, `{"message":"unauthorized"}`)
				return
			}

			s, c, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				logger.ErrorContext(r.Context(), "session check", "error", err)
				writeJSON(w, r, logger, http.StatusInternalServerError, `{"error":"session backend unavailable"}`)
				return
			}
			if s == nil || c == nil {
				writeJSON(w, r, logger, http.StatusUnauthorized, `{"message":"unauthorized"}`)
				return
			}

			ctx := context.WithValue(r.Context(), claims.TokenContextKey, c)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requestToken(r *http.Request, cookieName string) (string, bool) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		token, found := strings.CutPrefix(auth, "Bearer ")
		return token, found && token != ""
	}
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

func writeJSON(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		logger.ErrorContext(r.Context(), "failed to write JSON response", "status", status, "error", err)
	}
}
