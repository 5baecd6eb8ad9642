// Package bootstrap gathers the identity a page needs before it renders.
//
// FetchAuth performs two independent lookups on the same request: the
// authentication backend resolves a session from the request's cookies, and
// the raw session cookie is read by name. The resolved session answers "who
// is this"; the raw cookie is the credential a caller replays as a bearer
// token. The two may disagree, so an Identity is best-effort and never a
// verified credential on its own.
package bootstrap

import (
	"errors"
	"fmt"
	"net/http"

	"appshell/pkg/session"
)

var ErrNoRequest = errors.New("bootstrap: nil request")

// Backend is the part of the authentication backend FetchAuth needs.
type Backend interface {
	FetchSession(r *http.Request) (*session.Session, error)
	CookieName() string
}

// Identity is built per request and never cached. Empty fields mean absent.
type Identity struct {
	UserID string `json:"userId,omitempty"`
	Token  string `json:"token,omitempty"`
}

func (id Identity) Authenticated() bool {
	return id.UserID != ""
}

// FetchAuth resolves the identity of r. A missing session or a missing
// cookie is not an error; only a failing backend is, and that error is
// returned unchanged in kind for the caller's error boundary to handle.
func FetchAuth(r *http.Request, backend Backend) (Identity, error) {
	if r == nil {
		return Identity{}, ErrNoRequest
	}

	s, err := backend.FetchSession(r)
	if err != nil {
		return Identity{}, fmt.Errorf("fetch session: %w", err)
	}

	var id Identity
	if s != nil {
		id.UserID = s.UserID
	}

	if c, err := r.Cookie(backend.CookieName()); err == nil {
		id.Token = c.Value
	}

	return id, nil
}
