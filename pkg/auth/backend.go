// Package auth resolves cookie sessions and issues the signed session tokens
// those cookies carry.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"appshell/pkg/claims"
	"appshell/pkg/generator"
	"appshell/pkg/session"
	"appshell/pkg/user"

	jwt "github.com/dgrijalva/jwt-go"
)

const (
	cookieSuffix  = ".session_token"
	securePrefix  = "__Secure-"
	defaultPrefix = "appshell"
	defaultTTL    = time.Hour
)

var ErrMisconfigured = errors.New("auth backend misconfigured: empty signing secret")

type Options struct {
	Secret       []byte
	CookiePrefix string
	Secure       bool
	SessionTTL   time.Duration
}

type Backend struct {
	sessions session.Repository
	opts     Options
}

func NewBackend(sessions session.Repository, opts Options) *Backend {
	if opts.CookiePrefix == "" {
		opts.CookiePrefix = defaultPrefix
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultTTL
	}
	return &Backend{sessions: sessions, opts: opts}
}

// CookieName is the name of the cookie holding the session token, e.g.
// "appshell.session_token" or "__Secure-appshell.session_token".
func (b *Backend) CookieName() string {
	name := b.opts.CookiePrefix + cookieSuffix
	if b.opts.Secure {
		return securePrefix + name
	}
	return name
}

// FetchSession resolves the session named by the request's session cookie.
// A missing cookie, a token that does not verify, or a session that no
// longer exists all yield (nil, nil); only backend failures are errors.
func (b *Backend) FetchSession(r *http.Request) (*session.Session, error) {
	c, err := r.Cookie(b.CookieName())
	if err != nil {
		if len(b.opts.Secret) == 0 {
			return nil, ErrMisconfigured
		}
		return nil, nil
	}

	s, _, err := b.Authenticate(r.Context(), c.Value)
	return s, err
}

// Authenticate verifies token and checks that its session is still live.
func (b *Backend) Authenticate(ctx context.Context, token string) (*session.Session, *claims.Claims, error) {
	c, err := b.parse(token)
	if err != nil {
		if errors.Is(err, ErrMisconfigured) {
			return nil, nil, err
		}
		return nil, nil, nil
	}

	s, err := b.sessions.Get(ctx, c.SessionID)
	if errors.Is(err, session.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("resolve session: %w", err)
	}
	if s.UserID != c.User.ID {
		return nil, nil, nil
	}

	return s, c, nil
}

// Issue opens a new session for u and returns its signed token.
func (b *Backend) Issue(ctx context.Context, u *user.User) (string, error) {
	if len(b.opts.Secret) == 0 {
		return "", ErrMisconfigured
	}

	sessionID, err := generator.NewID()
	if err != nil {
		return "", fmt.Errorf("SessionID gen error: %w", err)
	}

	s, err := b.sessions.Create(ctx, u.ID, sessionID, b.opts.SessionTTL)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims.Claims{
		SessionID: s.ID,
		User:      claims.User{Username: u.Username, ID: u.ID},
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  s.CreatedAt.Unix(),
			ExpiresAt: s.ExpiresAt.Unix(),
		},
	})

	signed, err := token.SignedString(b.opts.Secret)
	if err != nil {
		return "", fmt.Errorf("token signing: %w", err)
	}
	return signed, nil
}

// Revoke ends the session with the given id.
func (b *Backend) Revoke(ctx context.Context, sessionID string) error {
	return b.sessions.Invalidate(ctx, sessionID)
}

// RevokeUser ends every session of the user.
func (b *Backend) RevokeUser(ctx context.Context, userID string) error {
	return b.sessions.InvalidateUser(ctx, userID)
}

func (b *Backend) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     b.CookieName(),
		Value:    token,
		Path:     "/",
		MaxAge:   int(b.opts.SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   b.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (b *Backend) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     b.CookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   b.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (b *Backend) parse(token string) (*claims.Claims, error) {
	if len(b.opts.Secret) == 0 {
		return nil, ErrMisconfigured
	}

	c := &claims.Claims{}
	parsed, err := jwt.ParseWithClaims(token, c, func(t *jwt.Token) (interface{}, error) {
		method, ok := t.Method.(*jwt.SigningMethodHMAC)
		if !ok || method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return b.opts.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || c.SessionID == "" || c.User.ID == "" {
		return nil, errors.New("invalid token")
	}
	return c, nil
}
