package session

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Live reports whether the session is still valid at now.
func (s *Session) Live(now time.Time) bool {
	return s != nil && now.Before(s.ExpiresAt)
}

type Repository interface {
	Create(ctx context.Context, userID, sessionID string, ttl time.Duration) (*Session, error)
	Get(ctx context.Context, sessionID string) (*Session, error)
	Invalidate(ctx context.Context, sessionID string) error
	InvalidateUser(ctx context.Context, userID string) error
}
