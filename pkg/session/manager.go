package session

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type MySQLSessionRepo struct {
	DB *sql.DB
}

func NewMySQLSessionRepo(db *sql.DB) *MySQLSessionRepo {
	return &MySQLSessionRepo{DB: db}
}

func (r *MySQLSessionRepo) Create(ctx context.Context, userID, sessionID string, ttl time.Duration) (*Session, error) {
	now := time.Now().UTC().Truncate(time.Second)
	s := &Session{
		ID:        sessionID,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)
	`, s.ID, s.UserID, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the session with the given id. Expired rows are reported as
// ErrNotFound.
func (r *MySQLSessionRepo) Get(ctx context.Context, sessionID string) (*Session, error) {
	var s Session
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, user_id, created_at, expires_at
		FROM sessions WHERE id = ?
	`, sessionID).Scan(&s.ID, &s.UserID, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	s.CreatedAt = s.CreatedAt.UTC()
	s.ExpiresAt = s.ExpiresAt.UTC()
	if !s.Live(time.Now()) {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *MySQLSessionRepo) Invalidate(ctx context.Context, sessionID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	return err
}

func (r *MySQLSessionRepo) InvalidateUser(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	return err
}
