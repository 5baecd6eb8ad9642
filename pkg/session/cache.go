package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key schema:
//   session:{id}             JSON Session, TTL = remaining lifetime,
//                            or the revoked marker after Invalidate
//   user_sessions:{userID}   set of cached session ids

const (
	revokedMarker = "revoked"
	// must outlast the slowest inner Get racing an Invalidate
	revokedTTL    = 5 * time.Minute
)

func cacheKey(sessionID string) string {
	return "session:" + sessionID
}

func userKey(userID string) string {
	return "user_sessions:" + userID
}

// CachedRepo is a read-through Redis cache in front of another Repository.
// Reads that fail on Redis fall back to the inner repository; writes report
// cache failures so a revoked session cannot outlive its logout.
type CachedRepo struct {
	inner  Repository
	rdb    *redis.Client
	logger *slog.Logger
}

func NewCachedRepo(inner Repository, rdb *redis.Client, logger *slog.Logger) *CachedRepo {
	return &CachedRepo{inner: inner, rdb: rdb, logger: logger}
}

func (c *CachedRepo) Create(ctx context.Context, userID, sessionID string, ttl time.Duration) (*Session, error) {
	s, err := c.inner.Create(ctx, userID, sessionID, ttl)
	if err != nil {
		return nil, err
	}
	if err := c.store(ctx, s); err != nil {
		c.logger.WarnContext(ctx, "session cache write failed", "session", s.ID, "error", err)
	}
	return s, nil
}

func (c *CachedRepo) Get(ctx context.Context, sessionID string) (*Session, error) {
	raw, err := c.rdb.Get(ctx, cacheKey(sessionID)).Bytes()
	switch {
	case err == nil:
		if string(raw) == revokedMarker {
			return nil, ErrNotFound
		}
		var s Session
		if jerr := json.Unmarshal(raw, &s); jerr == nil && s.Live(time.Now()) {
			return &s, nil
		}
		c.rdb.Del(ctx, cacheKey(sessionID))
	case errors.Is(err, redis.Nil):
	default:
		c.logger.WarnContext(ctx, "session cache read failed", "session", sessionID, "error", err)
		return c.inner.Get(ctx, sessionID)
	}

	s, err := c.inner.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := c.store(ctx, s); err != nil {
		c.logger.WarnContext(ctx, "session cache write failed", "session", s.ID, "error", err)
	}
	return s, nil
}

func (c *CachedRepo) Invalidate(ctx context.Context, sessionID string) error {
	if err := c.inner.Invalidate(ctx, sessionID); err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, cacheKey(sessionID), revokedMarker, revokedTTL).Err(); err != nil {
		return fmt.Errorf("evict session %s: %w", sessionID, err)
	}
	return nil
}

func (c *CachedRepo) InvalidateUser(ctx context.Context, userID string) error {
	if err := c.inner.InvalidateUser(ctx, userID); err != nil {
		return err
	}

	ids, err := c.rdb.SMembers(ctx, userKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("list cached sessions of %s: %w", userID, err)
	}

	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.Set(ctx, cacheKey(id), revokedMarker, revokedTTL)
		}
		pipe.Del(ctx, userKey(userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("evict sessions of %s: %w", userID, err)
	}
	return nil
}

func (c *CachedRepo) store(ctx context.Context, s *Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}

	// SETNX never replaces a revoked marker written by a concurrent Invalidate.
	stored, err := c.rdb.SetNX(ctx, cacheKey(s.ID), raw, ttl).Result()
	if err != nil {
		return err
	}
	if !stored {
		return nil
	}
	if err := c.rdb.SAdd(ctx, userKey(s.UserID), s.ID).Err(); err != nil {
		return err
	}

	// the id set lives as long as its longest-lived member
	current, err := c.rdb.TTL(ctx, userKey(s.UserID)).Result()
	if err != nil {
		return err
	}
	if current < ttl {
		return c.rdb.Expire(ctx, userKey(s.UserID), ttl).Err()
	}
	return nil
}
