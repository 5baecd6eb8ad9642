package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// LoadClient parses a redis:// URL and verifies the connection.
func LoadClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("cannot connect to redis: %w", err)
	}
	return rdb, nil
}
