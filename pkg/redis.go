package pkg

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to redis if a URL is configured. A nil client is
// a valid return value, callers degrade to uncached operation.
func NewRedisClient(redisURL string, log *slog.Logger) *redis.Client {
	if redisURL == "" {
		log.Warn("redis not configured, caching and rate limiting disabled")
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Error("invalid redis URL, caching disabled", "error", err)
		return nil
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Error("redis unreachable, caching disabled", "error", err)
		_ = client.Close()
		return nil
	}

	log.Info("redis connection established")
	return client
}
