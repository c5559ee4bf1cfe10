package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// VerifyLimiter throttles verification attempts per slug. The verification
// endpoint is public and the code is the only credential, so unbounded
// guessing would make the code space brute-forceable.
type VerifyLimiter struct {
	client      *redis.Client
	maxAttempts int64
	window      time.Duration
}

func NewVerifyLimiter(client *redis.Client, maxAttempts int, window time.Duration) *VerifyLimiter {
	return &VerifyLimiter{
		client:      client,
		maxAttempts: int64(maxAttempts),
		window:      window,
	}
}

// Allow records one attempt against slug and reports whether it may proceed.
// Fixed window: the counter expires window after the first attempt in it.
// Without redis the limiter degrades to allow-all, same as the cache layer.
func (l *VerifyLimiter) Allow(ctx context.Context, slug string) (bool, error) {
	if l.client == nil {
		return true, nil
	}

	key := fmt.Sprintf("verify:attempts:%s", slug)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("verify limiter incr error: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("verify limiter expire error: %w", err)
		}
	}

	return count <= l.maxAttempts, nil
}

// Reset clears the attempt counter for slug, used after a successful
// verification so legitimate re-checks are not locked out.
func (l *VerifyLimiter) Reset(ctx context.Context, slug string) error {
	if l.client == nil {
		return nil
	}

	return l.client.Del(ctx, fmt.Sprintf("verify:attempts:%s", slug)).Err()
}
