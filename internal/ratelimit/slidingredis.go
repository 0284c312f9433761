package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of one attempt against a Limiter.
type Decision struct {
	Allowed   bool
	Remaining int
	// Reset is when the oldest counted attempt leaves the window.
	Reset time.Time
	// RetryAfter is zero for allowed attempts.
	RetryAfter time.Duration
}

// Limiter counts login attempts per key in a Redis sorted set scored by
// attempt time. Rejected attempts are not kept, so a client hammering the
// endpoint does not push its own reset further out.
type Limiter struct {
	Client *redis.Client
	Prefix string
	Now    func() time.Time
}

func (l Limiter) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// Allow records an attempt for key and reports whether it fits in max per window.
func (l Limiter) Allow(ctx context.Context, key string, window time.Duration, max int) (Decision, error) {
	now := l.now()
	if l.Client == nil || max <= 0 || window <= 0 {
		return Decision{Allowed: true, Remaining: max, Reset: now.Add(window)}, nil
	}

	redisKey := l.Prefix + key
	member := uuid.NewString()
	cutoff := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", "("+cutoff)
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	count := pipe.ZCard(ctx, redisKey)
	oldest := pipe.ZRangeWithScores(ctx, redisKey, 0, 0)
	pipe.PExpire(ctx, redisKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{Reset: now.Add(window)}, fmt.Errorf("rate limit %s: %w", key, err)
	}

	reset := now.Add(window)
	if first := oldest.Val(); len(first) > 0 {
		reset = time.Unix(0, int64(first[0].Score)).Add(window)
	}
	current := int(count.Val())
	if current <= max {
		return Decision{Allowed: true, Remaining: max - current, Reset: reset}, nil
	}

	if err := l.Client.ZRem(ctx, redisKey, member).Err(); err != nil {
		return Decision{Reset: reset}, fmt.Errorf("rate limit %s: %w", key, err)
	}
	retry := reset.Sub(now)
	if retry < time.Second {
		retry = time.Second
	}
	return Decision{Remaining: 0, Reset: reset, RetryAfter: retry}, nil
}
