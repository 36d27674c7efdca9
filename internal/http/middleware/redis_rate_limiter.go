package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisWindowLimiter is the distributed sliding window: one sorted set per
// key, scored by hit time, trimmed on every check. Safe to share across
// replicas.
type RedisWindowLimiter struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
}

func NewRedisWindowLimiter(client redis.UniversalClient, prefix string, limit int, window time.Duration) *RedisWindowLimiter {
	if prefix == "" {
		prefix = "rate_limit"
	}
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisWindowLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

func (l *RedisWindowLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := time.Now()
	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)
	cutoff := strconv.FormatInt(now.Add(-l.window).UnixNano(), 10)

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", cutoff)
	addCmd := pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: uuid.NewString(),
	})
	countCmd := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}
	if err := addCmd.Err(); err != nil {
		return Decision{}, err
	}

	count := int(countCmd.Val())
	if count > l.limit {
		return Decision{Allowed: false, Remaining: 0, RetryAfter: l.window}, nil
	}
	return Decision{Allowed: true, Remaining: l.limit - count}, nil
}
