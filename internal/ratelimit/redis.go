package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter implements the sliding window on a Redis sorted set so the
// limit holds across gateway instances sharing one Redis.
type RedisLimiter struct {
	client   *redis.Client
	capacity int
	period   time.Duration
}

func NewRedisLimiter(redisURL string, capacity int, period time.Duration) (*RedisLimiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisLimiter{client: client, capacity: capacity, period: period}, nil
}

func (l *RedisLimiter) Allow(ctx context.Context, clientKey string) (bool, int, time.Time, error) {
	key := "ratelimit:" + clientKey
	now := time.Now()
	windowStart := now.Add(-l.period)

	pipe := l.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	countCmd := pipe.ZCard(ctx, key)
	oldestCmd := pipe.ZRangeWithScores(ctx, key, 0, 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, err
	}

	count := int(countCmd.Val())
	if count >= l.capacity {
		resetAt := now.Add(l.period)
		if oldest := oldestCmd.Val(); len(oldest) > 0 {
			resetAt = time.Unix(0, int64(oldest[0].Score)).Add(l.period)
		}
		return false, 0, resetAt, nil
	}

	pipe = l.client.Pipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: now.UnixNano(),
	})
	pipe.Expire(ctx, key, l.period)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, err
	}

	remaining := l.capacity - count - 1
	if remaining < 0 {
		remaining = 0
	}

	return true, remaining, now.Add(l.period), nil
}

func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
