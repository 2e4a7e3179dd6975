package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on a Redis sorted set per key, scored by
// timestamp. It is the shared-store implementation for multi-instance
// deployments; member uniqueness comes from a per-call UUID suffix.
type RedisStore struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, now: time.Now}
}

func redisKey(key string) string {
	return "gate:" + key
}

// Allow checks the sliding window for key and records the call if admitted.
func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	rkey := redisKey(key)
	now := s.now()
	cutoff := now.Add(-window)

	if err := s.rdb.ZRemRangeByScore(ctx, rkey,
		"-inf", strconv.FormatInt(cutoff.UnixNano(), 10)).Err(); err != nil {
		return nil, err
	}

	count, err := s.rdb.ZCard(ctx, rkey).Result()
	if err != nil {
		return nil, err
	}

	if count >= int64(limit) {
		oldest, err := s.rdb.ZRangeWithScores(ctx, rkey, 0, 0).Result()
		if err != nil {
			return nil, err
		}
		retryAfter := window
		if len(oldest) > 0 {
			oldestAt := time.Unix(0, int64(oldest[0].Score))
			retryAfter = oldestAt.Add(window).Sub(now)
			if retryAfter < 0 {
				retryAfter = 0
			}
		}
		return &Result{Allowed: false, RetryAfter: retryAfter}, nil
	}

	member := strconv.FormatInt(now.UnixNano(), 10) + ":" + uuid.NewString()
	pipe := s.rdb.TxPipeline()
	pipe.ZAdd(ctx, rkey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	pipe.Expire(ctx, rkey, window+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	return &Result{Allowed: true, Remaining: limit - int(count) - 1}, nil
}

// Reset clears the counter for a key.
func (s *RedisStore) Reset(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, redisKey(key)).Err()
}
