package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each session in one Redis hash, so several client
// processes (for example a CLI and a sync worker) can share one login.
type RedisStore struct {
	rdb redis.UniversalClient
	key string
	ttl time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore stores the session under "<prefix>:<sessionID>". A non-zero
// ttl is refreshed on every write.
func NewRedisStore(rdb redis.UniversalClient, prefix, sessionID string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		rdb: rdb,
		key: prefix + ":" + sessionID,
		ttl: ttl,
	}
}

// Key returns the Redis hash key holding the session.
func (s *RedisStore) Key() string {
	return s.key
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.HGet(ctx, s.key, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis hget %s: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisStore) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		s.write(ctx, p, values)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hset: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.rdb.HDel(ctx, s.key, keys...).Err(); err != nil {
		return fmt.Errorf("redis hdel: %w", err)
	}
	return nil
}

// CompareAndSwap uses WATCH so a rotation made by another process between
// the read and the write aborts this one.
func (s *RedisStore) CompareAndSwap(ctx context.Context, key, old string, values map[string]string) (bool, error) {
	swapped := false
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.HGet(ctx, s.key, key).Result()
		if errors.Is(err, redis.Nil) {
			current = ""
		} else if err != nil {
			return err
		}
		if current != old {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			s.write(ctx, p, values)
			return nil
		})
		if err != nil {
			return err
		}
		swapped = true
		return nil
	}, s.key)

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis compare and swap: %w", err)
	}
	return swapped, nil
}

func (s *RedisStore) write(ctx context.Context, p redis.Pipeliner, values map[string]string) {
	args := make([]interface{}, 0, len(values)*2)
	for k, v := range values {
		args = append(args, k, v)
	}
	p.HSet(ctx, s.key, args...)
	if s.ttl > 0 {
		p.Expire(ctx, s.key, s.ttl)
	}
}
