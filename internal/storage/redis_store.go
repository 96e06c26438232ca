package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/ikkim/storefront/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps values as plain redis strings under an optional prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", s.prefix, key)
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		logger.Error("Failed to read key from redis", err, map[string]interface{}{
			"key": key,
		})
		return nil, err
	}
	return value, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		logger.Error("Failed to write key to redis", err, map[string]interface{}{
			"key": key,
		})
		return err
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		logger.Error("Failed to delete key from redis", err, map[string]interface{}{
			"key": key,
		})
		return err
	}
	return nil
}
