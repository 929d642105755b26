package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisRevokedSessionStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisRevokedSessionStore(client redis.UniversalClient, prefix string) *RedisRevokedSessionStore {
	if prefix == "" {
		prefix = "sessions:revoked"
	}
	return &RedisRevokedSessionStore{client: client, prefix: prefix}
}

func (s *RedisRevokedSessionStore) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	if s.client == nil {
		return false, nil
	}
	_, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisRevokedSessionStore) MarkRevoked(ctx context.Context, ttl time.Duration, sessionIDs ...string) error {
	if s.client == nil || ttl <= 0 || len(sessionIDs) == 0 {
		return nil
	}
	pipe := s.client.TxPipeline()
	for _, id := range sessionIDs {
		pipe.Set(ctx, s.key(id), "1", ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisRevokedSessionStore) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}
