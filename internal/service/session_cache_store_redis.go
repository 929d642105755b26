package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisSessionCacheStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisSessionCacheStore(client redis.UniversalClient, prefix string) *RedisSessionCacheStore {
	if prefix == "" {
		prefix = "sessions"
	}
	return &RedisSessionCacheStore{client: client, prefix: prefix}
}

func (s *RedisSessionCacheStore) Get(ctx context.Context, sessionID string) (CachedSession, bool, error) {
	if s.client == nil {
		return CachedSession{}, false, nil
	}
	raw, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return CachedSession{}, false, nil
	}
	if err != nil {
		return CachedSession{}, false, err
	}
	var entry CachedSession
	if err := json.Unmarshal(raw, &entry); err != nil {
		return CachedSession{}, false, err
	}
	return entry, true, nil
}

func (s *RedisSessionCacheStore) Set(ctx context.Context, sessionID string, entry CachedSession, ttl time.Duration) error {
	if s.client == nil || ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(sessionID), payload, ttl).Err()
}

func (s *RedisSessionCacheStore) Delete(ctx context.Context, sessionIDs ...string) error {
	if s.client == nil || len(sessionIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(sessionIDs))
	for _, id := range sessionIDs {
		keys = append(keys, s.key(id))
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *RedisSessionCacheStore) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}
