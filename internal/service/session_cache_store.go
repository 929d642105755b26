package service

import (
	"context"
	"sync"
	"time"

	"github.com/sandeepkv93/social-trust-core/internal/domain"
)

// CachedSession is the derived {userId, status} pair for a session. It is
// advisory and may lag the store by at most the entry TTL.
type CachedSession struct {
	UserID string            `json:"uid"`
	Status domain.UserStatus `json:"ust"`
}

type SessionCacheStore interface {
	Get(ctx context.Context, sessionID string) (CachedSession, bool, error)
	Set(ctx context.Context, sessionID string, entry CachedSession, ttl time.Duration) error
	Delete(ctx context.Context, sessionIDs ...string) error
}

type NoopSessionCacheStore struct{}

func NewNoopSessionCacheStore() *NoopSessionCacheStore { return &NoopSessionCacheStore{} }

func (s *NoopSessionCacheStore) Get(context.Context, string) (CachedSession, bool, error) {
	return CachedSession{}, false, nil
}

func (s *NoopSessionCacheStore) Set(context.Context, string, CachedSession, time.Duration) error {
	return nil
}

func (s *NoopSessionCacheStore) Delete(context.Context, ...string) error { return nil }

type sessionCacheEntry struct {
	value     CachedSession
	expiresAt time.Time
}

type InMemorySessionCacheStore struct {
	mu   sync.RWMutex
	data map[string]sessionCacheEntry
}

func NewInMemorySessionCacheStore() *InMemorySessionCacheStore {
	return &InMemorySessionCacheStore{data: make(map[string]sessionCacheEntry)}
}

func (s *InMemorySessionCacheStore) Get(_ context.Context, sessionID string) (CachedSession, bool, error) {
	now := time.Now().UTC()
	s.mu.RLock()
	entry, ok := s.data[sessionID]
	s.mu.RUnlock()
	if !ok {
		return CachedSession{}, false, nil
	}
	if now.After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.data, sessionID)
		s.mu.Unlock()
		return CachedSession{}, false, nil
	}
	return entry.value, true, nil
}

func (s *InMemorySessionCacheStore) Set(_ context.Context, sessionID string, value CachedSession, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = sessionCacheEntry{value: value, expiresAt: time.Now().UTC().Add(ttl)}
	return nil
}

func (s *InMemorySessionCacheStore) Delete(_ context.Context, sessionIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range sessionIDs {
		delete(s.data, id)
	}
	return nil
}
