package service

import (
	"context"
	"sync"
	"time"
)

// RevokedSessionStore remembers session ids that no longer exist so repeated
// verification of a dead token skips the database. Session ids are random
// and never reused, so a marker can never hide a live session.
type RevokedSessionStore interface {
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
	MarkRevoked(ctx context.Context, ttl time.Duration, sessionIDs ...string) error
}

type NoopRevokedSessionStore struct{}

func NewNoopRevokedSessionStore() *NoopRevokedSessionStore { return &NoopRevokedSessionStore{} }

func (s *NoopRevokedSessionStore) IsRevoked(context.Context, string) (bool, error) {
	return false, nil
}

func (s *NoopRevokedSessionStore) MarkRevoked(context.Context, time.Duration, ...string) error {
	return nil
}

type InMemoryRevokedSessionStore struct {
	mu    sync.RWMutex
	store map[string]time.Time
}

func NewInMemoryRevokedSessionStore() *InMemoryRevokedSessionStore {
	return &InMemoryRevokedSessionStore{store: make(map[string]time.Time)}
}

func (s *InMemoryRevokedSessionStore) IsRevoked(_ context.Context, sessionID string) (bool, error) {
	now := time.Now().UTC()
	s.mu.RLock()
	expiresAt, ok := s.store[sessionID]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if now.After(expiresAt) {
		s.mu.Lock()
		delete(s.store, sessionID)
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}

func (s *InMemoryRevokedSessionStore) MarkRevoked(_ context.Context, ttl time.Duration, sessionIDs ...string) error {
	if ttl <= 0 {
		return nil
	}
	expiresAt := time.Now().UTC().Add(ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range sessionIDs {
		s.store[id] = expiresAt
	}
	return nil
}
