package store

import (
	"context"
	"sync"
	"time"

	"github.com/mintaka-labs/warden/ports"
)

type challengeEntry struct {
	issuedAt  time.Time
	expiresAt time.Time
}

// MemoryChallengeStore is an in-memory implementation of the ChallengeStore
// interface. It is primarily intended for testing; production deployments use
// the Redis store so nonces survive replica boundaries.
type MemoryChallengeStore struct {
	entries map[string]challengeEntry
	mu      sync.Mutex
}

// NewMemoryChallengeStore creates a new in-memory challenge store.
func NewMemoryChallengeStore() ports.ChallengeStore {
	return &MemoryChallengeStore{
		entries: make(map[string]challengeEntry),
	}
}

// Put stores a nonce with its issue time.
func (s *MemoryChallengeStore) Put(ctx context.Context, nonce string, issuedAt time.Time, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[nonce] = challengeEntry{
		issuedAt:  issuedAt,
		expiresAt: time.Now().Add(ttl),
	}

	return nil
}

// Take consumes a nonce. Entries past their TTL behave as absent.
func (s *MemoryChallengeStore) Take(ctx context.Context, nonce string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.entries[nonce]
	if !exists {
		return time.Time{}, false, nil
	}

	delete(s.entries, nonce)

	if time.Now().After(entry.expiresAt) {
		return time.Time{}, false, nil
	}

	return entry.issuedAt, true, nil
}
