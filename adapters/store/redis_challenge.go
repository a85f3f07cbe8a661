package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mintaka-labs/warden/ports"
	"github.com/redis/go-redis/v9"
)

// RedisChallengeStore keeps issued nonces in Redis so any replica can consume
// a challenge issued by another. GETDEL makes consumption one-shot.
type RedisChallengeStore struct {
	client *redis.Client
	prefix string
}

// NewRedisChallengeStore creates a new Redis challenge store.
func NewRedisChallengeStore(client *redis.Client) ports.ChallengeStore {
	return &RedisChallengeStore{
		client: client,
		prefix: "warden:challenge:",
	}
}

// Put stores a nonce with its issue time under a TTL.
func (s *RedisChallengeStore) Put(ctx context.Context, nonce string, issuedAt time.Time, ttl time.Duration) error {
	key := s.prefix + nonce

	if err := s.client.Set(ctx, key, issuedAt.UTC().Format(time.RFC3339Nano), ttl).Err(); err != nil {
		return fmt.Errorf("failed to store challenge: %w", err)
	}

	return nil
}

// Take atomically consumes a nonce, returning its issue time. A missing or
// already-consumed nonce yields ok=false.
func (s *RedisChallengeStore) Take(ctx context.Context, nonce string) (time.Time, bool, error) {
	key := s.prefix + nonce

	val, err := s.client.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to consume challenge: %w", err)
	}

	issuedAt, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt challenge payload: %w", err)
	}

	return issuedAt, true, nil
}
