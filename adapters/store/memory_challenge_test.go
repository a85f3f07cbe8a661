package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/mintaka-labs/warden/adapters/store"
	"github.com/stretchr/testify/require"
)

func TestMemoryChallengeStoreTakeIsOneShot(t *testing.T) {
	s := store.NewMemoryChallengeStore()
	ctx := context.Background()

	issued := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.Put(ctx, "nonce-1", issued, time.Minute))

	got, ok, err := s.Take(ctx, "nonce-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, got.Equal(issued))

	_, ok, err = s.Take(ctx, "nonce-1")
	require.NoError(t, err)
	require.False(t, ok, "second take finds nothing")
}

func TestMemoryChallengeStoreExpiry(t *testing.T) {
	s := store.NewMemoryChallengeStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "nonce-2", time.Now(), -time.Second))

	_, ok, err := s.Take(ctx, "nonce-2")
	require.NoError(t, err)
	require.False(t, ok, "expired entries behave as absent")
}

func TestMemoryChallengeStoreUnknownNonce(t *testing.T) {
	s := store.NewMemoryChallengeStore()

	_, ok, err := s.Take(context.Background(), "never-issued")
	require.NoError(t, err)
	require.False(t, ok)
}
