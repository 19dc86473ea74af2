package rediscache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/sgcombinator/web/profiles"
	"github.com/sgcombinator/web/profiles/rediscache"
	"github.com/sgcombinator/web/profiles/repofake"
)

// unreachableClient points at a port nothing listens on so every command fails fast.
func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestStore_RedisDownFallsBackToStore(t *testing.T) {
	ctx := context.Background()
	repo := repofake.NewFakeProfileRepo()
	repo.Put("done", true)
	repo.Put("pending", false)

	store := rediscache.New(repo, unreachableClient(t), time.Minute)

	t.Run("completed", func(t *testing.T) {
		completed, err := store.GetOnboardingFlag(ctx, "done")
		require.NoError(t, err)
		require.True(t, completed)
	})

	t.Run("incomplete", func(t *testing.T) {
		completed, err := store.GetOnboardingFlag(ctx, "pending")
		require.NoError(t, err)
		require.False(t, completed)
	})

	t.Run("not found is preserved", func(t *testing.T) {
		_, err := store.GetOnboardingFlag(ctx, "missing")
		require.ErrorIs(t, err, profiles.ErrProfileNotFound)
	})

	t.Run("transient store error is preserved", func(t *testing.T) {
		boom := errors.New("db down")
		repo.SetErr(boom)
		defer repo.SetErr(nil)

		_, err := store.GetOnboardingFlag(ctx, "done")
		require.ErrorIs(t, err, boom)
	})

	t.Run("ensure profile tolerates redis down", func(t *testing.T) {
		require.NoError(t, store.EnsureProfile(ctx, "new-user", "Grace"))

		_, err := repo.Get(ctx, "new-user")
		require.NoError(t, err)
	})

	t.Run("complete onboarding writes through", func(t *testing.T) {
		require.NoError(t, store.CompleteOnboarding(ctx, profiles.OnboardingSubmission{UserID: "pending"}))

		completed, err := repo.GetOnboardingFlag(ctx, "pending")
		require.NoError(t, err)
		require.True(t, completed)
	})
}
