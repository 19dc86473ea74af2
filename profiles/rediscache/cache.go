// Package rediscache decorates a profiles.Store with a Redis cache of the
// onboarding flag.
//
// onboarding_completed only ever moves from false to true, so only true is cached:
// false and not-found always go to the store. The one way a cached true goes stale is
// the profile row being deleted, so sign-in (EnsureProfile) evicts the entry.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/sgcombinator/web/profiles"
)

const keyPrefix = "sgc:onboarded:"

// Store wraps another profiles.Store.
type Store struct {
	profiles.Store
	client redis.UniversalClient
	ttl    time.Duration
}

var _ profiles.Store = (*Store)(nil)

func New(next profiles.Store, client redis.UniversalClient, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Store{Store: next, client: client, ttl: ttl}
}

func key(userID string) string {
	return keyPrefix + userID
}

// GetOnboardingFlag answers from Redis when the user is known to be onboarded.
// Redis failures are logged and the wrapped store is consulted instead.
func (s *Store) GetOnboardingFlag(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return s.Store.GetOnboardingFlag(ctx, userID)
	}

	err := s.client.Get(ctx, key(userID)).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
	default:
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		log.Warn().Err(err).Str("user_id", userID).Msg("Onboarding cache read failed")
	}

	completed, err := s.Store.GetOnboardingFlag(ctx, userID)
	if err != nil {
		return false, err
	}
	if completed {
		s.remember(ctx, userID)
	}
	return completed, nil
}

// CompleteOnboarding writes through to the wrapped store and then caches the flag.
func (s *Store) CompleteOnboarding(ctx context.Context, sub profiles.OnboardingSubmission) error {
	if err := s.Store.CompleteOnboarding(ctx, sub); err != nil {
		return err
	}
	s.remember(ctx, sub.UserID)
	return nil
}

// EnsureProfile runs on every sign-in. It drops any cached flag so a profile that
// was removed and recreated in the store is read fresh rather than served as onboarded.
func (s *Store) EnsureProfile(ctx context.Context, userID, fullName string) error {
	if err := s.Store.EnsureProfile(ctx, userID, fullName); err != nil {
		return err
	}
	if err := s.Forget(ctx, userID); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Onboarding cache evict failed")
	}
	return nil
}

func (s *Store) remember(ctx context.Context, userID string) {
	if err := s.client.Set(ctx, key(userID), "1", s.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Onboarding cache write failed")
	}
}

// Forget drops the cached flag for userID.
func (s *Store) Forget(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// NewClient builds a Redis client and verifies the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}
