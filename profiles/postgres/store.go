package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/sgcombinator/web/profiles"
)

// Store implements profiles.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

var _ profiles.Store = (*Store)(nil)

// NewStore creates a PostgreSQL-backed profile store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, now: time.Now}
}

// GetOnboardingFlag reads profiles.onboarding_completed for userID.
func (s *Store) GetOnboardingFlag(ctx context.Context, userID string) (bool, error) {
	var completed bool
	err := s.pool.QueryRow(ctx,
		`SELECT onboarding_completed FROM profiles WHERE id = $1`, userID,
	).Scan(&completed)
	if err != nil {
		return false, mapPostgresError(err)
	}
	return completed, nil
}

// Get retrieves the full profile row.
func (s *Store) Get(ctx context.Context, userID string) (*profiles.Profile, error) {
	p := &profiles.Profile{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, full_name, avatar_url, onboarding_completed, onboarding_completed_at,
		       created_at, updated_at
		FROM profiles
		WHERE id = $1
	`, userID).Scan(
		&p.ID, &p.FullName, &p.AvatarURL, &p.OnboardingCompleted, &p.OnboardingCompletedAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	return p, nil
}

// EnsureProfile inserts an empty profile for userID unless one already exists.
func (s *Store) EnsureProfile(ctx context.Context, userID, fullName string) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO profiles (id, full_name, onboarding_completed, created_at, updated_at)
		VALUES ($1, $2, FALSE, $3, $3)
		ON CONFLICT (id) DO NOTHING
	`, userID, profiles.NilIfEmpty(fullName), s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to ensure profile: %w", mapPostgresError(err))
	}

	if tag.RowsAffected() > 0 {
		log.Debug().Str("user_id", userID).Msg("Created profile")
	}
	return nil
}

// CompleteOnboarding stores the onboarding answers and flips onboarding_completed
// in a single transaction.
func (s *Store) CompleteOnboarding(ctx context.Context, sub profiles.OnboardingSubmission) error {
	now := s.now().UTC()

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO profiles (id, full_name, onboarding_completed, onboarding_completed_at, created_at, updated_at)
			VALUES ($1, $2, TRUE, $3, $3, $3)
			ON CONFLICT (id) DO UPDATE SET
				full_name = COALESCE(EXCLUDED.full_name, profiles.full_name),
				onboarding_completed = TRUE,
				onboarding_completed_at = COALESCE(profiles.onboarding_completed_at, EXCLUDED.onboarding_completed_at),
				updated_at = EXCLUDED.updated_at
		`, sub.UserID, profiles.NilIfEmpty(sub.FullName), now)
		if err != nil {
			return fmt.Errorf("update profile: %w", err)
		}

		objectives := sub.Objectives
		if objectives == nil {
			objectives = []string{}
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO user_preferences (user_id, primary_goal, objectives, updated_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id) DO UPDATE SET
				primary_goal = EXCLUDED.primary_goal,
				objectives = EXCLUDED.objectives,
				updated_at = EXCLUDED.updated_at
		`, sub.UserID, profiles.NilIfEmpty(sub.PrimaryGoal), objectives, now)
		if err != nil {
			return fmt.Errorf("upsert preferences: %w", err)
		}

		if name := profiles.NilIfEmpty(sub.StartupName); name != nil {
			_, err = tx.Exec(ctx, `
				INSERT INTO startups (user_id, name, industry, stage, description, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $6)
				ON CONFLICT (user_id) DO UPDATE SET
					name = EXCLUDED.name,
					industry = EXCLUDED.industry,
					stage = EXCLUDED.stage,
					description = EXCLUDED.description,
					updated_at = EXCLUDED.updated_at
			`, sub.UserID, *name, profiles.NilIfEmpty(sub.Industry), profiles.NilIfEmpty(sub.Stage),
				profiles.NilIfEmpty(sub.Description), now)
			if err != nil {
				return fmt.Errorf("upsert startup: %w", err)
			}
		}

		if _, err = tx.Exec(ctx, `DELETE FROM user_skills WHERE user_id = $1`, sub.UserID); err != nil {
			return fmt.Errorf("clear skills: %w", err)
		}
		if skills := profiles.CleanSkills(sub.Skills); len(skills) > 0 {
			rows := make([][]any, 0, len(skills))
			for _, skill := range skills {
				rows = append(rows, []any{sub.UserID, skill, now})
			}
			_, err = tx.CopyFrom(ctx, pgx.Identifier{"user_skills"},
				[]string{"user_id", "skill", "created_at"}, pgx.CopyFromRows(rows))
			if err != nil {
				return fmt.Errorf("insert skills: %w", err)
			}
		}

		if exp := profiles.NilIfEmpty(sub.Experience); exp != nil {
			_, err = tx.Exec(ctx, `
				INSERT INTO user_experience (user_id, description, created_at, updated_at)
				VALUES ($1, $2, $3, $3)
				ON CONFLICT (user_id) DO UPDATE SET
					description = EXCLUDED.description,
					updated_at = EXCLUDED.updated_at
			`, sub.UserID, *exp, now)
			if err != nil {
				return fmt.Errorf("upsert experience: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to complete onboarding: %w", mapPostgresError(err))
	}

	log.Info().Str("user_id", sub.UserID).Msg("Onboarding completed")
	return nil
}
