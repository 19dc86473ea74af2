// Package profiles holds the per-user profile record, in particular the
// onboarding_completed flag consulted by the access guard.
package profiles

import (
	"context"
	"fmt"
	"time"

	errs "github.com/sgcombinator/web/internal/errors"
	"github.com/sgcombinator/web/internal/utils"
)

// ErrProfileNotFound is returned when no profile row exists for a user id.
var ErrProfileNotFound = fmt.Errorf("profile: %w", errs.ErrNotFound)

// Profile is one row per authenticated user id.
type Profile struct {
	ID                    string     `json:"id"`
	FullName              *string    `json:"full_name,omitempty"`
	AvatarURL             *string    `json:"avatar_url,omitempty"`
	OnboardingCompleted   bool       `json:"onboarding_completed"`
	OnboardingCompletedAt *time.Time `json:"onboarding_completed_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

func (p *Profile) DisplayName() string {
	return utils.Value(p.FullName)
}

// OnboardingSubmission is the data collected by the onboarding wizard.
type OnboardingSubmission struct {
	UserID      string   `json:"userId" validate:"required,max=255"`
	FullName    string   `json:"full_name" validate:"omitempty,max=200"`
	PrimaryGoal string   `json:"primary_goal" validate:"omitempty,max=200"`
	Objectives  []string `json:"objectives" validate:"omitempty,max=20,dive,required,max=200"`
	StartupName string   `json:"startup_name" validate:"omitempty,max=200"`
	Industry    string   `json:"industry" validate:"omitempty,max=100"`
	Stage       string   `json:"stage" validate:"omitempty,max=100"`
	Description string   `json:"description" validate:"omitempty,max=4000"`
	Skills      []string `json:"skills" validate:"omitempty,max=50,dive,max=100"`
	Experience  string   `json:"experience" validate:"omitempty,max=4000"`
}

// OnboardingReader is the read-only view the access guard needs.
type OnboardingReader interface {
	// GetOnboardingFlag returns ErrProfileNotFound when the user has no profile;
	// any other error is transient.
	GetOnboardingFlag(ctx context.Context, userID string) (bool, error)
}

// Store is the profile store used by the sign-in callback, the onboarding API and
// the profile page.
type Store interface {
	OnboardingReader

	Get(ctx context.Context, userID string) (*Profile, error)
	// EnsureProfile creates the profile with onboarding_completed = false if it does
	// not exist yet. An existing profile is left untouched.
	EnsureProfile(ctx context.Context, userID, fullName string) error
	// CompleteOnboarding saves the submission and sets onboarding_completed = true.
	CompleteOnboarding(ctx context.Context, sub OnboardingSubmission) error
}

// CleanSkills trims, drops empty values and de-duplicates the skill list while
// keeping the submitted order.
func CleanSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = trimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
