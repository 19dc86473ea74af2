package repofake

import (
	"context"
	"sync"
	"time"

	"github.com/sgcombinator/web/profiles"
)

var _ profiles.Store = (*FakeProfileRepo)(nil)

// FakeProfileRepo is an in-memory profiles.Store. Err, when set, is returned by
// every call; Calls counts GetOnboardingFlag invocations.
type FakeProfileRepo struct {
	lock        sync.RWMutex
	profiles    map[string]*profiles.Profile
	submissions map[string]profiles.OnboardingSubmission

	Err   error
	Calls int
}

func NewFakeProfileRepo() *FakeProfileRepo {
	return &FakeProfileRepo{
		profiles:    make(map[string]*profiles.Profile),
		submissions: make(map[string]profiles.OnboardingSubmission),
	}
}

// Put stores a profile with the given onboarding flag, replacing any existing one.
func (r *FakeProfileRepo) Put(userID string, completed bool) {
	r.lock.Lock()
	defer r.lock.Unlock()

	now := time.Now().UTC()
	p := &profiles.Profile{ID: userID, OnboardingCompleted: completed, CreatedAt: now, UpdatedAt: now}
	if completed {
		p.OnboardingCompletedAt = &now
	}
	r.profiles[userID] = p
}

func (r *FakeProfileRepo) SetErr(err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.Err = err
}

// Submission returns the last onboarding submission saved for userID.
func (r *FakeProfileRepo) Submission(userID string) (profiles.OnboardingSubmission, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	sub, ok := r.submissions[userID]
	return sub, ok
}

func (r *FakeProfileRepo) GetOnboardingFlag(_ context.Context, userID string) (bool, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.Calls++
	if r.Err != nil {
		return false, r.Err
	}
	p, ok := r.profiles[userID]
	if !ok {
		return false, profiles.ErrProfileNotFound
	}
	return p.OnboardingCompleted, nil
}

func (r *FakeProfileRepo) Get(_ context.Context, userID string) (*profiles.Profile, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if r.Err != nil {
		return nil, r.Err
	}
	p, ok := r.profiles[userID]
	if !ok {
		return nil, profiles.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *FakeProfileRepo) EnsureProfile(_ context.Context, userID, fullName string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.profiles[userID]; ok {
		return nil
	}
	now := time.Now().UTC()
	r.profiles[userID] = &profiles.Profile{
		ID:        userID,
		FullName:  profiles.NilIfEmpty(fullName),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

func (r *FakeProfileRepo) CompleteOnboarding(_ context.Context, sub profiles.OnboardingSubmission) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.Err != nil {
		return r.Err
	}
	now := time.Now().UTC()
	p, ok := r.profiles[sub.UserID]
	if !ok {
		p = &profiles.Profile{ID: sub.UserID, CreatedAt: now}
		r.profiles[sub.UserID] = p
	}
	if name := profiles.NilIfEmpty(sub.FullName); name != nil {
		p.FullName = name
	}
	p.OnboardingCompleted = true
	if p.OnboardingCompletedAt == nil {
		p.OnboardingCompletedAt = &now
	}
	p.UpdatedAt = now

	sub.Skills = profiles.CleanSkills(sub.Skills)
	r.submissions[sub.UserID] = sub
	return nil
}
