// Package guard decides, for every inbound request, whether it passes through,
// is sent to sign-in, or is sent to onboarding.
//
// Session errors fail closed (sign-in redirect); transient profile store errors
// fail open (logged, request allowed). Refreshed session cookies handed back by the
// provider are written on every outcome.
package guard

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sgcombinator/web/identity"
	errs "github.com/sgcombinator/web/internal/errors"
	"github.com/sgcombinator/web/profiles"
)

const (
	SignInPath     = "/auth/signin"
	OnboardingPath = "/onboarding"

	// SessionErrorReason is the error flag put on the sign-in redirect when the
	// provider could not validate the session.
	SessionErrorReason = "session_error"

	DefaultTimeout = 5 * time.Second
)

// Outcome is the terminal state of one guard evaluation.
type Outcome int

const (
	Passthrough Outcome = iota
	RedirectSignIn
	RedirectOnboarding
)

func (o Outcome) String() string {
	switch o {
	case Passthrough:
		return "passthrough"
	case RedirectSignIn:
		return "redirect_signin"
	case RedirectOnboarding:
		return "redirect_onboarding"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Decision is the result of evaluating one request.
type Decision struct {
	Outcome Outcome
	// Location is set for redirects.
	Location string
	// Session is set when the provider validated a session.
	Session *identity.Session
	// Cookies are the refreshed cookies to write whatever the outcome.
	Cookies []identity.CookieWrite
	// Reason is a short machine-readable explanation for logs and tests.
	Reason string
}

// Options configure a Guard. Table, Sessions and Profiles are required.
type Options struct {
	Table    *Table
	Sessions identity.SessionValidator
	Profiles profiles.OnboardingReader

	SessionTimeout time.Duration
	ProfileTimeout time.Duration

	// LocalDev drops the Secure flag and cookie domain.
	LocalDev bool

	Logger *zerolog.Logger
}

// Guard is safe for concurrent use; it holds no per-request state.
type Guard struct {
	table          *Table
	sessions       identity.SessionValidator
	profiles       profiles.OnboardingReader
	sessionTimeout time.Duration
	profileTimeout time.Duration
	localDev       bool
	logger         zerolog.Logger
}

func New(opts Options) (*Guard, error) {
	if opts.Table == nil {
		return nil, fmt.Errorf("guard: route table is required")
	}
	if opts.Sessions == nil {
		return nil, fmt.Errorf("guard: session validator is required")
	}
	if opts.Profiles == nil {
		return nil, fmt.Errorf("guard: profile reader is required")
	}

	g := &Guard{
		table:          opts.Table,
		sessions:       opts.Sessions,
		profiles:       opts.Profiles,
		sessionTimeout: opts.SessionTimeout,
		profileTimeout: opts.ProfileTimeout,
		localDev:       opts.LocalDev,
		logger:         log.Logger,
	}
	if g.sessionTimeout <= 0 {
		g.sessionTimeout = DefaultTimeout
	}
	if g.profileTimeout <= 0 {
		g.profileTimeout = DefaultTimeout
	}
	if opts.Logger != nil {
		g.logger = *opts.Logger
	}
	return g, nil
}

// Table returns the route table the guard classifies with.
func (g *Guard) Table() *Table {
	return g.table
}

// Evaluate runs the guard for one request path and its cookies. It never panics and
// never writes to the profile store.
func (g *Guard) Evaluate(ctx context.Context, path string, cookies []*http.Cookie) Decision {
	class := g.table.Classify(path)
	if class.Bypass {
		return Decision{Outcome: Passthrough, Reason: "bypass"}
	}
	if !class.RequiresAuth {
		return Decision{Outcome: Passthrough, Reason: "public"}
	}

	validation, err := bounded(ctx, g.sessionTimeout, func(ctx context.Context) (identity.Validation, error) {
		return g.sessions.ValidateSession(ctx, cookies)
	})
	refreshed := validation.RefreshedCookies

	if err != nil {
		g.logger.Warn().Err(err).Str("path", path).Msg("Session validation failed")
		return Decision{
			Outcome:  RedirectSignIn,
			Location: signInURL(url.Values{"error": {SessionErrorReason}}),
			Cookies:  refreshed,
			Reason:   SessionErrorReason,
		}
	}

	session := validation.Session
	if session == nil {
		return Decision{
			Outcome:  RedirectSignIn,
			Location: signInURL(url.Values{"redirectTo": {path}}),
			Cookies:  refreshed,
			Reason:   "session_absent",
		}
	}

	if !class.RequiresOnboarding {
		return Decision{Outcome: Passthrough, Session: session, Cookies: refreshed, Reason: "authenticated"}
	}

	completed, err := bounded(ctx, g.profileTimeout, func(ctx context.Context) (bool, error) {
		return g.profiles.GetOnboardingFlag(ctx, session.UserID)
	})
	switch {
	case errs.Is(err, profiles.ErrProfileNotFound):
		completed = false
	case err != nil:
		g.logger.Error().Err(err).Str("path", path).Str("user_id", session.UserID).
			Msg("Profile lookup failed, allowing request")
		return Decision{Outcome: Passthrough, Session: session, Cookies: refreshed, Reason: "profile_unavailable"}
	}

	if !completed {
		return Decision{
			Outcome:  RedirectOnboarding,
			Location: OnboardingPath,
			Session:  session,
			Cookies:  refreshed,
			Reason:   "onboarding_incomplete",
		}
	}

	return Decision{Outcome: Passthrough, Session: session, Cookies: refreshed, Reason: "onboarded"}
}

func signInURL(q url.Values) string {
	return SignInPath + "?" + q.Encode()
}

// Middleware applies the guard in front of next. Redirects use 307 so the method
// and body survive the round trip.
func (g *Guard) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d := g.Evaluate(r.Context(), r.URL.Path, r.Cookies())

		WriteCookies(w, CookieAttributesFor(r.Host, g.localDev), d.Cookies)

		g.logger.Debug().
			Str("path", r.URL.Path).
			Stringer("outcome", d.Outcome).
			Str("reason", d.Reason).
			Int("cookies", len(d.Cookies)).
			Msg("Access guard decision")

		if d.Outcome != Passthrough {
			w.Header().Set("Cache-Control", "no-store")
			http.Redirect(w, r, d.Location, http.StatusTemporaryRedirect)
			return
		}

		if d.Session != nil {
			r = r.WithContext(WithSession(r.Context(), d.Session))
		}
		next(w, r)
	}
}

// ErrPanic is returned by bounded calls whose function panicked.
var ErrPanic = fmt.Errorf("guard: %w", errs.ErrInternal)

// bounded runs fn with a deadline derived from ctx. It returns as soon as the
// deadline passes even if fn ignores its context, and turns panics into ErrPanic.
// Values fn returns alongside an error are kept.
func bounded[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)

	go func() {
		var res result
		defer func() {
			if p := recover(); p != nil {
				res = result{err: fmt.Errorf("%w: %v", ErrPanic, p)}
			}
			done <- res
		}()
		res.val, res.err = fn(ctx)
	}()

	select {
	case res := <-done:
		return res.val, res.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%w: %w", errs.ErrUpstreamTimeout, ctx.Err())
	}
}
