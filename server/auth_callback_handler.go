package server

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/sgcombinator/web/authflow"
	errs "github.com/sgcombinator/web/internal/errors"
	"github.com/sgcombinator/web/profiles"
)

func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.Ctx(r.Context())

		q := r.URL.Query()
		state := q.Get("state")
		code := q.Get("code")
		errorParam := q.Get("error")
		errorDesc := q.Get("error_description")

		if errorParam != "" {
			logger.Warn().Str("error", errorParam).Str("description", errorDesc).Msg("Provider returned an error")
			s.clearAuthFlowCookie(w, r)
			if errorDesc == "" {
				errorDesc = errorParam
			}
			redirectWithError(w, r, RouteSignIn, errorDesc)
			return
		}

		if code == "" {
			redirectSuccess(w, r, RouteHome)
			return
		}

		flowCookie, err := r.Cookie(authflow.CookieName)
		if err != nil {
			redirectWithError(w, r, RouteSignIn, "Your sign-in attempt expired, please try again")
			return
		}

		flow, err := s.flows.OpenMatching(flowCookie.Value, state)
		s.clearAuthFlowCookie(w, r)
		if err != nil {
			logger.Warn().Err(err).Msg("Invalid auth flow state")
			redirectWithError(w, r, RouteSignIn, "Your sign-in attempt expired, please try again")
			return
		}

		exchangeCtx, cancel := context.WithTimeout(r.Context(), s.config.GetSessionTimeout())
		exchange, err := s.provider.ExchangeAuthCode(exchangeCtx, code, flow.Params())
		cancel()
		if err != nil {
			logger.Error().Err(err).Msg("Authorization code exchange failed")
			redirectWithError(w, r, RouteSignIn, "Unable to complete sign in")
			return
		}

		s.setCookies(w, r, exchange.Cookies)

		userID := exchange.Session.UserID
		if !s.onboardingComplete(r.Context(), userID, exchange.Session.Name) {
			redirectSuccess(w, r, RouteOnboarding)
			return
		}

		returnPath := flow.ReturnPath
		if returnPath == "" || returnPath == RouteHome {
			returnPath = authflow.SafeRedirectPath(q.Get("next"))
		}
		redirectSuccess(w, r, returnPath)
	}
}

// onboardingComplete creates the profile row on first sign-in and reports whether
// onboarding is done. Profile store failures are logged and count as complete so a
// signed-in user is never stuck here; the guard re-checks on the next request.
func (s *Server) onboardingComplete(ctx context.Context, userID, fullName string) bool {
	logger := log.Ctx(ctx)

	ctx, cancel := context.WithTimeout(ctx, s.config.GetProfileTimeout())
	defer cancel()

	if err := s.profiles.EnsureProfile(ctx, userID, fullName); err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("Failed to ensure profile")
	}

	completed, err := s.profiles.GetOnboardingFlag(ctx, userID)
	switch {
	case errs.Is(err, profiles.ErrProfileNotFound):
		return false
	case err != nil:
		logger.Error().Err(err).Str("user_id", userID).Msg("Profile lookup failed after sign in")
		return true
	}
	return completed
}
