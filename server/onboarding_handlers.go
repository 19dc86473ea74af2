package server

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/sgcombinator/web/guard"
	"github.com/sgcombinator/web/identity"
	errs "github.com/sgcombinator/web/internal/errors"
	"github.com/sgcombinator/web/profiles"
)

type onboardingResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// OnboardingAPIHandler saves the onboarding wizard answers for the signed-in user
func (s *Server) OnboardingAPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.Ctx(r.Context())

		session, ok := guard.SessionFromContext(r.Context())
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Not signed in")
			return
		}

		var sub profiles.OnboardingSubmission
		if err := decodeJSON(w, r, &sub); err != nil {
			writeJSONError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}
		if err := authorizeSubmission(session, sub); err != nil {
			logger.Warn().Err(err).Str("user_id", session.UserID).Msg("Rejected onboarding submission")
			writeJSONError(w, http.StatusForbidden, "FORBIDDEN", "Cannot submit onboarding for another user")
			return
		}
		if err := s.validate.Struct(sub); err != nil {
			writeJSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", validationMessage(err))
			return
		}

		if err := s.profiles.CompleteOnboarding(r.Context(), sub); err != nil {
			logger.Error().Err(err).Str("user_id", sub.UserID).Msg("Failed to save onboarding")
			writeJSONError(w, http.StatusInternalServerError, "SERVER_ERROR", "Failed to save onboarding data")
			return
		}

		writeJSON(w, http.StatusOK, onboardingResponse{Success: true, Message: "Onboarding completed successfully"})
	}
}

// authorizeSubmission requires the body's userId to name the signed-in user. A
// missing userId is rejected the same way as someone else's.
func authorizeSubmission(session *identity.Session, sub profiles.OnboardingSubmission) error {
	if sub.UserID == "" || sub.UserID != session.UserID {
		return errs.Wrapf(errs.ErrForbidden, "onboarding for user %q by %q", sub.UserID, session.UserID)
	}
	return nil
}
