package server

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/sgcombinator/web/authflow"
)

// SignInPageData contains data for rendering the sign-in page
type SignInPageData struct {
	Error      string
	Message    string
	RedirectTo string
}

var signInMessages = map[string]string{
	"session_error": "We couldn't verify your session. Please sign in again.",
	"cookies_reset": "Your sign-in cookies were cleared. Please sign in again.",
	"signed_out":    "You have been signed out.",
}

func humanise(code string) string {
	if msg, ok := signInMessages[code]; ok {
		return msg
	}
	return code
}

// SignInPageHandler renders the sign-in page with any error or message from the query string
func (s *Server) SignInPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		s.renderPage(w, r, http.StatusOK, "signin.html", "Sign in", SignInPageData{
			Error:      humanise(q.Get("error")),
			Message:    humanise(q.Get("message")),
			RedirectTo: authflow.SafeRedirectPath(q.Get("redirectTo")),
		})
	}
}

// LoginHandler starts the sign-in flow and sends the browser to the identity provider
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := s.flows.New(r.URL.Query().Get("redirectTo"))
		if err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Failed to create auth flow")
			redirectWithError(w, r, RouteSignIn, "Unable to start sign in")
			return
		}

		sealed, err := s.flows.Seal(state)
		if err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Failed to seal auth flow")
			redirectWithError(w, r, RouteSignIn, "Unable to start sign in")
			return
		}

		s.setAuthFlowCookie(w, r, sealed)
		http.Redirect(w, r, s.provider.AuthCodeURL(state.Params()), http.StatusFound)
	}
}

// ResetCookiesHandler clears every session cookie so a user stuck with broken
// cookies can sign in again
func (s *Server) ResetCookiesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.clearSessionCookies(w, r)
		http.Redirect(w, r, RouteSignIn+"?message=cookies_reset", http.StatusSeeOther)
	}
}

// SignOutHandler clears the session cookies and returns to the home page
func (s *Server) SignOutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.clearSessionCookies(w, r)
		redirectSuccess(w, r, RouteHome)
	}
}
