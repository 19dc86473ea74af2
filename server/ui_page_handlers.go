package server

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/sgcombinator/web/guard"
	"github.com/sgcombinator/web/identity"
	"github.com/sgcombinator/web/profiles"
)

func sessionFrom(r *http.Request) (*identity.Session, bool) {
	return guard.SessionFromContext(r.Context())
}

// IndexHandler renders the home page
func (s *Server) IndexHandler() http.HandlerFunc {
	return s.PageHandler("index.html", "Home")
}

// PageHandler renders a static page. Protected pages rely on the guard having
// already decided the request may reach them.
func (s *Server) PageHandler(name, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderPage(w, r, http.StatusOK, name, title, nil)
	}
}

// ProfilePageData contains data for rendering the profile page
type ProfilePageData struct {
	Session *identity.Session
	Profile *profiles.Profile
}

// ProfilePageHandler shows the signed-in user's session and profile
func (s *Server) ProfilePageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFrom(r)
		if !ok {
			// only reachable if the route table no longer protects /profile
			http.Redirect(w, r, RouteSignIn, http.StatusSeeOther)
			return
		}

		data := ProfilePageData{Session: session}
		profile, err := s.profiles.Get(r.Context(), session.UserID)
		if err != nil {
			log.Ctx(r.Context()).Warn().Err(err).Str("user_id", session.UserID).Msg("Profile unavailable")
		} else {
			data.Profile = profile
		}

		s.renderPage(w, r, http.StatusOK, "profile.html", "Profile", data)
	}
}

// NotFoundHandler handles 404 errors
func (s *Server) NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderPage(w, r, http.StatusNotFound, "not_found.html", "Page not found", nil)
	}
}
