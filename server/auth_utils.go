package server

import (
	"net/http"
	"net/url"

	"github.com/sgcombinator/web/authflow"
	"github.com/sgcombinator/web/guard"
	"github.com/sgcombinator/web/identity"
)

// cookieAttrs are the attributes for every cookie written on r's response.
func (s *Server) cookieAttrs(r *http.Request) guard.CookieAttributes {
	return guard.CookieAttributesFor(r.Host, s.config.IsDev())
}

func (s *Server) setCookies(w http.ResponseWriter, r *http.Request, writes []identity.CookieWrite) {
	guard.WriteCookies(w, s.cookieAttrs(r), writes)
}

func (s *Server) setAuthFlowCookie(w http.ResponseWriter, r *http.Request, sealed string) {
	s.setCookies(w, r, []identity.CookieWrite{{
		Name:   authflow.CookieName,
		Value:  sealed,
		MaxAge: int(s.flows.TTL().Seconds()),
	}})
}

func (s *Server) clearAuthFlowCookie(w http.ResponseWriter, r *http.Request) {
	s.setCookies(w, r, []identity.CookieWrite{identity.ClearCookie(authflow.CookieName)})
}

// clearSessionCookies removes every provider session cookie and the flow cookie.
func (s *Server) clearSessionCookies(w http.ResponseWriter, r *http.Request) {
	names := append(s.provider.SessionCookieNames(), authflow.CookieName)
	writes := make([]identity.CookieWrite, 0, len(names))
	for _, name := range names {
		writes = append(writes, identity.ClearCookie(name))
	}
	s.setCookies(w, r, writes)
}

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWithError helper for htmx-aware error redirects
func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg string) {
	redirectSuccess(w, r, path+"?"+url.Values{"error": {errorMsg}}.Encode())
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
