package server

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET /{$}", s.IndexHandler())

	// AUTH
	s.RegisterRouteFunc("GET "+RouteSignIn, s.SignInPageHandler())
	s.RegisterRouteFunc("GET "+RouteAuthLogin, s.LoginHandler())
	s.RegisterRouteFunc("GET "+RouteCallback, s.OAuthCallbackHandler())
	s.RegisterRouteFunc("GET "+RouteResetCookies, s.ResetCookiesHandler())
	s.RegisterRouteFunc("GET "+RouteSignOut, s.SignOutHandler())
	s.RegisterRouteFunc("POST "+RouteSignOut, s.SignOutHandler())

	// PAGES (access decided by the guard)
	s.RegisterRouteFunc("GET "+RouteOnboarding, s.PageHandler("onboarding.html", "Onboarding"))
	s.RegisterRouteFunc("GET "+RouteProfile, s.ProfilePageHandler())
	s.RegisterRouteFunc("GET "+RouteAcademy, s.PageHandler("academy.html", "Academy"))
	s.RegisterRouteFunc("GET "+RouteAIConsultant, s.PageHandler("ai_consultant.html", "AI Consultant"))
	s.RegisterRouteFunc("GET "+RouteFounderMatching, s.PageHandler("founder_matching.html", "Founder Matching"))
	s.RegisterRouteFunc("GET "+RouteJobs, s.PageHandler("jobs.html", "Jobs"))

	// API routes
	s.RegisterRouteHandler("POST "+RouteAPIOnboarding, ChainMiddleware(s.OnboardingAPIHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIChat, ChainMiddleware(s.ChatHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAPIAcademyChat, ChainMiddleware(s.AcademyChatHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPISanityCheck, ChainMiddleware(s.SanityCheckHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteStatic, ChainMiddleware(s.serveFileHandler(), s.CacheMiddleware, s.CompressionMiddleware))

	s.RegisterRouteFunc("/", s.NotFoundHandler())
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.PathValue("file"), "/")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		err := StreamFile(w, r, filePath)
		if err != nil {
			logError(r.Method, filePath, err.Error())
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}

func logError(method, path, error string) {
	errorString := Red + error + ResetColor
	log.Warn().Msgf("[%-19s] %s %s", colourMethod(method), path, errorString)
}
