package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteHome = "/"

	// Auth Routes
	RouteSignIn       = "/auth/signin"
	RouteAuthLogin    = "/auth/login"
	RouteCallback     = "/auth/callback"
	RouteResetCookies = "/auth/reset-cookies"
	RouteSignOut      = "/auth/signout"

	// Pages
	RouteOnboarding      = "/onboarding"
	RouteProfile         = "/profile"
	RouteAcademy         = "/academy"
	RouteAIConsultant    = "/ai-consultant"
	RouteFounderMatching = "/founder-matching"
	RouteJobs            = "/jobs"

	// API Routes
	RouteAPIOnboarding  = "/api/onboarding"
	RouteAPIChat        = "/api/ai-consultant/chat"
	RouteAPISanityCheck = "/api/ai-consultant/sanity-check"
	RouteAPIAcademyChat = "/api/chat"

	RouteHealth = "/healthz"

	// Static Asset Routes (patterns)
	RouteStatic = "/static/{file...}"
)
