package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/sgcombinator/web/academy"
	"github.com/sgcombinator/web/authflow"
	"github.com/sgcombinator/web/guard"
	"github.com/sgcombinator/web/identity"
	"github.com/sgcombinator/web/internal/config"
	"github.com/sgcombinator/web/profiles"
)

// ChatClient is the AI consultant backend.
type ChatClient interface {
	Chat(ctx context.Context, prompt string) (string, error)
	SanityCheck(ctx context.Context) (json.RawMessage, error)
}

// AcademyAssistant answers Academy course questions as a stream.
type AcademyAssistant interface {
	Stream(ctx context.Context, messages []academy.Message) (academy.Reply, error)
}

// Deps are the external services the server is wired to.
type Deps struct {
	Provider identity.Provider
	Profiles profiles.Store
	Chat     ChatClient
	// Academy is optional; without it the Academy chat answers 503.
	Academy AcademyAssistant
	// Table defaults to guard.DefaultTable.
	Table *guard.Table
}

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	handler  http.HandlerFunc
	routes   []string
	config   config.Config
	provider identity.Provider
	profiles profiles.Store
	chat     ChatClient
	academy  AcademyAssistant
	guard    *guard.Guard
	flows    *authflow.Sealer
	validate *validator.Validate
	pages    map[string]pageTemplate
}

func New(config config.Config, deps Deps) (*Server, error) {
	if deps.Provider == nil || deps.Profiles == nil || deps.Chat == nil {
		return nil, fmt.Errorf("[Server New] provider, profile store and chat client are required")
	}

	table := deps.Table
	if table == nil {
		table = guard.DefaultTable()
	}

	g, err := guard.New(guard.Options{
		Table:          table,
		Sessions:       deps.Provider,
		Profiles:       deps.Profiles,
		SessionTimeout: config.GetSessionTimeout(),
		ProfileTimeout: config.GetProfileTimeout(),
		LocalDev:       config.IsDev(),
	})
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create access guard: %w", err)
	}

	flows, err := authflow.NewSealer(config.GetCookieSecret(), config.GetAuthFlowTTL())
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create auth flow sealer: %w", err)
	}

	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse templates: %w", err)
	}

	s := &Server{
		env:      config.GetEnv(),
		mux:      http.NewServeMux(),
		config:   config,
		provider: deps.Provider,
		profiles: deps.Profiles,
		chat:     deps.Chat,
		academy:  deps.Academy,
		guard:    g,
		flows:    flows,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		pages:    pages,
	}

	s.initRoutes()
	s.logRoutes()

	// the guard sees every request, including ones the mux 404s
	s.handler = ChainMiddleware(s.mux.ServeHTTP, s.HTMLMiddleWare(s.guard.Middleware)...)

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes lists the registered mux patterns.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Debug().Msgf("[%-19s] %s", colourMethod(method), path)
}

func colourMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}
