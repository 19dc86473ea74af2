package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/rs/zerolog/log"
)

//go:embed templates/*
var templateFiles embed.FS

const layoutTemplate = "layout.html"

var pageNames = []string{
	"index.html",
	"signin.html",
	"onboarding.html",
	"profile.html",
	"academy.html",
	"ai_consultant.html",
	"founder_matching.html",
	"jobs.html",
	"not_found.html",
}

type pageTemplate = *template.Template

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a page together with the shared layout
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(layoutTemplate).ParseFS(TemplateFilesFS(), layoutTemplate, name)
}

func parsePages() (map[string]pageTemplate, error) {
	pages := make(map[string]pageTemplate, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := ParseTemplate(name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

// pageData is passed to every template
type pageData struct {
	AppName   string
	Title     string
	Path      string
	SignedIn  bool
	UserID    string
	UserEmail string
	Data      any
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		http.Error(w, "500 - Unknown page", http.StatusInternalServerError)
		return
	}

	pd := pageData{
		AppName: s.config.GetAppName(),
		Title:   title,
		Path:    r.URL.Path,
		Data:    data,
	}
	if session, ok := sessionFrom(r); ok {
		pd.SignedIn = true
		pd.UserID = session.UserID
		pd.UserEmail = session.Email
	}

	// render to a buffer so a template error doesn't leave a half-written page
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layoutTemplate, pd); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("template", name).Msg("Failed to render page")
		http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
