package commands

import (
	"fmt"
	"net/http"
	"time"

	"github.com/common-nighthawk/go-figure"

	"github.com/sgcombinator/web/guard"
	"github.com/sgcombinator/web/internal/config"
)

type Globals struct {
	Debug    bool
	EnvFiles []string
	Version  string
}

func (g *Globals) loadConfig() (config.Config, error) {
	return config.Load(g.EnvFiles...)
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    16 * 1024, // provider cookies can be large
	}
}

// loadTable returns the route table from ROUTES_FILE, or the built-in one.
func loadTable(c config.RoutesConfig) (*guard.Table, error) {
	if c.GetRoutesFile() == "" {
		return guard.DefaultTable(), nil
	}
	table, err := guard.LoadTable(c.GetRoutesFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load route table: %w", err)
	}
	return table, nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
