package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	SecurityConfig
	ProviderConfig
	StoreConfig
	ChatConfig
	AssistantConfig
	RoutesConfig

	// GetRedirectURL is the OIDC redirect URI, always BaseURL + /auth/callback
	GetRedirectURL() string
	Validate() error
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
	IsDev() bool
}

type mainConfig struct {
	EnvVars
	Security
	Provider
	Store
	Chat
	Assistant
	Routes
}

var _ Config = mainConfig{}

// Load reads the configuration from the environment. Any env files given are
// loaded first with godotenv; variables already set in the process win.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("[config Load] failed to load env files: %w", err)
		}
	}

	var c mainConfig
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("[config Load] failed to parse environment: %w", err)
	}
	if err := c.Security.sanitize(c.IsDev()); err != nil {
		return nil, fmt.Errorf("[config Load] %w", err)
	}
	c.Chat.sanitize()
	return c, nil
}

func (c mainConfig) GetRedirectURL() string {
	return c.GetBaseURL() + "/auth/callback"
}

// Validate checks the settings the web server cannot start without.
func (c mainConfig) Validate() error {
	var errs []error
	if len(c.CookieSecret) < minCookieSecretLength {
		errs = append(errs, fmt.Errorf("COOKIE_SECRET must be at least %d bytes", minCookieSecretLength))
	}
	if c.IssuerURL == "" {
		errs = append(errs, errors.New("OIDC_ISSUER_URL is required"))
	}
	if c.ClientID == "" {
		errs = append(errs, errors.New("OIDC_CLIENT_ID is required"))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.ChatBaseURL == "" {
		errs = append(errs, errors.New("CHAT_BASE_URL is required"))
	}
	return errors.Join(errs...)
}
