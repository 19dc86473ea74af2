package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

const (
	minCookieSecretLength = 32
	minUpstreamTimeout    = 1 * time.Second
	maxUpstreamTimeout    = 15 * time.Second
)

type SecurityConfig interface {
	GetCookieSecret() []byte
	GetSessionTimeout() time.Duration
	GetProfileTimeout() time.Duration
	GetAuthFlowTTL() time.Duration
}

type Security struct {
	// CookieSecret keys the sealed sign-in flow cookie
	CookieSecret   string        `env:"COOKIE_SECRET"`
	SessionTimeout time.Duration `env:"SESSION_TIMEOUT" envDefault:"5s"`
	ProfileTimeout time.Duration `env:"PROFILE_TIMEOUT" envDefault:"5s"`
	AuthFlowTTL    time.Duration `env:"AUTH_FLOW_TTL" envDefault:"5m"`
}

var _ SecurityConfig = Security{}

func (s Security) GetCookieSecret() []byte {
	return []byte(s.CookieSecret)
}

func (s Security) GetSessionTimeout() time.Duration {
	return s.SessionTimeout
}

func (s Security) GetProfileTimeout() time.Duration {
	return s.ProfileTimeout
}

func (s Security) GetAuthFlowTTL() time.Duration {
	return s.AuthFlowTTL
}

// sanitize clamps the external call timeouts and, in development only, fills in a
// random cookie secret so the server starts without one. Flows in progress do not
// survive a restart in that case.
func (s *Security) sanitize(dev bool) error {
	s.SessionTimeout = clampTimeout(s.SessionTimeout)
	s.ProfileTimeout = clampTimeout(s.ProfileTimeout)
	if s.AuthFlowTTL <= 0 {
		s.AuthFlowTTL = 5 * time.Minute
	}

	if s.CookieSecret != "" || !dev {
		return nil
	}
	b := make([]byte, minCookieSecretLength)
	if _, err := rand.Read(b); err != nil {
		return fmt.Errorf("failed to generate development cookie secret: %w", err)
	}
	s.CookieSecret = base64.RawURLEncoding.EncodeToString(b)
	return nil
}

func clampTimeout(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return 5 * time.Second
	case d < minUpstreamTimeout:
		return minUpstreamTimeout
	case d > maxUpstreamTimeout:
		return maxUpstreamTimeout
	}
	return d
}
