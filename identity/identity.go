// Package identity describes the boundary with the external identity provider that
// owns user sessions. The web server never mints or alters a session; it forwards the
// provider's cookies and writes back whatever refreshed values the provider hands out.
package identity

import (
	"context"
	"fmt"
	"net/http"
	"time"

	errs "github.com/sgcombinator/web/internal/errors"
)

var (
	// ErrProviderUnavailable is returned when the provider could not be reached or
	// answered with something other than a definite yes/no about the session.
	ErrProviderUnavailable = fmt.Errorf("identity provider: %w", errs.ErrUpstreamUnavailable)
	// ErrInvalidCode is returned when an authorization code is rejected.
	ErrInvalidCode = fmt.Errorf("authorization code: %w", errs.ErrInvalidRequest)
	// ErrNonceMismatch is returned when the ID token nonce does not match the flow.
	ErrNonceMismatch = fmt.Errorf("id token nonce mismatch: %w", errs.ErrSessionInvalid)
)

// Session is the provider's view of the signed-in user.
type Session struct {
	UserID    string
	Email     string
	Name      string
	ExpiresAt time.Time
}

// CookieWrite is a provider-issued cookie value. Security attributes (domain, secure,
// same-site, ...) are applied by the caller when the cookie is written.
type CookieWrite struct {
	Name  string
	Value string
	// MaxAge in seconds. Negative clears the cookie.
	MaxAge int
}

// ClearCookie returns the write that removes a cookie from the browser.
func ClearCookie(name string) CookieWrite {
	return CookieWrite{Name: name, MaxAge: -1}
}

// IsClear reports whether the write removes the cookie.
func (c CookieWrite) IsClear() bool {
	return c.MaxAge < 0
}

// Validation is the result of checking the request's session cookies with the provider.
// Session is nil when no valid session exists.
type Validation struct {
	Session          *Session
	RefreshedCookies []CookieWrite
}

// Exchange is the result of trading an authorization code for a session.
type Exchange struct {
	Session Session
	Cookies []CookieWrite
}

// FlowParams are the per-sign-in values bound into the authorization request and
// checked again when the code is exchanged.
type FlowParams struct {
	State        string
	Nonce        string
	CodeVerifier string
}

// SessionValidator validates the session carried by the request cookies. Returning a
// nil Session with a nil error means "no session"; an error means the provider could
// not give an answer. RefreshedCookies may be populated in both cases.
type SessionValidator interface {
	ValidateSession(ctx context.Context, cookies []*http.Cookie) (Validation, error)
}

// Provider is the complete identity provider boundary.
type Provider interface {
	SessionValidator

	// AuthCodeURL is the provider URL the browser is sent to for sign-in.
	AuthCodeURL(params FlowParams) string
	// ExchangeAuthCode trades the callback code for a session.
	ExchangeAuthCode(ctx context.Context, code string, params FlowParams) (Exchange, error)
	// SessionCookieNames lists every cookie the provider may have set.
	SessionCookieNames() []string
}
