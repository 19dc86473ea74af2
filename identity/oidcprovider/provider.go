// Package oidcprovider implements identity.Provider against an OpenID Connect
// provider: authorization code flow with PKCE for sign-in, the userinfo endpoint for
// session validation and the refresh token grant for silent refresh.
package oidcprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/sgcombinator/web/identity"
	errs "github.com/sgcombinator/web/internal/errors"
)

// Cookie names the provider session is stored under.
const (
	AccessTokenCookie  = "sb-access-token"
	RefreshTokenCookie = "sb-refresh-token"
)

// Cookie names older deployments used; cleared on reset and sign-out.
var legacyCookies = []string{"supabase-auth-token", "__session", "sb-provider-token"}

const (
	defaultAccessMaxAge = 3600
	refreshMaxAge       = 7 * 24 * 3600
	maxUserInfoBytes    = 1 << 20
)

// Config for New.
type Config struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// HTTPClient is used for every provider call when set.
	HTTPClient *http.Client
}

// Provider talks to the OIDC provider. It is safe for concurrent use.
type Provider struct {
	verifier    *oidc.IDTokenVerifier
	oauth       *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
	now         func() time.Time
}

var _ identity.Provider = (*Provider)(nil)

// New runs OIDC discovery against cfg.IssuerURL.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.IssuerURL == "" || cfg.ClientID == "" {
		return nil, fmt.Errorf("oidc issuer url and client id are required")
	}

	if cfg.HTTPClient != nil {
		ctx = oidc.ClientContext(ctx, cfg.HTTPClient)
	}

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w: %w", identity.ErrProviderUnavailable, err)
	}

	var claims struct {
		UserInfoURL string `json:"userinfo_endpoint"`
	}
	if err := provider.Claims(&claims); err != nil {
		return nil, fmt.Errorf("oidc discovery claims: %w", err)
	}
	if claims.UserInfoURL == "" {
		return nil, fmt.Errorf("oidc provider %s has no userinfo endpoint", cfg.IssuerURL)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email", oidc.ScopeOfflineAccess}
	}

	return &Provider{
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       scopes,
		},
		userInfoURL: claims.UserInfoURL,
		httpClient:  cfg.HTTPClient,
		now:         time.Now,
	}, nil
}

func (p *Provider) clientContext(ctx context.Context) context.Context {
	if p.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

// AuthCodeURL builds the authorize URL with the flow's nonce and PKCE challenge.
func (p *Provider) AuthCodeURL(params identity.FlowParams) string {
	return p.oauth.AuthCodeURL(params.State,
		oidc.Nonce(params.Nonce),
		oauth2.S256ChallengeOption(params.CodeVerifier),
	)
}

// ExchangeAuthCode trades code for tokens, verifies the ID token and its nonce, and
// returns the session cookies to set.
func (p *Provider) ExchangeAuthCode(ctx context.Context, code string, params identity.FlowParams) (identity.Exchange, error) {
	ctx = p.clientContext(ctx)

	tok, err := p.oauth.Exchange(ctx, code, oauth2.VerifierOption(params.CodeVerifier))
	if err != nil {
		return identity.Exchange{}, classifyTokenError("exchange code", err, identity.ErrInvalidCode)
	}

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return identity.Exchange{}, fmt.Errorf("token response has no id_token: %w", identity.ErrInvalidCode)
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return identity.Exchange{}, fmt.Errorf("verify id token: %w: %w", errs.ErrSessionInvalid, err)
	}
	if params.Nonce == "" || idToken.Nonce != params.Nonce {
		return identity.Exchange{}, identity.ErrNonceMismatch
	}

	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return identity.Exchange{}, fmt.Errorf("id token claims: %w: %w", errs.ErrSessionInvalid, err)
	}

	return identity.Exchange{
		Session: identity.Session{
			UserID:    idToken.Subject,
			Email:     claims.Email,
			Name:      claims.Name,
			ExpiresAt: p.accessExpiry(tok),
		},
		Cookies: p.tokenCookies(tok),
	}, nil
}

// ValidateSession checks the access token cookie with the userinfo endpoint,
// refreshing it once with the refresh token cookie when it is expired or rejected.
func (p *Provider) ValidateSession(ctx context.Context, cookies []*http.Cookie) (identity.Validation, error) {
	ctx = p.clientContext(ctx)

	access, refresh := cookieValue(cookies, AccessTokenCookie), cookieValue(cookies, RefreshTokenCookie)
	if access == "" && refresh == "" {
		return identity.Validation{}, nil
	}

	if access != "" && !p.expired(access) {
		session, err := p.userInfo(ctx, access)
		switch {
		case err == nil:
			return identity.Validation{Session: session}, nil
		case !errs.Is(err, errs.ErrUnauthorized):
			return identity.Validation{}, err
		}
	}

	if refresh == "" {
		return identity.Validation{RefreshedCookies: []identity.CookieWrite{identity.ClearCookie(AccessTokenCookie)}}, nil
	}

	tok, err := p.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refresh}).Token()
	if err != nil {
		err = classifyTokenError("refresh token", err, errs.ErrUnauthorized)
		if errs.Is(err, errs.ErrUnauthorized) {
			log.Debug().Err(err).Msg("Refresh token rejected")
			return identity.Validation{RefreshedCookies: p.clearCookies()}, nil
		}
		return identity.Validation{}, err
	}

	refreshed := p.tokenCookies(tok)
	session, err := p.userInfo(ctx, tok.AccessToken)
	switch {
	case err == nil:
		return identity.Validation{Session: session, RefreshedCookies: refreshed}, nil
	case errs.Is(err, errs.ErrUnauthorized):
		return identity.Validation{RefreshedCookies: p.clearCookies()}, nil
	default:
		return identity.Validation{RefreshedCookies: refreshed}, err
	}
}

// SessionCookieNames lists every cookie a provider session may live in.
func (p *Provider) SessionCookieNames() []string {
	return append([]string{AccessTokenCookie, RefreshTokenCookie}, legacyCookies...)
}

type userInfoResponse struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

// userInfo returns errs.ErrUnauthorized when the provider rejects the token and
// identity.ErrProviderUnavailable when it gives no definite answer.
func (p *Provider) userInfo(ctx context.Context, accessToken string) (*identity.Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("userinfo request: %w", err)
	}

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}))
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo: %w: %w", identity.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxUserInfoBytes))
		return nil, fmt.Errorf("userinfo: %w", errs.ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("userinfo status %d: %w", resp.StatusCode, identity.ErrProviderUnavailable)
	}

	var info userInfoResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUserInfoBytes)).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w: %w", identity.ErrProviderUnavailable, err)
	}
	if info.Subject == "" {
		return nil, fmt.Errorf("userinfo without subject: %w", identity.ErrProviderUnavailable)
	}

	session := &identity.Session{UserID: info.Subject, Email: info.Email, Name: info.Name}
	if exp, ok := tokenExpiry(accessToken); ok {
		session.ExpiresAt = exp
	}
	return session, nil
}

// classifyTokenError maps token endpoint failures: a definite rejection becomes
// rejected, anything else identity.ErrProviderUnavailable.
func classifyTokenError(op string, err error, rejected error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if re.ErrorCode == "invalid_grant" || re.ErrorCode == "invalid_request" ||
			(re.Response != nil && (re.Response.StatusCode == http.StatusBadRequest || re.Response.StatusCode == http.StatusUnauthorized)) {
			return fmt.Errorf("%s: %w: %w", op, rejected, err)
		}
	}
	return fmt.Errorf("%s: %w: %w", op, identity.ErrProviderUnavailable, err)
}

func (p *Provider) tokenCookies(tok *oauth2.Token) []identity.CookieWrite {
	maxAge := defaultAccessMaxAge
	if exp := p.accessExpiry(tok); !exp.IsZero() {
		if secs := int(exp.Sub(p.now()).Seconds()); secs > 0 {
			maxAge = secs
		}
	}

	cookies := []identity.CookieWrite{{Name: AccessTokenCookie, Value: tok.AccessToken, MaxAge: maxAge}}
	if tok.RefreshToken != "" {
		cookies = append(cookies, identity.CookieWrite{Name: RefreshTokenCookie, Value: tok.RefreshToken, MaxAge: refreshMaxAge})
	}
	return cookies
}

func (p *Provider) clearCookies() []identity.CookieWrite {
	return []identity.CookieWrite{
		identity.ClearCookie(AccessTokenCookie),
		identity.ClearCookie(RefreshTokenCookie),
	}
}

func (p *Provider) accessExpiry(tok *oauth2.Token) time.Time {
	if !tok.Expiry.IsZero() {
		return tok.Expiry
	}
	exp, _ := tokenExpiry(tok.AccessToken)
	return exp
}

// expired reports whether a JWT access token is past its exp claim. Opaque tokens
// are never considered expired locally.
func (p *Provider) expired(accessToken string) bool {
	exp, ok := tokenExpiry(accessToken)
	return ok && !exp.After(p.now())
}

// tokenExpiry reads the exp claim without verifying the signature; the provider
// still validates the token itself.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func cookieValue(cookies []*http.Cookie, name string) string {
	for _, c := range cookies {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}
