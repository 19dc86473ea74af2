package oidcprovider_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/sgcombinator/web/identity"
	"github.com/sgcombinator/web/identity/oidcprovider"
)

const (
	clientID    = "sgc-web"
	keyID       = "test-key"
	validCode   = "good-code"
	goodRefresh = "good-refresh"
)

// fakeIdP is a minimal OpenID Connect provider.
type fakeIdP struct {
	t      *testing.T
	server *httptest.Server
	key    *rsa.PrivateKey

	mu             sync.Mutex
	validAccess    map[string]string // token -> subject
	userInfoStatus int
	tokenStatus    int
	nonce          string
	lastVerifier   string
	refreshCalls   int
}

func newFakeIdP(t *testing.T) *fakeIdP {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	idp := &fakeIdP{t: t, key: key, validAccess: map[string]string{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", idp.discovery)
	mux.HandleFunc("/jwks", idp.jwks)
	mux.HandleFunc("/token", idp.token)
	mux.HandleFunc("/userinfo", idp.userinfo)
	idp.server = httptest.NewServer(mux)
	t.Cleanup(idp.server.Close)
	return idp
}

func (f *fakeIdP) issuer() string { return f.server.URL }

func (f *fakeIdP) discovery(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"issuer":                                f.issuer(),
		"authorization_endpoint":                f.issuer() + "/authorize",
		"token_endpoint":                        f.issuer() + "/token",
		"userinfo_endpoint":                     f.issuer() + "/userinfo",
		"jwks_uri":                              f.issuer() + "/jwks",
		"id_token_signing_alg_values_supported": []string{"RS256"},
	})
}

func (f *fakeIdP) jwks(w http.ResponseWriter, _ *http.Request) {
	pub := f.key.PublicKey
	writeJSON(w, http.StatusOK, map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": keyID,
			"use": "sig",
			"alg": "RS256",
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	})
}

// accessToken mints an HS256 JWT; only its exp claim is read by the client.
func (f *fakeIdP) accessToken(subject string, exp time.Time) string {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": exp.Unix(),
		"jti": time.Now().String(),
	}).SignedString([]byte("access-signing-key"))
	require.NoError(f.t, err)
	return tok
}

func (f *fakeIdP) idToken(subject, nonce string) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":   f.issuer(),
		"aud":   clientID,
		"sub":   subject,
		"nonce": nonce,
		"email": "ada@example.com",
		"name":  "Ada Lovelace",
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	tok.Header["kid"] = keyID
	signed, err := tok.SignedString(f.key)
	require.NoError(f.t, err)
	return signed
}

// issue records a valid access token; callers hold f.mu.
func (f *fakeIdP) issue(subject string) string {
	access := f.accessToken(subject, time.Now().Add(time.Hour))
	f.validAccess[access] = subject
	return access
}

func (f *fakeIdP) issueToken(subject string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issue(subject)
}

func (f *fakeIdP) token(w http.ResponseWriter, r *http.Request) {
	require.NoError(f.t, r.ParseForm())

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.tokenStatus != 0 {
		writeJSON(w, f.tokenStatus, map[string]string{"error": "server_error"})
		return
	}

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		f.lastVerifier = r.PostForm.Get("code_verifier")
		if r.PostForm.Get("code") != validCode {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  f.issue("user-1"),
			"token_type":    "Bearer",
			"expires_in":    3600,
			"refresh_token": goodRefresh,
			"id_token":      f.idToken("user-1", f.nonce),
		})
	case "refresh_token":
		f.refreshCalls++
		if r.PostForm.Get("refresh_token") != goodRefresh {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_grant"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  f.issue("user-1"),
			"token_type":    "Bearer",
			"expires_in":    1800,
			"refresh_token": "rotated-refresh",
		})
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
	}
}

func (f *fakeIdP) userinfo(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.userInfoStatus != 0 {
		w.WriteHeader(f.userInfoStatus)
		return
	}
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	sub, ok := f.validAccess[token]
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"sub": sub, "email": "ada@example.com", "name": "Ada Lovelace"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newProvider(t *testing.T, idp *fakeIdP) *oidcprovider.Provider {
	t.Helper()
	p, err := oidcprovider.New(context.Background(), oidcprovider.Config{
		IssuerURL:    idp.issuer(),
		ClientID:     clientID,
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/auth/callback",
		HTTPClient:   idp.server.Client(),
	})
	require.NoError(t, err)
	return p
}

func cookies(kv ...string) []*http.Cookie {
	var out []*http.Cookie
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, &http.Cookie{Name: kv[i], Value: kv[i+1]})
	}
	return out
}

func cookieByName(t *testing.T, writes []identity.CookieWrite, name string) identity.CookieWrite {
	t.Helper()
	for _, c := range writes {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %s not written", name)
	return identity.CookieWrite{}
}

func TestNew(t *testing.T) {
	t.Run("missing config", func(t *testing.T) {
		_, err := oidcprovider.New(context.Background(), oidcprovider.Config{})
		require.Error(t, err)
	})

	t.Run("discovery failure", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		_, err := oidcprovider.New(context.Background(), oidcprovider.Config{IssuerURL: srv.URL, ClientID: clientID})
		require.ErrorIs(t, err, identity.ErrProviderUnavailable)
	})
}

func TestAuthCodeURL(t *testing.T) {
	idp := newFakeIdP(t)
	p := newProvider(t, idp)

	raw := p.AuthCodeURL(identity.FlowParams{State: "state-1", Nonce: "nonce-1", CodeVerifier: "verifier-verifier-verifier-verifier-verifier"})
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	require.Equal(t, idp.issuer()+"/authorize", u.Scheme+"://"+u.Host+u.Path)
	require.Equal(t, "state-1", q.Get("state"))
	require.Equal(t, "nonce-1", q.Get("nonce"))
	require.Equal(t, "S256", q.Get("code_challenge_method"))
	require.NotEmpty(t, q.Get("code_challenge"))
	require.Equal(t, clientID, q.Get("client_id"))
	require.Contains(t, q.Get("scope"), "openid")
	require.Equal(t, "code", q.Get("response_type"))
}

func TestExchangeAuthCode(t *testing.T) {
	ctx := context.Background()
	idp := newFakeIdP(t)
	p := newProvider(t, idp)
	idp.nonce = "nonce-1"
	params := identity.FlowParams{State: "s", Nonce: "nonce-1", CodeVerifier: "the-code-verifier-value-that-is-long-enough"}

	t.Run("success", func(t *testing.T) {
		ex, err := p.ExchangeAuthCode(ctx, validCode, params)
		require.NoError(t, err)
		require.Equal(t, "user-1", ex.Session.UserID)
		require.Equal(t, "ada@example.com", ex.Session.Email)
		require.Equal(t, "Ada Lovelace", ex.Session.Name)
		require.Equal(t, params.CodeVerifier, idp.lastVerifier)

		access := cookieByName(t, ex.Cookies, oidcprovider.AccessTokenCookie)
		require.NotEmpty(t, access.Value)
		require.InDelta(t, 3600, access.MaxAge, 5)

		refresh := cookieByName(t, ex.Cookies, oidcprovider.RefreshTokenCookie)
		require.Equal(t, goodRefresh, refresh.Value)
		require.Equal(t, 7*24*3600, refresh.MaxAge)
	})

	t.Run("nonce mismatch", func(t *testing.T) {
		wrong := params
		wrong.Nonce = "other"
		_, err := p.ExchangeAuthCode(ctx, validCode, wrong)
		require.ErrorIs(t, err, identity.ErrNonceMismatch)
	})

	t.Run("invalid code", func(t *testing.T) {
		_, err := p.ExchangeAuthCode(ctx, "bad-code", params)
		require.ErrorIs(t, err, identity.ErrInvalidCode)
	})

	t.Run("provider down", func(t *testing.T) {
		idp.tokenStatus = http.StatusServiceUnavailable
		defer func() { idp.tokenStatus = 0 }()

		_, err := p.ExchangeAuthCode(ctx, validCode, params)
		require.ErrorIs(t, err, identity.ErrProviderUnavailable)
	})
}

func TestValidateSession(t *testing.T) {
	ctx := context.Background()

	t.Run("no cookies", func(t *testing.T) {
		p := newProvider(t, newFakeIdP(t))
		v, err := p.ValidateSession(ctx, nil)
		require.NoError(t, err)
		require.Nil(t, v.Session)
		require.Empty(t, v.RefreshedCookies)
	})

	t.Run("valid access token", func(t *testing.T) {
		idp := newFakeIdP(t)
		p := newProvider(t, idp)
		access := idp.issueToken("user-1")

		v, err := p.ValidateSession(ctx, cookies(oidcprovider.AccessTokenCookie, access))
		require.NoError(t, err)
		require.NotNil(t, v.Session)
		require.Equal(t, "user-1", v.Session.UserID)
		require.False(t, v.Session.ExpiresAt.IsZero())
		require.Empty(t, v.RefreshedCookies)
	})

	t.Run("expired access token is refreshed", func(t *testing.T) {
		idp := newFakeIdP(t)
		p := newProvider(t, idp)
		expired := idp.accessToken("user-1", time.Now().Add(-time.Minute))

		v, err := p.ValidateSession(ctx, cookies(
			oidcprovider.AccessTokenCookie, expired,
			oidcprovider.RefreshTokenCookie, goodRefresh,
		))
		require.NoError(t, err)
		require.NotNil(t, v.Session)
		require.Equal(t, 1, idp.refreshCalls)

		access := cookieByName(t, v.RefreshedCookies, oidcprovider.AccessTokenCookie)
		require.NotEqual(t, expired, access.Value)
		require.InDelta(t, 1800, access.MaxAge, 5)
		require.Equal(t, "rotated-refresh", cookieByName(t, v.RefreshedCookies, oidcprovider.RefreshTokenCookie).Value)
	})

	t.Run("rejected access token is refreshed", func(t *testing.T) {
		idp := newFakeIdP(t)
		p := newProvider(t, idp)
		revoked := idp.accessToken("user-1", time.Now().Add(time.Hour))

		v, err := p.ValidateSession(ctx, cookies(
			oidcprovider.AccessTokenCookie, revoked,
			oidcprovider.RefreshTokenCookie, goodRefresh,
		))
		require.NoError(t, err)
		require.NotNil(t, v.Session)
		require.Len(t, v.RefreshedCookies, 2)
	})

	t.Run("invalid refresh token clears cookies", func(t *testing.T) {
		idp := newFakeIdP(t)
		p := newProvider(t, idp)

		v, err := p.ValidateSession(ctx, cookies(oidcprovider.RefreshTokenCookie, "revoked"))
		require.NoError(t, err)
		require.Nil(t, v.Session)
		require.Len(t, v.RefreshedCookies, 2)
		for _, c := range v.RefreshedCookies {
			require.True(t, c.IsClear())
		}
	})

	t.Run("rejected access token without refresh", func(t *testing.T) {
		idp := newFakeIdP(t)
		p := newProvider(t, idp)

		v, err := p.ValidateSession(ctx, cookies(oidcprovider.AccessTokenCookie, "opaque-token"))
		require.NoError(t, err)
		require.Nil(t, v.Session)
		require.Equal(t, []identity.CookieWrite{identity.ClearCookie(oidcprovider.AccessTokenCookie)}, v.RefreshedCookies)
	})

	t.Run("userinfo unavailable", func(t *testing.T) {
		idp := newFakeIdP(t)
		p := newProvider(t, idp)
		access := idp.issueToken("user-1")
		idp.userInfoStatus = http.StatusBadGateway

		_, err := p.ValidateSession(ctx, cookies(oidcprovider.AccessTokenCookie, access))
		require.ErrorIs(t, err, identity.ErrProviderUnavailable)
	})

	t.Run("token endpoint unavailable", func(t *testing.T) {
		idp := newFakeIdP(t)
		p := newProvider(t, idp)
		idp.tokenStatus = http.StatusInternalServerError

		_, err := p.ValidateSession(ctx, cookies(oidcprovider.RefreshTokenCookie, goodRefresh))
		require.ErrorIs(t, err, identity.ErrProviderUnavailable)
	})

	t.Run("canceled context", func(t *testing.T) {
		idp := newFakeIdP(t)
		p := newProvider(t, idp)
		access := idp.issueToken("user-1")

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := p.ValidateSession(cctx, cookies(oidcprovider.AccessTokenCookie, access))
		require.ErrorIs(t, err, identity.ErrProviderUnavailable)
	})
}

func TestSessionCookieNames(t *testing.T) {
	p := newProvider(t, newFakeIdP(t))
	names := p.SessionCookieNames()
	require.Contains(t, names, oidcprovider.AccessTokenCookie)
	require.Contains(t, names, oidcprovider.RefreshTokenCookie)
	require.Contains(t, names, "supabase-auth-token")
}
