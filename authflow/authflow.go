// Package authflow carries the per-sign-in state (state id, nonce, PKCE verifier,
// return path) between /auth/login and /auth/callback in an encrypted cookie, so
// any server instance can finish a flow another one started.
package authflow

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/oauth2"

	"github.com/sgcombinator/web/identity"
	errs "github.com/sgcombinator/web/internal/errors"
)

// CookieName is the cookie holding the sealed flow state.
const CookieName = "sgc_auth_flow"

// DefaultTTL bounds how long a user may take at the provider's sign-in page.
const DefaultTTL = 5 * time.Minute

const minSecretLen = 32

var (
	ErrInvalidState = fmt.Errorf("auth flow state: %w", errs.ErrSessionInvalid)
	ErrExpiredState = fmt.Errorf("auth flow state: %w", errs.ErrSessionExpired)
)

// State is the data bound to one sign-in attempt.
type State struct {
	ID           string    `json:"id"`
	CodeVerifier string    `json:"cv"`
	Nonce        string    `json:"n"`
	ReturnPath   string    `json:"rp,omitempty"`
	CreatedAt    time.Time `json:"at"`
}

// Params returns the values the identity provider binds into the flow.
func (s State) Params() identity.FlowParams {
	return identity.FlowParams{
		State:        s.ID,
		Nonce:        s.Nonce,
		CodeVerifier: s.CodeVerifier,
	}
}

// Sealer creates, seals and opens flow states.
type Sealer struct {
	aead cipher.AEAD
	ttl  time.Duration
	now  func() time.Time
}

// NewSealer derives the cookie key from secret, which must be at least 32 bytes.
func NewSealer(secret []byte, ttl time.Duration) (*Sealer, error) {
	if len(secret) < minSecretLen {
		return nil, fmt.Errorf("auth flow secret must be at least %d bytes", minSecretLen)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, secret, nil, []byte("sgc auth flow cookie v1"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive auth flow key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init auth flow cipher: %w", err)
	}

	return &Sealer{aead: aead, ttl: ttl, now: time.Now}, nil
}

// TTL is the lifetime of a sealed state, also used as the cookie MaxAge.
func (s *Sealer) TTL() time.Duration {
	return s.ttl
}

// New starts a flow that returns the user to returnPath. Unsafe return paths are
// replaced by "/".
func (s *Sealer) New(returnPath string) (State, error) {
	nonce, err := randomToken()
	if err != nil {
		return State{}, err
	}
	return State{
		ID:           uuid.NewString(),
		CodeVerifier: oauth2.GenerateVerifier(),
		Nonce:        nonce,
		ReturnPath:   SafeRedirectPath(returnPath),
		CreatedAt:    s.now().UTC(),
	}, nil
}

// Seal encrypts the state into a cookie-safe string.
func (s *Sealer) Seal(st State) (string, error) {
	plain, err := json.Marshal(st)
	if err != nil {
		return "", fmt.Errorf("marshal auth flow state: %w", err)
	}

	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plain)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("auth flow nonce: %w", err)
	}

	sealed := s.aead.Seal(nonce, nonce, plain, []byte(CookieName))
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a sealed state. Tampered or malformed values give ErrInvalidState,
// values older than the TTL give ErrExpiredState.
func (s *Sealer) Open(value string) (State, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil || len(raw) < s.aead.NonceSize()+s.aead.Overhead() {
		return State{}, ErrInvalidState
	}

	nonce, ciphertext := raw[:s.aead.NonceSize()], raw[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, []byte(CookieName))
	if err != nil {
		return State{}, ErrInvalidState
	}

	var st State
	if err := json.Unmarshal(plain, &st); err != nil || st.ID == "" {
		return State{}, ErrInvalidState
	}

	age := s.now().Sub(st.CreatedAt)
	if age > s.ttl || age < -time.Minute {
		return State{}, ErrExpiredState
	}
	return st, nil
}

// OpenMatching opens value and checks that it belongs to the state id echoed back
// by the provider.
func (s *Sealer) OpenMatching(value, stateID string) (State, error) {
	st, err := s.Open(value)
	if err != nil {
		return State{}, err
	}
	if stateID == "" || subtle.ConstantTimeCompare([]byte(st.ID), []byte(stateID)) != 1 {
		return State{}, ErrInvalidState
	}
	return st, nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// SafeRedirectPath returns candidate when it is a same-origin relative path and
// "/" otherwise.
func SafeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	// browsers treat "/\" like "//"
	if strings.HasPrefix(candidate, "//") || strings.HasPrefix(candidate, "/\\") {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}
