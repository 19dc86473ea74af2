package fakeprovider

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/sgcombinator/web/identity"
)

// CookieName is the session cookie the fake provider reads.
const CookieName = "fake-session"

var _ identity.Provider = (*FakeProvider)(nil)

// FakeProvider is an in-memory identity.Provider. Sessions are keyed by the value of
// the CookieName cookie; codes map to sessions for ExchangeAuthCode.
type FakeProvider struct {
	lock     sync.Mutex
	sessions map[string]identity.Session
	codes    map[string]identity.Session

	// Err is returned by ValidateSession and ExchangeAuthCode when set.
	Err error
	// Refreshed is returned by every ValidateSession call.
	Refreshed []identity.CookieWrite
	// Panic makes ValidateSession panic.
	Panic bool
	// Block makes ValidateSession wait for context cancellation.
	Block bool

	Calls         int
	LastExchanged identity.FlowParams
}

func New() *FakeProvider {
	return &FakeProvider{
		sessions: make(map[string]identity.Session),
		codes:    make(map[string]identity.Session),
	}
}

// AddSession registers a session cookie value.
func (p *FakeProvider) AddSession(cookieValue string, s identity.Session) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.sessions[cookieValue] = s
}

// AddCode registers an authorization code.
func (p *FakeProvider) AddCode(code string, s identity.Session) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.codes[code] = s
}

func (p *FakeProvider) CallCount() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.Calls
}

func (p *FakeProvider) ValidateSession(ctx context.Context, cookies []*http.Cookie) (identity.Validation, error) {
	p.lock.Lock()
	p.Calls++
	err, refreshed, panics, block := p.Err, p.Refreshed, p.Panic, p.Block
	p.lock.Unlock()

	if panics {
		panic("fake provider panic")
	}
	if block {
		<-ctx.Done()
		return identity.Validation{}, ctx.Err()
	}

	v := identity.Validation{RefreshedCookies: refreshed}
	if err != nil {
		return v, err
	}

	for _, c := range cookies {
		if c.Name != CookieName {
			continue
		}
		p.lock.Lock()
		s, ok := p.sessions[c.Value]
		p.lock.Unlock()
		if ok {
			v.Session = &s
		}
	}
	return v, nil
}

func (p *FakeProvider) AuthCodeURL(params identity.FlowParams) string {
	q := url.Values{
		"state": {params.State},
		"nonce": {params.Nonce},
	}
	return "https://idp.example.test/authorize?" + q.Encode()
}

func (p *FakeProvider) ExchangeAuthCode(_ context.Context, code string, params identity.FlowParams) (identity.Exchange, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.LastExchanged = params
	if p.Err != nil {
		return identity.Exchange{}, p.Err
	}
	s, ok := p.codes[code]
	if !ok {
		return identity.Exchange{}, identity.ErrInvalidCode
	}
	delete(p.codes, code)

	value := "session-for-" + code
	p.sessions[value] = s
	return identity.Exchange{
		Session: s,
		Cookies: []identity.CookieWrite{{Name: CookieName, Value: value, MaxAge: 3600}},
	}, nil
}

func (p *FakeProvider) SessionCookieNames() []string {
	return []string{CookieName}
}
