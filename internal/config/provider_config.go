package config

type ProviderConfig interface {
	GetIssuerURL() string
	GetClientID() string
	GetClientSecret() string
	GetScopes() []string
}

// Provider configures the OpenID Connect identity provider that owns sessions
type Provider struct {
	IssuerURL    string   `env:"OIDC_ISSUER_URL"`
	ClientID     string   `env:"OIDC_CLIENT_ID"`
	ClientSecret string   `env:"OIDC_CLIENT_SECRET"`
	Scopes       []string `env:"OIDC_SCOPES" envDefault:"openid,profile,email,offline_access" envSeparator:","`
}

var _ ProviderConfig = Provider{}

func (p Provider) GetIssuerURL() string {
	return p.IssuerURL
}

func (p Provider) GetClientID() string {
	return p.ClientID
}

func (p Provider) GetClientSecret() string {
	return p.ClientSecret
}

func (p Provider) GetScopes() []string {
	return p.Scopes
}
