package config

import "strings"

type EnvVars struct {
	Port    string `env:"PORT" envDefault:"8080"`
	AppName string `env:"APP_NAME" envDefault:"SG Combinator"`
	Env     string `env:"ENV" envDefault:"DEV"`
	// BaseURL is the public URL of the site (e.g., "https://sgcombinator.com")
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8080"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	if strings.HasPrefix(e.Port, ":") {
		return e.Port
	}
	return ":" + e.Port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return strings.ToUpper(e.Env)
}

func (e EnvVars) GetBaseURL() string {
	return strings.TrimRight(e.BaseURL, "/")
}

// IsDev reports local development, which relaxes cookie attributes
func (e EnvVars) IsDev() bool {
	return e.GetEnv() == "DEV"
}
