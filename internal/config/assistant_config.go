package config

import (
	"strings"
	"time"
)

type AssistantConfig interface {
	GetOpenAIAPIKey() string
	GetOpenAIBaseURL() string
	GetAssistantModel() string
	GetAssistantTimeout() time.Duration
}

// Assistant configures the Academy course assistant. It is disabled while
// OPENAI_API_KEY is empty.
type Assistant struct {
	OpenAIAPIKey     string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string        `env:"OPENAI_BASE_URL"`
	AssistantModel   string        `env:"OPENAI_MODEL" envDefault:"gpt-4o"`
	AssistantTimeout time.Duration `env:"ASSISTANT_TIMEOUT" envDefault:"60s"`
}

var _ AssistantConfig = Assistant{}

func (a Assistant) GetOpenAIAPIKey() string {
	return a.OpenAIAPIKey
}

func (a Assistant) GetOpenAIBaseURL() string {
	return strings.TrimRight(a.OpenAIBaseURL, "/")
}

func (a Assistant) GetAssistantModel() string {
	return a.AssistantModel
}

func (a Assistant) GetAssistantTimeout() time.Duration {
	return a.AssistantTimeout
}
