package config

import (
	"strings"
	"time"
)

type ChatConfig interface {
	GetChatBaseURL() string
	GetChatTimeout() time.Duration
	GetChatSanityTimeout() time.Duration
}

// Chat configures the external AI consultant service the chat endpoints proxy to
type Chat struct {
	ChatBaseURL       string        `env:"CHAT_BASE_URL"`
	ChatTimeout       time.Duration `env:"CHAT_TIMEOUT" envDefault:"15s"`
	ChatSanityTimeout time.Duration `env:"CHAT_SANITY_TIMEOUT" envDefault:"5s"`
}

var _ ChatConfig = Chat{}

func (c Chat) GetChatBaseURL() string {
	return strings.TrimRight(c.ChatBaseURL, "/")
}

func (c Chat) GetChatTimeout() time.Duration {
	return c.ChatTimeout
}

func (c Chat) GetChatSanityTimeout() time.Duration {
	return c.ChatSanityTimeout
}

func (c *Chat) sanitize() {
	if c.ChatTimeout <= 0 {
		c.ChatTimeout = 15 * time.Second
	}
	if c.ChatSanityTimeout <= 0 {
		c.ChatSanityTimeout = 5 * time.Second
	}
}
