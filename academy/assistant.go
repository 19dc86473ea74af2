package academy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	errs "github.com/sgcombinator/web/internal/errors"
)

const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant

	DefaultModel   = openai.GPT4o
	DefaultTimeout = 60 * time.Second

	temperature = 0.7
	maxTokens   = 500
)

var (
	// ErrInvalidConversation is returned when the last message is not from the user.
	ErrInvalidConversation = fmt.Errorf("academy: invalid message format: %w", errs.ErrInvalidRequest)
	// ErrUnavailable wraps failures talking to the model provider.
	ErrUnavailable = fmt.Errorf("academy assistant: %w", errs.ErrUpstreamUnavailable)
)

// Message is one turn of the conversation as the browser sends it.
type Message struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required,max=8000"`
}

// ValidateConversation requires a non-empty conversation ending with a user turn.
func ValidateConversation(messages []Message) error {
	if len(messages) == 0 || messages[len(messages)-1].Role != RoleUser {
		return ErrInvalidConversation
	}
	return nil
}

// Reply is a streamed answer. Next returns io.EOF once the answer is complete.
type Reply interface {
	Next() (string, error)
	Close() error
}

type Config struct {
	APIKey string
	// BaseURL overrides the OpenAI API URL, e.g. for a compatible gateway.
	BaseURL string
	Model   string
	Timeout time.Duration

	HTTPClient *http.Client
}

// Assistant answers Academy questions with an OpenAI chat model.
type Assistant struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func New(cfg Config) (*Assistant, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("academy: api key is required")
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}

	a := &Assistant{
		client:  openai.NewClientWithConfig(oc),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
	if a.model == "" {
		a.model = DefaultModel
	}
	if a.timeout <= 0 {
		a.timeout = DefaultTimeout
	}
	return a, nil
}

// Stream starts a completion for the conversation, grounded on the course advice
// matching the latest question. Client supplied system turns are dropped.
func (a *Assistant) Stream(ctx context.Context, messages []Message) (Reply, error) {
	if err := ValidateConversation(messages); err != nil {
		return nil, err
	}

	question := messages[len(messages)-1].Content
	req := openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stream:      true,
		Messages: []openai.ChatCompletionMessage{
			{Role: RoleSystem, Content: SystemPrompt(RelevantAdvice(question))},
		},
	}
	for _, m := range messages {
		if m.Role == RoleSystem {
			continue
		}
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	stream, err := a.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return &streamReply{stream: stream, cancel: cancel}, nil
}

type streamReply struct {
	stream *openai.ChatCompletionStream
	cancel context.CancelFunc
}

func (r *streamReply) Next() (string, error) {
	for {
		resp, err := r.stream.Recv()
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
			continue
		}
		return resp.Choices[0].Delta.Content, nil
	}
}

func (r *streamReply) Close() error {
	r.stream.Close()
	r.cancel()
	return nil
}
