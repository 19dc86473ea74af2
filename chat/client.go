// Package chat is the client for the AI consultant backend.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	errs "github.com/sgcombinator/web/internal/errors"
)

var (
	ErrTimeout  = fmt.Errorf("chat backend: %w", errs.ErrUpstreamTimeout)
	ErrNetwork  = fmt.Errorf("chat backend: %w", errs.ErrUpstreamUnavailable)
	ErrFormat   = fmt.Errorf("chat backend: invalid response format: %w", errs.ErrUpstreamResponse)
	ErrUpstream = fmt.Errorf("chat backend: %w", errs.ErrUpstreamResponse)
)

// Error codes returned to the browser.
const (
	CodeMissingPrompt = "MISSING_PROMPT"
	CodeTimeout       = "TIMEOUT_ERROR"
	CodeNetwork       = "NETWORK_ERROR"
	CodeFormat        = "FORMAT_ERROR"
	CodeUnknown       = "UNKNOWN_ERROR"
)

const maxResponseBytes = 4 << 20

// ErrorCode maps a client error onto the code reported to the browser. Non-2xx
// answers from the backend are reported as unknown.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return CodeTimeout
	case errors.Is(err, ErrNetwork):
		return CodeNetwork
	case errors.Is(err, ErrFormat):
		return CodeFormat
	default:
		return CodeUnknown
	}
}

// Client calls the consultant backend.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	chatTimeout   time.Duration
	sanityTimeout time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

func WithTimeouts(chat, sanity time.Duration) Option {
	return func(cl *Client) {
		if chat > 0 {
			cl.chatTimeout = chat
		}
		if sanity > 0 {
			cl.sanityTimeout = sanity
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{},
		chatTimeout:   15 * time.Second,
		sanityTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatRequest struct {
	Prompt string `json:"prompt"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// Chat sends prompt to /invoke_chat and returns the backend's answer.
func (c *Client) Chat(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	var out chatResponse
	if err := c.do(ctx, c.chatTimeout, http.MethodPost, "/invoke_chat", body, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Response) == "" {
		return "", ErrFormat
	}
	return out.Response, nil
}

// SanityCheck calls /sanity_check and returns its JSON body as is.
func (c *Client) SanityCheck(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, c.sanityTimeout, http.MethodGet, "/sanity_check", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, timeout time.Duration, method, path string, body []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return nil
}
