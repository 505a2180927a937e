package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultEndpoint = "https://openrouter.ai/api/v1/chat/completions"
	defaultTimeout  = 15 * time.Second
)

// Config holds the OpenRouter connection and request settings.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
	// MaxTokens caps the reply length. Zero leaves it to the provider.
	MaxTokens int
	// CacheInstructions marks the system message as a cacheable prefix.
	CacheInstructions bool
	// JSONMode asks the provider for a json_object response.
	JSONMode bool
}

// Client sends classification prompts to an OpenAI-compatible chat
// completions endpoint.
type Client struct {
	cfg   Config
	http  *http.Client
	retry retryPolicy
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithRetryMaxAttempts sets how many times a request is tried in total.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) { c.retry.attempts = attempts }
}

// WithRetryBackoff sets the first retry delay and the ceiling it doubles to.
func WithRetryBackoff(base, ceiling time.Duration) Option {
	return func(c *Client) { c.retry.base, c.retry.ceiling = base, ceiling }
}

// WithSleeper replaces the timer used between attempts.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(c *Client) { c.retry.sleeper = sleep }
}

// NewClient builds a client. An empty BaseURL targets OpenRouter.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.Referer = strings.TrimSpace(cfg.Referer)
	cfg.Title = strings.TrimSpace(cfg.Title)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultEndpoint
	}
	cfg.MaxTokens = max(cfg.MaxTokens, 0)

	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	c := &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: timeout},
		retry: defaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model reports the model the client sends requests to.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Classify sends fixed instructions and one user message and returns the
// trimmed text of the reply.
func (c *Client) Classify(ctx context.Context, system, user string) (string, error) {
	system, user = strings.TrimSpace(system), strings.TrimSpace(user)
	switch {
	case system == "":
		return "", errors.New("llm classify: instructions required")
	case user == "":
		return "", errors.New("llm classify: user message required")
	case c.cfg.APIKey == "":
		return "", errors.New("llm classify: api key required")
	}
	req := chatRequest{
		Model:     c.cfg.Model,
		Messages:  []chatMessage{c.instructions(system), {Role: "user", Content: user}},
		MaxTokens: c.cfg.MaxTokens,
	}
	if c.cfg.JSONMode {
		req.ResponseFormat = jsonObjectFormat
	}
	return c.complete(ctx, "llm classify", req)
}

// HealthCheck asks for a fixed JSON reply to prove the key and model work.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("llm health: api key required")
	}
	reply, err := c.complete(ctx, "llm health", chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: "You must respond with JSON only."},
			{Role: "user", Content: `Respond with {"ok":true}`},
		},
		ResponseFormat: jsonObjectFormat,
	})
	if err != nil {
		return err
	}
	var ack struct {
		OK bool `json:"ok"`
	}
	if err := DecodeJSON(reply, &ack); err != nil {
		return fmt.Errorf("llm health: parse payload: %w", err)
	}
	if !ack.OK {
		return errors.New("llm health: unexpected response")
	}
	return nil
}

func (c *Client) instructions(text string) chatMessage {
	if !c.cfg.CacheInstructions {
		return chatMessage{Role: "system", Content: text}
	}
	return chatMessage{Role: "system", Content: []contentPart{{
		Type:         "text",
		Text:         text,
		CacheControl: &cacheControl{Type: "ephemeral"},
	}}}
}

func (c *Client) complete(ctx context.Context, op string, req chatRequest) (string, error) {
	reply, attempts, err := c.retry.run(ctx, func() (string, error) {
		return c.send(ctx, op, req)
	})
	if err != nil && attempts > 1 {
		return "", fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, err)
	}
	return reply, err
}
