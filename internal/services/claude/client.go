// Package claude classifies goal text through the Anthropic Messages API.
//
// Focus normalization uses an assistant prefill of "```json" with "```" as
// the stop sequence, so the reply is the bare JSON body. Instructions are
// sent as an ephemeral cache block when caching is enabled.
package claude

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/lisaguthrie/sipdashboard/internal/logging"
)

const (
	defaultMaxTokens  = 1000
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 2
)

// Config captures the settings for one classifier role.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// MaxTokens caps the reply length.
	MaxTokens int
	// Prefill starts the assistant turn; the reply continues from it.
	Prefill string
	// StopSequences end the reply early.
	StopSequences     []string
	CacheInstructions bool
	TimeoutSeconds    int
	// MaxRetries is the SDK retry budget. Negative disables retries.
	MaxRetries int
}

// Client wraps the Anthropic SDK client.
type Client struct {
	cfg    Config
	api    anthropic.Client
	logger *slog.Logger
}

// New constructs a client. The API key is required.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.APIKey == "" {
		return nil, errors.New("claude: api key required")
	}
	if cfg.Model == "" {
		return nil, errors.New("claude: model required")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	retries := cfg.MaxRetries
	switch {
	case retries < 0:
		retries = 0
	case retries == 0:
		retries = defaultMaxRetries
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(retries),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	return &Client{
		cfg:    cfg,
		api:    anthropic.NewClient(opts...),
		logger: logging.NewComponentLogger(logger, "claude"),
	}, nil
}

// Model reports the model the client sends requests to.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Classify sends instructions as the system prompt and user as the single
// user turn, returning the first text block of the reply.
func (c *Client) Classify(ctx context.Context, system, user string) (string, error) {
	system = strings.TrimSpace(system)
	user = strings.TrimSpace(user)
	if system == "" || user == "" {
		return "", errors.New("claude classify: instructions and user message required")
	}
	instructions := anthropic.TextBlockParam{Text: system}
	if c.cfg.CacheInstructions {
		instructions.CacheControl = anthropic.NewCacheControlEphemeralParam()
	}
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
	}
	if c.cfg.Prefill != "" {
		messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(c.cfg.Prefill)))
	}
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.cfg.Model),
		MaxTokens:   int64(c.cfg.MaxTokens),
		System:      []anthropic.TextBlockParam{instructions},
		Messages:    messages,
		Temperature: anthropic.Float(0),
	}
	if len(c.cfg.StopSequences) > 0 {
		params.StopSequences = c.cfg.StopSequences
	}

	message, err := c.api.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude classify: %w", err)
	}
	c.logUsage(ctx, message.Usage)
	for _, block := range message.Content {
		if block.Type == "text" {
			if text := strings.TrimSpace(block.Text); text != "" {
				return text, nil
			}
		}
	}
	return "", fmt.Errorf("claude classify: no text content (stop_reason=%s)", message.StopReason)
}

// HealthCheck sends a one-token request to verify the key and model.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	if err != nil {
		return fmt.Errorf("claude health: %w", err)
	}
	return nil
}

func (c *Client) logUsage(ctx context.Context, usage anthropic.Usage) {
	logger := logging.WithContext(ctx, c.logger)
	if usage.CacheCreationInputTokens > 0 {
		logger.Debug("instruction cache created", logging.Int("tokens", int(usage.CacheCreationInputTokens)))
	}
	if usage.CacheReadInputTokens > 0 {
		logger.Debug("instruction cache hit", logging.Int("tokens", int(usage.CacheReadInputTokens)))
	}
}
