// Package gemini classifies goal text through the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/lisaguthrie/sipdashboard/internal/logging"
)

const defaultTimeout = 30 * time.Second

// Config captures the settings for one classifier role.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	// JSONMode requests an application/json response.
	JSONMode       bool
	StopSequences  []string
	TimeoutSeconds int
}

// Client wraps a genai client bound to one model.
type Client struct {
	cfg    Config
	api    *genai.Client
	logger *slog.Logger
}

// New constructs a client against the Gemini API backend.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key required")
	}
	if cfg.Model == "" {
		return nil, errors.New("gemini: model required")
	}
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	clientCfg := &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{Timeout: &timeout},
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.HTTPOptions.BaseURL = base
	}
	api, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{
		cfg:    cfg,
		api:    api,
		logger: logging.NewComponentLogger(logger, "gemini"),
	}, nil
}

// Model reports the model the client sends requests to.
func (c *Client) Model() string {
	return c.cfg.Model
}

// Classify sends instructions as the system instruction and returns the
// reply text.
func (c *Client) Classify(ctx context.Context, system, user string) (string, error) {
	system = strings.TrimSpace(system)
	user = strings.TrimSpace(user)
	if system == "" || user == "" {
		return "", errors.New("gemini classify: instructions and user message required")
	}
	gen := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
	}
	if c.cfg.MaxTokens > 0 {
		gen.MaxOutputTokens = int32(c.cfg.MaxTokens)
	}
	if c.cfg.JSONMode {
		gen.ResponseMIMEType = "application/json"
	}
	if len(c.cfg.StopSequences) > 0 {
		gen.StopSequences = c.cfg.StopSequences
	}

	resp, err := c.api.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(user), gen)
	if err != nil {
		return "", fmt.Errorf("gemini classify: %w", err)
	}
	if resp.UsageMetadata != nil && resp.UsageMetadata.CachedContentTokenCount > 0 {
		logging.WithContext(ctx, c.logger).Debug("instruction cache hit",
			logging.Int("tokens", int(resp.UsageMetadata.CachedContentTokenCount)))
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("gemini classify: empty response")
	}
	return text, nil
}

// HealthCheck issues a tiny request to verify the key and model.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.api.Models.GenerateContent(ctx, c.cfg.Model, genai.Text("ping"), &genai.GenerateContentConfig{
		MaxOutputTokens: 1,
	})
	if err != nil {
		return fmt.Errorf("gemini health: %w", err)
	}
	return nil
}
