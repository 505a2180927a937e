package classifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lisaguthrie/sipdashboard/internal/config"
	"github.com/lisaguthrie/sipdashboard/internal/logging"
	"github.com/lisaguthrie/sipdashboard/internal/normalize"
	"github.com/lisaguthrie/sipdashboard/internal/services"
	"github.com/lisaguthrie/sipdashboard/internal/services/claude"
	"github.com/lisaguthrie/sipdashboard/internal/services/gemini"
	"github.com/lisaguthrie/sipdashboard/internal/services/llm"
)

const (
	jsonPrefill = "```json"
	fence       = "```"
)

// HealthChecker is implemented by provider clients that can verify their
// credentials with a cheap request.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Set holds the classifiers for the two normalization roles.
type Set struct {
	Focus   normalize.Classifier
	Summary normalize.Classifier

	Provider     string
	FocusModel   string
	SummaryModel string
	// Online is false when both roles are Offline stubs; Reason says why.
	Online bool
	Reason string

	health HealthChecker
}

// HealthCheck verifies the focus provider's credentials. Offline sets have
// nothing to check and return an error carrying the offline reason.
func (s Set) HealthCheck(ctx context.Context) error {
	if !s.Online || s.health == nil {
		return services.Wrap(services.ErrConfiguration, "", "classifier health", s.Reason, nil)
	}
	return s.health.HealthCheck(ctx)
}

// New builds the classifier set described by cfg. Network readiness is taken
// from cfg.NetworkReady; an offline configuration is not an error.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Set, error) {
	cl := cfg.Classifier
	logger = logging.NewComponentLogger(logger, "classifier")
	if ready, reason := cfg.NetworkReady(); !ready {
		logger.Info("classifier offline",
			logging.Args(logging.DecisionAttrs("classifier_mode", "offline", reason)...)...)
		off := Offline{Reason: reason}
		return Set{Focus: off, Summary: off, Provider: cl.Provider, Reason: reason}, nil
	}

	var (
		focus, summary normalize.Classifier
		health         HealthChecker
	)
	switch cl.Provider {
	case config.ProviderAnthropic:
		f, err := claude.New(claude.Config{
			APIKey:            cl.APIKey,
			BaseURL:           cl.BaseURL,
			Model:             cl.Model,
			MaxTokens:         cl.MaxTokens,
			Prefill:           jsonPrefill,
			StopSequences:     []string{fence},
			CacheInstructions: cl.CacheInstructions,
			TimeoutSeconds:    cl.TimeoutSeconds,
		}, logger)
		if err != nil {
			return Set{}, configError(err)
		}
		s, err := claude.New(claude.Config{
			APIKey:            cl.APIKey,
			BaseURL:           cl.BaseURL,
			Model:             cl.SummaryModel,
			MaxTokens:         cl.SummaryMaxTokens,
			CacheInstructions: cl.CacheInstructions,
			TimeoutSeconds:    cl.TimeoutSeconds,
		}, logger)
		if err != nil {
			return Set{}, configError(err)
		}
		focus, summary, health = f, s, f
	case config.ProviderOpenRouter:
		base := llm.Config{
			APIKey:            cl.APIKey,
			BaseURL:           cl.BaseURL,
			Referer:           cl.Referer,
			Title:             cl.Title,
			TimeoutSeconds:    cl.TimeoutSeconds,
			CacheInstructions: cl.CacheInstructions,
		}
		fc := base
		fc.Model, fc.MaxTokens, fc.JSONMode = cl.Model, cl.MaxTokens, true
		sc := base
		sc.Model, sc.MaxTokens = cl.SummaryModel, cl.SummaryMaxTokens
		f := llm.NewClient(fc)
		focus, summary, health = f, llm.NewClient(sc), f
	case config.ProviderGemini:
		f, err := gemini.New(ctx, gemini.Config{
			APIKey:         cl.APIKey,
			BaseURL:        cl.BaseURL,
			Model:          cl.Model,
			MaxTokens:      cl.MaxTokens,
			JSONMode:       true,
			TimeoutSeconds: cl.TimeoutSeconds,
		}, logger)
		if err != nil {
			return Set{}, configError(err)
		}
		s, err := gemini.New(ctx, gemini.Config{
			APIKey:         cl.APIKey,
			BaseURL:        cl.BaseURL,
			Model:          cl.SummaryModel,
			MaxTokens:      cl.SummaryMaxTokens,
			TimeoutSeconds: cl.TimeoutSeconds,
		}, logger)
		if err != nil {
			return Set{}, configError(err)
		}
		focus, summary, health = f, s, f
	default:
		return Set{}, configError(fmt.Errorf("unsupported provider %q", cl.Provider))
	}

	slots := NewLimiter(cl.MaxConcurrent)
	timeout := cfg.ClassifierTimeout()
	logger.Info("classifier online",
		logging.String("provider", cl.Provider),
		logging.String("model", cl.Model),
		logging.String("summary_model", cl.SummaryModel),
		logging.Int("max_concurrent", cl.MaxConcurrent),
		logging.Duration("timeout", timeout),
	)
	return Set{
		Focus:        Bound(focus, slots, timeout),
		Summary:      Bound(summary, slots, timeout),
		Provider:     cl.Provider,
		FocusModel:   cl.Model,
		SummaryModel: cl.SummaryModel,
		Online:       true,
		health:       health,
	}, nil
}

func configError(err error) error {
	return services.Wrap(services.ErrConfiguration, "", "classifier", "build provider client", err)
}
