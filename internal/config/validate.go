package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDocuments(); err != nil {
		return err
	}
	if err := c.validateExtraction(); err != nil {
		return err
	}
	if err := c.validateClassifier(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.IndexFile) == "" {
		return errors.New("paths.index_file must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	return nil
}

func (c *Config) validateDocuments() error {
	for _, section := range []struct {
		name  string
		paths map[string]string
	}{
		{"documents.grids", c.Documents.Grids},
		{"documents.pdfs", c.Documents.PDFs},
	} {
		for bucket := range section.paths {
			if !slices.Contains(Buckets, bucket) {
				return fmt.Errorf("%s: unknown bucket %q (want one of %s)", section.name, bucket, strings.Join(Buckets, ", "))
			}
		}
	}
	return nil
}

func (c *Config) validateExtraction() error {
	if c.Extraction.MaxGoals < 1 || c.Extraction.MaxGoals > defaultMaxGoals {
		return fmt.Errorf("extraction.max_goals must be between 1 and %d", defaultMaxGoals)
	}
	if c.Extraction.Workers < 1 {
		return errors.New("extraction.workers must be positive")
	}
	if len(c.Extraction.SentinelLabels) == 0 {
		return errors.New("extraction.sentinel_labels must include at least one label")
	}
	return nil
}

func (c *Config) validateClassifier() error {
	switch c.Classifier.Provider {
	case ProviderAnthropic, ProviderOpenRouter, ProviderGemini, ProviderOffline:
	default:
		return fmt.Errorf("classifier.provider: unsupported value %q (want anthropic, openrouter, gemini, or offline)", c.Classifier.Provider)
	}
	if c.Classifier.TimeoutSeconds <= 0 {
		return errors.New("classifier.timeout_seconds must be positive")
	}
	if c.Classifier.MaxConcurrent <= 0 {
		return errors.New("classifier.max_concurrent must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

// NetworkReady reports whether the classifier can make network calls, and why not.
func (c *Config) NetworkReady() (bool, string) {
	switch {
	case !c.Classifier.AllowNetwork:
		return false, "classifier.allow_network is false"
	case c.Classifier.Provider == ProviderOffline:
		return false, "classifier.provider is offline"
	case c.Classifier.APIKey == "":
		return false, fmt.Sprintf("no API key for %s; set classifier.api_key or %s", c.Classifier.Provider, strings.Join(APIKeyEnv(c.Classifier.Provider), " / "))
	}
	return true, ""
}

// APIKeyEnv lists the environment variables consulted for a provider's API key.
func APIKeyEnv(provider string) []string {
	switch provider {
	case ProviderAnthropic:
		return []string{"ANTHROPIC_API_KEY"}
	case ProviderOpenRouter:
		return []string{"OPENROUTER_API_KEY"}
	case ProviderGemini:
		return []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	default:
		return nil
	}
}
