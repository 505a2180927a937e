package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeDocuments(); err != nil {
		return err
	}
	c.normalizeExtraction()
	c.normalizeClassifier()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.IndexFile) == "" {
		c.Paths.IndexFile = defaultIndexFile
	}
	if c.Paths.IndexFile, err = ExpandPath(c.Paths.IndexFile); err != nil {
		return fmt.Errorf("paths.index_file: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = ExpandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = ExpandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDocuments() error {
	grids, err := normalizeBucketPaths("documents.grids", c.Documents.Grids)
	if err != nil {
		return err
	}
	pdfs, err := normalizeBucketPaths("documents.pdfs", c.Documents.PDFs)
	if err != nil {
		return err
	}
	c.Documents.Grids = grids
	c.Documents.PDFs = pdfs
	return nil
}

func normalizeBucketPaths(section string, in map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(in))
	for bucket, path := range in {
		key := strings.ToLower(strings.TrimSpace(bucket))
		path = strings.TrimSpace(path)
		if key == "" || path == "" {
			continue
		}
		expanded, err := ExpandPath(path)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", section, key, err)
		}
		out[key] = expanded
	}
	return out, nil
}

func (c *Config) normalizeExtraction() {
	if c.Extraction.MaxGoals <= 0 {
		c.Extraction.MaxGoals = defaultMaxGoals
	}
	if c.Extraction.Workers <= 0 {
		c.Extraction.Workers = defaultWorkers
	}
	c.Extraction.SentinelLabels = normalizeLabels(c.Extraction.SentinelLabels, defaultSentinelLabels())
	c.Extraction.StartMarkers = normalizeLabels(c.Extraction.StartMarkers, defaultStartMarkers())
	c.Extraction.EndMarkers = normalizeLabels(c.Extraction.EndMarkers, nil)
}

// normalizeLabels lowercases, trims, and dedupes match strings. An empty
// result falls back to defaults.
func normalizeLabels(values, defaults []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := strings.Join(strings.Fields(strings.ToLower(value)), " ")
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	if len(out) == 0 && defaults != nil {
		return defaults
	}
	return out
}

func (c *Config) normalizeClassifier() {
	cl := &c.Classifier
	cl.Provider = strings.ToLower(strings.TrimSpace(cl.Provider))
	if cl.Provider == "" {
		cl.Provider = defaultProvider
	}
	cl.APIKey = strings.TrimSpace(cl.APIKey)
	if cl.APIKey == "" {
		cl.APIKey = envAPIKey(cl.Provider)
	}
	cl.BaseURL = strings.TrimSpace(cl.BaseURL)
	if cl.BaseURL == "" && cl.Provider == ProviderOpenRouter {
		cl.BaseURL = defaultOpenRouterBaseURL
	}
	cl.Model = strings.TrimSpace(cl.Model)
	if cl.Model == "" || (cl.Model == defaultAnthropicModel && cl.Provider != ProviderAnthropic) {
		cl.Model = defaultModel(cl.Provider)
	}
	cl.SummaryModel = strings.TrimSpace(cl.SummaryModel)
	if cl.SummaryModel == "" {
		cl.SummaryModel = cl.Model
	}
	cl.Referer = strings.TrimSpace(cl.Referer)
	if cl.Referer == "" {
		cl.Referer = defaultClassifierReferer
	}
	cl.Title = strings.TrimSpace(cl.Title)
	if cl.Title == "" {
		cl.Title = defaultClassifierTitle
	}
	if cl.TimeoutSeconds <= 0 {
		cl.TimeoutSeconds = defaultClassifierTimeout
	}
	if cl.MaxConcurrent <= 0 {
		cl.MaxConcurrent = defaultClassifierConcurrent
	}
	if cl.MaxTokens <= 0 {
		cl.MaxTokens = defaultClassifierMaxTokens
	}
	if cl.SummaryMaxTokens <= 0 {
		cl.SummaryMaxTokens = defaultSummaryMaxTokens
	}
}

func defaultModel(provider string) string {
	switch provider {
	case ProviderOpenRouter:
		return defaultOpenRouterModel
	case ProviderGemini:
		return defaultGeminiModel
	default:
		return defaultAnthropicModel
	}
}

func envAPIKey(provider string) string {
	for _, name := range APIKeyEnv(provider) {
		if value, ok := os.LookupEnv(name); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "json":
	default:
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
