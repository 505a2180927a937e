package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/lisaguthrie/sipdashboard/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces an offline config seeded with unique temp directories
// per test. It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.IndexFile = filepath.Join(base, "school_index.json")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Classifier.Provider = config.ProviderOffline
	cfgVal.Classifier.AllowNetwork = false
	cfgVal.Classifier.APIKey = ""
	cfgVal.Extraction.Workers = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithGrid points bucket at a page-grid dump. Relative names resolve under the
// config's temp directory.
func WithGrid(bucket, path string) ConfigOption {
	return func(b *configBuilder) {
		if !filepath.IsAbs(path) {
			path = filepath.Join(b.baseDir, path)
		}
		b.cfg.Documents.Grids[bucket] = path
	}
}

// WithPDF points bucket at a source PDF.
func WithPDF(bucket, path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Documents.PDFs[bucket] = path
	}
}

// WithNetwork enables the classifier with the given provider and key.
func WithNetwork(provider, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Classifier.Provider = provider
		b.cfg.Classifier.APIKey = apiKey
		b.cfg.Classifier.AllowNetwork = true
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.OutputDir)
}
