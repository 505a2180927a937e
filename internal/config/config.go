package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains input and output locations.
type Paths struct {
	IndexFile string `toml:"index_file"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
}

// Documents maps index buckets (elementary, middle, high) to their inputs.
type Documents struct {
	// Grids are page-grid dumps produced by the external table extractor.
	Grids map[string]string `toml:"grids"`
	// PDFs are the source reports, used only to check index page ranges.
	PDFs map[string]string `toml:"pdfs"`
}

// Extraction contains reconciler and assembler settings.
type Extraction struct {
	MaxGoals       int      `toml:"max_goals"`
	Workers        int      `toml:"workers"`
	SentinelLabels []string `toml:"sentinel_labels"`
	StartMarkers   []string `toml:"start_markers"`
	EndMarkers     []string `toml:"end_markers"`
	VerifyUnitName bool     `toml:"verify_unit_name"`
}

// Classifier contains the AI classifier connection and cost-control settings.
type Classifier struct {
	Provider          string `toml:"provider"`
	APIKey            string `toml:"api_key"`
	BaseURL           string `toml:"base_url"`
	Model             string `toml:"model"`
	SummaryModel      string `toml:"summary_model"`
	Referer           string `toml:"referer"`
	Title             string `toml:"title"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	MaxConcurrent     int    `toml:"max_concurrent"`
	AllowNetwork      bool   `toml:"allow_network"`
	CacheInstructions bool   `toml:"cache_instructions"`
	MaxTokens         int    `toml:"max_tokens"`
	SummaryMaxTokens  int    `toml:"summary_max_tokens"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for sipdash.
//
// Configuration sections by subsystem:
//   - Paths: unit index, output directory, run logs
//   - Documents: per-bucket page-grid dumps and source PDFs
//   - Extraction: goal cap, worker count, row label and section marker rules
//   - Classifier: AI provider, models, timeouts, and offline switch
//   - Logging: log format, level, and retention
type Config struct {
	Paths      Paths      `toml:"paths"`
	Documents  Documents  `toml:"documents"`
	Extraction Extraction `toml:"extraction"`
	Classifier Classifier `toml:"classifier"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the per-user configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath(defaultConfigPath)
}

// Load reads the configuration at path, or at the first existing file among
// ./sipdash.toml and the per-user location when path is empty. A missing file
// yields the defaults. It returns the normalized config, the path it resolved
// to and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := locate(path)
	if err != nil {
		return nil, "", false, err
	}
	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

// decodeFile rejects unknown keys so a misspelled setting is not silently
// ignored.
func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func locate(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		exists, err := isFile(expanded)
		return expanded, exists, err
	}

	userPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{projectPath, userPath} {
		if ok, _ := isFile(candidate); ok {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

func isFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat config: %w", err)
	}
	return !info.IsDir(), nil
}

// EnsureDirectories creates the output and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// OutputPath joins name onto the output directory.
func (c *Config) OutputPath(name string) string {
	return filepath.Join(c.Paths.OutputDir, name)
}

// GridPath returns the page-grid dump configured for bucket.
func (c *Config) GridPath(bucket string) (string, bool) {
	path, ok := c.Documents.Grids[strings.ToLower(strings.TrimSpace(bucket))]
	return path, ok && path != ""
}

// PDFPath returns the source PDF configured for bucket.
func (c *Config) PDFPath(bucket string) (string, bool) {
	path, ok := c.Documents.PDFs[strings.ToLower(strings.TrimSpace(bucket))]
	return path, ok && path != ""
}

// ClassifierTimeout returns the per-call classifier timeout.
func (c *Config) ClassifierTimeout() time.Duration {
	return time.Duration(c.Classifier.TimeoutSeconds) * time.Second
}

// ExpandPath resolves a leading ~ to the home directory and returns the
// cleaned absolute path. An empty path stays empty.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", path, err)
	}
	return abs, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
