package config

const (
	defaultConfigPath       = "~/.config/sipdash/config.toml"
	projectConfigName       = "sipdash.toml"
	defaultIndexFile        = "school_index.json"
	defaultOutputDir        = "output"
	defaultLogDir           = "~/.local/share/sipdash/logs"
	defaultLogRetentionDays = 30
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"

	defaultMaxGoals = 3
	defaultWorkers  = 4

	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
	ProviderOffline    = "offline"

	defaultProvider             = ProviderAnthropic
	defaultAnthropicModel       = "claude-haiku-4-5"
	defaultOpenRouterModel      = "anthropic/claude-haiku-4.5"
	defaultGeminiModel          = "gemini-2.5-flash-lite"
	defaultOpenRouterBaseURL    = "https://openrouter.ai/api/v1/chat/completions"
	defaultClassifierReferer    = "https://github.com/lisaguthrie/sipdashboard"
	defaultClassifierTitle      = "SIP Dashboard"
	defaultClassifierTimeout    = 30
	defaultClassifierConcurrent = 4
	defaultClassifierMaxTokens  = 100
	defaultSummaryMaxTokens     = 1000
)

// Buckets lists the unit index buckets in processing order.
var Buckets = []string{"elementary", "middle", "high"}

func defaultSentinelLabels() []string {
	return []string{"strategy to engage", "timeline for focus"}
}

func defaultStartMarkers() []string {
	return []string{"continuous improvement priorities"}
}

func defaultEndMarkers() []string {
	return []string{"state assessment participation"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			IndexFile: defaultIndexFile,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Documents: Documents{
			Grids: map[string]string{},
			PDFs:  map[string]string{},
		},
		Extraction: Extraction{
			MaxGoals:       defaultMaxGoals,
			Workers:        defaultWorkers,
			SentinelLabels: defaultSentinelLabels(),
			StartMarkers:   defaultStartMarkers(),
			EndMarkers:     defaultEndMarkers(),
			VerifyUnitName: true,
		},
		Classifier: Classifier{
			Provider:          defaultProvider,
			Model:             defaultAnthropicModel,
			Referer:           defaultClassifierReferer,
			Title:             defaultClassifierTitle,
			TimeoutSeconds:    defaultClassifierTimeout,
			MaxConcurrent:     defaultClassifierConcurrent,
			AllowNetwork:      true,
			CacheInstructions: true,
			MaxTokens:         defaultClassifierMaxTokens,
			SummaryMaxTokens:  defaultSummaryMaxTokens,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
