// Package classifier builds the focus and summary classifiers the normalizer
// calls, from the [classifier] configuration section.
//
// Three providers are supported: anthropic (default, through the official
// SDK), openrouter (through the retrying chat client in services/llm), and
// gemini (through genai). Every provider client is wrapped in Bounded, which
// applies the per-call timeout and the process-wide concurrency limit. When
// the network is not allowed or no key is configured, both roles are Offline
// stubs and the normalizer falls back to cached or default values.
package classifier
