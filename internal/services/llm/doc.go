// Package llm provides an OpenRouter chat client used as a goal classifier.
//
// The normalizer sends two kinds of prompts through it: focus-group
// normalization (short JSON replies) and strategy summaries (plain text).
// Both go through Client.Classify, which takes fixed instructions and a
// per-goal user message and returns the model's text reply.
//
// # Configuration
//
// Requires api_key and model; base_url, referer, title, timeout, max_tokens,
// and the json/caching switches are optional. Callers that have no key
// should not construct a client at all and run offline instead.
//
// # Instruction Caching
//
// When CacheInstructions is set the system message is sent as a content
// part marked cache_control ephemeral, so providers that support prompt
// caching bill the shared instructions once per cache window.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty replies, and network
// timeouts with exponential backoff (base 1s, max 10s, up to 5 attempts by
// default). Retry-After is honoured. Context cancellation aborts retries
// immediately.
package llm
