// Package config loads, normalizes, and validates sipdash configuration.
//
// Configuration is TOML, read from --config, ./sipdash.toml, or
// ~/.config/sipdash/config.toml in that order. Defaults come from Default, paths
// are expanded to absolute form, and classifier API keys fall back to the
// provider's conventional environment variable. CreateSample writes the
// embedded sample used by `sipdash config init`.
package config
