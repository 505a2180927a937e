// Package services defines shared utilities consumed by the extraction
// pipeline and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, unit names, and index buckets for
//     logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent pipeline outcomes (fatal, skip, partial, recovered).
//
// Provider clients for the classifier live in subpackages (llm, claude,
// gemini) so the core packages never import an SDK directly.
package services
