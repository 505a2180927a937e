// Package main hosts the sipdash CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into extraction
// runs, goal store queries, normalization cache maintenance, unit index
// tooling, and configuration scaffolding. It centralizes configuration
// resolution and structured logging setup so subcommands can focus on output.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
