// Package main hosts the subtitler CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the whole pipeline or a single stage
// against the configured data layout, reports past runs from the ledger,
// checks the environment, and scaffolds configuration. It centralizes
// configuration resolution, logger construction, and ledger access so
// subcommands only decide what to run and how to present the result.
package main
