// Package main hosts the mkvbatch CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into batch
// extraction runs, dependency checks, journal queries, and configuration
// scaffolding. It centralizes configuration resolution and logging setup so
// subcommands stay declarative; the extraction logic lives in internal/batch
// and internal/mkvextract.
package main
