// Package config loads, normalizes, and validates mkvbatch configuration data.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment overrides such as MKVBATCH_OUTPUT_DIR
// and MKVBATCH_VERBOSITY. Command-line flags are layered on top by the CLI
// after Load returns.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
