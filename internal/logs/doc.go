// Package logs reads the mkvbatch log file for `mkvbatch logs`.
//
// Last returns the final N lines with bounded memory; Follow polls for
// appended lines until the context ends and restarts from the top when the
// file is truncated. Format renders the JSON lines written by the file
// handler in the console layout.
package logs
