// Package mkvextract drives the mkvextract CLI and interprets its output.
//
// One driver exists per asset category (tracks, timecodes, attachments,
// chapters). Each driver resolves output paths for the Marked assets of a
// file, issues a single mkvextract invocation for the whole category, and
// consumes the merged stdout/stderr stream line by line. Progress, error, and
// "written to" lines move assets from Marked to Succeeded or Failed; the
// updated state lives on the shared mkv.FileMetadata so callers observe it
// as soon as a line is processed.
//
// Prefer this package over ad-hoc exec.Command usage so the classification
// rules and the Marked -> terminal transitions stay in one place.
package mkvextract
