// Package batch runs one extraction batch over a set of Matroska files.
//
// For every input file the Orchestrator identifies the container, applies
// the selectors, and invokes the extraction drivers in a fixed order:
// tracks, attachments, chapters, timecodes. Files are processed strictly one
// after another. Per-file problems are recorded on the FileReport and never
// abort the batch; only input resolution failures, a held batch lock, and
// context cancellation end a run early.
//
// Outcomes are optionally persisted through a Recorder (the SQLite journal in
// production) and surfaced to the terminal through a Progress reporter.
package batch
