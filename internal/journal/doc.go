// Package journal persists extraction outcomes in a SQLite database.
//
// Every batch run is one row in runs, keyed by the run ID that also tags the
// run's log lines. Each selected asset's terminal state is recorded in
// entries so `mkvbatch history` can show what a previous run produced.
package journal
