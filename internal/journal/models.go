package journal

import "time"

// RunStatus is the lifecycle state of a batch run.
type RunStatus string

const (
	RunRunning     RunStatus = "running"
	RunCompleted   RunStatus = "completed"
	RunInterrupted RunStatus = "interrupted"
	RunFailed      RunStatus = "failed"
)

// Run summarizes one batch invocation.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     RunStatus
	Files      int
	Succeeded  int
	Failed     int
	Args       string
}

// Entry records the terminal state of one selected asset.
type Entry struct {
	RunID      string
	File       string
	Category   string
	Asset      string
	State      string
	Path       string
	Error      string
	RecordedAt time.Time
}

// Summary is written when a run finishes.
type Summary struct {
	Status    RunStatus
	Files     int
	Succeeded int
	Failed    int
}
