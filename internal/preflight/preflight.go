package preflight

import (
	"context"
	"strings"

	"mkvbatch/internal/config"
	"mkvbatch/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, status := range CheckTools(cfg) {
		results = append(results, toolResult(status))
	}

	results = append(results, CheckWritableDirectory("State directory", cfg.Paths.StateDir))
	if strings.TrimSpace(cfg.Paths.LogDir) != "" {
		results = append(results, CheckWritableDirectory("Log directory", cfg.Paths.LogDir))
	}
	if strings.TrimSpace(cfg.Paths.OutputDir) != "" {
		results = append(results, CheckWritableDirectory("Output directory", cfg.Paths.OutputDir))
	}
	return results
}

// CheckTools evaluates the configured MKVToolNix binaries.
func CheckTools(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.ToolRequirements(cfg.Tools.MKVMerge, cfg.Tools.MKVExtract))
}

func toolResult(status deps.Status) Result {
	if status.Available {
		return Result{Name: status.Name, Passed: true, Detail: status.Path}
	}
	return Result{Name: status.Name, Passed: status.Optional, Detail: status.Detail}
}
