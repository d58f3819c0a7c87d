// Package deps locates the external MKVToolNix binaries mkvbatch drives.
package deps

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrToolNotFound reports that a required binary is not on PATH.
var ErrToolNotFound = errors.New("required tool not found")

// versionTimeout bounds the --version probe of a located binary.
const versionTimeout = 5 * time.Second

// Requirement defines an external dependency mkvbatch relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Path        string
	Version     string
	Detail      string
}

// ToolRequirements returns the MKVToolNix binaries for the configured names.
func ToolRequirements(mkvmerge, mkvextract string) []Requirement {
	return []Requirement{
		{
			Name:        "mkvmerge",
			Command:     mkvmerge,
			Description: "Identifies tracks, attachments, and chapters",
		},
		{
			Name:        "mkvextract",
			Command:     mkvextract,
			Description: "Extracts tracks, attachments, chapters, and timecodes",
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Path = path
		results = append(results, status)
	}
	return results
}

// Require checks every non-optional requirement and returns an error wrapping
// ErrToolNotFound that names all missing binaries.
func Require(requirements []Requirement) ([]Status, error) {
	statuses := CheckBinaries(requirements)
	var missing []string
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, fmt.Sprintf("%s (%s)", status.Name, status.Detail))
		}
	}
	if len(missing) > 0 {
		return statuses, fmt.Errorf("%w: %s", ErrToolNotFound, strings.Join(missing, ", "))
	}
	return statuses, nil
}

// ProbeVersions fills Version for every available status by running
// "<binary> --version" and keeping the first output line.
func ProbeVersions(ctx context.Context, statuses []Status) {
	for i := range statuses {
		if !statuses[i].Available {
			continue
		}
		statuses[i].Version = probeVersion(ctx, statuses[i].Path)
	}
}

func probeVersion(ctx context.Context, path string) string {
	probeCtx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(probeCtx, path, "--version").Output() //nolint:gosec
	if err != nil && len(out) == 0 {
		return ""
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}
