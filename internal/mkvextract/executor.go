package mkvextract

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// maxLineBytes bounds a single output line; chapter XML can be long.
const maxLineBytes = 4 * 1024 * 1024

// Executor abstracts command execution for testability.
//
// Run starts binary, feeds every line of its combined stdout and stderr to
// onLine on the calling goroutine, and returns once the stream is exhausted
// and the process has exited.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onLine func(string)) error
}

// ExitError reports a non-zero exit status from the tool.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// exitCode extracts the exit status from err, or -1 when err is not an exit.
func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	reader, writer := io.Pipe()
	cmd.Stdout = writer
	cmd.Stderr = writer
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		_ = writer.Close()
		waitErr <- err
	}()

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	scanner.Split(scanTerminalLines)
	for scanner.Scan() {
		if onLine != nil {
			onLine(scanner.Text())
		}
	}
	scanErr := scanner.Err()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		_, _ = io.Copy(io.Discard, reader)
	}

	err := <-waitErr
	if scanErr != nil {
		return fmt.Errorf("scan output: %w", scanErr)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}

// scanTerminalLines splits on \n, \r\n, and bare \r. mkvextract redraws its
// progress line with carriage returns, so each redraw becomes its own line.
func scanTerminalLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\r' {
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i], nil
				}
				return i + 1, data[:i], nil
			}
			if !atEOF {
				// Need one more byte to tell \r from \r\n.
				return 0, nil, nil
			}
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
