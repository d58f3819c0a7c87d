package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cmd := newRootCommand()
	err := cmd.ExecuteContext(ctx)
	stop()
	os.Exit(exitStatus(err, os.Stderr))
}

// exitError carries a process exit status other than the default 1.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// exitStatus reports err on w and maps it to a process exit status.
func exitStatus(err error, w io.Writer) int {
	if err == nil {
		return 0
	}
	code := 1
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		code = exitErr.code
	}
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintln(w, err)
	}
	return code
}
