// Package cli wires the backlogctl commands and maps their outcomes to
// process exit codes.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// Exit codes for outcomes the CLI decides itself. Commands that wrap
// external tools pass the tool's own exit code through instead.
const (
	ExitSuccess           = 0
	ExitFailure           = 1
	ExitInvalidInvocation = 2
)

// ExitError carries a specific exit code out of a command without any
// additional diagnostics; whatever needed printing has been printed.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	return execute(ctx, args, os.Stdout, os.Stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return ExitFailure
}
