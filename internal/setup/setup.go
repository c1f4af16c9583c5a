// Package setup prepares the development environment.
//
// It is the Go port of the repository's old setup shell script: parse two
// flags, then hand the requirements manifest to the package installer. The
// installer owns all dependency resolution; re-running is assumed to be
// idempotent per standard installer semantics. There is no rollback — the
// process aborts with the installer's own exit code on any failure.
package setup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"backlogctl/internal/execx"
)

// Usage is printed to stderr for --help and for unrecognized arguments.
const Usage = `usage: backlogctl setup [-d|--debug] [-h|--help]

Install the development requirements into the active environment.

  -d, --debug   trace each command before it runs
  -h, --help    show this message and exit
`

// RequirementsFile is the manifest name, resolved next to the executable.
const RequirementsFile = "requirements-dev.txt"

// Exit codes for the three terminal outcomes that do not reach the
// installer. Once the installer runs, its exit code is the process's.
const (
	ExitOK         = 0
	ExitStartError = 1
	ExitUsageError = 2
)

// Options carries the injection points; zero values give production
// behavior.
type Options struct {
	// Installer is the package installer binary ("" = pip3).
	Installer string

	// NewRunner builds the command runner once the debug flag is known
	// (nil = execx.Executor with tracing wired to Stderr).
	NewRunner func(trace bool) execx.Runner

	// Executable reports the running binary's path (nil = os.Executable).
	// The manifest is resolved relative to its directory, never to the
	// caller's working directory.
	Executable func() (string, error)

	// Stderr receives usage text and diagnostics (nil = os.Stderr).
	Stderr io.Writer
}

// Run parses args and performs the setup. It returns the process exit code:
// 0 after --help or a successful install, 2 for an unrecognized argument,
// and otherwise whatever the installer exited with.
func Run(ctx context.Context, args []string, opts Options) int {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	debug := false
	for _, arg := range args {
		switch arg {
		case "-d", "--debug":
			debug = true
		case "-h", "--help":
			fmt.Fprint(stderr, Usage)
			return ExitOK
		default:
			fmt.Fprintf(stderr, "Unknown argument: %s\n", arg)
			fmt.Fprint(stderr, Usage)
			return ExitUsageError
		}
	}

	executable := opts.Executable
	if executable == nil {
		executable = os.Executable
	}
	self, err := executable()
	if err != nil {
		fmt.Fprintf(stderr, "resolving executable path: %v\n", err)
		return ExitStartError
	}
	manifest := filepath.Join(filepath.Dir(self), RequirementsFile)

	installer := opts.Installer
	if installer == "" {
		installer = "pip3"
	}

	newRunner := opts.NewRunner
	if newRunner == nil {
		newRunner = func(trace bool) execx.Runner {
			return &execx.Executor{Trace: trace, TraceWriter: stderr}
		}
	}
	runner := newRunner(debug)

	code, err := runner.Run(ctx, execx.Command{
		Name: installer,
		Args: []string{"install", "-r", manifest},
	})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return ExitStartError
	}
	return code
}
