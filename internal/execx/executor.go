// Package execx runs external commands on behalf of the CLI.
//
// Every invocation in this repository shares the same semantics: the child
// process inherits the parent environment plus any extra variables, its
// stdout/stderr pass through verbatim, and its exit status is surfaced
// unchanged. No output is transformed, retried, or reinterpreted.
package execx

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

// Command describes a single external invocation.
type Command struct {
	// Name is the program to run, resolved via PATH.
	Name string

	// Args are the program arguments, in order.
	Args []string

	// Dir is the working directory ("" = inherit).
	Dir string

	// Env holds extra KEY=VALUE pairs appended to the inherited environment.
	Env []string

	// Stdout and Stderr receive the child's output. Nil writers default to
	// the parent's own streams so tool diagnostics pass through untouched.
	Stdout io.Writer
	Stderr io.Writer

	// Stdin is the child's input (nil = none).
	Stdin io.Reader
}

// Runner executes commands. The interface exists so command-running code can
// be exercised in tests without spawning processes.
type Runner interface {
	// Run executes the command and returns its exit code. A non-nil error
	// means the command could not be run at all (e.g. binary not found);
	// in that case the exit code is -1.
	Run(ctx context.Context, c Command) (int, error)
}

// Executor is the production Runner.
type Executor struct {
	// Trace echoes each command to TraceWriter before it runs, in the
	// shell's `set -x` style: "+ name arg...".
	Trace bool

	// TraceWriter receives trace lines (nil = stderr).
	TraceWriter io.Writer
}

// Run executes c and waits for it to finish.
//
// On context cancellation the entire process group is killed, so children
// spawned by the tool do not outlive the CLI.
func (e *Executor) Run(ctx context.Context, c Command) (int, error) {
	if c.Name == "" {
		return -1, fmt.Errorf("empty command")
	}

	if e.Trace {
		w := e.TraceWriter
		if w == nil {
			w = os.Stderr
		}
		fmt.Fprintln(w, "+ "+strings.Join(append([]string{c.Name}, c.Args...), " "))
	}

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdin = c.Stdin

	cmd.Stdout = c.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = c.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	// Own process group, so cancellation can kill the whole tree.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("starting %s: %w", c.Name, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var err error
	select {
	case <-ctx.Done():
		if cmd.Process != nil {
			syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		<-done
		return -1, fmt.Errorf("%s interrupted: %w", c.Name, ctx.Err())
	case err = <-done:
	}

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		return -1, fmt.Errorf("running %s: %w", c.Name, err)
	}
	return 0, nil
}
