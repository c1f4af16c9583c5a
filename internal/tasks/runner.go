package tasks

import (
	"context"
	"fmt"
	"io"
	"os"

	"backlogctl/internal/execx"
	"backlogctl/internal/ui"
)

// Runner executes task declarations.
type Runner struct {
	// Exec runs the external commands.
	Exec execx.Runner

	// GoBin is the go tool used for dependency installs and requirement
	// downloads ("" = "go").
	GoBin string

	// Out receives progress lines (nil = stderr).
	Out io.Writer
}

// Run ensures the task's dependencies, then invokes its command with extra
// appended after the fixed argument list. The returned code is the
// underlying tool's exit status, unchanged; a non-nil error means a command
// could not be started at all.
func (r *Runner) Run(ctx context.Context, t *Task, extra []string) (int, error) {
	goBin := r.GoBin
	if goBin == "" {
		goBin = "go"
	}
	out := r.Out
	if out == nil {
		out = os.Stderr
	}

	for _, dep := range t.Deps {
		fmt.Fprintf(out, "%s ensuring %s\n", ui.Dim("::"), dep)
		code, err := r.Exec.Run(ctx, execx.Command{Name: goBin, Args: []string{"install", dep}})
		if err != nil {
			return -1, fmt.Errorf("installing dependency %s: %w", dep, err)
		}
		if code != 0 {
			return code, nil
		}
	}

	if t.Requirements {
		fmt.Fprintf(out, "%s downloading module requirements\n", ui.Dim("::"))
		code, err := r.Exec.Run(ctx, execx.Command{Name: goBin, Args: []string{"mod", "download"}})
		if err != nil {
			return -1, fmt.Errorf("downloading requirements: %w", err)
		}
		if code != 0 {
			return code, nil
		}
	}

	args := make([]string, 0, len(t.Args)+len(extra))
	args = append(args, t.Args...)
	args = append(args, extra...)

	fmt.Fprintf(out, "%s %s\n", ui.BoldCyan("»"), t.Name)
	return r.Exec.Run(ctx, execx.Command{Name: t.Command, Args: args})
}
