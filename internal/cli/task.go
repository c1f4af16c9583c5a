package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"backlogctl/internal/execx"
	"backlogctl/internal/tasks"
)

// newTaskCmd wraps the dev task runner. Flag parsing is disabled so that
// everything after the task name reaches the underlying tool untouched.
// exec overrides the command runner (nil = real executor).
func newTaskCmd(stdout, stderr io.Writer, exec execx.Runner) *cobra.Command {
	return &cobra.Command{
		Use:                "task NAME [ARG...]",
		Short:              "Run one of the repository's dev tasks",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := tasks.Default()
			if err != nil {
				return err
			}

			if len(args) == 0 {
				printTaskList(stderr, set)
				return &ExitError{Code: ExitInvalidInvocation}
			}
			if args[0] == "-h" || args[0] == "--help" {
				printTaskList(stdout, set)
				return nil
			}

			task, ok := set.Get(args[0])
			if !ok {
				return fmt.Errorf("unknown task %q (known tasks: %s)", args[0], strings.Join(set.Names(), ", "))
			}

			if exec == nil {
				exec = &execx.Executor{}
			}
			code, err := (&tasks.Runner{Exec: exec, Out: stderr}).Run(cmd.Context(), task, args[1:])
			if err != nil {
				return err
			}
			if code != 0 {
				return &ExitError{Code: code}
			}
			return nil
		},
	}
}

func printTaskList(w io.Writer, set *tasks.Set) {
	fmt.Fprintln(w, "Available tasks:")
	for _, name := range set.Names() {
		t, _ := set.Get(name)
		fmt.Fprintf(w, "  %-14s %s\n", name, t.Description)
	}
}
