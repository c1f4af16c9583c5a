package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// rootOptions holds the flags shared by every subcommand.
type rootOptions struct {
	configFile string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "backlogctl",
		Short:         "Backlog hygiene and prioritization for JIRA projects",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: backlogctl.yaml in . or config/)")

	cmd.AddCommand(
		newHygieneCmd(opts, stdout),
		newPrioritizeCmd(opts, stdout),
		newTaskCmd(stdout, stderr, nil),
		newSetupCmd(stderr),
	)
	return cmd
}
