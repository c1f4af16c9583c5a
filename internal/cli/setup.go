package cli

import (
	"io"

	"github.com/spf13/cobra"

	"backlogctl/internal/setup"
)

// newSetupCmd exposes the environment setup. The command keeps the old
// setup script's exact argument contract, so cobra's flag parsing stays out
// of the way.
func newSetupCmd(stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:                "setup [-d|--debug] [-h|--help]",
		Short:              "Install the development requirements",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if code := setup.Run(cmd.Context(), args, setup.Options{Stderr: stderr}); code != setup.ExitOK {
				return &ExitError{Code: code}
			}
			return nil
		},
	}
}
