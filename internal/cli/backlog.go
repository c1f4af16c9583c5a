package cli

import (
	"io"

	"github.com/spf13/cobra"

	"backlogctl/internal/config"
	"backlogctl/internal/hygiene"
	"backlogctl/internal/jira"
	"backlogctl/internal/prioritize"
)

// connectionFlags are shared by the commands that talk to JIRA. Flag values
// override the configured ones.
type connectionFlags struct {
	root    *rootOptions
	url     string
	token   string
	project string
	dryRun  bool
}

func (f *connectionFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.project, "project-id", "p", "", "JIRA project key")
	fl.StringVarP(&f.token, "token", "t", "", "JIRA personal access token (default: $JIRA_TOKEN)")
	fl.StringVarP(&f.url, "url", "u", "", "JIRA server URL")
	fl.BoolVar(&f.dryRun, "dry-run", false, "report findings without changing anything")
	_ = cmd.MarkFlagRequired("project-id")
}

func (f *connectionFlags) client() (*jira.Client, error) {
	cfg, err := config.Load(f.root.configFile)
	if err != nil {
		return nil, err
	}
	url := cfg.URL
	if f.url != "" {
		url = f.url
	}
	token := cfg.Token
	if f.token != "" {
		token = f.token
	}
	return jira.NewClient(url, token)
}

func newHygieneCmd(root *rootOptions, stdout io.Writer) *cobra.Command {
	flags := &connectionFlags{root: root}
	cmd := &cobra.Command{
		Use:   "hygiene",
		Short: "Check a project's backlog against the team's compliance rules",
		Long: `Check every unresolved epic and story against the team's compliance
rules, flag offenders with a comment and the Non-compliant label, and
realign story ranks with their parents' ordering.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := flags.client()
			if err != nil {
				return err
			}
			engine := &hygiene.Engine{
				Client:  client,
				Project: flags.project,
				DryRun:  flags.dryRun,
				Out:     stdout,
			}
			return engine.Run(cmd.Context())
		},
	}
	flags.register(cmd)
	return cmd
}

func newPrioritizeCmd(root *rootOptions, stdout io.Writer) *cobra.Command {
	flags := &connectionFlags{root: root}
	cmd := &cobra.Command{
		Use:   "prioritize PARENT",
		Short: "Move a parent's features to the top of their priority tiers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client()
			if err != nil {
				return err
			}
			engine := &prioritize.Engine{
				Client:  client,
				Project: flags.project,
				Parent:  args[0],
				DryRun:  flags.dryRun,
				Out:     stdout,
			}
			return engine.Run(cmd.Context())
		},
	}
	flags.register(cmd)
	return cmd
}
