// Package prioritize reorders a parent's features so that each one rides
// above the backlog's current top feature of its priority tier.
package prioritize

import (
	"context"
	"fmt"
	"io"
	"os"

	"backlogctl/internal/jira"
	"backlogctl/internal/ui"
)

// Engine runs the prioritization pass for one parent's features.
type Engine struct {
	Client  *jira.Client
	Project string

	// Parent is the key of the issue whose features get promoted.
	Parent string

	// DryRun reports the moves without applying them.
	DryRun bool

	// Out receives progress (nil = stdout).
	Out io.Writer
}

// Run finds, for every priority tier, the highest-ranked unresolved feature
// in the project, then walks the parent's features from lowest rank up and
// moves each one directly above the current top of its tier. Every moved
// feature becomes the new top, so the parent's own ordering is preserved at
// the head of each tier.
func (e *Engine) Run(ctx context.Context) error {
	out := e.Out
	if out == nil {
		out = os.Stdout
	}

	catalog, err := e.Client.Fields(ctx)
	if err != nil {
		return err
	}
	if !hasField(catalog, "Rank") {
		return fmt.Errorf("no Rank field on this instance")
	}

	top, err := e.tierTops(ctx, out)
	if err != nil {
		return err
	}

	issues, err := e.features(ctx, out)
	if err != nil {
		return err
	}

	for _, issue := range issues {
		priority := issue.Priority()
		topIssue, ok := top[priority]
		if !ok {
			// Priority name outside the known tiers, so there is no anchor.
			fmt.Fprintln(out, ui.Yellow(fmt.Sprintf("  * Skipping %s: unknown priority %q", issue.Key, priority)))
			continue
		}
		if topIssue.Key == issue.Key {
			continue
		}

		fmt.Fprintf(out, "  > Issue rank of %s(%s) moved above %s\n", issue.Key, priority, topIssue.Key)
		if !e.DryRun {
			if err := e.Client.RankBefore(ctx, issue.Key, topIssue.Key); err != nil {
				return err
			}
		}
		top[priority] = issue
	}

	fmt.Fprintf(out, "\n%s\n", ui.BoldGreen("Done."))
	return nil
}

// tierTops resolves the highest-ranked unresolved feature at or below each
// priority tier. Every tier must have one: an empty result means the project
// has no features at all and the anchors would be meaningless.
func (e *Engine) tierTops(ctx context.Context, out io.Writer) (map[string]*jira.Issue, error) {
	top := make(map[string]*jira.Issue)
	for _, priority := range jira.PriorityNames {
		jql := fmt.Sprintf("priority<=%s AND project=%s AND type=Feature ORDER BY Rank ASC", priority, e.Project)
		fmt.Fprintf(out, "  ? %s\n", ui.Dim(jql))

		issues, err := e.Client.Search(ctx, jql, 1)
		if err != nil {
			return nil, err
		}
		if len(issues) == 0 {
			return nil, fmt.Errorf("no %s feature found via query: %s", priority, jql)
		}
		top[priority] = issues[0]
	}
	return top, nil
}

// features fetches the parent's features, lowest rank first, so that
// successive moves stack them in their original order.
func (e *Engine) features(ctx context.Context, out io.Writer) ([]*jira.Issue, error) {
	jql := fmt.Sprintf("\"Parent Link\"=%s AND project=%s AND type=Feature ORDER BY Rank DESC", e.Parent, e.Project)
	fmt.Fprintf(out, "  ? %s\n", ui.Dim(jql))

	issues, err := e.Client.Search(ctx, jql, 0)
	if err != nil {
		return nil, err
	}
	if len(issues) == 0 {
		return nil, fmt.Errorf("no features found via query: %s", jql)
	}
	fmt.Fprintf(out, "  = %d results\n", len(issues))
	return issues, nil
}

func hasField(catalog []jira.Field, name string) bool {
	for _, f := range catalog {
		if f.Name == name {
			return true
		}
	}
	return false
}
