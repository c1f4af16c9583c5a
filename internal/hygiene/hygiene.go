// Package hygiene walks a project's backlog and enforces the team's
// compliance rules: every issue carries its violations as a comment and a
// Non-compliant label until fixed, and stories ride at the rank their
// parent's rank implies.
package hygiene

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"backlogctl/internal/jira"
	"backlogctl/internal/rules"
	"backlogctl/internal/ui"
)

// NonCompliantLabel marks issues with open violations.
const NonCompliantLabel = "Non-compliant"

// Engine runs the hygiene pass for one project.
type Engine struct {
	Client  *jira.Client
	Project string

	// DryRun reports findings without writing anything back. Because
	// cascading changes are not applied, the output may be a subset of a
	// real run.
	DryRun bool

	// Out receives progress (nil = stdout).
	Out io.Writer
}

// typeConfig binds an issue type to its checks. Order matters: epics are
// processed before the stories hanging off them.
type typeConfig struct {
	Type   string
	Checks func(targetStartID, targetEndID string) []rules.Check
}

func configs() []typeConfig {
	return []typeConfig{
		{
			Type: "Epic",
			Checks: func(startID, endID string) []rules.Check {
				return []rules.Check{
					rules.ParentLink(),
					rules.Priority(),
					rules.DueDate(),
					rules.TargetDates(startID, endID),
				}
			},
		},
		{
			Type: "Story",
			Checks: func(_, _ string) []rules.Check {
				return []rules.Check{
					rules.ParentLink(),
					rules.Priority(),
					rules.QuarterLabel(),
					rules.DueDate(),
				}
			},
		},
	}
}

// Run executes the hygiene pass: per issue type, fetch unresolved issues in
// rank order, run the type's checks, reconcile labels and comments, then
// realign ranks against the parents' ordering.
func (e *Engine) Run(ctx context.Context) error {
	out := e.Out
	if out == nil {
		out = os.Stdout
	}

	catalog, err := e.Client.Fields(ctx)
	if err != nil {
		return err
	}
	targetStartID := fieldIDByName(catalog, "Target start")
	targetEndID := fieldIDByName(catalog, "Target end")

	for _, cfg := range configs() {
		fmt.Fprintf(out, "\n\n%s\n", ui.BoldCyan("## Processing "+cfg.Type))

		issues, ids, err := e.fetch(ctx, out, catalog, cfg.Type)
		if err != nil {
			return err
		}

		checks := cfg.Checks(targetStartID, targetEndID)
		for i, issue := range issues {
			fmt.Fprintf(out, "\n### [%d/%d]\t%s: %s\t[%s/%s]\n",
				i+1, len(issues), ui.Bold(issue.Key), issue.Summary(), issue.Assignee(), issue.Status())

			rctx := &rules.Context{}
			for _, check := range checks {
				check.Fn(issue, rctx)
			}

			if err := e.reconcile(ctx, out, issue, rctx); err != nil {
				return err
			}
		}

		if err := e.realign(ctx, out, issues, ids); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "\n%s\n", ui.BoldGreen("Done."))
	return nil
}

// fetch queries one issue type and prepares the issues for checking. An
// empty result set aborts the run: it almost always means a mistyped
// project or a stale filter, and silently "passing" would hide that.
func (e *Engine) fetch(ctx context.Context, out io.Writer, catalog []jira.Field, issueType string) ([]*jira.Issue, jira.FieldIDs, error) {
	jql := fmt.Sprintf("project=%s AND resolution=Unresolved AND type=%s ORDER BY rank ASC", e.Project, issueType)
	fmt.Fprintf(out, "  ? %s\n", ui.Dim(jql))

	issues, err := e.Client.Search(ctx, jql, 0)
	if err != nil {
		return nil, jira.FieldIDs{}, err
	}
	if len(issues) == 0 {
		return nil, jira.FieldIDs{}, fmt.Errorf("no %s found via query: %s", issueType, jql)
	}
	fmt.Fprintf(out, "  = %d results\n", len(issues))

	ids, err := jira.DiscoverFieldIDs(catalog, issues)
	if err != nil {
		return nil, jira.FieldIDs{}, err
	}
	if err := e.Client.Preprocess(ctx, issues, ids); err != nil {
		return nil, jira.FieldIDs{}, err
	}
	return issues, ids, nil
}

// reconcile applies the label/comment state machine for one issue:
//
//   - violations on an unlabelled issue: add the label, post the findings;
//   - violations on an already-labelled issue: stay silent (no comment spam);
//   - no violations on a labelled issue: remove the label and post a
//     compliance note.
func (e *Engine) reconcile(ctx context.Context, out io.Writer, issue *jira.Issue, rctx *rules.Context) error {
	hasLabel := issue.HasLabel(NonCompliantLabel)

	if len(rctx.Comments) > 0 {
		fmt.Fprintln(out, ui.Yellow(strings.Join(rctx.Comments, "\n")))
	}

	if !e.DryRun {
		switch {
		case len(rctx.Comments) > 0 && hasLabel:
			// Already flagged; don't repeat the findings on the issue.
			rctx.Comments = nil
		case len(rctx.Comments) > 0:
			labels := append(issue.Labels(), NonCompliantLabel)
			if err := e.Client.Update(ctx, issue.Key, map[string]any{"labels": labels}); err != nil {
				return err
			}
		case hasLabel:
			if err := e.Client.Update(ctx, issue.Key, map[string]any{"labels": without(issue.Labels(), NonCompliantLabel)}); err != nil {
				return err
			}
			const note = "  * Issue is now compliant"
			if err := e.Client.AddComment(ctx, issue.Key, note); err != nil {
				return err
			}
			fmt.Fprintln(out, ui.Green(note))
		}

		if len(rctx.Comments) > 0 {
			if err := e.Client.AddComment(ctx, issue.Key, strings.Join(rctx.Comments, "\n")); err != nil {
				return err
			}
		}
	}

	if len(rctx.Updates) > 0 {
		fmt.Fprintln(out, strings.Join(rctx.Updates, "\n"))
	}
	return nil
}

// realign pushes issues back to the rank their parent ordering implies.
func (e *Engine) realign(ctx context.Context, out io.Writer, issues []*jira.Issue, ids jira.FieldIDs) error {
	for _, move := range rules.RankMoves(issues, ids.Rank) {
		fmt.Fprintln(out, move.Note)
		if e.DryRun {
			continue
		}
		if err := e.Client.RankAfter(ctx, move.Key, move.AfterKey); err != nil {
			return err
		}
	}
	return nil
}

func fieldIDByName(catalog []jira.Field, name string) string {
	for _, f := range catalog {
		if f.Name == name {
			return f.ID
		}
	}
	return ""
}

func without(labels []string, drop string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l != drop {
			out = append(out, l)
		}
	}
	return out
}
