package prioritize

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"backlogctl/internal/jira"
	"backlogctl/internal/jira/jiratest"
)

const childrenJQL = `"Parent Link"=PARENT-1 AND project=PROJ AND type=Feature ORDER BY Rank DESC`

func topJQL(priority string) string {
	return fmt.Sprintf("priority<=%s AND project=PROJ AND type=Feature ORDER BY Rank ASC", priority)
}

// newFixture builds a fake instance with a Rank field and one top feature
// anchoring every priority tier.
func newFixture(t *testing.T) *jiratest.Server {
	t.Helper()
	srv := jiratest.New()
	t.Cleanup(srv.Close)

	srv.AddField("customfield_300", "Rank")
	srv.AddIssue("TOP-1", jiratest.IssueJSON("TOP-1", map[string]any{
		"summary":       "Current number one",
		"priority.name": "Blocker",
	}))
	for _, p := range jira.PriorityNames {
		srv.SetSearch(topJQL(p), "TOP-1")
	}
	return srv
}

func addFeature(srv *jiratest.Server, key, priority string) {
	srv.AddIssue(key, jiratest.IssueJSON(key, map[string]any{
		"summary":       "A feature",
		"priority.name": priority,
	}))
}

func newEngine(t *testing.T, srv *jiratest.Server, dryRun bool) (*Engine, *bytes.Buffer) {
	t.Helper()
	client, err := jira.NewClient(srv.URL, "test-token")
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	var out bytes.Buffer
	return &Engine{Client: client, Project: "PROJ", Parent: "PARENT-1", DryRun: dryRun, Out: &out}, &out
}

func TestRun_StacksFeaturesAboveTierTop(t *testing.T) {
	srv := newFixture(t)
	addFeature(srv, "FEAT-2", "Normal")
	addFeature(srv, "FEAT-3", "Normal")
	srv.SetSearch(childrenJQL, "FEAT-2", "FEAT-3")

	engine, out := newEngine(t, srv, false)
	if err := engine.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	ranks := srv.Ranks()
	if len(ranks) != 2 {
		t.Fatalf("ranks = %+v, want two moves", ranks)
	}
	// Lowest-ranked feature first; the second stacks above it.
	if ranks[0].Key != "FEAT-2" || ranks[0].Before != "TOP-1" {
		t.Errorf("first move = %+v, want FEAT-2 above TOP-1", ranks[0])
	}
	if ranks[1].Key != "FEAT-3" || ranks[1].Before != "FEAT-2" {
		t.Errorf("second move = %+v, want FEAT-3 above FEAT-2", ranks[1])
	}
	if !strings.Contains(out.String(), "Issue rank of FEAT-2(Normal) moved above TOP-1") {
		t.Errorf("output %q misses the move note", out.String())
	}
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	srv := newFixture(t)
	addFeature(srv, "FEAT-2", "Major")
	srv.SetSearch(childrenJQL, "FEAT-2")

	engine, out := newEngine(t, srv, true)
	if err := engine.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(srv.Ranks()) != 0 {
		t.Errorf("dry run performed %d rank moves", len(srv.Ranks()))
	}
	if !strings.Contains(out.String(), "moved above TOP-1") {
		t.Error("dry run must still report the pending move")
	}
}

func TestRun_FeatureAlreadyOnTopStaysPut(t *testing.T) {
	srv := newFixture(t)
	srv.SetSearch(childrenJQL, "TOP-1")

	engine, _ := newEngine(t, srv, false)
	if err := engine.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(srv.Ranks()) != 0 {
		t.Errorf("ranks = %+v, want none for the reigning top", srv.Ranks())
	}
}

func TestRun_UndefinedPriorityFeaturePromoted(t *testing.T) {
	srv := newFixture(t)
	addFeature(srv, "FEAT-2", "Undefined")
	srv.SetSearch(childrenJQL, "FEAT-2")

	engine, _ := newEngine(t, srv, false)
	if err := engine.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	ranks := srv.Ranks()
	if len(ranks) != 1 {
		t.Fatalf("ranks = %+v, want one move", ranks)
	}
	if ranks[0].Key != "FEAT-2" || ranks[0].Before != "TOP-1" {
		t.Errorf("move = %+v, want FEAT-2 above its tier's top", ranks[0])
	}
}

func TestRun_UnknownPriorityNameSkipped(t *testing.T) {
	srv := newFixture(t)
	addFeature(srv, "FEAT-2", "Sev1")
	srv.SetSearch(childrenJQL, "FEAT-2")

	engine, out := newEngine(t, srv, false)
	if err := engine.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(srv.Ranks()) != 0 {
		t.Errorf("ranks = %+v, want none", srv.Ranks())
	}
	if !strings.Contains(out.String(), "Skipping FEAT-2") {
		t.Error("output does not mention the skipped feature")
	}
}

func TestRun_EmptyTierAborts(t *testing.T) {
	srv := jiratest.New()
	t.Cleanup(srv.Close)
	srv.AddField("customfield_300", "Rank")
	// No tier anchors registered.

	engine, _ := newEngine(t, srv, false)
	err := engine.Run(context.Background())
	if err == nil {
		t.Fatal("expected error for a tier without features")
	}
	if !strings.Contains(err.Error(), "no Undefined feature found via query") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRun_NoFeaturesUnderParentAborts(t *testing.T) {
	srv := newFixture(t)
	// Children query left empty.

	engine, _ := newEngine(t, srv, false)
	err := engine.Run(context.Background())
	if err == nil {
		t.Fatal("expected error for an empty feature list")
	}
	if !strings.Contains(err.Error(), "no features found via query") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRun_MissingRankFieldAborts(t *testing.T) {
	srv := jiratest.New()
	t.Cleanup(srv.Close)
	srv.AddField("customfield_200", "Parent Link")

	engine, _ := newEngine(t, srv, false)
	if err := engine.Run(context.Background()); err == nil || !strings.Contains(err.Error(), "Rank field") {
		t.Errorf("err = %v, want missing Rank field error", err)
	}
}
