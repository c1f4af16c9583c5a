package tasks

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"backlogctl/internal/execx"
)

// fakeRunner records invocations and replies with scripted exit codes.
type fakeRunner struct {
	calls []execx.Command
	codes []int
}

func (f *fakeRunner) Run(_ context.Context, c execx.Command) (int, error) {
	f.calls = append(f.calls, c)
	if len(f.codes) > 0 {
		code := f.codes[0]
		f.codes = f.codes[1:]
		return code, nil
	}
	return 0, nil
}

func TestRun_AppendsExtraArgsUnmodified(t *testing.T) {
	fake := &fakeRunner{}
	r := &Runner{Exec: fake, Out: &bytes.Buffer{}}

	task := &Task{Name: "style", Command: "golangci-lint", Args: []string{"run"}}
	extra := []string{"--fix", "./internal/..."}

	code, err := r.Run(context.Background(), task, extra)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if len(fake.calls) != 1 {
		t.Fatalf("got %d invocations, want 1", len(fake.calls))
	}
	got := strings.Join(fake.calls[0].Args, " ")
	if got != "run --fix ./internal/..." {
		t.Errorf("args = %q, extra arguments must append after the fixed list", got)
	}
}

func TestRun_EnsuresDepsBeforeCommand(t *testing.T) {
	fake := &fakeRunner{}
	r := &Runner{Exec: fake, Out: &bytes.Buffer{}}

	task := &Task{
		Name:    "imports",
		Command: "gci",
		Args:    []string{"diff", "."},
		Deps:    []string{"github.com/daixiang0/gci@v0.13.5"},
	}

	if _, err := r.Run(context.Background(), task, nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(fake.calls) != 2 {
		t.Fatalf("got %d invocations, want 2", len(fake.calls))
	}
	if fake.calls[0].Name != "go" || fake.calls[0].Args[0] != "install" {
		t.Errorf("first invocation = %v, want go install", fake.calls[0])
	}
	if fake.calls[1].Name != "gci" {
		t.Errorf("second invocation = %v, want the task command", fake.calls[1])
	}
}

func TestRun_RequirementsInstallPrecedesTestRunner(t *testing.T) {
	fake := &fakeRunner{}
	r := &Runner{Exec: fake, Out: &bytes.Buffer{}}

	task := &Task{Name: "test", Command: "go", Args: []string{"test", "./..."}, Requirements: true}
	if _, err := r.Run(context.Background(), task, nil); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(fake.calls) != 2 {
		t.Fatalf("got %d invocations, want 2", len(fake.calls))
	}
	if got := strings.Join(fake.calls[0].Args, " "); got != "mod download" {
		t.Errorf("first invocation args = %q, want \"mod download\"", got)
	}
}

func TestRun_ExitCodePassthrough(t *testing.T) {
	for _, want := range []int{0, 1, 3} {
		fake := &fakeRunner{codes: []int{want}}
		r := &Runner{Exec: fake, Out: &bytes.Buffer{}}
		task := &Task{Name: "style", Command: "golangci-lint", Args: []string{"run"}}

		code, err := r.Run(context.Background(), task, nil)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if code != want {
			t.Errorf("exit code = %d, want %d", code, want)
		}
	}
}

func TestRun_FailedDepInstallAbortsTask(t *testing.T) {
	fake := &fakeRunner{codes: []int{1}}
	r := &Runner{Exec: fake, Out: &bytes.Buffer{}}

	task := &Task{
		Name:    "style",
		Command: "golangci-lint",
		Args:    []string{"run"},
		Deps:    []string{"github.com/golangci/golangci-lint/cmd/golangci-lint@v1.61.0"},
	}

	code, err := r.Run(context.Background(), task, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if len(fake.calls) != 1 {
		t.Errorf("tool must not run after a failed dependency install (got %d invocations)", len(fake.calls))
	}
}
