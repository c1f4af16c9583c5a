package tasks

import (
	"strings"
	"testing"
)

func TestDefault_DeclaredTasks(t *testing.T) {
	set, err := Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}

	want := []string{"style", "format-check", "format", "imports", "yamllint", "test"}
	got := set.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDefault_TestTaskInstallsRequirements(t *testing.T) {
	set, err := Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}
	task, ok := set.Get("test")
	if !ok {
		t.Fatal("test task not declared")
	}
	if !task.Requirements {
		t.Error("test task must install the requirements manifest before running")
	}
	for _, name := range []string{"style", "format-check", "format", "imports", "yamllint"} {
		other, _ := set.Get(name)
		if other.Requirements {
			t.Errorf("task %q should not install requirements", name)
		}
	}
}

func TestLoad_DuplicateNameRejected(t *testing.T) {
	doc := `
- name: lint
  command: golangci-lint
- name: lint
  command: gofmt
`
	_, err := Load(strings.NewReader(doc))
	if err == nil {
		t.Fatal("expected duplicate name error")
	}
	if !strings.Contains(err.Error(), "duplicate task name") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_MissingFieldsRejected(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{"no name", "- command: gofmt\n", "without a name"},
		{"no command", "- name: fmt\n", "has no command"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tc.doc))
			if err == nil {
				t.Fatal("expected load error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	doc := `
- name: lint
  command: golangci-lint
  retries: 3
`
	if _, err := Load(strings.NewReader(doc)); err == nil {
		t.Fatal("expected unknown field error")
	}
}
