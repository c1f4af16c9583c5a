// Package tasks declares and runs the repository's dev tasks.
//
// A task maps a name to a fixed external command line plus the tool
// dependencies needed to run it. Tasks are independent: there is no
// ordering, aggregation, or partial-success semantics between them, and a
// task's exit status is exactly the underlying tool's exit status.
package tasks

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

//go:embed tasks.yaml
var defaultManifest []byte

// Task is a single named declaration.
type Task struct {
	// Name is the unique task identifier.
	Name string `yaml:"name"`

	// Description is a one-line summary shown in listings.
	Description string `yaml:"description,omitempty"`

	// Command is the program to invoke.
	Command string `yaml:"command"`

	// Args is the fixed argument list. Caller-supplied extra arguments are
	// appended after these, unmodified.
	Args []string `yaml:"args,omitempty"`

	// Deps are tool dependencies as `module@version` install specs,
	// ensured before Command runs.
	Deps []string `yaml:"deps,omitempty"`

	// Requirements marks tasks that install the module requirements
	// manifest (go.mod, consumed opaquely by the go tool) before running.
	Requirements bool `yaml:"requirements,omitempty"`
}

// Set is an ordered collection of task declarations with unique names.
type Set struct {
	order  []string
	byName map[string]*Task
}

// Load parses task declarations from YAML. Duplicate names, missing names,
// and missing commands are load errors.
func Load(r io.Reader) (*Set, error) {
	var decls []*Task
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&decls); err != nil {
		return nil, fmt.Errorf("parsing task declarations: %w", err)
	}

	s := &Set{byName: make(map[string]*Task, len(decls))}
	for _, t := range decls {
		if t.Name == "" {
			return nil, fmt.Errorf("task declaration without a name")
		}
		if t.Command == "" {
			return nil, fmt.Errorf("task %q has no command", t.Name)
		}
		if _, exists := s.byName[t.Name]; exists {
			return nil, fmt.Errorf("duplicate task name %q", t.Name)
		}
		s.byName[t.Name] = t
		s.order = append(s.order, t.Name)
	}
	return s, nil
}

// Default returns the built-in declarations shipped with the binary.
func Default() (*Set, error) {
	return Load(bytes.NewReader(defaultManifest))
}

// Get looks a task up by name.
func (s *Set) Get(name string) (*Task, bool) {
	t, ok := s.byName[name]
	return t, ok
}

// Names returns task names in declaration order.
func (s *Set) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of declared tasks.
func (s *Set) Len() int { return len(s.order) }
