package jira

import (
	"time"

	"github.com/tidwall/gjson"
)

// Issue wraps a raw JIRA issue document. Field access goes through gjson so
// the client does not have to model JIRA's sprawling (and instance-specific)
// field set. Parent and Blocks are attached by Client.Preprocess.
type Issue struct {
	// Key is the issue key, e.g. PROJ-123.
	Key string

	// Parent is the issue referenced by the parent-link field, if any.
	Parent *Issue

	// Blocks are the issues this one blocks (outward "Blocks" links).
	Blocks []*Issue

	raw gjson.Result
}

// ParseIssue wraps a raw issue JSON document.
func ParseIssue(raw string) *Issue {
	r := gjson.Parse(raw)
	return &Issue{Key: r.Get("key").String(), raw: r}
}

// Raw returns the underlying JSON document.
func (i *Issue) Raw() string { return i.raw.Raw }

// Field returns an arbitrary field value by id (e.g. "customfield_12313140").
func (i *Issue) Field(id string) gjson.Result {
	return i.raw.Get("fields." + id)
}

// Summary returns the issue summary.
func (i *Issue) Summary() string {
	return i.raw.Get("fields.summary").String()
}

// Status returns the status name.
func (i *Issue) Status() string {
	return i.raw.Get("fields.status.name").String()
}

// Assignee returns the assignee's display name, or "Unassigned".
func (i *Issue) Assignee() string {
	if v := i.raw.Get("fields.assignee.displayName"); v.Exists() {
		return v.String()
	}
	return "Unassigned"
}

// Priority returns the priority name. Issues with no priority field set
// report "Undefined", matching the lowest tier.
func (i *Issue) Priority() string {
	if v := i.raw.Get("fields.priority.name"); v.Exists() {
		return v.String()
	}
	return "Undefined"
}

// Labels returns the issue labels.
func (i *Issue) Labels() []string {
	values := i.raw.Get("fields.labels").Array()
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.String())
	}
	return out
}

// HasLabel reports whether the issue carries the given label.
func (i *Issue) HasLabel(label string) bool {
	for _, l := range i.Labels() {
		if l == label {
			return true
		}
	}
	return false
}

// DueDate returns the due date, or the zero time when unset or unparsable.
// JIRA serializes due dates as yyyy-mm-dd.
func (i *Issue) DueDate() time.Time {
	v := i.raw.Get("fields.duedate")
	if !v.Exists() || v.String() == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", v.String())
	if err != nil {
		return time.Time{}
	}
	return t
}

// OutwardLinkKeys returns the keys of outward issue links of the given link
// type (e.g. "Blocks").
func (i *Issue) OutwardLinkKeys(linkType string) []string {
	var keys []string
	for _, link := range i.raw.Get("fields.issuelinks").Array() {
		if link.Get("type.name").String() != linkType {
			continue
		}
		if out := link.Get("outwardIssue.key"); out.Exists() {
			keys = append(keys, out.String())
		}
	}
	return keys
}
