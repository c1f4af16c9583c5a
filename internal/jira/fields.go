package jira

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// Field is one entry from the instance's field catalog.
type Field struct {
	ID   string
	Name string
}

// Fields returns the instance's field catalog.
func (c *Client) Fields(ctx context.Context) ([]Field, error) {
	data, err := c.do(ctx, http.MethodGet, "/rest/api/2/field", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("listing fields: %w", err)
	}

	var fields []Field
	for _, r := range gjson.ParseBytes(data).Array() {
		fields = append(fields, Field{
			ID:   r.Get("id").String(),
			Name: r.Get("name").String(),
		})
	}
	return fields, nil
}

// FieldIDs holds the custom-field ids the backlog commands need. Custom
// field ids differ per JIRA instance, so they are discovered at runtime.
type FieldIDs struct {
	// ParentLink is the populated one of "Epic Link", "Feature Link",
	// "Parent Link" ("" when no fetched issue has any of them set).
	ParentLink string

	// Rank is the id of the "Rank" field.
	Rank string
}

// parentLinkNames are the candidate field names carrying a parent reference,
// in no particular precedence; the one actually populated wins.
var parentLinkNames = []string{"Epic Link", "Feature Link", "Parent Link"}

// DiscoverFieldIDs resolves FieldIDs from the field catalog, probing the
// given issues to find which parent-link candidate the instance uses.
func DiscoverFieldIDs(fields []Field, issues []*Issue) (FieldIDs, error) {
	var ids FieldIDs

	var candidates []string
	for _, f := range fields {
		for _, name := range parentLinkNames {
			if f.Name == name {
				candidates = append(candidates, f.ID)
			}
		}
		if f.Name == "Rank" {
			ids.Rank = f.ID
		}
	}
	if ids.Rank == "" {
		return FieldIDs{}, fmt.Errorf("no Rank field on this JIRA instance")
	}

	for _, issue := range issues {
		for _, id := range candidates {
			if v := issue.Field(id); v.Exists() && v.Type != gjson.Null && v.String() != "" {
				ids.ParentLink = id
				return ids, nil
			}
		}
	}
	return ids, nil
}

// Preprocess attaches related issues the checks need: the parent referenced
// by the parent-link field and the issues blocked by outward "Blocks" links.
// A parent that cannot be fetched even after retries is left nil; the
// parent-link check will flag the issue anyway.
func (c *Client) Preprocess(ctx context.Context, issues []*Issue, ids FieldIDs) error {
	for _, issue := range issues {
		if ids.ParentLink != "" {
			if key := issue.Field(ids.ParentLink).String(); key != "" {
				if parent, err := c.Issue(ctx, key); err == nil {
					issue.Parent = parent
				} else if ctx.Err() != nil {
					return ctx.Err()
				}
			}
		}

		for _, key := range issue.OutwardLinkKeys("Blocks") {
			blocked, err := c.Issue(ctx, key)
			if err != nil {
				return fmt.Errorf("resolving blocked issue of %s: %w", issue.Key, err)
			}
			issue.Blocks = append(issue.Blocks, blocked)
		}
	}
	return nil
}
