// Package rules holds the backlog compliance checks.
//
// Checks are pure: they inspect an issue and record findings on a Context.
// The hygiene engine decides what to do with the findings (labels, comments,
// rank moves), so every check stays trivially testable.
package rules

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"backlogctl/internal/jira"
)

// Context collects the findings for one issue.
type Context struct {
	// Comments are compliance violations, posted verbatim to the issue.
	Comments []string

	// Updates are informational notes about performed or pending changes.
	Updates []string
}

// Commentf records a violation.
func (c *Context) Commentf(format string, args ...any) {
	c.Comments = append(c.Comments, fmt.Sprintf("  * "+format, args...))
}

// Notef records an informational note.
func (c *Context) Notef(format string, args ...any) {
	c.Updates = append(c.Updates, fmt.Sprintf("  > "+format, args...))
}

// Check is a named compliance check.
type Check struct {
	Name string
	Fn   func(issue *jira.Issue, c *Context)
}

// ParentLink flags issues that have no resolvable parent link.
func ParentLink() Check {
	return Check{
		Name: "parent-link",
		Fn: func(issue *jira.Issue, c *Context) {
			if issue.Parent == nil {
				c.Commentf("Issue has no parent link")
			}
		},
	}
}

// Priority flags unset priorities and children prioritized above their
// parent.
func Priority() Check {
	return Check{
		Name: "priority",
		Fn: func(issue *jira.Issue, c *Context) {
			tier := jira.PriorityTier(issue.Priority())
			if tier == 0 {
				c.Commentf("Priority is not set")
				return
			}
			if issue.Parent != nil {
				parentTier := jira.PriorityTier(issue.Parent.Priority())
				if parentTier > 0 && tier > parentTier {
					c.Commentf("Priority %s is higher than parent %s priority %s",
						issue.Priority(), issue.Parent.Key, issue.Parent.Priority())
				}
			}
		},
	}
}

// DueDate flags missing and past due dates.
func DueDate() Check {
	return dueDateAt(time.Now)
}

func dueDateAt(now func() time.Time) Check {
	return Check{
		Name: "due-date",
		Fn: func(issue *jira.Issue, c *Context) {
			due := issue.DueDate()
			if due.IsZero() {
				c.Commentf("Due date is not set")
				return
			}
			if due.Before(now().Truncate(24 * time.Hour)) {
				c.Commentf("Due date %s is in the past", due.Format("2006-01-02"))
			}
		},
	}
}

// TargetDates flags missing or inverted target start/end dates. The custom
// field ids differ per instance and are resolved by the caller; empty ids
// disable the corresponding half of the check.
func TargetDates(startID, endID string) Check {
	return Check{
		Name: "target-dates",
		Fn: func(issue *jira.Issue, c *Context) {
			start, startSet := dateField(issue, startID)
			end, endSet := dateField(issue, endID)

			if startID != "" && !startSet {
				c.Commentf("Target start date is not set")
			}
			if endID != "" && !endSet {
				c.Commentf("Target end date is not set")
			}
			if startSet && endSet && start.After(end) {
				c.Commentf("Target start date %s is after the target end date %s",
					start.Format("2006-01-02"), end.Format("2006-01-02"))
			}
		},
	}
}

// dateField parses a date-valued field. Some instances store these as
// datetimes, so only the date prefix is considered.
func dateField(issue *jira.Issue, id string) (time.Time, bool) {
	if id == "" {
		return time.Time{}, false
	}
	v := issue.Field(id).String()
	if len(v) < 10 {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", v[:10])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

var quarterLabel = regexp.MustCompile(`^\d{4}Q[1-4]$`)

// QuarterLabel flags issues without a planning-quarter label.
func QuarterLabel() Check {
	return Check{
		Name: "quarter-label",
		Fn: func(issue *jira.Issue, c *Context) {
			for _, label := range issue.Labels() {
				if quarterLabel.MatchString(label) {
					return
				}
			}
			c.Commentf("Issue has no quarter label (e.g. 2026Q3)")
		},
	}
}

// Move is a pending rank move: place Key directly below AfterKey.
type Move struct {
	Key      string
	AfterKey string
	Note     string
}

// RankMoves compares a rank-ascending issue list against the order implied
// by the issues' parents and returns the moves needed to realign it.
//
// Issues inherit their position from their parent's rank: all children of a
// higher-ranked parent sort above children of a lower-ranked one, keeping
// their own relative order within a parent. Issues without a parent are
// left untouched (the parent-link check flags them separately).
func RankMoves(issues []*jira.Issue, rankFieldID string) []Move {
	var parented []*jira.Issue
	curIdx := make(map[string]int)
	for i, issue := range issues {
		if issue.Parent != nil {
			curIdx[issue.Key] = i
			parented = append(parented, issue)
		}
	}
	if len(parented) < 2 {
		return nil
	}

	desired := make([]*jira.Issue, len(parented))
	copy(desired, parented)
	sort.SliceStable(desired, func(a, b int) bool {
		return desired[a].Parent.Field(rankFieldID).String() <
			desired[b].Parent.Field(rankFieldID).String()
	})

	var moves []Move
	maxSeen := curIdx[desired[0].Key]
	for i := 1; i < len(desired); i++ {
		idx := curIdx[desired[i].Key]
		if idx < maxSeen {
			// Out of order; anchor below the previous desired issue,
			// which is already in its final position.
			moves = append(moves, Move{
				Key:      desired[i].Key,
				AfterKey: desired[i-1].Key,
				Note: fmt.Sprintf("  > Issue rank of %s moved below %s",
					desired[i].Key, desired[i-1].Key),
			})
			continue
		}
		maxSeen = idx
	}
	return moves
}
