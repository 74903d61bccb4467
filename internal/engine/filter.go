// Package engine derives views from the action collection: filtering,
// sorting, grouping, chart series and display formatting. Functions never
// mutate their input slice; results share the same *actions.Action values.
package engine

import (
	"strings"

	"github.com/vizille/dashboard/internal/actions"
)

// Criteria are the values of the four filter controls. Empty fields
// do not constrain the result.
type Criteria struct {
	Query  string `json:"query"`
	Theme  string `json:"theme"`
	Status string `json:"status"`
	Year   string `json:"year"`
}

// IsEmpty reports whether no control is set.
func (c Criteria) IsEmpty() bool {
	return c.Query == "" && c.Theme == "" && c.Status == "" && c.Year == ""
}

// Match reports whether a satisfies every active constraint.
func (c Criteria) Match(a *actions.Action) bool {
	return c.match(a, strings.ToLower(c.Query))
}

func (c Criteria) match(a *actions.Action, q string) bool {
	if q != "" && !matchesQuery(a, q) {
		return false
	}
	if c.Theme != "" && a.Theme != c.Theme {
		return false
	}
	if c.Status != "" && string(a.Status) != c.Status {
		return false
	}
	if c.Year != "" && string(a.Year) != c.Year {
		return false
	}
	return true
}

// matchesQuery checks the searchable text fields; q is already lowercase.
func matchesQuery(a *actions.Action, q string) bool {
	for _, field := range [...]string{a.Title, a.Summary, a.Details, a.Theme, a.Description} {
		if field != "" && strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Filter returns the records of all matching c, in input order.
// The result is always a fresh slice, even when c is empty.
func Filter(all []*actions.Action, c Criteria) []*actions.Action {
	out := make([]*actions.Action, 0, len(all))
	if c.IsEmpty() {
		return append(out, all...)
	}
	q := strings.ToLower(c.Query)
	for _, a := range all {
		if c.match(a, q) {
			out = append(out, a)
		}
	}
	return out
}
