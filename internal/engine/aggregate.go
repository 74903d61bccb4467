package engine

import (
	"fmt"
	"slices"
	"sort"

	"github.com/vizille/dashboard/internal/actions"
)

// GroupKey selects the attribute records are grouped on.
type GroupKey string

const (
	ByTheme  GroupKey = "theme"
	ByYear   GroupKey = "annee"
	ByStatus GroupKey = "statut"
)

// ParseGroupKey validates a grouping attribute.
func ParseGroupKey(s string) (GroupKey, error) {
	switch k := GroupKey(s); k {
	case ByTheme, ByYear, ByStatus:
		return k, nil
	}
	return "", fmt.Errorf("unknown group key %q", s)
}

// Group is one bucket of records with its reductions.
type Group struct {
	Key        string            `json:"key"`
	Actions    []*actions.Action `json:"-"`
	Count      int               `json:"count"`
	Budget     float64           `json:"budget"`
	Done       int               `json:"done"`
	InProgress int               `json:"in_progress"`
	Other      int               `json:"other"`
}

func (g *Group) add(a *actions.Action) {
	g.Actions = append(g.Actions, a)
	g.Count++
	g.Budget += a.BudgetOrZero()
	switch a.Status {
	case actions.StatusDone:
		g.Done++
	case actions.StatusInProgress:
		g.InProgress++
	default:
		g.Other++
	}
}

func groupValue(a *actions.Action, key GroupKey) string {
	switch key {
	case ByYear:
		return string(a.Year)
	case ByStatus:
		return string(a.Status)
	default:
		return a.Theme
	}
}

// GroupBy buckets in by key. Groups come out in order of first appearance.
func GroupBy(in []*actions.Action, key GroupKey) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, a := range in {
		v := groupValue(a, key)
		i, ok := index[v]
		if !ok {
			i = len(groups)
			index[v] = i
			groups = append(groups, Group{Key: v})
		}
		groups[i].add(a)
	}
	return groups
}

// RankByCount returns groups ordered by descending count. Equal counts
// keep their input order.
func RankByCount(groups []Group) []Group {
	out := slices.Clone(groups)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// SortByKey returns groups ordered by ascending key.
func SortByKey(groups []Group) []Group {
	out := slices.Clone(groups)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Top keeps the first n groups; n <= 0 keeps everything.
func Top(groups []Group, n int) []Group {
	if n > 0 && len(groups) > n {
		return groups[:n]
	}
	return groups
}

// Totals are the headline counters of a collection.
type Totals struct {
	Count      int     `json:"count"`
	Done       int     `json:"done"`
	InProgress int     `json:"in_progress"`
	Budget     float64 `json:"budget"`
}

// Summarize reduces in to its headline counters.
func Summarize(in []*actions.Action) Totals {
	var t Totals
	for _, a := range in {
		t.Count++
		t.Budget += a.BudgetOrZero()
		switch a.Status {
		case actions.StatusDone:
			t.Done++
		case actions.StatusInProgress:
			t.InProgress++
		}
	}
	return t
}

// Distinct returns the sorted distinct non-empty values of key.
func Distinct(in []*actions.Action, key GroupKey) []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range in {
		v := groupValue(a, key)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
