// Package dashboard holds the per-session application state of the
// dashboard and the single update function that evolves it.
//
// A State is a value. Apply takes a state and a Command and returns the
// next state plus the side effects the presentation layer must perform;
// it never touches clocks, timers or the network. Session wraps a State
// for concurrent use and runs the effects that belong to the server side
// (the debounced refilter).
package dashboard

import (
	"fmt"

	"github.com/vizille/dashboard/internal/actions"
	"github.com/vizille/dashboard/internal/engine"
)

// ViewMode selects which presentation of the filtered records is active.
type ViewMode string

const (
	ViewThemes ViewMode = "themes"
	ViewCards  ViewMode = "cards"
	ViewTable  ViewMode = "table"
)

// ViewModes lists the modes in display order.
var ViewModes = []ViewMode{ViewThemes, ViewCards, ViewTable}

// ParseViewMode validates a mode name.
func ParseViewMode(s string) (ViewMode, error) {
	switch m := ViewMode(s); m {
	case ViewThemes, ViewCards, ViewTable:
		return m, nil
	}
	return "", fmt.Errorf("unknown view mode %q", s)
}

// Next returns the mode after m, wrapping around.
func (m ViewMode) Next() ViewMode {
	for i, v := range ViewModes {
		if v == m {
			return ViewModes[(i+1)%len(ViewModes)]
		}
	}
	return ViewThemes
}

// State is everything one dashboard session knows.
type State struct {
	// All is the loaded collection. It is shared and never modified.
	All []*actions.Action
	// Filtered is All restricted to Applied, in dataset order.
	Filtered []*actions.Action

	// Controls are the current control values; Applied are the values
	// Filtered was computed from. They differ while a text refilter is
	// pending.
	Controls engine.Criteria
	Applied  engine.Criteria

	View  ViewMode
	Sort  engine.SortKey
	Modal Modal
}

// NewState returns the initial state over all: no filter, themes view,
// sorted by year descending, modal closed.
func NewState(all []*actions.Action) State {
	return State{
		All:      all,
		Filtered: engine.Filter(all, engine.Criteria{}),
		View:     ViewThemes,
		Sort:     engine.DefaultSort,
	}
}

// Pending reports whether a control change has not been applied yet.
func (s State) Pending() bool { return s.Controls != s.Applied }

// Sorted returns Filtered ordered by the active sort key.
func (s State) Sorted() []*actions.Action { return engine.Sort(s.Filtered, s.Sort) }

// Current returns the record shown in the modal, or nil when closed.
func (s State) Current() *actions.Action {
	if !s.Modal.Open || s.Modal.Index < 0 || s.Modal.Index >= len(s.Filtered) {
		return nil
	}
	return s.Filtered[s.Modal.Index]
}
