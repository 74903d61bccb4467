// Package actions holds the municipal action record and the static
// configuration used to present it (statuses, themes).
package actions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Text is a scalar dataset value kept as text. The dataset mixes numbers
// and strings for ids, years and key-figure values, so both decode here.
type Text string

// UnmarshalJSON accepts a JSON string, number, boolean or null.
func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	case 't', 'f':
		var v bool
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*t = Text(strconv.FormatBool(v))
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("text value: %w", err)
		}
		*t = Text(n.String())
		return nil
	}
}

func (t Text) String() string { return string(t) }

// KeyFigure is one entry of the "chiffres clés" grid.
type KeyFigure struct {
	Value Text   `json:"valeur"`
	Label string `json:"label"`
}

// TimelineEntry is one dated event of an action's chronology.
type TimelineEntry struct {
	Date  Text   `json:"date"`
	Event string `json:"evenement"`
}

// Source is a citation backing an action (council deliberation, magazine...).
type Source struct {
	Type string `json:"type"`
	Ref  string `json:"ref"`
	Desc string `json:"desc,omitempty"`
}

// Action is one municipal project of the dataset.
type Action struct {
	ID          Text            `json:"id"`
	Title       string          `json:"titre"`
	Theme       string          `json:"theme"`
	Status      Status          `json:"statut"`
	Year        Text            `json:"annee,omitempty"`
	EndYear     Text            `json:"annee_fin,omitempty"`
	Budget      *float64        `json:"budget,omitempty"`
	Summary     string          `json:"resume,omitempty"`
	Description string          `json:"description,omitempty"`
	Details     string          `json:"details,omitempty"`
	Importance  *float64        `json:"importance,omitempty"`
	KeyFigures  []KeyFigure     `json:"chiffres,omitempty"`
	Timeline    []TimelineEntry `json:"chronologie,omitempty"`
	Sources     []Source        `json:"sources,omitempty"`
}

// BudgetOrZero returns the budget, 0 when absent.
func (a *Action) BudgetOrZero() float64 {
	if a.Budget == nil {
		return 0
	}
	return *a.Budget
}

// Weight returns the importance used for ordering: absent or 0 counts as 1.
func (a *Action) Weight() float64 {
	if a.Importance == nil || *a.Importance == 0 {
		return 1
	}
	return *a.Importance
}

// HasMoreDetail reports whether the card should hint at a richer detail view.
func (a *Action) HasMoreDetail() bool {
	if a.Importance != nil && *a.Importance > 1 {
		return true
	}
	return len(a.KeyFigures) > 1
}

// Find returns the position of the action with the given id, or -1.
func Find(list []*Action, id Text) int {
	for i, a := range list {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// Decode parses a dataset document and checks id uniqueness.
func Decode(data []byte) ([]*Action, error) {
	var list []*Action
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	seen := make(map[Text]int, len(list))
	for i, a := range list {
		if a == nil {
			return nil, fmt.Errorf("record %d: null entry", i)
		}
		if a.ID == "" {
			return nil, fmt.Errorf("record %d (%q): missing id", i, a.Title)
		}
		if j, dup := seen[a.ID]; dup {
			return nil, fmt.Errorf("record %d: duplicate id %q (first seen at %d)", i, a.ID, j)
		}
		seen[a.ID] = i
	}
	return list, nil
}
