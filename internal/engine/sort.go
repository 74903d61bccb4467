package engine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/vizille/dashboard/internal/actions"
)

// Field is a sortable record attribute, named after the dataset key.
type Field string

const (
	FieldID          Field = "id"
	FieldTitle       Field = "titre"
	FieldTheme       Field = "theme"
	FieldStatus      Field = "statut"
	FieldYear        Field = "annee"
	FieldEndYear     Field = "annee_fin"
	FieldBudget      Field = "budget"
	FieldImportance  Field = "importance"
	FieldDescription Field = "description"
)

// Fields lists every sortable field.
var Fields = []Field{
	FieldID, FieldTitle, FieldTheme, FieldStatus, FieldYear,
	FieldEndYear, FieldBudget, FieldImportance, FieldDescription,
}

// ParseField validates a field name coming from a control or a flag.
func ParseField(s string) (Field, error) {
	f := Field(strings.TrimSpace(s))
	if slices.Contains(Fields, f) {
		return f, nil
	}
	return "", fmt.Errorf("unknown sort field %q", s)
}

// Direction is the sort order.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// ParseDirection accepts "asc" or "desc".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc":
		return Ascending, nil
	case "desc":
		return Descending, nil
	}
	return Ascending, fmt.Errorf("unknown sort direction %q", s)
}

// MarshalText encodes the direction as "asc"/"desc".
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText decodes "asc"/"desc".
func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// SortKey is the active sort column and direction.
type SortKey struct {
	Field     Field     `json:"field"`
	Direction Direction `json:"direction"`
}

// DefaultSort orders by year, most recent first.
var DefaultSort = SortKey{Field: FieldYear, Direction: Descending}

// Toggle returns the key after a click on column f: the same column
// flips direction, another column starts ascending.
func (k SortKey) Toggle(f Field) SortKey {
	if k.Field == f {
		if k.Direction == Ascending {
			return SortKey{Field: f, Direction: Descending}
		}
		return SortKey{Field: f, Direction: Ascending}
	}
	return SortKey{Field: f, Direction: Ascending}
}

// Compare is a three-way comparison of a and b on f. Budget and
// importance compare numerically (absent: 0 and 1); other fields compare
// as text with absent values equal to "", which sorts first.
func Compare(a, b *actions.Action, f Field) int {
	switch f {
	case FieldBudget:
		return compareFloat(a.BudgetOrZero(), b.BudgetOrZero())
	case FieldImportance:
		return compareFloat(a.Weight(), b.Weight())
	}
	return strings.Compare(textField(a, f), textField(b, f))
}

func compareFloat(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func textField(a *actions.Action, f Field) string {
	switch f {
	case FieldID:
		return string(a.ID)
	case FieldTitle:
		return a.Title
	case FieldTheme:
		return a.Theme
	case FieldStatus:
		return string(a.Status)
	case FieldYear:
		return string(a.Year)
	case FieldEndYear:
		return string(a.EndYear)
	case FieldDescription:
		return a.Description
	}
	return ""
}

// Sort returns a new slice ordered by key. The sort is stable: records
// comparing equal keep their relative input order in both directions.
func Sort(in []*actions.Action, key SortKey) []*actions.Action {
	out := slices.Clone(in)
	slices.SortStableFunc(out, func(a, b *actions.Action) int {
		c := Compare(a, b, key.Field)
		if key.Direction == Descending {
			return -c
		}
		return c
	})
	return out
}
