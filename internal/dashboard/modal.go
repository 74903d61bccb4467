package dashboard

import (
	"github.com/vizille/dashboard/internal/actions"
	"github.com/vizille/dashboard/internal/engine"
)

// Modal is the detail dialog: closed, or open on Filtered[Index]. ID is
// kept so the record can be found again after a refilter.
type Modal struct {
	Open  bool         `json:"open"`
	Index int          `json:"index"`
	ID    actions.Text `json:"id,omitempty"`
}

func openModal(s State, id actions.Text) (State, []Effect) {
	i := actions.Find(s.Filtered, id)
	if i < 0 {
		return s, nil
	}
	wasOpen := s.Modal.Open
	s.Modal = Modal{Open: true, Index: i, ID: id}
	if wasOpen {
		return s, nil
	}
	return s, []Effect{EffectLockScroll}
}

func closeModal(s State) (State, []Effect) {
	if !s.Modal.Open {
		return s, nil
	}
	s.Modal = Modal{}
	return s, []Effect{EffectUnlockScroll}
}

// navigate moves the cursor by delta, wrapping at both ends. With one
// record or fewer there is nowhere to go.
func navigate(s State, delta int) State {
	n := len(s.Filtered)
	if !s.Modal.Open || n <= 1 {
		return s
	}
	i := ((s.Modal.Index+delta)%n + n) % n
	s.Modal = Modal{Open: true, Index: i, ID: s.Filtered[i].ID}
	return s
}

const (
	noSummary     = "Pas de description disponible."
	defaultSource = "Documentation municipale"
)

// Detail is the content of the open modal.
type Detail struct {
	ID          actions.Text            `json:"id"`
	Title       string                  `json:"title"`
	Theme       string                  `json:"theme"`
	Icon        string                  `json:"icon"`
	Color       string                  `json:"color"`
	GradientEnd string                  `json:"gradient_end"`
	Status      actions.Status          `json:"status"`
	StatusClass string                  `json:"status_class"`
	Summary     string                  `json:"summary"`
	Budget      string                  `json:"budget"`
	Years       string                  `json:"years"`
	KeyFigures  []actions.KeyFigure     `json:"key_figures,omitempty"`
	Timeline    []actions.TimelineEntry `json:"timeline,omitempty"`
	Details     string                  `json:"details,omitempty"`
	Sources     []DetailSource          `json:"sources"`

	Position  int  `json:"position"`
	Total     int  `json:"total"`
	Navigable bool `json:"navigable"`
}

// DetailSource is one documentation reference with its icon.
type DetailSource struct {
	Icon string `json:"icon"`
	Ref  string `json:"ref"`
	Desc string `json:"desc,omitempty"`
}

func sourceIcon(kind string) string {
	switch kind {
	case "delib":
		return "📋"
	case "magazine":
		return "📰"
	}
	return "📄"
}

// NewDetail builds the modal content for a. Position and navigation are
// left to the caller.
func NewDetail(a *actions.Action, themes *actions.Themes, f *engine.Formatter) *Detail {
	if f == nil {
		f = engine.DefaultFormatter
	}
	theme := themes.Lookup(a.Theme)
	d := &Detail{
		ID:          a.ID,
		Title:       a.Title,
		Theme:       a.Theme,
		Icon:        theme.Icon,
		Color:       theme.Color,
		GradientEnd: engine.AdjustColor(theme.Color, -20),
		Status:      a.Status,
		StatusClass: a.Status.Class(),
		Summary:     a.Summary,
		Budget:      f.Budget(a.BudgetOrZero()),
		Years:       engine.FormatYears(a),
		KeyFigures:  a.KeyFigures,
		Timeline:    a.Timeline,
		Details:     a.Details,
	}
	if d.Summary == "" {
		d.Summary = a.Description
	}
	if d.Summary == "" {
		d.Summary = noSummary
	}
	for _, src := range a.Sources {
		d.Sources = append(d.Sources, DetailSource{Icon: sourceIcon(src.Type), Ref: src.Ref, Desc: src.Desc})
	}
	if len(d.Sources) == 0 {
		d.Sources = []DetailSource{{Icon: sourceIcon(""), Ref: defaultSource}}
	}
	return d
}
