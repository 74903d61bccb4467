package dashboard

import (
	"fmt"

	"github.com/vizille/dashboard/internal/actions"
	"github.com/vizille/dashboard/internal/engine"
)

// Renderer turns a State into the presentation-neutral View. It holds the
// injected theme configuration and number formatter.
type Renderer struct {
	themes *actions.Themes
	format *engine.Formatter
}

// NewRenderer returns a renderer; nil arguments select the built-in
// themes and the French formatter.
func NewRenderer(themes *actions.Themes, format *engine.Formatter) *Renderer {
	if themes == nil {
		themes = actions.DefaultThemes()
	}
	if format == nil {
		format = engine.DefaultFormatter
	}
	return &Renderer{themes: themes, format: format}
}

// Themes returns the theme configuration used by r.
func (r *Renderer) Themes() *actions.Themes { return r.themes }

// Formatter returns the number formatter used by r.
func (r *Renderer) Formatter() *engine.Formatter { return r.format }

// Indicator is a progress dot on a theme tile.
type Indicator struct {
	Class string `json:"class"`
	Count int    `json:"count"`
	Title string `json:"title"`
}

// Tile is one theme group in the themes view.
type Tile struct {
	Theme      string      `json:"theme"`
	Icon       string      `json:"icon"`
	Color      string      `json:"color"`
	Count      int         `json:"count"`
	CountLabel string      `json:"count_label"`
	Budget     string      `json:"budget"`
	Indicators []Indicator `json:"indicators,omitempty"`
}

// Card is one record in the cards view.
type Card struct {
	ID            actions.Text   `json:"id"`
	Theme         string         `json:"theme"`
	Icon          string         `json:"icon"`
	Color         string         `json:"color"`
	Status        actions.Status `json:"status"`
	StatusClass   string         `json:"status_class"`
	Title         string         `json:"title"`
	Description   string         `json:"description,omitempty"`
	Budget        string         `json:"budget"`
	Years         string         `json:"years"`
	HasMoreDetail bool           `json:"has_more_detail"`
}

// Row is one record in the table view.
type Row struct {
	ID          actions.Text   `json:"id"`
	Theme       string         `json:"theme"`
	Icon        string         `json:"icon"`
	Color       string         `json:"color"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Status      actions.Status `json:"status"`
	StatusClass string         `json:"status_class"`
	Years       string         `json:"years"`
	Budget      string         `json:"budget"`
}

// Column is a sortable table header.
type Column struct {
	Field  engine.Field `json:"field"`
	Label  string       `json:"label"`
	Active bool         `json:"active"`
	// Direction is "asc" or "desc" on the active column, empty otherwise.
	Direction string `json:"direction,omitempty"`
}

var tableColumns = []struct {
	field engine.Field
	label string
}{
	{engine.FieldTheme, "Thème"},
	{engine.FieldTitle, "Action"},
	{engine.FieldStatus, "Statut"},
	{engine.FieldYear, "Année"},
	{engine.FieldBudget, "Budget"},
}

// Stats are the headline counters over the full collection.
type Stats struct {
	engine.Totals
	BudgetLabel string `json:"budget_label"`
}

// Option is one entry of a filter drop-down.
type Option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// Options are the choices of the three drop-down filters.
type Options struct {
	Themes   []Option `json:"themes"`
	Statuses []Option `json:"statuses"`
	Years    []Option `json:"years"`
}

// View is the rendered dashboard: the active mode's items plus the parts
// that are always shown.
type View struct {
	Mode    ViewMode        `json:"mode"`
	Count   int             `json:"count"`
	Empty   bool            `json:"empty"`
	Pending bool            `json:"pending"`
	Filters engine.Criteria `json:"filters"`
	Sort    engine.SortKey  `json:"sort"`

	Tiles   []Tile   `json:"tiles,omitempty"`
	Cards   []Card   `json:"cards,omitempty"`
	Columns []Column `json:"columns,omitempty"`
	Rows    []Row    `json:"rows,omitempty"`

	Stats   Stats          `json:"stats"`
	Options Options        `json:"options"`
	Charts  []engine.Chart `json:"charts"`
	Detail  *Detail        `json:"detail,omitempty"`
}

// Render builds the view of s. Only the active mode is populated, and
// nothing is when the filtered collection is empty.
func (r *Renderer) Render(s State) View {
	v := View{
		Mode:    s.View,
		Count:   len(s.Filtered),
		Empty:   len(s.Filtered) == 0,
		Pending: s.Pending(),
		Filters: s.Controls,
		Sort:    s.Sort,
		Stats:   r.stats(s.All),
		Options: r.options(s.All, s.Controls),
		Charts:  engine.Charts(s.All, r.themes),
		Detail:  r.detail(s),
	}
	if v.Empty {
		return v
	}
	switch s.View {
	case ViewThemes:
		v.Tiles = r.Tiles(s.Filtered)
	case ViewCards:
		v.Cards = r.Cards(s.Sorted())
	case ViewTable:
		v.Columns = Columns(s.Sort)
		v.Rows = r.Rows(s.Sorted())
	}
	return v
}

// Tiles groups in by theme, largest group first.
func (r *Renderer) Tiles(in []*actions.Action) []Tile {
	groups := engine.RankByCount(engine.GroupBy(in, engine.ByTheme))
	tiles := make([]Tile, 0, len(groups))
	for _, g := range groups {
		theme := r.themes.Lookup(g.Key)
		t := Tile{
			Theme:      g.Key,
			Icon:       theme.Icon,
			Color:      theme.Color,
			Count:      g.Count,
			CountLabel: plural(g.Count, "action", "actions"),
			Budget:     r.format.Budget(g.Budget),
		}
		if g.Done > 0 {
			t.Indicators = append(t.Indicators, Indicator{"realise", g.Done, fmt.Sprintf("%d réalisé(s)", g.Done)})
		}
		if g.InProgress > 0 {
			t.Indicators = append(t.Indicators, Indicator{"encours", g.InProgress, fmt.Sprintf("%d en cours", g.InProgress)})
		}
		if g.Other > 0 {
			t.Indicators = append(t.Indicators, Indicator{"projet", g.Other, fmt.Sprintf("%d projet(s)", g.Other)})
		}
		tiles = append(tiles, t)
	}
	return tiles
}

// Cards renders in, already sorted, as cards.
func (r *Renderer) Cards(in []*actions.Action) []Card {
	cards := make([]Card, 0, len(in))
	for _, a := range in {
		theme := r.themes.Lookup(a.Theme)
		cards = append(cards, Card{
			ID:            a.ID,
			Theme:         a.Theme,
			Icon:          theme.Icon,
			Color:         theme.Color,
			Status:        a.Status,
			StatusClass:   a.Status.Class(),
			Title:         a.Title,
			Description:   a.Description,
			Budget:        r.format.Budget(a.BudgetOrZero()),
			Years:         engine.FormatYears(a),
			HasMoreDetail: a.HasMoreDetail(),
		})
	}
	return cards
}

// Rows renders in, already sorted, as table rows.
func (r *Renderer) Rows(in []*actions.Action) []Row {
	rows := make([]Row, 0, len(in))
	for _, a := range in {
		theme := r.themes.Lookup(a.Theme)
		rows = append(rows, Row{
			ID:          a.ID,
			Theme:       a.Theme,
			Icon:        theme.Icon,
			Color:       theme.Color,
			Title:       a.Title,
			Description: a.Description,
			Status:      a.Status,
			StatusClass: a.Status.Class(),
			Years:       engine.FormatYears(a),
			Budget:      r.format.Budget(a.BudgetOrZero()),
		})
	}
	return rows
}

// Columns returns the table headers with the active sort marked.
func Columns(key engine.SortKey) []Column {
	cols := make([]Column, 0, len(tableColumns))
	for _, c := range tableColumns {
		col := Column{Field: c.field, Label: c.label}
		if c.field == key.Field {
			col.Active = true
			col.Direction = key.Direction.String()
		}
		cols = append(cols, col)
	}
	return cols
}

func (r *Renderer) stats(all []*actions.Action) Stats {
	t := engine.Summarize(all)
	return Stats{Totals: t, BudgetLabel: r.format.Budget(t.Budget)}
}

func (r *Renderer) options(all []*actions.Action, c engine.Criteria) Options {
	var o Options
	for _, name := range engine.Distinct(all, engine.ByTheme) {
		o.Themes = append(o.Themes, Option{
			Value:    name,
			Label:    r.themes.Lookup(name).Icon + " " + name,
			Selected: name == c.Theme,
		})
	}
	for _, st := range actions.Statuses {
		o.Statuses = append(o.Statuses, Option{Value: string(st), Label: string(st), Selected: string(st) == c.Status})
	}
	for _, y := range engine.Distinct(all, engine.ByYear) {
		o.Years = append(o.Years, Option{Value: y, Label: y, Selected: y == c.Year})
	}
	return o
}

func (r *Renderer) detail(s State) *Detail {
	a := s.Current()
	if a == nil {
		return nil
	}
	d := NewDetail(a, r.themes, r.format)
	d.Position = s.Modal.Index + 1
	d.Total = len(s.Filtered)
	d.Navigable = len(s.Filtered) > 1
	return d
}

func plural(n int, one, many string) string {
	if n > 1 {
		return fmt.Sprintf("%d %s", n, many)
	}
	return fmt.Sprintf("%d %s", n, one)
}
