package engine

import (
	"github.com/vizille/dashboard/internal/actions"
)

// ChartID names one of the dashboard charts.
type ChartID string

const (
	ChartThemes   ChartID = "themes"
	ChartYears    ChartID = "annees"
	ChartStatuses ChartID = "statuts"
)

// ThemeChartLimit is the number of categories shown in the theme chart.
// Remaining categories are omitted, not rolled into an "other" slice.
const ThemeChartLimit = 10

// Series is one dataset of a chart.
type Series struct {
	Label  string    `json:"label"`
	Type   string    `json:"type,omitempty"`
	Axis   string    `json:"axis,omitempty"`
	Values []float64 `json:"values"`
	Colors []string  `json:"colors,omitempty"`
}

// Chart is the precomputed payload handed to the charting collaborator.
type Chart struct {
	ID     ChartID  `json:"id"`
	Type   string   `json:"type"`
	Labels []string `json:"labels"`
	Series []Series `json:"series"`

	// Truncated is set when categories were dropped to respect a limit;
	// Omitted counts them.
	Truncated bool `json:"truncated,omitempty"`
	Omitted   int  `json:"omitted,omitempty"`
}

// Label maps a click index back to the category it represents.
func (c Chart) Label(index int) (string, bool) {
	if index < 0 || index >= len(c.Labels) {
		return "", false
	}
	return c.Labels[index], true
}

// ThemeChart counts records per theme and keeps the ThemeChartLimit
// largest themes.
func ThemeChart(all []*actions.Action, themes *actions.Themes) Chart {
	ranked := RankByCount(GroupBy(all, ByTheme))
	kept := Top(ranked, ThemeChartLimit)

	c := Chart{
		ID:        ChartThemes,
		Type:      "doughnut",
		Labels:    make([]string, 0, len(kept)),
		Truncated: len(kept) < len(ranked),
		Omitted:   len(ranked) - len(kept),
	}
	values := make([]float64, 0, len(kept))
	colors := make([]string, 0, len(kept))
	for _, g := range kept {
		c.Labels = append(c.Labels, g.Key)
		values = append(values, float64(g.Count))
		colors = append(colors, themes.Lookup(g.Key).Color)
	}
	c.Series = []Series{{Label: "Actions", Values: values, Colors: colors}}
	return c
}

// YearChart is a dual-axis series per year: action count on "y" and
// budget in millions of euros on "y1". Records without a year are skipped.
func YearChart(all []*actions.Action) Chart {
	groups := SortByKey(GroupBy(all, ByYear))

	c := Chart{ID: ChartYears, Type: "bar", Labels: make([]string, 0, len(groups))}
	counts := make([]float64, 0, len(groups))
	budgets := make([]float64, 0, len(groups))
	for _, g := range groups {
		if g.Key == "" {
			continue
		}
		c.Labels = append(c.Labels, g.Key)
		counts = append(counts, float64(g.Count))
		budgets = append(budgets, g.Budget/1_000_000)
	}
	c.Series = []Series{
		{Label: "Actions", Type: "bar", Axis: "y", Values: counts},
		{Label: "Budget (M€)", Type: "line", Axis: "y1", Values: budgets},
	}
	return c
}

// StatusChart counts records for each known status, in fixed order.
// Unrecognized statuses are not counted.
func StatusChart(all []*actions.Action) Chart {
	counts := make(map[actions.Status]int, len(actions.Statuses))
	for _, a := range all {
		if a.Status.Known() {
			counts[a.Status]++
		}
	}

	c := Chart{ID: ChartStatuses, Type: "polarArea", Labels: make([]string, 0, len(actions.Statuses))}
	values := make([]float64, 0, len(actions.Statuses))
	colors := make([]string, 0, len(actions.Statuses))
	for _, s := range actions.Statuses {
		c.Labels = append(c.Labels, string(s))
		values = append(values, float64(counts[s]))
		colors = append(colors, s.Color())
	}
	c.Series = []Series{{Label: "Statuts", Values: values, Colors: colors}}
	return c
}

// Charts builds the three dashboard charts over the full collection.
func Charts(all []*actions.Action, themes *actions.Themes) []Chart {
	return []Chart{ThemeChart(all, themes), YearChart(all), StatusChart(all)}
}
