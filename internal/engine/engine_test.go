package engine

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vizille/dashboard/internal/actions"
)

func ptr(v float64) *float64 { return &v }

func fixture() []*actions.Action {
	return []*actions.Action{
		{ID: "1", Title: "Maison de santé", Theme: "Santé", Status: actions.StatusDone, Year: "2021", Budget: ptr(2_500_000), Summary: "Regroupement des praticiens"},
		{ID: "2", Title: "Piste cyclable", Theme: "Mobilités", Status: actions.StatusInProgress, Year: "2022", EndYear: "2024", Budget: ptr(45_000)},
		{ID: "3", Title: "Jardins partagés", Theme: "Environnement", Status: actions.StatusDecided, Year: "2022", Details: "Parcelles rue de la Santé"},
		{ID: "4", Title: "Skatepark", Theme: "Sport", Status: actions.StatusScheduled, Year: "2023", Budget: ptr(500), Importance: ptr(2)},
		{ID: "5", Title: "Centre de vaccination", Theme: "Santé", Status: actions.StatusInProgress, Budget: ptr(120_000), Description: "Ouvert en urgence"},
		{ID: "6", Title: "Fête des lumières", Theme: "Culture", Status: "Abandonné", Year: "2021"},
	}
}

func ids(list []*actions.Action) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = string(a.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	all := fixture()
	tests := []struct {
		name string
		c    Criteria
		want []string
	}{
		{"empty criteria keeps everything", Criteria{}, []string{"1", "2", "3", "4", "5", "6"}},
		{"query is case-insensitive over title", Criteria{Query: "PISTE"}, []string{"2"}},
		{"query matches summary, details and theme", Criteria{Query: "santé"}, []string{"1", "3", "5"}},
		{"query matches description", Criteria{Query: "urgence"}, []string{"5"}},
		{"theme", Criteria{Theme: "Santé"}, []string{"1", "5"}},
		{"status", Criteria{Status: "En cours"}, []string{"2", "5"}},
		{"year", Criteria{Year: "2022"}, []string{"2", "3"}},
		{"constraints are combined", Criteria{Theme: "Santé", Status: "En cours"}, []string{"5"}},
		{"no match", Criteria{Query: "piscine"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(all, tt.c)
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("Filter() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilterSharesRecordsAndLeavesSourceAlone(t *testing.T) {
	all := fixture()
	before := ids(all)

	got := Filter(all, Criteria{Theme: "Santé"})
	require.Len(t, got, 2)
	assert.Same(t, all[0], got[0])
	assert.Same(t, all[4], got[1])

	full := Filter(all, Criteria{})
	full[0] = nil
	assert.NotNil(t, all[0], "filtered slice must not alias the source")
	assert.Equal(t, before, ids(all))
}

// The filtered set is exactly the AND of the individual constraints.
func TestFilterMatchesConstraintConjunction(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	themes := []string{"Santé", "Sport", "Culture", "Finance"}
	statuses := []string{"Réalisé", "En cours", "Décidé", "Programmé", "Autre"}
	years := []string{"", "2020", "2021", "2022"}
	words := []string{"école", "Route", "parc", "MAIRIE"}

	var all []*actions.Action
	for i := 0; i < 200; i++ {
		all = append(all, &actions.Action{
			ID:          actions.Text(fmt.Sprint(i)),
			Title:       words[rng.Intn(len(words))] + " " + fmt.Sprint(i),
			Description: words[rng.Intn(len(words))],
			Theme:       themes[rng.Intn(len(themes))],
			Status:      actions.Status(statuses[rng.Intn(len(statuses))]),
			Year:        actions.Text(years[rng.Intn(len(years))]),
		})
	}

	pick := func(vals []string) string {
		if rng.Intn(3) == 0 {
			return ""
		}
		return vals[rng.Intn(len(vals))]
	}
	for n := 0; n < 300; n++ {
		c := Criteria{Query: pick(words), Theme: pick(themes), Status: pick(statuses), Year: pick(years)}
		got := Filter(all, c)

		var want []string
		for _, a := range all {
			q := strings.ToLower(c.Query)
			ok := (q == "" || strings.Contains(strings.ToLower(a.Title), q) || strings.Contains(strings.ToLower(a.Description), q)) &&
				(c.Theme == "" || a.Theme == c.Theme) &&
				(c.Status == "" || string(a.Status) == c.Status) &&
				(c.Year == "" || string(a.Year) == c.Year)
			if ok {
				want = append(want, string(a.ID))
			}
		}
		if want == nil {
			want = []string{}
		}
		require.Equal(t, want, ids(got), "criteria %+v", c)
		require.Equal(t, ids(got), ids(Filter(all, c)), "filter must be idempotent")
	}
}

func TestSort(t *testing.T) {
	all := fixture()

	byBudget := Sort(all, SortKey{Field: FieldBudget, Direction: Ascending})
	assert.Equal(t, []string{"3", "6", "4", "2", "5", "1"}, ids(byBudget))

	byTitle := Sort(all, SortKey{Field: FieldTitle, Direction: Ascending})
	assert.Equal(t, "Centre de vaccination", byTitle[0].Title)

	byYear := Sort(all, SortKey{Field: FieldYear, Direction: Ascending})
	assert.Equal(t, "5", string(byYear[0].ID), "absent year sorts first ascending")

	byYearDesc := Sort(all, DefaultSort)
	assert.Equal(t, []string{"4", "2", "3", "1", "6", "5"}, ids(byYearDesc))

	byImportance := Sort(all, SortKey{Field: FieldImportance, Direction: Descending})
	assert.Equal(t, "4", string(byImportance[0].ID))

	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, ids(all), "input must not be reordered")
}

func TestSortBudgetDirectionsAreReversed(t *testing.T) {
	var all []*actions.Action
	for i, b := range []float64{300, 12, 5_000, 90_000, 1, 42} {
		all = append(all, &actions.Action{ID: actions.Text(fmt.Sprint(i)), Budget: ptr(b)})
	}
	asc := ids(Sort(all, SortKey{Field: FieldBudget, Direction: Ascending}))
	desc := ids(Sort(all, SortKey{Field: FieldBudget, Direction: Descending}))
	for i := range asc {
		assert.Equal(t, asc[i], desc[len(desc)-1-i])
	}
}

func TestSortIsStableOnTies(t *testing.T) {
	all := fixture()
	got := Sort(all, SortKey{Field: FieldTheme, Direction: Descending})
	var sante []string
	for _, a := range got {
		if a.Theme == "Santé" {
			sante = append(sante, string(a.ID))
		}
	}
	assert.Equal(t, []string{"1", "5"}, sante)
}

func TestSortKeyToggle(t *testing.T) {
	k := DefaultSort
	k = k.Toggle(FieldBudget)
	assert.Equal(t, SortKey{Field: FieldBudget, Direction: Ascending}, k)
	k = k.Toggle(FieldBudget)
	assert.Equal(t, SortKey{Field: FieldBudget, Direction: Descending}, k)
	k = k.Toggle(FieldBudget)
	assert.Equal(t, Ascending, k.Direction)
	assert.Equal(t, SortKey{Field: FieldYear, Direction: Ascending}, k.Toggle(FieldYear))
}

func TestParseFieldAndDirection(t *testing.T) {
	f, err := ParseField("budget")
	require.NoError(t, err)
	assert.Equal(t, FieldBudget, f)
	_, err = ParseField("nope")
	assert.Error(t, err)

	d, err := ParseDirection("DESC")
	require.NoError(t, err)
	assert.Equal(t, Descending, d)
	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}

func TestGroupByTheme(t *testing.T) {
	all := fixture()
	groups := GroupBy(all, ByTheme)
	require.Len(t, groups, 5)
	assert.Equal(t, "Santé", groups[0].Key, "first appearance order")

	var count int
	var budget float64
	for _, g := range groups {
		count += g.Count
		budget += g.Budget
		assert.Equal(t, g.Count, g.Done+g.InProgress+g.Other)
	}
	totals := Summarize(all)
	assert.Equal(t, len(all), count)
	assert.InDelta(t, totals.Budget, budget, 1e-6)

	ranked := RankByCount(groups)
	assert.Equal(t, "Santé", ranked[0].Key)
	assert.Equal(t, 2, ranked[0].Count)
	assert.Equal(t, 1, ranked[0].Done)
	assert.Equal(t, 1, ranked[0].InProgress)
	assert.Equal(t, "Mobilités", ranked[1].Key, "ties keep first appearance order")
}

func TestSummarizeAndDistinct(t *testing.T) {
	all := fixture()
	totals := Summarize(all)
	assert.Equal(t, Totals{Count: 6, Done: 1, InProgress: 2, Budget: 2_665_500}, totals)

	assert.Equal(t, []string{"2021", "2022", "2023"}, Distinct(all, ByYear))
	assert.Equal(t, []string{"Culture", "Environnement", "Mobilités", "Santé", "Sport"}, Distinct(all, ByTheme))
}

func TestThemeChartKeepsTopTen(t *testing.T) {
	var all []*actions.Action
	for i := 0; i < 12; i++ {
		for j := 0; j <= i; j++ {
			all = append(all, &actions.Action{ID: actions.Text(fmt.Sprintf("%d-%d", i, j)), Theme: fmt.Sprintf("T%02d", i)})
		}
	}
	c := ThemeChart(all, actions.DefaultThemes())
	require.Len(t, c.Labels, ThemeChartLimit)
	assert.Equal(t, "T11", c.Labels[0])
	assert.Equal(t, 12.0, c.Series[0].Values[0])
	assert.True(t, c.Truncated)
	assert.Equal(t, 2, c.Omitted)
	assert.Equal(t, actions.FallbackTheme.Color, c.Series[0].Colors[0])

	label, ok := c.Label(1)
	assert.True(t, ok)
	assert.Equal(t, "T10", label)
	_, ok = c.Label(10)
	assert.False(t, ok)
}

func TestYearAndStatusCharts(t *testing.T) {
	all := fixture()

	years := YearChart(all)
	assert.Equal(t, []string{"2021", "2022", "2023"}, years.Labels)
	require.Len(t, years.Series, 2)
	assert.Equal(t, []float64{2, 2, 1}, years.Series[0].Values)
	assert.InDelta(t, 2.5, years.Series[1].Values[0], 1e-9)
	assert.Equal(t, "y1", years.Series[1].Axis)

	statuses := StatusChart(all)
	assert.Equal(t, []string{"Réalisé", "En cours", "Décidé", "Programmé"}, statuses.Labels)
	assert.Equal(t, []float64{1, 2, 1, 1}, statuses.Series[0].Values)
	assert.Equal(t, "#27ae60", statuses.Series[0].Colors[0])

	assert.Len(t, Charts(all, actions.DefaultThemes()), 3)
}

func TestFormatBudget(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{2_500_000, "2,5 M€"},
		{1_000_000, "1,0 M€"},
		{45_000, "45 k€"},
		{1_500, "2 k€"},
		{500, "500 €"},
		{0, "—"},
		{-10, "—"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.amount), func(t *testing.T) {
			assert.Equal(t, tt.want, FormatBudget(tt.amount))
		})
	}
}

func TestFormatYears(t *testing.T) {
	assert.Equal(t, "2022 → 2024", FormatYears(&actions.Action{Year: "2022", EndYear: "2024"}))
	assert.Equal(t, "2022", FormatYears(&actions.Action{Year: "2022", EndYear: "2022"}))
	assert.Equal(t, "2022", FormatYears(&actions.Action{Year: "2022"}))
	assert.Equal(t, "—", FormatYears(&actions.Action{EndYear: "2024"}))
}

func TestAdjustColor(t *testing.T) {
	assert.Equal(t, "#d50a4f", AdjustColor("#e91e63", -20))
	assert.Equal(t, "#000000", AdjustColor("#0a0a0a", -20))
	assert.Equal(t, "#ffffff", AdjustColor("#f0f0f0", 40))
	assert.Equal(t, "red", AdjustColor("red", -20))
}
