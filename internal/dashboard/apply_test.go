package dashboard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vizille/dashboard/internal/actions"
	"github.com/vizille/dashboard/internal/engine"
)

func ptr(v float64) *float64 { return &v }

func fixture() []*actions.Action {
	return []*actions.Action{
		{ID: "1", Title: "Maison de santé", Theme: "Santé", Status: actions.StatusDone, Year: "2021", Budget: ptr(2_500_000), Summary: "Regroupement des praticiens"},
		{ID: "2", Title: "Piste cyclable", Theme: "Mobilités", Status: actions.StatusInProgress, Year: "2022", EndYear: "2024", Budget: ptr(45_000)},
		{ID: "3", Title: "Jardins partagés", Theme: "Environnement", Status: actions.StatusDecided, Year: "2022"},
		{ID: "4", Title: "Skatepark", Theme: "Sport", Status: actions.StatusScheduled, Year: "2023", Budget: ptr(500), Importance: ptr(2)},
		{ID: "5", Title: "Centre de vaccination", Theme: "Santé", Status: actions.StatusInProgress, Year: "2021", Budget: ptr(120_000), Description: "Ouvert en urgence"},
	}
}

func ids(list []*actions.Action) []string {
	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, string(a.ID))
	}
	return out
}

func apply(t *testing.T, s State, cmds ...Command) State {
	t.Helper()
	for _, c := range cmds {
		require.NoError(t, c.Validate(), "command %+v", c)
		s, _ = Apply(s, c)
	}
	return s
}

func TestNewState(t *testing.T) {
	s := NewState(fixture())
	assert.Len(t, s.Filtered, 5)
	assert.Equal(t, ViewThemes, s.View)
	assert.Equal(t, engine.DefaultSort, s.Sort)
	assert.False(t, s.Modal.Open)
	assert.False(t, s.Pending())
	assert.Nil(t, s.Current())
}

func TestQueryIsDeferredUntilRefilter(t *testing.T) {
	s := NewState(fixture())

	s, effects := Apply(s, Command{Type: CmdSetQuery, Value: "piste"})
	assert.Equal(t, []Effect{EffectDebounceRefilter}, effects)
	assert.Equal(t, "piste", s.Controls.Query)
	assert.Len(t, s.Filtered, 5, "text input alone does not refilter")
	assert.True(t, s.Pending())

	s, _ = Apply(s, Command{Type: CmdRefilter})
	assert.Equal(t, []string{"2"}, ids(s.Filtered))
	assert.False(t, s.Pending())
}

func TestSelectControlsRefilterWithCurrentQuery(t *testing.T) {
	s := NewState(fixture())
	s, _ = Apply(s, Command{Type: CmdSetQuery, Value: "a"})
	s, effects := Apply(s, Command{Type: CmdSetTheme, Value: "Santé"})
	assert.Empty(t, effects)
	assert.Equal(t, engine.Criteria{Query: "a", Theme: "Santé"}, s.Applied)
	assert.Equal(t, []string{"1", "5"}, ids(s.Filtered))

	s = apply(t, s, Command{Type: CmdSetStatus, Value: "En cours"})
	assert.Equal(t, []string{"5"}, ids(s.Filtered))

	s = apply(t, s, Command{Type: CmdSetYear, Value: "2022"})
	assert.Empty(t, s.Filtered)
}

func TestResetRestoresFullCollection(t *testing.T) {
	all := fixture()
	s := apply(t, NewState(all),
		Command{Type: CmdSetQuery, Value: "zzz"},
		Command{Type: CmdSetTheme, Value: "Sport"},
		Command{Type: CmdSetYear, Value: "2023"},
	)
	s = apply(t, s, Command{Type: CmdReset})
	assert.Equal(t, engine.Criteria{}, s.Controls)
	assert.Equal(t, ids(all), ids(s.Filtered))
}

func TestApplyDoesNotModifyInput(t *testing.T) {
	s0 := NewState(fixture())
	_, _ = Apply(s0, Command{Type: CmdSetTheme, Value: "Sport"})
	_, _ = Apply(s0, Command{Type: CmdOpen, Value: "2"})
	assert.Len(t, s0.Filtered, 5)
	assert.Equal(t, engine.Criteria{}, s0.Controls)
	assert.False(t, s0.Modal.Open)
}

func TestViewAndSort(t *testing.T) {
	s := apply(t, NewState(fixture()), Command{Type: CmdView, Value: "table"})
	assert.Equal(t, ViewTable, s.View)

	s = apply(t, s, Command{Type: CmdSort, Value: "budget"})
	assert.Equal(t, engine.SortKey{Field: engine.FieldBudget, Direction: engine.Ascending}, s.Sort)
	assert.Equal(t, []string{"3", "4", "2", "5", "1"}, ids(s.Sorted()))

	s = apply(t, s, Command{Type: CmdSort, Value: "budget"})
	assert.Equal(t, []string{"1", "5", "2", "4", "3"}, ids(s.Sorted()))
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids(s.Filtered), "sorting leaves the filtered order alone")

	unchanged, _ := Apply(s, Command{Type: CmdView, Value: "mosaic"})
	assert.Equal(t, ViewTable, unchanged.View)
}

func TestSelectThemeSwitchesToCards(t *testing.T) {
	s := apply(t, NewState(fixture()), Command{Type: CmdSelectTheme, Value: "Santé"})
	assert.Equal(t, ViewCards, s.View)
	assert.Equal(t, "Santé", s.Controls.Theme)
	assert.Equal(t, []string{"1", "5"}, ids(s.Filtered))
}

func TestChartClick(t *testing.T) {
	s := NewState(fixture())

	next, effects := Apply(s, Command{Type: CmdChartClick, Chart: engine.ChartThemes, Index: 0})
	assert.Equal(t, "Santé", next.Controls.Theme)
	assert.Equal(t, ViewCards, next.View)
	assert.Equal(t, []Effect{EffectScrollToResults}, effects)

	next, _ = Apply(s, Command{Type: CmdChartClick, Chart: engine.ChartYears, Index: 1})
	assert.Equal(t, "2022", next.Controls.Year)
	assert.Equal(t, ViewThemes, next.View)
	assert.Equal(t, []string{"2", "3"}, ids(next.Filtered))

	next, _ = Apply(s, Command{Type: CmdChartClick, Chart: engine.ChartStatuses, Index: 1})
	assert.Equal(t, "En cours", next.Controls.Status)

	next, effects = Apply(s, Command{Type: CmdChartClick, Chart: engine.ChartThemes, Index: 42})
	assert.Nil(t, effects)
	assert.Equal(t, s.Controls, next.Controls)
}

func TestModalOpenAndClose(t *testing.T) {
	s := NewState(fixture())

	missed, effects := Apply(s, Command{Type: CmdOpen, Value: "999"})
	assert.False(t, missed.Modal.Open)
	assert.Nil(t, effects)

	s, effects = Apply(s, Command{Type: CmdOpen, Value: "3"})
	assert.Equal(t, []Effect{EffectLockScroll}, effects)
	assert.Equal(t, Modal{Open: true, Index: 2, ID: "3"}, s.Modal)
	assert.Equal(t, "Jardins partagés", s.Current().Title)

	s, effects = Apply(s, Command{Type: CmdKey, Value: KeyEscape})
	assert.Equal(t, []Effect{EffectUnlockScroll}, effects)
	assert.False(t, s.Modal.Open)

	_, effects = Apply(s, Command{Type: CmdClose})
	assert.Nil(t, effects, "closing a closed modal is a no-op")
}

func TestModalNavigationWraps(t *testing.T) {
	s := apply(t, NewState(fixture()), Command{Type: CmdOpen, Value: "5"})

	s = apply(t, s, Command{Type: CmdNext})
	assert.Equal(t, 0, s.Modal.Index)
	assert.Equal(t, actions.Text("1"), s.Modal.ID)

	s = apply(t, s, Command{Type: CmdPrev})
	assert.Equal(t, 4, s.Modal.Index)

	s = apply(t, s, Command{Type: CmdKey, Value: KeyArrowLeft}, Command{Type: CmdKey, Value: KeyArrowLeft})
	assert.Equal(t, 2, s.Modal.Index)
	s = apply(t, s, Command{Type: CmdKey, Value: KeyArrowRight})
	assert.Equal(t, 3, s.Modal.Index)

	// n steps forward come back to the start.
	start := s.Modal
	for range s.Filtered {
		s = apply(t, s, Command{Type: CmdNext})
	}
	assert.Equal(t, start, s.Modal)
}

func TestModalNavigationWithSingleRecord(t *testing.T) {
	s := apply(t, NewState(fixture()),
		Command{Type: CmdSetTheme, Value: "Sport"},
		Command{Type: CmdOpen, Value: "4"},
	)
	before := s.Modal
	s = apply(t, s, Command{Type: CmdNext}, Command{Type: CmdPrev}, Command{Type: CmdKey, Value: KeyArrowRight})
	assert.Equal(t, before, s.Modal)
}

func TestKeysIgnoredWhileClosed(t *testing.T) {
	s := NewState(fixture())
	for _, k := range []string{KeyEscape, KeyArrowLeft, KeyArrowRight} {
		next, effects := Apply(s, Command{Type: CmdKey, Value: k})
		assert.Nil(t, effects)
		assert.Equal(t, s.Modal, next.Modal)
	}
	next := apply(t, s, Command{Type: CmdNext})
	assert.False(t, next.Modal.Open)
}

func TestRefilterRelocatesOpenRecord(t *testing.T) {
	s := apply(t, NewState(fixture()), Command{Type: CmdOpen, Value: "5"})
	require.Equal(t, 4, s.Modal.Index)

	s = apply(t, s, Command{Type: CmdSetTheme, Value: "Santé"})
	assert.True(t, s.Modal.Open)
	assert.Equal(t, 1, s.Modal.Index)
	assert.Equal(t, "Centre de vaccination", s.Current().Title)

	s, effects := Apply(s, Command{Type: CmdSetStatus, Value: "Réalisé"})
	assert.False(t, s.Modal.Open, "record filtered out closes the modal")
	assert.Equal(t, []Effect{EffectUnlockScroll}, effects)
}

func TestDecodeCommand(t *testing.T) {
	c, err := DecodeCommand(strings.NewReader(`{"type":"chart_click","chart":"annees","index":2}`))
	require.NoError(t, err)
	assert.Equal(t, Command{Type: CmdChartClick, Chart: engine.ChartYears, Index: 2}, c)

	c, err = DecodeCommand(strings.NewReader(`{"type":"set_query","value":"école"}`))
	require.NoError(t, err)
	assert.Equal(t, "école", c.Value)

	tests := []struct {
		name string
		body string
		is   error
	}{
		{"unknown type", `{"type":"explode"}`, ErrUnknownCommand},
		{"missing type", `{}`, ErrUnknownCommand},
		{"bad view", `{"type":"view","value":"mosaic"}`, nil},
		{"bad sort field", `{"type":"sort","value":"color"}`, nil},
		{"bad chart", `{"type":"chart_click","chart":"pie"}`, nil},
		{"unknown field", `{"type":"reset","extra":1}`, nil},
		{"not json", `type=reset`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCommand(strings.NewReader(tt.body))
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestViewModeNext(t *testing.T) {
	assert.Equal(t, ViewCards, ViewThemes.Next())
	assert.Equal(t, ViewTable, ViewCards.Next())
	assert.Equal(t, ViewThemes, ViewTable.Next())
}
