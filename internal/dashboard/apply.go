package dashboard

import (
	"github.com/vizille/dashboard/internal/actions"
	"github.com/vizille/dashboard/internal/engine"
)

// Apply returns the state after cmd and the effects it requests. It is
// pure: s is not modified and nothing outside the return values changes.
// Commands with values that do not apply (unknown record id, out of
// range chart index, invalid mode) leave the state unchanged.
func Apply(s State, cmd Command) (State, []Effect) {
	switch cmd.Type {
	case CmdSetQuery:
		s.Controls.Query = cmd.Value
		return s, []Effect{EffectDebounceRefilter}
	case CmdSetTheme:
		s.Controls.Theme = cmd.Value
		return refilter(s)
	case CmdSetStatus:
		s.Controls.Status = cmd.Value
		return refilter(s)
	case CmdSetYear:
		s.Controls.Year = cmd.Value
		return refilter(s)
	case CmdReset:
		s.Controls = engine.Criteria{}
		return refilter(s)
	case CmdRefilter:
		return refilter(s)

	case CmdView:
		if m, err := ParseViewMode(cmd.Value); err == nil {
			s.View = m
		}
		return s, nil
	case CmdSort:
		if f, err := engine.ParseField(cmd.Value); err == nil {
			s.Sort = s.Sort.Toggle(f)
		}
		return s, nil
	case CmdSelectTheme:
		s.Controls.Theme = cmd.Value
		s.View = ViewCards
		return refilter(s)
	case CmdChartClick:
		return chartClick(s, cmd.Chart, cmd.Index)

	case CmdOpen:
		return openModal(s, actions.Text(cmd.Value))
	case CmdNext:
		return navigate(s, 1), nil
	case CmdPrev:
		return navigate(s, -1), nil
	case CmdClose:
		return closeModal(s)
	case CmdKey:
		if !s.Modal.Open {
			return s, nil
		}
		switch cmd.Value {
		case KeyEscape:
			return closeModal(s)
		case KeyArrowLeft:
			return navigate(s, -1), nil
		case KeyArrowRight:
			return navigate(s, 1), nil
		}
	}
	return s, nil
}

// refilter recomputes Filtered from the current controls and keeps an
// open modal on the same record when it survives the new filter.
func refilter(s State) (State, []Effect) {
	s.Filtered = engine.Filter(s.All, s.Controls)
	s.Applied = s.Controls
	if !s.Modal.Open {
		return s, nil
	}
	i := actions.Find(s.Filtered, s.Modal.ID)
	if i < 0 {
		return closeModal(s)
	}
	s.Modal.Index = i
	return s, nil
}

func chartClick(s State, chart engine.ChartID, index int) (State, []Effect) {
	var c engine.Chart
	switch chart {
	case engine.ChartThemes:
		c = engine.ThemeChart(s.All, nil)
	case engine.ChartYears:
		c = engine.YearChart(s.All)
	case engine.ChartStatuses:
		c = engine.StatusChart(s.All)
	}
	label, ok := c.Label(index)
	if !ok {
		return s, nil
	}

	switch chart {
	case engine.ChartThemes:
		s.Controls.Theme = label
		s.View = ViewCards
		var effects []Effect
		s, effects = refilter(s)
		return s, append(effects, EffectScrollToResults)
	case engine.ChartYears:
		s.Controls.Year = label
	case engine.ChartStatuses:
		s.Controls.Status = label
	}
	return refilter(s)
}
