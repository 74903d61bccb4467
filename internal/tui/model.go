// Package tui is a terminal browser over the dashboard state machine.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vizille/dashboard/internal/actions"
	"github.com/vizille/dashboard/internal/dashboard"
	"github.com/vizille/dashboard/internal/engine"
)

// queryTickMsg fires when the search input may have settled. Only the
// tick carrying the latest seq applies the query.
type queryTickMsg struct{ seq int }

// Model is the bubbletea model of the browser.
type Model struct {
	state    dashboard.State
	renderer *dashboard.Renderer
	view     dashboard.View

	input     textinput.Model
	searching bool
	debounce  time.Duration
	seq       int

	cursor int
	width  int
	height int
}

// New returns a browser over all.
func New(all []*actions.Action, r *dashboard.Renderer, debounce time.Duration) Model {
	if r == nil {
		r = dashboard.NewRenderer(nil, nil)
	}
	if debounce <= 0 {
		debounce = dashboard.DefaultDebounce
	}
	ti := textinput.New()
	ti.Placeholder = "Rechercher une action…"
	ti.Prompt = "/ "
	ti.CharLimit = 120

	m := Model{
		state:    dashboard.NewState(all),
		renderer: r,
		input:    ti,
		debounce: debounce,
	}
	m.view = r.Render(m.state)
	return m
}

// Run starts the program on the alternate screen and blocks until quit.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// State returns the current dashboard state.
func (m Model) State() dashboard.State { return m.state }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case queryTickMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m = m.apply(dashboard.Command{Type: dashboard.CmdRefilter})
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.searching = false
		m.input.Blur()
		m.seq++
		if m.state.Pending() {
			m = m.apply(dashboard.Command{Type: dashboard.CmdRefilter})
		}
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}
	m, effects := m.applyEffects(dashboard.Command{Type: dashboard.CmdSetQuery, Value: m.input.Value()})
	tick := m.runEffects(effects)
	return m, tea.Batch(cmd, tick)
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.state
	if s.Modal.Open {
		switch msg.String() {
		case "esc":
			return m.apply(dashboard.Command{Type: dashboard.CmdKey, Value: dashboard.KeyEscape}), nil
		case "left", "h":
			return m.apply(dashboard.Command{Type: dashboard.CmdKey, Value: dashboard.KeyArrowLeft}), nil
		case "right", "l":
			return m.apply(dashboard.Command{Type: dashboard.CmdKey, Value: dashboard.KeyArrowRight}), nil
		case "q":
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/":
		m.searching = true
		return m, m.input.Focus()
	case "tab":
		return m.apply(dashboard.Command{Type: dashboard.CmdView, Value: string(s.View.Next())}), nil
	case "t":
		return m.apply(dashboard.Command{Type: dashboard.CmdSetTheme, Value: cycle(optionValues(m.view.Options.Themes), s.Controls.Theme)}), nil
	case "s":
		return m.apply(dashboard.Command{Type: dashboard.CmdSetStatus, Value: cycle(optionValues(m.view.Options.Statuses), s.Controls.Status)}), nil
	case "y":
		return m.apply(dashboard.Command{Type: dashboard.CmdSetYear, Value: cycle(optionValues(m.view.Options.Years), s.Controls.Year)}), nil
	case "r":
		m.input.SetValue("")
		return m.apply(dashboard.Command{Type: dashboard.CmdReset}), nil
	case "o":
		return m.apply(dashboard.Command{Type: dashboard.CmdSort, Value: string(nextSortField(s.Sort.Field))}), nil
	case "O":
		return m.apply(dashboard.Command{Type: dashboard.CmdSort, Value: string(s.Sort.Field)}), nil
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < m.items()-1 {
			m.cursor++
		}
		return m, nil
	case "enter":
		return m.activate(), nil
	}
	return m, nil
}

// activate selects the tile or opens the record under the cursor.
func (m Model) activate() Model {
	v := m.view
	switch {
	case v.Empty:
		return m
	case v.Mode == dashboard.ViewThemes && m.cursor < len(v.Tiles):
		theme := v.Tiles[m.cursor].Theme
		m.cursor = 0
		return m.apply(dashboard.Command{Type: dashboard.CmdSelectTheme, Value: theme})
	case v.Mode == dashboard.ViewCards && m.cursor < len(v.Cards):
		return m.apply(dashboard.Command{Type: dashboard.CmdOpen, Value: string(v.Cards[m.cursor].ID)})
	case v.Mode == dashboard.ViewTable && m.cursor < len(v.Rows):
		return m.apply(dashboard.Command{Type: dashboard.CmdOpen, Value: string(v.Rows[m.cursor].ID)})
	}
	return m
}

func (m Model) apply(cmd dashboard.Command) Model {
	m, _ = m.applyEffects(cmd)
	return m
}

func (m Model) applyEffects(cmd dashboard.Command) (Model, []dashboard.Effect) {
	var effects []dashboard.Effect
	m.state, effects = dashboard.Apply(m.state, cmd)
	m.view = m.renderer.Render(m.state)
	if n := m.items(); m.cursor >= n {
		m.cursor = max(0, n-1)
	}
	return m, effects
}

// runEffects turns a debounce request into a tick; other effects have no
// terminal counterpart.
func (m *Model) runEffects(effects []dashboard.Effect) tea.Cmd {
	for _, e := range effects {
		if e == dashboard.EffectDebounceRefilter {
			m.seq++
			seq := m.seq
			return tea.Tick(m.debounce, func(time.Time) tea.Msg { return queryTickMsg{seq: seq} })
		}
	}
	return nil
}

func (m Model) items() int {
	switch m.view.Mode {
	case dashboard.ViewThemes:
		return len(m.view.Tiles)
	case dashboard.ViewCards:
		return len(m.view.Cards)
	case dashboard.ViewTable:
		return len(m.view.Rows)
	}
	return 0
}

func optionValues(opts []dashboard.Option) []string {
	out := make([]string, 0, len(opts)+1)
	out = append(out, "")
	for _, o := range opts {
		out = append(out, o.Value)
	}
	return out
}

// cycle returns the value after cur in values, wrapping; unknown cur
// restarts at the first value.
func cycle(values []string, cur string) string {
	for i, v := range values {
		if v == cur {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}

func nextSortField(f engine.Field) engine.Field {
	cols := dashboard.Columns(engine.SortKey{})
	for i, c := range cols {
		if c.Field == f {
			return cols[(i+1)%len(cols)].Field
		}
	}
	return cols[0].Field
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#c9a227"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	modalStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func (m Model) View() string {
	v := m.view
	var b strings.Builder

	b.WriteString(titleStyle.Render("Vizille en mouvement"))
	fmt.Fprintf(&b, "  %d actions · %d réalisées · %d en cours · %s\n",
		v.Stats.Count, v.Stats.Done, v.Stats.InProgress, v.Stats.BudgetLabel)

	if m.searching {
		b.WriteString(m.input.View() + "\n")
	} else {
		b.WriteString(mutedStyle.Render(filterLine(v)) + "\n")
	}
	pending := ""
	if v.Pending {
		pending = " …"
	}
	fmt.Fprintf(&b, "%s · %d résultat(s)%s\n\n", v.Mode, v.Count, pending)

	if v.Detail != nil {
		b.WriteString(renderDetail(v.Detail))
		b.WriteString("\n" + mutedStyle.Render("←/→ naviguer · esc fermer"))
		return b.String()
	}

	if v.Empty {
		b.WriteString("Aucune action ne correspond aux filtres.\n")
	}
	for i, line := range m.lines() {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("› "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	b.WriteString("\n" + mutedStyle.Render("/ rechercher · tab vue · t/s/y filtres · r réinitialiser · o/O tri · entrée ouvrir · q quitter"))
	return b.String()
}

func filterLine(v dashboard.View) string {
	val := func(s string) string {
		if s == "" {
			return "tous"
		}
		return s
	}
	return fmt.Sprintf("recherche: %q · thème: %s · statut: %s · année: %s",
		v.Filters.Query, val(v.Filters.Theme), val(v.Filters.Status), val(v.Filters.Year))
}

func (m Model) lines() []string {
	v := m.view
	var out []string
	switch v.Mode {
	case dashboard.ViewThemes:
		for _, t := range v.Tiles {
			icon := lipgloss.NewStyle().Foreground(lipgloss.Color(t.Color)).Render(t.Icon)
			out = append(out, fmt.Sprintf("%s %-18s %-11s %s", icon, t.Theme, t.CountLabel, t.Budget))
		}
	case dashboard.ViewCards:
		for _, c := range v.Cards {
			hint := ""
			if c.HasMoreDetail {
				hint = " →"
			}
			out = append(out, fmt.Sprintf("%s %s [%s] %s · %s%s", c.Icon, c.Title, c.Status, c.Budget, c.Years, hint))
		}
	case dashboard.ViewTable:
		var hdr []string
		for _, c := range v.Columns {
			label := c.Label
			switch c.Direction {
			case "asc":
				label += " ▲"
			case "desc":
				label += " ▼"
			}
			hdr = append(hdr, label)
		}
		if len(hdr) > 0 {
			out = append(out, mutedStyle.Render(strings.Join(hdr, " | ")))
		}
		for _, r := range v.Rows {
			out = append(out, fmt.Sprintf("%s %s | %s | %s | %s | %s", r.Icon, r.Theme, r.Title, r.Status, r.Years, r.Budget))
		}
	}
	if v.Mode == dashboard.ViewTable && len(out) > 0 {
		// Header line is not selectable.
		return out[1:]
	}
	return out
}

func renderDetail(d *dashboard.Detail) string {
	var b strings.Builder
	head := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(d.Color))
	fmt.Fprintf(&b, "%s\n", head.Render(d.Icon+" "+d.Theme+" · "+string(d.Status)))
	fmt.Fprintf(&b, "%s\n\n%s\n", titleStyle.Render(d.Title), d.Summary)
	fmt.Fprintf(&b, "\nBudget: %s · Années: %s\n", d.Budget, d.Years)
	if len(d.KeyFigures) > 0 {
		b.WriteString("\nChiffres clés\n")
		for _, k := range d.KeyFigures {
			fmt.Fprintf(&b, "  %s  %s\n", k.Value, k.Label)
		}
	}
	if len(d.Timeline) > 0 {
		b.WriteString("\nChronologie\n")
		for _, e := range d.Timeline {
			fmt.Fprintf(&b, "  %s  %s\n", e.Date, e.Event)
		}
	}
	if d.Details != "" {
		fmt.Fprintf(&b, "\nDétails\n  %s\n", d.Details)
	}
	b.WriteString("\nSources\n")
	for _, s := range d.Sources {
		line := s.Icon + " " + s.Ref
		if s.Desc != "" {
			line += " - " + s.Desc
		}
		b.WriteString("  " + line + "\n")
	}
	nav := fmt.Sprintf("%d / %d", d.Position, d.Total)
	if !d.Navigable {
		nav += " (seule action)"
	}
	b.WriteString("\n" + mutedStyle.Render(nav))
	return modalStyle.Render(b.String())
}
