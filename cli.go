package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vizille/dashboard/internal/actions"
	"github.com/vizille/dashboard/internal/dashboard"
	"github.com/vizille/dashboard/internal/engine"
	"github.com/vizille/dashboard/internal/tui"
)

var (
	bold   = color.New(color.Bold)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	blue   = color.New(color.FgBlue)
	red    = color.New(color.FgRed)
)

func statusColor(s actions.Status) *color.Color {
	switch s {
	case actions.StatusDone:
		return green
	case actions.StatusInProgress:
		return yellow
	}
	return blue
}

func (c *cli) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the headline counters and the theme tiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			r, err := newRenderer(c.cfg)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), r, all)
			return nil
		},
	}
}

func printSummary(out io.Writer, r *dashboard.Renderer, all []*actions.Action) {
	t := engine.Summarize(all)
	f := r.Formatter()
	fmt.Fprintf(out, "%s  %s actions · %s réalisées · %s en cours · %s\n\n",
		bold.Sprint("Vizille en mouvement"),
		f.Count(t.Count), f.Count(t.Done), f.Count(t.InProgress), f.Budget(t.Budget))

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, tile := range r.Tiles(all) {
		var dots string
		for _, ind := range tile.Indicators {
			dots += indicatorColor(ind.Class).Sprintf("●%d ", ind.Count)
		}
		fmt.Fprintf(w, "%s %s\t%s\t%s\t%s\n", tile.Icon, tile.Theme, tile.CountLabel, tile.Budget, dots)
	}
	_ = w.Flush()
}

func indicatorColor(class string) *color.Color {
	switch class {
	case "realise":
		return green
	case "encours":
		return yellow
	}
	return blue
}

func (c *cli) listCmd() *cobra.Command {
	var (
		crit   engine.Criteria
		field  string
		desc   bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the actions matching the filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key := engine.DefaultSort
			if cmd.Flags().Changed("sort") {
				f, err := engine.ParseField(field)
				if err != nil {
					return err
				}
				key = engine.SortKey{Field: f, Direction: engine.Ascending}
			}
			if cmd.Flags().Changed("desc") {
				key.Direction = engine.Ascending
				if desc {
					key.Direction = engine.Descending
				}
			}

			all, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			r, err := newRenderer(c.cfg)
			if err != nil {
				return err
			}
			rows := r.Rows(engine.Sort(engine.Filter(all, crit), key))
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			printRows(cmd.OutOrStdout(), key, rows)
			return nil
		},
	}
	cmd.Flags().StringVarP(&crit.Query, "query", "q", "", "text search over title, summary, details, theme and description")
	cmd.Flags().StringVar(&crit.Theme, "theme", "", "exact theme")
	cmd.Flags().StringVar(&crit.Status, "status", "", "exact status")
	cmd.Flags().StringVar(&crit.Year, "year", "", "exact year")
	cmd.Flags().StringVar(&field, "sort", "", "sort field (id, titre, theme, statut, annee, annee_fin, budget, importance, description)")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print rows as JSON")
	return cmd
}

func printRows(out io.Writer, key engine.SortKey, rows []dashboard.Row) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "🔍 Aucune action ne correspond à vos critères")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for i, col := range dashboard.Columns(key) {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		label := col.Label
		switch col.Direction {
		case "asc":
			label += " ▲"
		case "desc":
			label += " ▼"
		}
		fmt.Fprint(w, bold.Sprint(label))
	}
	fmt.Fprintln(w)
	for _, row := range rows {
		fmt.Fprintf(w, "%s %s\t%s\t%s\t%s\t%s\n",
			row.Icon, row.Theme, row.Title, statusColor(row.Status).Sprint(row.Status), row.Years, row.Budget)
	}
	_ = w.Flush()
	fmt.Fprintf(out, "\n%d action(s)\n", len(rows))
}

// Report lists records whose theme or status the dashboard does not know.
type Report struct {
	Records         int
	UnknownThemes   map[string]int
	UnknownStatuses map[string]int
}

// Clean reports whether nothing was flagged.
func (r Report) Clean() bool { return len(r.UnknownThemes) == 0 && len(r.UnknownStatuses) == 0 }

func validateDataset(all []*actions.Action, themes *actions.Themes) Report {
	rep := Report{
		Records:         len(all),
		UnknownThemes:   map[string]int{},
		UnknownStatuses: map[string]int{},
	}
	for _, a := range all {
		if !themes.Known(a.Theme) {
			rep.UnknownThemes[a.Theme]++
		}
		if !a.Status.Known() {
			rep.UnknownStatuses[string(a.Status)]++
		}
	}
	return rep
}

var errDatasetWarnings = errors.New("dataset has unknown themes or statuses")

func (c *cli) validateCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load the dataset and report unknown themes and statuses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := c.load(cmd.Context())
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), red.Sprint(loadErrorText))
				return err
			}
			r, err := newRenderer(c.cfg)
			if err != nil {
				return err
			}
			rep := validateDataset(all, r.Themes())
			printReport(cmd.OutOrStdout(), rep)
			if strict && !rep.Clean() {
				return errDatasetWarnings
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when anything is reported")
	return cmd
}

func printReport(out io.Writer, rep Report) {
	if rep.Clean() {
		fmt.Fprintf(out, "%s %d actions, every theme and status is known\n", green.Sprint("✓"), rep.Records)
		return
	}
	fmt.Fprintf(out, "%s %d actions\n", yellow.Sprint("!"), rep.Records)
	printCounts(out, "unknown theme", rep.UnknownThemes)
	printCounts(out, "unknown status", rep.UnknownStatuses)
}

func printCounts(out io.Writer, what string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		label := k
		if label == "" {
			label = "(empty)"
		}
		fmt.Fprintf(out, "  %s %q: %d record(s)\n", what, label, counts[k])
	}
}

func (c *cli) browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Explore the dataset in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			r, err := newRenderer(c.cfg)
			if err != nil {
				return err
			}
			return tui.Run(tui.New(all, r, c.cfg.GetSearchDebounce()))
		},
	}
}
