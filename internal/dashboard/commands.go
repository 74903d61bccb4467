package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/vizille/dashboard/internal/engine"
)

// ErrUnknownCommand is returned for a command type Apply does not handle.
var ErrUnknownCommand = errors.New("unknown command")

// CommandType names a user action.
type CommandType string

const (
	CmdSetQuery    CommandType = "set_query"
	CmdSetTheme    CommandType = "set_theme"
	CmdSetStatus   CommandType = "set_status"
	CmdSetYear     CommandType = "set_year"
	CmdReset       CommandType = "reset"
	CmdRefilter    CommandType = "refilter"
	CmdView        CommandType = "view"
	CmdSort        CommandType = "sort"
	CmdSelectTheme CommandType = "select_theme"
	CmdChartClick  CommandType = "chart_click"
	CmdOpen        CommandType = "open"
	CmdNext        CommandType = "next"
	CmdPrev        CommandType = "prev"
	CmdClose       CommandType = "close"
	CmdKey         CommandType = "key"
)

var commandTypes = map[CommandType]bool{
	CmdSetQuery: true, CmdSetTheme: true, CmdSetStatus: true, CmdSetYear: true,
	CmdReset: true, CmdRefilter: true, CmdView: true, CmdSort: true,
	CmdSelectTheme: true, CmdChartClick: true, CmdOpen: true, CmdNext: true,
	CmdPrev: true, CmdClose: true, CmdKey: true,
}

// Keys honoured by CmdKey while the modal is open.
const (
	KeyEscape     = "Escape"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
)

// Command is one user action. Value carries the control value, view
// mode, sort field, record id or key name depending on Type; Chart and
// Index identify a chart click.
type Command struct {
	Type  CommandType    `json:"type"`
	Value string         `json:"value,omitempty"`
	Chart engine.ChartID `json:"chart,omitempty"`
	Index int            `json:"index,omitempty"`
}

// Validate checks the command type and the values that have a closed set.
func (c Command) Validate() error {
	if !commandTypes[c.Type] {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, c.Type)
	}
	switch c.Type {
	case CmdView:
		if _, err := ParseViewMode(c.Value); err != nil {
			return err
		}
	case CmdSort:
		if _, err := engine.ParseField(c.Value); err != nil {
			return err
		}
	case CmdChartClick:
		switch c.Chart {
		case engine.ChartThemes, engine.ChartYears, engine.ChartStatuses:
		default:
			return fmt.Errorf("unknown chart %q", c.Chart)
		}
	}
	return nil
}

// DecodeCommand reads one JSON command envelope and validates it.
func DecodeCommand(r io.Reader) (Command, error) {
	var c Command
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return Command{}, fmt.Errorf("decode command: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Command{}, err
	}
	return c, nil
}

// Effect is a side effect requested by Apply.
type Effect string

const (
	// EffectDebounceRefilter asks for a refilter once the text input has
	// been quiet for the debounce period.
	EffectDebounceRefilter Effect = "debounce_refilter"
	EffectLockScroll       Effect = "lock_scroll"
	EffectUnlockScroll     Effect = "unlock_scroll"
	EffectScrollToResults  Effect = "scroll_to_results"
)
