package actions

// Status is the lifecycle stage of an action.
type Status string

const (
	StatusDone       Status = "Réalisé"
	StatusInProgress Status = "En cours"
	StatusDecided    Status = "Décidé"
	StatusScheduled  Status = "Programmé"
)

// Statuses lists the known statuses in display order.
var Statuses = []Status{StatusDone, StatusInProgress, StatusDecided, StatusScheduled}

// Known reports whether s is one of the four recognized statuses.
func (s Status) Known() bool {
	switch s {
	case StatusDone, StatusInProgress, StatusDecided, StatusScheduled:
		return true
	}
	return false
}

// Class returns the CSS class used for status badges, "" when unrecognized.
func (s Status) Class() string {
	switch s {
	case StatusDone:
		return "statut-realise"
	case StatusInProgress:
		return "statut-encours"
	case StatusDecided:
		return "statut-decide"
	case StatusScheduled:
		return "statut-programme"
	default:
		return ""
	}
}

// Color returns the chart color of a known status, "" otherwise.
func (s Status) Color() string {
	switch s {
	case StatusDone:
		return "#27ae60"
	case StatusInProgress:
		return "#f39c12"
	case StatusDecided:
		return "#3498db"
	case StatusScheduled:
		return "#9b59b6"
	default:
		return ""
	}
}
