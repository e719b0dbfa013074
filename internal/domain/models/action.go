package models

// Action is the tri-state outcome of a follower evaluation.
type Action string

const (
	ActionKeep    Action = "keep"
	ActionMonitor Action = "monitor"
	ActionRemove  Action = "remove"
)

// Valid reports whether a is one of the three known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionKeep, ActionMonitor, ActionRemove:
		return true
	}
	return false
}
