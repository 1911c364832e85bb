package ledger

import "strings"

// State is the lifecycle state of a Transaction.
type State string

const (
	StateNew        State = "NEW"
	StateProcessing State = "PROCESSING"
	StateDone       State = "DONE"

	errorPrefix = "ERROR:"
)

// ErrorState builds the terminal rejection state for the given reason.
func ErrorState(reason string) State {
	return State(errorPrefix + reason)
}

// IsError reports whether s is a terminal rejection.
func (s State) IsError() bool {
	return strings.HasPrefix(string(s), errorPrefix)
}

// IsTerminal reports whether no further transitions are allowed out of s.
func (s State) IsTerminal() bool {
	return s == StateDone || s.IsError()
}

// Reason returns the rejection reason of an error state, or "".
func (s State) Reason() string {
	if !s.IsError() {
		return ""
	}
	return strings.TrimPrefix(string(s), errorPrefix)
}

// CanTransition reports whether moving from -> to is a legal lifecycle edge.
func CanTransition(from, to State) bool {
	switch from {
	case StateNew:
		return to == StateProcessing
	case StateProcessing:
		return to == StateDone || (to.IsError() && to.Reason() != "")
	default:
		return false
	}
}
