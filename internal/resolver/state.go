package resolver

// State is a step of the per-school resolution state machine.
type State int

const (
	StatePlanning State = iota
	StateSearching
	StateShortlisting
	StateSelecting
	StateDone
	StateError
)

func (s State) String() string {
	switch s {
	case StatePlanning:
		return "planning"
	case StateSearching:
		return "searching"
	case StateShortlisting:
		return "shortlisting"
	case StateSelecting:
		return "selecting"
	case StateDone:
		return "done"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	return s == StateDone || s == StateError
}
