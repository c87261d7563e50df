package pipeline

import "time"

// State is a step of the run state machine.
type State string

const (
	StateIdle             State = "idle"
	StateCloning          State = "cloning"
	StateCompiling        State = "compiling"
	StateFinishing        State = "finishing"
	StatePublishing       State = "publishing"
	StateDone             State = "done"
	StateNotifyingFailure State = "notifying_failure"
	StateTerminal         State = "terminal"
)

var allowedTransitions = map[State][]State{
	StateIdle:             {StateCloning},
	StateCloning:          {StateCompiling, StateTerminal},
	StateCompiling:        {StateFinishing, StateTerminal},
	StateFinishing:        {StatePublishing, StateTerminal},
	StatePublishing:       {StateDone, StateNotifyingFailure, StateTerminal},
	StateDone:             {StateTerminal},
	StateNotifyingFailure: {StateTerminal},
}

// CanTransition reports whether the state machine allows from → to.
func CanTransition(from, to State) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition records a single state change.
type Transition struct {
	From State     `json:"from"`
	To   State     `json:"to"`
	At   time.Time `json:"at"`
}
