package workout

// State is the tracking lifecycle of a Controller.
type State string

const (
	StateIdle   State = "idle"
	StateActive State = "active"
	StatePaused State = "paused"
)

// validTransitions defines the lifecycle state machine. Clearing is allowed
// from every state.
var validTransitions = map[State][]State{
	StateIdle:   {StateActive, StateIdle},
	StateActive: {StatePaused, StateIdle},
	StatePaused: {StateActive, StatePaused, StateIdle},
}

func (s State) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if moving from s to target is allowed.
func (s State) CanTransitionTo(target State) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s State) String() string {
	return string(s)
}

// Outcome reports whether a lifecycle command changed anything. Commands
// issued in an incompatible state are no-ops, never failures.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeNoOp    Outcome = "noop"
)

func (o Outcome) Applied() bool {
	return o == OutcomeApplied
}
