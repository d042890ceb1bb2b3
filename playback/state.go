package playback

// State represents the lifecycle of a narration cycle.
type State int

const (
	// StateIdle means no cycle is in flight and input is accepted.
	StateIdle State = iota
	// StateSubmitting means the narrate request is in flight.
	StateSubmitting
	// StatePlaying means segments are being played out.
	StatePlaying
	// StateCanceled means the cycle was superseded by a newer submission.
	StateCanceled
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "loading"
	case StatePlaying:
		return "playing"
	case StateCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// StateMachine validates lifecycle transitions. The newest submission
// always wins: Canceled is reachable from Submitting and Playing and leads
// straight back into Submitting.
type StateMachine struct {
	current     State
	transitions map[State][]State
}

// NewStateMachine creates a machine starting at Idle with the valid
// transition table.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateIdle,
		transitions: map[State][]State{
			StateIdle:       {StateSubmitting},
			StateSubmitting: {StatePlaying, StateIdle, StateCanceled},
			StatePlaying:    {StateIdle, StateCanceled},
			StateCanceled:   {StateSubmitting},
		},
	}
}

// Transition attempts to move to the given state and reports whether the
// transition was valid.
func (sm *StateMachine) Transition(to State) bool {
	for _, s := range sm.transitions[sm.current] {
		if s == to {
			sm.current = to
			return true
		}
	}
	return false
}

// Current returns the current state.
func (sm *StateMachine) Current() State {
	return sm.current
}
