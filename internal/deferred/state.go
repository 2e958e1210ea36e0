// Package deferred buffers category changes made to configuration-side
// properties from a configured type's context until that type is saved.
package deferred

import (
	"fmt"

	"github.com/mesh-intelligence/prodmodel/pkg/types"
)

// State is the lifecycle state of one deferred change.
type State int

// Deferred change states.
const (
	StateNone State = iota
	StatePending
	StateCommitted
	StateDiscarded
)

var stateNames = [...]string{"none", "pending", "committed", "discarded"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Event drives a state transition.
type Event int

// Transition events.
const (
	// EventDefer records or replaces a change.
	EventDefer Event = iota
	// EventCommit applies the change to a writable owner.
	EventCommit
	// EventAbandon drops the change because its owner is read-only.
	EventAbandon
	// EventReload discards the change because the context type was reloaded.
	EventReload
)

var eventNames = [...]string{"defer", "commit", "abandon", "reload"}

func (e Event) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return fmt.Sprintf("Event(%d)", int(e))
	}
	return eventNames[e]
}

// ErrInvalidTransition reports an event that is not legal in a state.
var ErrInvalidTransition = fmt.Errorf("%w: invalid deferred change transition", types.ErrInvalidArgument)

// Transition returns the state reached from s on e. Committed and
// discarded changes may be deferred again; every other move out of a
// terminal state is rejected.
func Transition(s State, e Event) (State, error) {
	switch s {
	case StateNone, StateCommitted, StateDiscarded:
		switch e {
		case EventDefer:
			return StatePending, nil
		case EventCommit, EventAbandon, EventReload:
			return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, s)
		}
	case StatePending:
		switch e {
		case EventDefer:
			return StatePending, nil
		case EventCommit:
			return StateCommitted, nil
		case EventAbandon, EventReload:
			return StateDiscarded, nil
		}
	}
	return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, e, s)
}
