// Package fsm defines the recording lifecycle states and their legal transitions.
package fsm

import (
	"errors"
	"fmt"
)

type State string

type Event string

const (
	StateIdle       State = "idle"
	StateRecording  State = "recording"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateError      State = "error"
)

const (
	EventStart    Event = "start"
	EventStop     Event = "stop"
	EventComplete Event = "complete"
	EventFail     Event = "fail"
)

// ErrInvalidTransition marks a lifecycle event applied from a state that does not allow it.
var ErrInvalidTransition = errors.New("invalid transition")

// Transition returns the next state for event, or the current state and an error.
func Transition(current State, event Event) (State, error) {
	if event == EventFail {
		return StateError, nil
	}

	switch current {
	case StateIdle:
		if event == EventStart {
			return StateRecording, nil
		}
	case StateRecording:
		if event == EventStop {
			return StateProcessing, nil
		}
	case StateProcessing:
		if event == EventComplete {
			return StateCompleted, nil
		}
	case StateCompleted, StateError:
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
	return current, invalidTransition(current, event)
}

// Terminal reports whether no further transition other than fail can leave state.
func Terminal(state State) bool {
	return state == StateCompleted || state == StateError
}

// Active reports whether state holds the recorder or the inference worker.
func Active(state State) bool {
	return state == StateRecording || state == StateProcessing
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("%w: %s --(%s)--> ?", ErrInvalidTransition, state, event)
}
