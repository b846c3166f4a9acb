// Package fsm defines the voice-ordering lifecycle state machine.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle           State = "idle"
	StateListening      State = "listening"
	StateProcessing     State = "processing"
	StateAwaitingManual State = "awaiting_manual"
	StateSuccess        State = "success"
	StateFailed         State = "failed"
)

const (
	EventStart   Event = "start"
	EventStop    Event = "stop"
	EventSubmit  Event = "submit"
	EventFound   Event = "found"
	EventDegrade Event = "degrade"
	EventFail    Event = "fail"
	EventClose   Event = "close"
)

// Transition applies one event to the current state and returns the next.
// EventClose and EventFail are accepted from every state; all other events
// are valid only from the states listed in their case arms.
func Transition(current State, event Event) (State, error) {
	if event == EventClose {
		return StateIdle, nil
	}
	if event == EventFail {
		return StateFailed, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventStart:
			return StateListening, nil
		case EventSubmit:
			return StateProcessing, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateListening:
		switch event {
		case EventStop:
			return StateProcessing, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateProcessing:
		switch event {
		case EventFound:
			return StateSuccess, nil
		case EventDegrade:
			return StateAwaitingManual, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateAwaitingManual:
		switch event {
		case EventSubmit:
			return StateProcessing, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateSuccess:
		switch event {
		case EventStart:
			return StateListening, nil
		case EventSubmit:
			return StateProcessing, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateFailed:
		switch event {
		case EventStart:
			return StateListening, nil
		case EventSubmit:
			return StateProcessing, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
