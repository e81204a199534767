package application

import "fmt"

// State tracks one voice-command pass through the pipeline. No state is
// re-entrant within a pass; the only suspend point is AwaitingIntent.
type State string

const (
	StateIdle           State = "idle"
	StateBuilding       State = "building"
	StateAwaitingIntent State = "awaiting_intent"
	StateValidating     State = "validating"
	StateDispatching    State = "dispatching"
	StateDone           State = "done"
)

var stateOrder = map[State]int{
	StateIdle:           0,
	StateBuilding:       1,
	StateAwaitingIntent: 2,
	StateValidating:     3,
	StateDispatching:    4,
	StateDone:           5,
}

// Transition moves the pass forward. Any jump to Done is legal (every
// rejection path terminates there); otherwise only the next state in
// order is reachable.
func Transition(current, next State) (State, error) {
	currentOrder, ok := stateOrder[current]
	if !ok {
		return current, fmt.Errorf("unknown pipeline state %q", current)
	}
	nextOrder, ok := stateOrder[next]
	if !ok {
		return current, fmt.Errorf("unknown pipeline state %q", next)
	}

	if next == StateDone {
		return StateDone, nil
	}
	if nextOrder != currentOrder+1 {
		return current, fmt.Errorf("invalid transition %s -> %s", current, next)
	}
	return next, nil
}
