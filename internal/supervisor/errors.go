package supervisor

import "errors"

var (
	// ErrNoController indicates Execute was called on an engine with no registered state.
	ErrNoController = errors.New("supervisor: no controller registered")

	// ErrUnknownState indicates a transition or activation naming a state the engine does not own.
	ErrUnknownState = errors.New("supervisor: unknown state")
)
