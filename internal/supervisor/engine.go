package supervisor

import (
	"fmt"

	"github.com/san-kum/robosim/internal/control"
)

// Condition is a side-effect-free predicate over a supervisor's derived state.
type Condition[D any] func(d D) bool

// Hooks translate raw robot info into derived state, and derived state into
// controller input.
type Hooks[I, D, S any] interface {
	// ProcessStateInfo updates d from info. It runs exactly once per tick,
	// before any condition is evaluated.
	ProcessStateInfo(info I, d *D) error
	ControllerInput(d *D) (S, error)
}

// State is a controller registered with an Engine together with its
// ordered outgoing transitions.
type State[D, S, C any] struct {
	ctrl  control.Controller[S, C]
	rules []rule[D, S, C]
}

func (s *State[D, S, C]) Controller() control.Controller[S, C] { return s.ctrl }

type rule[D, S, C any] struct {
	cond Condition[D]
	to   *State[D, S, C]
}

// Engine runs a finite state machine whose states are controllers.
//
// Each Execute processes the robot info, evaluates the current state's
// transitions in registration order, switches to the target of the first one
// that holds, restarts the controller being entered, and executes the current
// controller. At most one transition fires per call.
type Engine[I, D, S, C any] struct {
	hooks   Hooks[I, D, S]
	derived D
	states  []*State[D, S, C]
	current *State[D, S, C]
	entered bool

	// OnTransition, if set, is called after each switch with the controller names.
	OnTransition func(from, to string)
}

func NewEngine[I, D, S, C any](hooks Hooks[I, D, S], initial D) *Engine[I, D, S, C] {
	return &Engine[I, D, S, C]{hooks: hooks, derived: initial}
}

// AddState registers ctrl and returns its state handle. The first
// registered state is the initial one until SetCurrent says otherwise.
func (e *Engine[I, D, S, C]) AddState(ctrl control.Controller[S, C]) *State[D, S, C] {
	st := &State[D, S, C]{ctrl: ctrl}
	e.states = append(e.states, st)
	if e.current == nil {
		e.current = st
		e.entered = false
	}
	return st
}

// AddTransition appends a rule to from: when cond holds, switch to to.
func (e *Engine[I, D, S, C]) AddTransition(from *State[D, S, C], cond Condition[D], to *State[D, S, C]) error {
	if !e.owns(from) || !e.owns(to) {
		return ErrUnknownState
	}
	if cond == nil {
		return fmt.Errorf("%w: nil condition on %s", ErrUnknownState, from.ctrl.Name())
	}
	from.rules = append(from.rules, rule[D, S, C]{cond: cond, to: to})
	return nil
}

// SetCurrent makes st the active state. Its controller is restarted on the
// next Execute.
func (e *Engine[I, D, S, C]) SetCurrent(st *State[D, S, C]) error {
	if !e.owns(st) {
		return ErrUnknownState
	}
	e.current = st
	e.entered = false
	return nil
}

func (e *Engine[I, D, S, C]) owns(st *State[D, S, C]) bool {
	if st == nil {
		return false
	}
	for _, s := range e.states {
		if s == st {
			return true
		}
	}
	return false
}

// Current returns the active controller, or nil when no state is registered.
func (e *Engine[I, D, S, C]) Current() control.Controller[S, C] {
	if e.current == nil {
		return nil
	}
	return e.current.ctrl
}

// Derived returns a copy of the derived state as of the last Execute.
func (e *Engine[I, D, S, C]) Derived() D { return e.derived }

// Execute runs one supervisor tick. A failing hook or controller aborts the
// tick; the state switch, if one fired, is kept.
func (e *Engine[I, D, S, C]) Execute(info I, dt float64) (C, error) {
	var zero C
	if len(e.states) == 0 || e.current == nil {
		return zero, ErrNoController
	}

	if err := e.hooks.ProcessStateInfo(info, &e.derived); err != nil {
		return zero, fmt.Errorf("process state info: %w", err)
	}

	for _, r := range e.current.rules {
		if r.cond(e.derived) {
			from := e.current
			e.current = r.to
			e.entered = false
			if e.OnTransition != nil {
				e.OnTransition(from.ctrl.Name(), r.to.ctrl.Name())
			}
			break
		}
	}

	if !e.entered {
		e.current.ctrl.Restart()
		e.entered = true
	}

	in, err := e.hooks.ControllerInput(&e.derived)
	if err != nil {
		return zero, fmt.Errorf("controller input: %w", err)
	}
	cmd, err := e.current.ctrl.Execute(in, dt)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", e.current.ctrl.Name(), err)
	}
	return cmd, nil
}
