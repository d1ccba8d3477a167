package billstate

import (
	"context"
	"fmt"
)

// GuardFunc evaluates whether a transition should be allowed
type GuardFunc func(ctx context.Context) bool

// Machine tracks a bill's current state and validates transitions.
// The transition table is fixed: pending --SETTLE--> paid, and both
// pending and paid permit CANCEL into the terminal cancelled state.
type Machine struct {
	current State

	// settleGuard, when set, must pass before SETTLE fires. The ledger
	// installs a balance check here so a bill can never be marked paid
	// while money is still owed.
	settleGuard GuardFunc
}

// transition is one permitted edge in the lifecycle
type transition struct {
	trigger Trigger
	toState State
	guarded bool
}

var transitions = map[State][]transition{
	StatePending: {
		{trigger: TriggerSettle, toState: StatePaid, guarded: true},
		{trigger: TriggerCancel, toState: StateCancelled},
	},
	StatePaid: {
		{trigger: TriggerCancel, toState: StateCancelled},
	},
}

// New creates a machine positioned at the given state
func New(initial State) (*Machine, error) {
	if !initial.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidState, initial)
	}
	return &Machine{current: initial}, nil
}

// NewWithGuard creates a machine whose SETTLE transition must pass the
// given guard
func NewWithGuard(initial State, settleGuard GuardFunc) (*Machine, error) {
	m, err := New(initial)
	if err != nil {
		return nil, err
	}
	m.settleGuard = settleGuard
	return m, nil
}

// State returns the current state
func (m *Machine) State() State {
	return m.current
}

// CanFire returns true if the trigger is permitted in the current state
func (m *Machine) CanFire(trigger Trigger) bool {
	for _, t := range transitions[m.current] {
		if t.trigger == trigger {
			return true
		}
	}
	return false
}

// Fire attempts to execute the trigger, transitioning to the new state
// if allowed. A failed fire leaves the current state untouched.
func (m *Machine) Fire(ctx context.Context, trigger Trigger) error {
	for _, t := range transitions[m.current] {
		if t.trigger != trigger {
			continue
		}
		if t.guarded && m.settleGuard != nil && !m.settleGuard(ctx) {
			return fmt.Errorf("%w: trigger %s from state %s", ErrGuardFailed, trigger, m.current)
		}
		m.current = t.toState
		return nil
	}
	return fmt.Errorf("%w: cannot fire trigger %s from state %s", ErrInvalidTransition, trigger, m.current)
}

// PermittedTriggers returns all triggers that can be fired in the
// current state
func (m *Machine) PermittedTriggers() []Trigger {
	edges := transitions[m.current]
	triggers := make([]Trigger, 0, len(edges))
	for _, t := range edges {
		triggers = append(triggers, t.trigger)
	}
	return triggers
}
