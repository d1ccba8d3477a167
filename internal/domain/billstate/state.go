package billstate

// State represents a bill's position in its payment lifecycle
type State string

const (
	// StatePending is the entry state for every bill, regardless of
	// totals. Even a zero-total bill starts pending until settled or
	// cancelled.
	StatePending State = "pending"

	// StatePaid means the balance reached zero. Reached automatically
	// after a payment clears the balance, or at save time for order
	// bills, which settle immediately.
	StatePaid State = "paid"

	// StateCancelled is terminal and only ever set by an explicit
	// external action; it is never derived from amounts.
	StateCancelled State = "cancelled"
)

var validStates = map[State]bool{
	StatePending:   true,
	StatePaid:      true,
	StateCancelled: true,
}

var terminalStates = map[State]bool{
	StateCancelled: true,
}

// IsTerminal returns true if no further transitions are allowed
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid bill state
func (s State) IsValid() bool {
	return validStates[s]
}
