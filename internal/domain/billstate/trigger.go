package billstate

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	// TriggerSettle fires when the outstanding balance reaches zero
	TriggerSettle Trigger = "SETTLE"

	// TriggerCancel is issued externally; it is valid from both
	// pending and paid and has no transition out
	TriggerCancel Trigger = "CANCEL"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
