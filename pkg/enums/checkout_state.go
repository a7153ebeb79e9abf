package enums

// CheckoutState is the per-attempt checkout state machine persisted on transactions.
type CheckoutState string

const (
	CheckoutStateDraft         CheckoutState = "draft"
	CheckoutStateIntentCreated CheckoutState = "intent_created"
	CheckoutStateOrderRecorded CheckoutState = "order_recorded"
	CheckoutStateConfirmed     CheckoutState = "confirmed"
	CheckoutStateFailed        CheckoutState = "failed"
)

// String implements fmt.Stringer.
func (s CheckoutState) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is allowed.
func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutStateConfirmed || s == CheckoutStateFailed
}

// CanTransition reports whether moving from s to next follows the checkout flow.
// Any non-terminal state may fail.
func (s CheckoutState) CanTransition(next CheckoutState) bool {
	if s.IsTerminal() {
		return false
	}
	if next == CheckoutStateFailed {
		return true
	}
	switch s {
	case CheckoutStateDraft:
		return next == CheckoutStateIntentCreated
	case CheckoutStateIntentCreated:
		return next == CheckoutStateOrderRecorded
	case CheckoutStateOrderRecorded:
		return next == CheckoutStateConfirmed
	}
	return false
}
