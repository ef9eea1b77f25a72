package orders

// Outcomes are tagged results returned by the inventory and payment ports.
// They are values, never persisted, and a "success" variant always carries
// its payload: the constructors below are the only way to build one, so the
// cross-field invariant holds by construction. A failed outcome is a
// business result the orchestrator branches on, not an error.

// ReservationOutcome is the result of an inventory reservation attempt.
type ReservationOutcome struct {
	reserved bool
	items    []InventoryItem
	reason   string
}

// ReservedOutcome builds a successful reservation carrying the reserved
// items.
func ReservedOutcome(items []InventoryItem) ReservationOutcome {
	return ReservationOutcome{reserved: true, items: items}
}

// ReservationFailed builds a failed reservation with the collaborator's
// reason preserved verbatim.
func ReservationFailed(reason string) ReservationOutcome {
	return ReservationOutcome{reason: reason}
}

func (o ReservationOutcome) Reserved() bool         { return o.reserved }
func (o ReservationOutcome) Items() []InventoryItem { return o.items }
func (o ReservationOutcome) Reason() string         { return o.reason }

// PaymentOutcome is the result of a payment processing attempt.
type PaymentOutcome struct {
	completed bool
	payment   *Payment
	reason    string
}

// PaymentOutcomeCompleted builds a successful payment outcome carrying the
// payment record.
func PaymentOutcomeCompleted(payment Payment) PaymentOutcome {
	return PaymentOutcome{completed: true, payment: &payment}
}

// PaymentOutcomeFailed builds a failed payment outcome.
func PaymentOutcomeFailed(reason string) PaymentOutcome {
	return PaymentOutcome{reason: reason}
}

func (o PaymentOutcome) Completed() bool { return o.completed }
func (o PaymentOutcome) Reason() string  { return o.reason }

// Payment returns the payment record of a completed outcome.
func (o PaymentOutcome) Payment() Payment {
	if o.payment == nil {
		return Payment{}
	}
	return *o.payment
}

// RefundOutcome is the result of a refund attempt.
type RefundOutcome struct {
	refunded bool
	refundID string
	reason   string
}

// RefundedOutcome builds a successful refund outcome carrying the refund id.
func RefundedOutcome(refundID string) RefundOutcome {
	return RefundOutcome{refunded: true, refundID: refundID}
}

// RefundOutcomeFailed builds a failed refund outcome.
func RefundOutcomeFailed(reason string) RefundOutcome {
	return RefundOutcome{reason: reason}
}

func (o RefundOutcome) Refunded() bool   { return o.refunded }
func (o RefundOutcome) RefundID() string { return o.refundID }
func (o RefundOutcome) Reason() string   { return o.reason }

// InventoryItem is a per-product stock record. Reserved is never negative.
type InventoryItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Reserved  int    `json:"reserved"`
}
