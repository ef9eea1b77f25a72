package orders

// PaymentStatus is the lifecycle state of a payment record.
type PaymentStatus string

const (
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentPending   PaymentStatus = "pending"
	PaymentCancelled PaymentStatus = "cancelled"
	PaymentRefunded  PaymentStatus = "refunded"
)

// RefundStatus records the outcome of a refund attempt on the order.
type RefundStatus string

const (
	RefundStatusCompleted     RefundStatus = "completed"
	RefundStatusFailed        RefundStatus = "failed"
	RefundStatusPending       RefundStatus = "pending"
	RefundStatusNotApplicable RefundStatus = "not_applicable"
)

// Payment is the record created by process payment. It is never deleted;
// a refund flips its status instead.
type Payment struct {
	PaymentID     string        `json:"payment_id"`
	OrderID       string        `json:"order_id"`
	Amount        float64       `json:"amount"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transaction_id,omitempty"`
}

// PaymentIDFor derives the payment id from the order id. The derivation is
// deterministic so a retried process-payment step can re-look up its own
// record without a separate idempotency key.
func PaymentIDFor(orderID string) string {
	return "pmt_" + orderID
}

// TransactionIDFor derives the transaction id recorded on a completed
// payment.
func TransactionIDFor(orderID string) string {
	return "tx_" + orderID
}

// RefundIDFor derives the refund id from the payment id.
func RefundIDFor(paymentID string) string {
	return "ref_" + paymentID
}

// RefundArgs carries the inputs of a refund attempt.
type RefundArgs struct {
	PaymentID string
	OrderID   string
	Amount    float64
	Reason    string
}
