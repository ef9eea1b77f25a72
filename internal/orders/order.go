package orders

import (
	"errors"
	"fmt"
)

// Status is the order lifecycle state. The mixed casing mirrors the wire
// values consumed by downstream callers and must not be normalized.
type Status string

const (
	StatusPending            Status = "pending"
	StatusCompleted          Status = "completed"
	StatusPaymentFailed      Status = "PAYMENT_FAILED"
	StatusInventoryFailed    Status = "INVENTORY_FAILED"
	StatusFailed             Status = "FAILED"
	StatusCancelling         Status = "CANCELLING"
	StatusCancelled          Status = "CANCELLED"
	StatusFailedCancellation Status = "FAILED_CANCELLATION"
)

// transitions lists the legal next statuses for each status. Statuses with
// no entry are terminal.
var transitions = map[Status][]Status{
	StatusPending: {
		StatusCompleted,
		StatusPaymentFailed,
		StatusInventoryFailed,
		StatusFailed,
		StatusCancelling,
	},
	StatusCompleted:       {StatusCancelling},
	StatusPaymentFailed:   {StatusCancelling},
	StatusInventoryFailed: {StatusCancelling},
	StatusCancelling:      {StatusCancelled, StatusFailedCancellation},
}

// Terminal reports whether no further transition can leave the status.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransition reports whether a transition to next is legal.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ErrInvalidTransition signals a status change outside the transition table.
var ErrInvalidTransition = errors.New("invalid order status transition")

// OrderItem is a single line of an order. Immutable once embedded.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Validate checks the item's field invariants.
func (i OrderItem) Validate() error {
	if i.ProductID == "" {
		return errors.New("product id required")
	}
	if i.Quantity <= 0 {
		return errors.New("quantity must be positive")
	}
	if i.UnitPrice <= 0 {
		return errors.New("unit price must be positive")
	}
	return nil
}

// Order is the saga aggregate and single source of truth for saga progress.
// It is owned exclusively by the fulfillment and cancellation orchestrators
// and persisted after every status transition.
type Order struct {
	OrderID      string       `json:"order_id"`
	CustomerID   string       `json:"customer_id"`
	Items        []OrderItem  `json:"items"`
	TotalAmount  float64      `json:"total_amount"`
	Status       Status       `json:"status"`
	Reason       string       `json:"reason,omitempty"`
	RefundID     string       `json:"refund_id,omitempty"`
	RefundStatus RefundStatus `json:"refund_status,omitempty"`
}

// NewOrder constructs a pending order from a validated request.
func NewOrder(orderID string, req CreateOrderRequest) (*Order, error) {
	if orderID == "" {
		return nil, errors.New("order id required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	items := make([]OrderItem, len(req.Items))
	copy(items, req.Items)
	return &Order{
		OrderID:     orderID,
		CustomerID:  req.CustomerID,
		Items:       items,
		TotalAmount: req.TotalAmount(),
		Status:      StatusPending,
	}, nil
}

// TransitionTo moves the order to next, recording reason. The transition
// table is enforced; terminal statuses reject every change.
func (o *Order) TransitionTo(next Status, reason string) error {
	if !o.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, next)
	}
	o.Status = next
	o.Reason = reason
	return nil
}

// CreateOrderRequest is the caller-supplied input to the fulfillment saga.
type CreateOrderRequest struct {
	CustomerID string      `json:"customer_id"`
	Items      []OrderItem `json:"items"`
}

// Validate checks the request invariants the saga relies on. Validation
// failures surface before any side effect.
func (r CreateOrderRequest) Validate() error {
	if r.CustomerID == "" {
		return errors.New("customer id required")
	}
	if len(r.Items) == 0 {
		return errors.New("order must contain at least one item")
	}
	for i, item := range r.Items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

// TotalAmount is the sum of quantity-weighted unit prices.
func (r CreateOrderRequest) TotalAmount() float64 {
	var total float64
	for _, item := range r.Items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return total
}

// OrderStatusResult is the flat read model returned to callers. It is
// distinct from the Order aggregate.
type OrderStatusResult struct {
	OrderID       string       `json:"order_id"`
	Status        Status       `json:"status"`
	Reason        string       `json:"reason,omitempty"`
	PaymentID     string       `json:"payment_id,omitempty"`
	TransactionID string       `json:"transaction_id,omitempty"`
	RefundID      string       `json:"refund_id,omitempty"`
	RefundStatus  RefundStatus `json:"refund_status,omitempty"`
}
