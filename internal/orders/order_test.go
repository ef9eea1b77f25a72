package orders

import (
	"errors"
	"testing"
)

func TestStatusTransitionTable(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusPaymentFailed, true},
		{StatusPending, StatusInventoryFailed, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusCancelling, true},
		{StatusCompleted, StatusCancelling, true},
		{StatusPaymentFailed, StatusCancelling, true},
		{StatusInventoryFailed, StatusCancelling, true},
		{StatusCancelling, StatusCancelled, true},
		{StatusCancelling, StatusFailedCancellation, true},
		{StatusCompleted, StatusPending, false},
		{StatusCompleted, StatusCompleted, false},
		{StatusCancelled, StatusCancelling, false},
		{StatusFailed, StatusCancelling, false},
		{StatusFailedCancellation, StatusCancelling, false},
		{StatusCancelling, StatusCompleted, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected allowed=%v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	terminal := []Status{StatusFailed, StatusCancelled, StatusFailedCancellation}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Fatalf("expected %s to be terminal", s)
		}
	}
	nonTerminal := []Status{StatusPending, StatusCompleted, StatusPaymentFailed, StatusInventoryFailed, StatusCancelling}
	for _, s := range nonTerminal {
		if s.Terminal() {
			t.Fatalf("expected %s to be non-terminal", s)
		}
	}
}

func TestTransitionTo_RejectsIllegalMove(t *testing.T) {
	order := &Order{OrderID: "order-1", Status: StatusCancelled}
	err := order.TransitionTo(StatusCancelling, "again")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if order.Status != StatusCancelled {
		t.Fatalf("status mutated on rejected transition: %s", order.Status)
	}
}

func TestTransitionTo_RecordsReason(t *testing.T) {
	order := &Order{OrderID: "order-1", Status: StatusPending}
	if err := order.TransitionTo(StatusPaymentFailed, "Payment processing failed: declined"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != StatusPaymentFailed || order.Reason != "Payment processing failed: declined" {
		t.Fatalf("unexpected order state: %+v", order)
	}
}

func TestCreateOrderRequest_Validate(t *testing.T) {
	valid := CreateOrderRequest{
		CustomerID: "cust-1",
		Items:      []OrderItem{{ProductID: "sku-1", Quantity: 2, UnitPrice: 3.5}},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []CreateOrderRequest{
		{Items: valid.Items},
		{CustomerID: "cust-1"},
		{CustomerID: "cust-1", Items: []OrderItem{{Quantity: 1, UnitPrice: 1}}},
		{CustomerID: "cust-1", Items: []OrderItem{{ProductID: "sku-1", Quantity: 0, UnitPrice: 1}}},
		{CustomerID: "cust-1", Items: []OrderItem{{ProductID: "sku-1", Quantity: 1, UnitPrice: 0}}},
	}
	for i, req := range cases {
		if err := req.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestCreateOrderRequest_TotalAmount(t *testing.T) {
	req := CreateOrderRequest{
		CustomerID: "cust-1",
		Items: []OrderItem{
			{ProductID: "sku-1", Quantity: 2, UnitPrice: 3.5},
			{ProductID: "sku-2", Quantity: 1, UnitPrice: 10},
		},
	}
	if got := req.TotalAmount(); got != 17 {
		t.Fatalf("expected total 17, got %v", got)
	}
}

func TestNewOrder_CopiesItems(t *testing.T) {
	req := CreateOrderRequest{
		CustomerID: "cust-1",
		Items:      []OrderItem{{ProductID: "sku-1", Quantity: 1, UnitPrice: 5}},
	}
	order, err := NewOrder("order-1", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Status != StatusPending || order.TotalAmount != 5 {
		t.Fatalf("unexpected order: %+v", order)
	}

	req.Items[0].Quantity = 99
	if order.Items[0].Quantity != 1 {
		t.Fatalf("order items aliased the request slice")
	}
}

func TestNewOrder_RequiresID(t *testing.T) {
	req := CreateOrderRequest{
		CustomerID: "cust-1",
		Items:      []OrderItem{{ProductID: "sku-1", Quantity: 1, UnitPrice: 5}},
	}
	if _, err := NewOrder("", req); err == nil {
		t.Fatalf("expected error for empty order id")
	}
}

func TestDeterministicIDs(t *testing.T) {
	if got := PaymentIDFor("order-1"); got != "pmt_order-1" {
		t.Fatalf("unexpected payment id: %s", got)
	}
	if got := TransactionIDFor("order-1"); got != "tx_order-1" {
		t.Fatalf("unexpected transaction id: %s", got)
	}
	if got := RefundIDFor("pmt_order-1"); got != "ref_pmt_order-1" {
		t.Fatalf("unexpected refund id: %s", got)
	}
}
