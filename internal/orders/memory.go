package orders

import (
	"context"
	"sync"
)

// NewMemoryPaymentPort constructs an in-memory payment port.
func NewMemoryPaymentPort() *MemoryPaymentPort {
	return &MemoryPaymentPort{payments: make(map[string]Payment)}
}

// MemoryPaymentPort keeps payment records in memory. Processing always
// completes unless DeclineReason is set; reprocessing an order returns the
// stored record unchanged.
type MemoryPaymentPort struct {
	mu            sync.Mutex
	payments      map[string]Payment
	DeclineReason string
}

func (p *MemoryPaymentPort) ProcessPayment(ctx context.Context, order *Order) (PaymentOutcome, error) {
	if err := ctx.Err(); err != nil {
		return PaymentOutcome{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.DeclineReason != "" {
		return PaymentOutcomeFailed(p.DeclineReason), nil
	}

	paymentID := PaymentIDFor(order.OrderID)
	if existing, ok := p.payments[paymentID]; ok {
		if existing.Status == PaymentCompleted {
			return PaymentOutcomeCompleted(existing), nil
		}
		return PaymentOutcomeFailed("payment already in status " + string(existing.Status)), nil
	}

	payment := Payment{
		PaymentID:     paymentID,
		OrderID:       order.OrderID,
		Amount:        order.TotalAmount,
		Status:        PaymentCompleted,
		TransactionID: TransactionIDFor(order.OrderID),
	}
	p.payments[paymentID] = payment
	return PaymentOutcomeCompleted(payment), nil
}

func (p *MemoryPaymentPort) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	payment, ok := p.payments[paymentID]
	if !ok {
		return nil, nil
	}
	out := payment
	return &out, nil
}

func (p *MemoryPaymentPort) RefundPayment(ctx context.Context, args RefundArgs) (RefundOutcome, error) {
	if err := ctx.Err(); err != nil {
		return RefundOutcome{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	payment, ok := p.payments[args.PaymentID]
	if !ok {
		return RefundOutcomeFailed("Original payment not found."), nil
	}
	if payment.Status == PaymentRefunded {
		// Already refunded; answer the same refund id again.
		return RefundedOutcome(RefundIDFor(args.PaymentID)), nil
	}
	if payment.Status != PaymentCompleted {
		return RefundOutcomeFailed("Payment status is '" + string(payment.Status) + "', cannot refund."), nil
	}

	payment.Status = PaymentRefunded
	p.payments[args.PaymentID] = payment
	return RefundedOutcome(RefundIDFor(args.PaymentID)), nil
}

// SeedPayment stores a payment record directly (for testing/inspection).
func (p *MemoryPaymentPort) SeedPayment(payment Payment) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payments[payment.PaymentID] = payment
}

// NewMemoryInventoryPort constructs an in-memory inventory port.
func NewMemoryInventoryPort() *MemoryInventoryPort {
	return &MemoryInventoryPort{items: make(map[string]InventoryItem)}
}

// MemoryInventoryPort tracks per-product reservations in memory. Reserving
// marks each order line fully reserved; releasing zeroes the reservation and
// tolerates orders with nothing reserved. FailReason forces reservation
// failures.
type MemoryInventoryPort struct {
	mu         sync.Mutex
	items      map[string]InventoryItem
	FailReason string
}

func (p *MemoryInventoryPort) ReserveItems(ctx context.Context, order *Order) (ReservationOutcome, error) {
	if err := ctx.Err(); err != nil {
		return ReservationOutcome{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.FailReason != "" {
		return ReservationFailed(p.FailReason), nil
	}

	reserved := make([]InventoryItem, 0, len(order.Items))
	for _, line := range order.Items {
		item := InventoryItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Reserved:  line.Quantity,
		}
		p.items[line.ProductID] = item
		reserved = append(reserved, item)
	}
	return ReservedOutcome(reserved), nil
}

func (p *MemoryInventoryPort) ReleaseItems(ctx context.Context, order *Order) ([]InventoryItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	released := make([]InventoryItem, 0, len(order.Items))
	for _, line := range order.Items {
		item, ok := p.items[line.ProductID]
		if !ok {
			item = InventoryItem{ProductID: line.ProductID, Quantity: line.Quantity}
		}
		item.Reserved = 0
		p.items[line.ProductID] = item
		released = append(released, item)
	}
	return released, nil
}

// Reserved returns the reserved quantity for a product (for
// testing/inspection).
func (p *MemoryInventoryPort) Reserved(productID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.items[productID].Reserved
}

// NewMemoryOrderStore constructs an in-memory order store.
func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{orders: make(map[string]Order)}
}

// MemoryOrderStore keeps order aggregates in memory.
type MemoryOrderStore struct {
	mu     sync.Mutex
	orders map[string]Order
}

func (s *MemoryOrderStore) Save(ctx context.Context, order *Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *order
	stored.Items = make([]OrderItem, len(order.Items))
	copy(stored.Items, order.Items)
	s.orders[order.OrderID] = stored
	return nil
}

func (s *MemoryOrderStore) Get(ctx context.Context, orderID string) (*Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return nil, nil
	}
	out := order
	out.Items = make([]OrderItem, len(order.Items))
	copy(out.Items, order.Items)
	return &out, nil
}
