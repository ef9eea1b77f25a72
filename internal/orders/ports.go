package orders

import (
	"context"

	"github.com/google/uuid"
)

// The saga orchestrators depend only on these ports. Every implementation
// must be idempotent: a retried call with the same logical input returns an
// equivalent result and performs no additional observable effect. That
// contract is what makes the orchestrators safe to re-execute from the start
// after a crash, whatever durable-execution substrate hosts them.

// IdGenerator allocates order ids. Generation is non-deterministic and is
// called through the substrate's retry boundary.
type IdGenerator interface {
	GenerateOrderID(ctx context.Context) (string, error)
}

// InventoryPort reserves and releases stock for an order. ReleaseItems must
// tolerate an order with nothing reserved.
type InventoryPort interface {
	ReserveItems(ctx context.Context, order *Order) (ReservationOutcome, error)
	ReleaseItems(ctx context.Context, order *Order) ([]InventoryItem, error)
}

// PaymentPort charges, looks up, and refunds payments. GetPayment returns
// (nil, nil) when no payment exists for the id.
type PaymentPort interface {
	ProcessPayment(ctx context.Context, order *Order) (PaymentOutcome, error)
	GetPayment(ctx context.Context, paymentID string) (*Payment, error)
	RefundPayment(ctx context.Context, args RefundArgs) (RefundOutcome, error)
}

// OrderStore persists the order aggregate. Get returns (nil, nil) when the
// order does not exist.
type OrderStore interface {
	Save(ctx context.Context, order *Order) error
	Get(ctx context.Context, orderID string) (*Order, error)
}

// MappingStore is the bidirectional request-to-order index. StoreMapping is
// idempotent per key side; lookups are point reads.
type MappingStore interface {
	StoreMapping(ctx context.Context, requestID, orderID string) error
	OrderForRequest(ctx context.Context, requestID string) (string, bool, error)
	RequestForOrder(ctx context.Context, orderID string) (string, bool, error)
}

// UUIDGenerator implements IdGenerator with random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) GenerateOrderID(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return uuid.NewString(), nil
}
