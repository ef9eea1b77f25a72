package orders

import "log"

// SagaService runs the order fulfillment and cancellation sagas. It owns the
// Order aggregate and depends only on the port interfaces; whether a port is
// an in-memory fake, a Postgres store, or a proxy into a durable-execution
// substrate is invisible here. The service performs no deduplication of
// whole-saga re-execution: the hosting substrate schedules at most one
// active run per request id.
type SagaService struct {
	ids       IdGenerator
	inventory InventoryPort
	payments  PaymentPort
	orders    OrderStore
	mappings  MappingStore
	logf      func(format string, args ...any)
}

// NewSagaService constructs a SagaService.
func NewSagaService(ids IdGenerator, inventory InventoryPort, payments PaymentPort, orders OrderStore, mappings MappingStore, logf func(format string, args ...any)) *SagaService {
	if logf == nil {
		logf = log.Printf
	}
	return &SagaService{
		ids:       ids,
		inventory: inventory,
		payments:  payments,
		orders:    orders,
		mappings:  mappings,
		logf:      logf,
	}
}

func resultFromOrder(order *Order) OrderStatusResult {
	return OrderStatusResult{
		OrderID:      order.OrderID,
		Status:       order.Status,
		Reason:       order.Reason,
		RefundID:     order.RefundID,
		RefundStatus: order.RefundStatus,
	}
}
