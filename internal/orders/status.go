package orders

import "context"

// StatusProcessing is a read-model-only status reported when neither an
// order nor a payment record exists yet. It never appears on a persisted
// Order.
const StatusProcessing Status = "processing"

// GetOrderStatus resolves the current status of an order. The aggregate is
// authoritative when present; otherwise the deterministic payment id allows
// a fallback lookup against the payment port, and failing that the order is
// assumed to still be processing.
func (s *SagaService) GetOrderStatus(ctx context.Context, orderID string) (OrderStatusResult, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return OrderStatusResult{}, err
	}
	if order != nil {
		return resultFromOrder(order), nil
	}

	payment, err := s.payments.GetPayment(ctx, PaymentIDFor(orderID))
	if err != nil {
		return OrderStatusResult{}, err
	}
	if payment != nil {
		result := OrderStatusResult{
			OrderID:       orderID,
			Status:        Status(payment.Status),
			PaymentID:     payment.PaymentID,
			TransactionID: payment.TransactionID,
		}
		// Without the aggregate the only refund signal is the payment's own
		// status.
		if payment.Status == PaymentRefunded {
			result.RefundID = RefundIDFor(payment.PaymentID)
			result.RefundStatus = RefundStatusCompleted
		}
		return result, nil
	}

	return OrderStatusResult{OrderID: orderID, Status: StatusProcessing}, nil
}
