package orders

import "context"

// Fulfill runs the order fulfillment saga: reserve inventory, then charge
// payment, compensating with an inventory release when payment fails. The
// request is expected to be pre-validated by the caller; validation is
// re-checked here because nothing has happened yet and failing fast is free.
//
// Errors are returned only for steps that precede the order's existence
// (id generation, mapping persistence, the initial save) so the substrate
// can retry the whole run. Once inventory has been reserved, any port error
// is absorbed into a terminal FAILED order after best-effort compensation.
func (s *SagaService) Fulfill(ctx context.Context, req CreateOrderRequest, requestID string) (OrderStatusResult, error) {
	if err := req.Validate(); err != nil {
		return OrderStatusResult{}, err
	}

	orderID, err := s.ids.GenerateOrderID(ctx)
	if err != nil {
		return OrderStatusResult{}, err
	}

	// The mapping is persisted before any other side effect so a retried
	// run can always resolve the request back to the same order id.
	if err := s.mappings.StoreMapping(ctx, requestID, orderID); err != nil {
		return OrderStatusResult{}, err
	}

	order, err := NewOrder(orderID, req)
	if err != nil {
		return OrderStatusResult{}, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return OrderStatusResult{}, err
	}
	s.logf("fulfillment started: order=%s request=%s customer=%s amount=%.2f", orderID, requestID, order.CustomerID, order.TotalAmount)

	outcome, err := s.inventory.ReserveItems(ctx, order)
	if err != nil {
		// Nothing was reserved; no compensation to run.
		return s.failFulfillment(ctx, order, false, err)
	}
	if !outcome.Reserved() {
		reason := "Inventory reservation failed: " + outcome.Reason()
		if err := order.TransitionTo(StatusInventoryFailed, reason); err != nil {
			return OrderStatusResult{}, err
		}
		if err := s.orders.Save(ctx, order); err != nil {
			return OrderStatusResult{}, err
		}
		s.logf("fulfillment stopped, inventory failed: order=%s reason=%q", orderID, outcome.Reason())
		return OrderStatusResult{
			OrderID: orderID,
			Status:  StatusInventoryFailed,
			Reason:  reason,
		}, nil
	}

	paymentOutcome, err := s.payments.ProcessPayment(ctx, order)
	if err != nil {
		return s.failFulfillment(ctx, order, true, err)
	}
	if !paymentOutcome.Completed() {
		s.releaseReserved(ctx, order)
		reason := "Payment processing failed: " + paymentOutcome.Reason()
		if err := order.TransitionTo(StatusPaymentFailed, reason); err != nil {
			return OrderStatusResult{}, err
		}
		if err := s.orders.Save(ctx, order); err != nil {
			return OrderStatusResult{}, err
		}
		s.logf("fulfillment stopped, payment failed: order=%s reason=%q", orderID, paymentOutcome.Reason())
		return OrderStatusResult{
			OrderID: orderID,
			Status:  StatusPaymentFailed,
			Reason:  reason,
		}, nil
	}

	payment := paymentOutcome.Payment()
	if err := order.TransitionTo(StatusCompleted, ""); err != nil {
		return s.failFulfillment(ctx, order, true, err)
	}
	if err := s.orders.Save(ctx, order); err != nil {
		// The completed mark never became durable; discard it before
		// recording the failure.
		order.Status = StatusPending
		return s.failFulfillment(ctx, order, true, err)
	}

	s.logf("fulfillment completed: order=%s payment=%s", orderID, payment.PaymentID)
	return OrderStatusResult{
		OrderID:       orderID,
		Status:        StatusCompleted,
		PaymentID:     payment.PaymentID,
		TransactionID: payment.TransactionID,
	}, nil
}

// failFulfillment records an unexpected failure as a terminal FAILED order,
// compensating the reservation first when one was made.
func (s *SagaService) failFulfillment(ctx context.Context, order *Order, reserved bool, cause error) (OrderStatusResult, error) {
	if reserved {
		s.releaseReserved(ctx, order)
	}

	reason := "Unexpected error during fulfillment: " + cause.Error()
	if err := order.TransitionTo(StatusFailed, reason); err != nil {
		return OrderStatusResult{}, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return OrderStatusResult{}, err
	}
	s.logf("fulfillment failed: order=%s cause=%v", order.OrderID, cause)
	return OrderStatusResult{
		OrderID: order.OrderID,
		Status:  StatusFailed,
		Reason:  reason,
	}, nil
}

// releaseReserved runs the inventory compensation. Compensation errors are
// logged and swallowed so they never mask the originating failure.
func (s *SagaService) releaseReserved(ctx context.Context, order *Order) {
	if _, err := s.inventory.ReleaseItems(ctx, order); err != nil {
		s.logf("inventory release failed during compensation: order=%s err=%v", order.OrderID, err)
	}
}
