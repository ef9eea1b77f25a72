package orders

import "context"

// Cancel runs the cancellation saga for an existing order: refund the
// payment if one completed, release any reserved inventory, then mark the
// order CANCELLED. Re-invoking cancellation on an order that is already
// CANCELLED or CANCELLING (or otherwise cannot enter cancellation) is a
// no-op that returns the stored state; refund and release are not re-run.
func (s *SagaService) Cancel(ctx context.Context, orderID, reason string) (OrderStatusResult, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return OrderStatusResult{}, err
	}
	if order == nil {
		s.logf("cancellation refused, order not found: order=%s", orderID)
		return OrderStatusResult{
			OrderID: orderID,
			Status:  StatusFailed,
			Reason:  "Order not found.",
		}, nil
	}

	if !order.Status.CanTransition(StatusCancelling) {
		s.logf("cancellation is a no-op: order=%s status=%s", orderID, order.Status)
		return resultFromOrder(order), nil
	}

	cancelReason := reason
	if cancelReason == "" {
		cancelReason = "Cancellation initiated"
	}
	if err := order.TransitionTo(StatusCancelling, cancelReason); err != nil {
		return OrderStatusResult{}, err
	}
	// Checkpoint before any side effect.
	if err := s.orders.Save(ctx, order); err != nil {
		return OrderStatusResult{}, err
	}
	s.logf("cancellation started: order=%s reason=%q", orderID, cancelReason)

	order.RefundID = ""
	order.RefundStatus = ""

	payment, err := s.payments.GetPayment(ctx, PaymentIDFor(orderID))
	if err != nil {
		return s.failCancellation(ctx, order, err)
	}

	if payment != nil && payment.Status == PaymentCompleted {
		refundReason := reason
		if refundReason == "" {
			refundReason = "Order cancellation"
		}
		outcome, err := s.payments.RefundPayment(ctx, RefundArgs{
			PaymentID: payment.PaymentID,
			OrderID:   order.OrderID,
			Amount:    payment.Amount,
			Reason:    refundReason,
		})
		if err != nil {
			return s.failCancellation(ctx, order, err)
		}
		if outcome.Refunded() {
			order.RefundID = outcome.RefundID()
			order.RefundStatus = RefundStatusCompleted
			s.logf("payment refunded: order=%s refund=%s", orderID, order.RefundID)
		} else {
			// A failed refund is an authoritative result, not a reason to
			// abort the cancellation. Manual intervention is expected.
			order.RefundStatus = RefundStatusFailed
			s.logf("payment refund failed: order=%s reason=%q", orderID, outcome.Reason())
		}
	} else {
		order.RefundStatus = RefundStatusNotApplicable
	}

	// Release is idempotent and must not fail for an order with nothing
	// reserved.
	if _, err := s.inventory.ReleaseItems(ctx, order); err != nil {
		return s.failCancellation(ctx, order, err)
	}

	finalReason := reason
	if finalReason == "" {
		finalReason = "Order successfully cancelled"
	}
	if err := order.TransitionTo(StatusCancelled, finalReason); err != nil {
		return OrderStatusResult{}, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		// The CANCELLED mark never became durable.
		order.Status = StatusCancelling
		return s.failCancellation(ctx, order, err)
	}

	s.logf("cancellation completed: order=%s refund_status=%s", orderID, order.RefundStatus)
	result := resultFromOrder(order)
	if payment != nil {
		result.PaymentID = payment.PaymentID
		result.TransactionID = payment.TransactionID
	}
	return result, nil
}

// failCancellation records an unexpected failure after the CANCELLING
// checkpoint. The order is persisted as FAILED_CANCELLATION while the
// returned result reports FAILED; no second compensation attempt is made.
func (s *SagaService) failCancellation(ctx context.Context, order *Order, cause error) (OrderStatusResult, error) {
	reason := "Cancellation failed due to unexpected error: " + cause.Error()
	if order.RefundStatus == "" || order.RefundStatus == RefundStatusPending {
		order.RefundStatus = RefundStatusFailed
	}
	if err := order.TransitionTo(StatusFailedCancellation, reason); err != nil {
		return OrderStatusResult{}, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return OrderStatusResult{}, err
	}
	s.logf("cancellation failed: order=%s cause=%v", order.OrderID, cause)
	return OrderStatusResult{
		OrderID:      order.OrderID,
		Status:       StatusFailed,
		Reason:       reason,
		RefundID:     order.RefundID,
		RefundStatus: order.RefundStatus,
	}, nil
}
