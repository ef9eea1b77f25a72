package orders

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func (f *sagaFixture) fulfillCompleted(t *testing.T) {
	t.Helper()
	result, err := f.service.Fulfill(context.Background(), testRequest(), "req-1")
	if err != nil || result.Status != StatusCompleted {
		t.Fatalf("fulfillment setup failed: %+v %v", result, err)
	}
}

func TestCancel_CompletedOrderRefundsAndReleases(t *testing.T) {
	f := newSagaFixture(t)
	f.fulfillCompleted(t)

	result, err := f.service.Cancel(context.Background(), "order-1", "Customer changed their mind")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != StatusCancelled {
		t.Fatalf("expected CANCELLED, got %s (%s)", result.Status, result.Reason)
	}
	if result.RefundID != "ref_pmt_order-1" || result.RefundStatus != RefundStatusCompleted {
		t.Fatalf("unexpected refund fields: %+v", result)
	}
	if result.PaymentID != "pmt_order-1" || result.TransactionID != "tx_order-1" {
		t.Fatalf("expected payment ids on the result: %+v", result)
	}
	if f.payments.refundCalls != 1 {
		t.Fatalf("expected one refund call, got %d", f.payments.refundCalls)
	}
	if got := f.inventory.inner.Reserved("sku-1"); got != 0 {
		t.Fatalf("expected reservation released, still %d reserved", got)
	}

	order := f.storedOrder(t, "order-1")
	if order.Status != StatusCancelled || order.Reason != "Customer changed their mind" {
		t.Fatalf("unexpected stored order: %+v", order)
	}
}

func TestCancel_DefaultReasons(t *testing.T) {
	f := newSagaFixture(t)
	f.fulfillCompleted(t)

	result, err := f.service.Cancel(context.Background(), "order-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != StatusCancelled {
		t.Fatalf("expected CANCELLED, got %s", result.Status)
	}
	if order := f.storedOrder(t, "order-1"); order.Reason != "Order successfully cancelled" {
		t.Fatalf("unexpected stored reason: %q", order.Reason)
	}
}

func TestCancel_NoPaymentIsNotApplicable(t *testing.T) {
	f := newSagaFixture(t)
	f.inventory.inner.FailReason = "out of stock"
	if _, err := f.service.Fulfill(context.Background(), testRequest(), "req-1"); err != nil {
		t.Fatalf("fulfillment setup failed: %v", err)
	}
	f.inventory.inner.FailReason = ""

	result, err := f.service.Cancel(context.Background(), "order-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != StatusCancelled {
		t.Fatalf("expected CANCELLED, got %s (%s)", result.Status, result.Reason)
	}
	if result.RefundStatus != RefundStatusNotApplicable || result.RefundID != "" {
		t.Fatalf("unexpected refund fields: %+v", result)
	}
	if f.payments.refundCalls != 0 {
		t.Fatalf("no refund expected without a completed payment")
	}
}

func TestCancel_IsIdempotent(t *testing.T) {
	f := newSagaFixture(t)
	f.fulfillCompleted(t)

	first, err := f.service.Cancel(context.Background(), "order-1", "duplicate click")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	releasesAfterFirst := f.inventory.releaseCalls

	second, err := f.service.Cancel(context.Background(), "order-1", "duplicate click")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if second.Status != first.Status || second.RefundID != first.RefundID || second.RefundStatus != first.RefundStatus {
		t.Fatalf("second cancel diverged: first=%+v second=%+v", first, second)
	}
	if f.payments.refundCalls != 1 {
		t.Fatalf("refund re-ran on the second cancel: %d calls", f.payments.refundCalls)
	}
	if f.inventory.releaseCalls != releasesAfterFirst {
		t.Fatalf("release re-ran on the second cancel")
	}
}

func TestCancel_RefundFailureStillCancels(t *testing.T) {
	f := newSagaFixture(t)
	f.fulfillCompleted(t)
	failed := RefundOutcomeFailed("Refund window expired")
	f.payments.refundOutcome = &failed

	result, err := f.service.Cancel(context.Background(), "order-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != StatusCancelled {
		t.Fatalf("expected CANCELLED despite failed refund, got %s", result.Status)
	}
	if result.RefundStatus != RefundStatusFailed || result.RefundID != "" {
		t.Fatalf("unexpected refund fields: %+v", result)
	}
	if order := f.storedOrder(t, "order-1"); order.RefundStatus != RefundStatusFailed {
		t.Fatalf("unexpected stored refund status: %s", order.RefundStatus)
	}
}

func TestCancel_OrderNotFound(t *testing.T) {
	f := newSagaFixture(t)

	result, err := f.service.Cancel(context.Background(), "order-missing", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != StatusFailed || result.Reason != "Order not found." {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestCancel_TerminalFailureIsNoOp(t *testing.T) {
	f := newSagaFixture(t)
	f.payments.processErr = errors.New("gateway timeout")
	if _, err := f.service.Fulfill(context.Background(), testRequest(), "req-1"); err != nil {
		t.Fatalf("fulfillment setup failed: %v", err)
	}
	f.payments.processErr = nil

	result, err := f.service.Cancel(context.Background(), "order-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != StatusFailed {
		t.Fatalf("expected the stored FAILED state back, got %s", result.Status)
	}
	if f.payments.refundCalls != 0 || f.inventory.releaseCalls != 1 {
		t.Fatalf("no cancellation side effects expected on a terminal order")
	}
}

func TestCancel_GetPaymentErrorFailsCancellation(t *testing.T) {
	f := newSagaFixture(t)
	f.fulfillCompleted(t)
	f.payments.getErr = errors.New("payment service unavailable")

	result, err := f.service.Cancel(context.Background(), "order-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != StatusFailed {
		t.Fatalf("expected FAILED result, got %s", result.Status)
	}
	if !strings.Contains(result.Reason, "Cancellation failed due to unexpected error: payment service unavailable") {
		t.Fatalf("unexpected reason: %q", result.Reason)
	}
	if result.RefundStatus != RefundStatusFailed {
		t.Fatalf("expected refund status forced to failed, got %s", result.RefundStatus)
	}
	if order := f.storedOrder(t, "order-1"); order.Status != StatusFailedCancellation {
		t.Fatalf("expected FAILED_CANCELLATION persisted, got %s", order.Status)
	}
}

func TestCancel_ReleaseErrorKeepsRefundOutcome(t *testing.T) {
	f := newSagaFixture(t)
	f.fulfillCompleted(t)
	f.inventory.releaseErr = errors.New("warehouse unreachable")

	result, err := f.service.Cancel(context.Background(), "order-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != StatusFailed {
		t.Fatalf("expected FAILED result, got %s", result.Status)
	}
	// The refund completed before the release failed; its outcome survives.
	if result.RefundID != "ref_pmt_order-1" || result.RefundStatus != RefundStatusCompleted {
		t.Fatalf("refund outcome lost: %+v", result)
	}
	if order := f.storedOrder(t, "order-1"); order.Status != StatusFailedCancellation {
		t.Fatalf("expected FAILED_CANCELLATION persisted, got %s", order.Status)
	}
}

func TestCancel_FinalSaveFailure(t *testing.T) {
	f := newSagaFixture(t)
	f.fulfillCompleted(t)
	// Saves so far: pending, completed. Next: CANCELLING checkpoint (#3),
	// CANCELLED (#4).
	f.store.failOn = 4
	f.store.saveError = errors.New("connection reset")

	result, err := f.service.Cancel(context.Background(), "order-1", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Status != StatusFailed {
		t.Fatalf("expected FAILED result, got %s", result.Status)
	}
	if order := f.storedOrder(t, "order-1"); order.Status != StatusFailedCancellation {
		t.Fatalf("expected FAILED_CANCELLATION persisted, got %s", order.Status)
	}
}
