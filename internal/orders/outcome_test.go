package orders

import "testing"

func TestReservationOutcome(t *testing.T) {
	ok := ReservedOutcome([]InventoryItem{{ProductID: "sku-1", Quantity: 2, Reserved: 2}})
	if !ok.Reserved() || len(ok.Items()) != 1 || ok.Reason() != "" {
		t.Fatalf("unexpected reserved outcome: %+v", ok)
	}

	failed := ReservationFailed("Insufficient inventory for product sku-1")
	if failed.Reserved() || failed.Reason() != "Insufficient inventory for product sku-1" {
		t.Fatalf("unexpected failed outcome: %+v", failed)
	}
}

func TestPaymentOutcome(t *testing.T) {
	payment := Payment{PaymentID: "pmt_order-1", OrderID: "order-1", Amount: 10, Status: PaymentCompleted, TransactionID: "tx_order-1"}
	ok := PaymentOutcomeCompleted(payment)
	if !ok.Completed() || ok.Payment().PaymentID != "pmt_order-1" {
		t.Fatalf("unexpected completed outcome: %+v", ok)
	}

	failed := PaymentOutcomeFailed("Card declined")
	if failed.Completed() || failed.Reason() != "Card declined" {
		t.Fatalf("unexpected failed outcome: %+v", failed)
	}
	if failed.Payment() != (Payment{}) {
		t.Fatalf("failed outcome should carry a zero payment")
	}
}

func TestRefundOutcome(t *testing.T) {
	ok := RefundedOutcome("ref_pmt_order-1")
	if !ok.Refunded() || ok.RefundID() != "ref_pmt_order-1" {
		t.Fatalf("unexpected refunded outcome: %+v", ok)
	}

	failed := RefundOutcomeFailed("Original payment not found.")
	if failed.Refunded() || failed.Reason() != "Original payment not found." {
		t.Fatalf("unexpected failed outcome: %+v", failed)
	}
}
