package ordersdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tradewind/internal/orders"
)

// PostgresPaymentPort persists payments in Postgres. Charging is an
// INSERT ... ON CONFLICT DO NOTHING followed by a read-back, so a retried
// process-payment step observes the record the first attempt wrote instead
// of charging twice.
type PostgresPaymentPort struct {
	db *sql.DB
}

// NewPostgresPaymentPort constructs a PaymentPort backed by Postgres.
func NewPostgresPaymentPort(db *sql.DB) *PostgresPaymentPort {
	return &PostgresPaymentPort{db: db}
}

// NewPostgresPaymentPortWithSchema initializes the schema then returns the
// port.
func NewPostgresPaymentPortWithSchema(ctx context.Context, db *sql.DB) (*PostgresPaymentPort, error) {
	port := NewPostgresPaymentPort(db)
	if err := port.InitSchema(ctx); err != nil {
		return nil, err
	}
	return port, nil
}

// InitSchema creates the payments table if it does not exist.
func (p *PostgresPaymentPort) InitSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS payments (
			payment_id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			status TEXT NOT NULL,
			transaction_id TEXT NOT NULL DEFAULT '',
			charged_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			refunded_at TIMESTAMPTZ
		)
	`)
	return err
}

func (p *PostgresPaymentPort) ProcessPayment(ctx context.Context, order *orders.Order) (orders.PaymentOutcome, error) {
	if order.OrderID == "" {
		return orders.PaymentOutcome{}, fmt.Errorf("order id required")
	}

	paymentID := orders.PaymentIDFor(order.OrderID)
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO payments (payment_id, order_id, amount, status, transaction_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (payment_id) DO NOTHING`,
		paymentID, order.OrderID, order.TotalAmount, orders.PaymentCompleted, orders.TransactionIDFor(order.OrderID),
	)
	if err != nil {
		return orders.PaymentOutcome{}, err
	}

	payment, err := p.GetPayment(ctx, paymentID)
	if err != nil {
		return orders.PaymentOutcome{}, err
	}
	if payment == nil {
		return orders.PaymentOutcome{}, fmt.Errorf("payment %s not found after insert", paymentID)
	}

	switch payment.Status {
	case orders.PaymentCompleted, orders.PaymentRefunded:
		return orders.PaymentOutcomeCompleted(*payment), nil
	default:
		return orders.PaymentOutcomeFailed("payment already in status " + string(payment.Status)), nil
	}
}

func (p *PostgresPaymentPort) GetPayment(ctx context.Context, paymentID string) (*orders.Payment, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT payment_id, order_id, amount, status, transaction_id
		FROM payments
		WHERE payment_id = $1`,
		paymentID,
	)

	var payment orders.Payment
	var status string
	err := row.Scan(&payment.PaymentID, &payment.OrderID, &payment.Amount, &status, &payment.TransactionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	payment.Status = orders.PaymentStatus(status)
	return &payment, nil
}

func (p *PostgresPaymentPort) RefundPayment(ctx context.Context, args orders.RefundArgs) (orders.RefundOutcome, error) {
	res, err := p.db.ExecContext(ctx, `
		UPDATE payments
		SET status = $2, refunded_at = NOW()
		WHERE payment_id = $1 AND status = $3`,
		args.PaymentID, orders.PaymentRefunded, orders.PaymentCompleted,
	)
	if err != nil {
		return orders.RefundOutcome{}, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return orders.RefundOutcome{}, err
	}
	if affected > 0 {
		return orders.RefundedOutcome(orders.RefundIDFor(args.PaymentID)), nil
	}

	// Nothing flipped: either the payment is absent, already refunded, or
	// in a status that cannot be refunded.
	var status string
	row := p.db.QueryRowContext(ctx, `SELECT status FROM payments WHERE payment_id = $1`, args.PaymentID)
	switch scanErr := row.Scan(&status); {
	case errors.Is(scanErr, sql.ErrNoRows):
		return orders.RefundOutcomeFailed("Original payment not found."), nil
	case scanErr != nil:
		return orders.RefundOutcome{}, scanErr
	case orders.PaymentStatus(status) == orders.PaymentRefunded:
		return orders.RefundedOutcome(orders.RefundIDFor(args.PaymentID)), nil
	default:
		return orders.RefundOutcomeFailed("Payment status is '" + status + "', cannot refund."), nil
	}
}
