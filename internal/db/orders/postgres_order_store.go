package ordersdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"tradewind/internal/orders"
)

// PostgresOrderStore persists the order aggregate in Postgres. Save is an
// upsert keyed by order id; the item lines are stored as a JSONB document.
type PostgresOrderStore struct {
	db *sql.DB
}

// NewPostgresOrderStore constructs an OrderStore backed by Postgres.
func NewPostgresOrderStore(db *sql.DB) *PostgresOrderStore {
	return &PostgresOrderStore{db: db}
}

// NewPostgresOrderStoreWithSchema initializes the schema then returns the
// store.
func NewPostgresOrderStoreWithSchema(ctx context.Context, db *sql.DB) (*PostgresOrderStore, error) {
	store := NewPostgresOrderStore(db)
	if err := store.InitSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// InitSchema creates the orders table if it does not exist.
func (s *PostgresOrderStore) InitSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS orders (
			order_id TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL,
			items JSONB NOT NULL,
			total_amount DOUBLE PRECISION NOT NULL,
			status TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			refund_id TEXT NOT NULL DEFAULT '',
			refund_status TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

func (s *PostgresOrderStore) Save(ctx context.Context, order *orders.Order) error {
	if order.OrderID == "" {
		return fmt.Errorf("order id required")
	}

	items, err := json.Marshal(order.Items)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orders (order_id, customer_id, items, total_amount, status, reason, refund_id, refund_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (order_id) DO UPDATE
		SET status = EXCLUDED.status,
			reason = EXCLUDED.reason,
			refund_id = EXCLUDED.refund_id,
			refund_status = EXCLUDED.refund_status,
			updated_at = NOW()`,
		order.OrderID, order.CustomerID, items, order.TotalAmount,
		order.Status, order.Reason, order.RefundID, order.RefundStatus,
	)
	return err
}

func (s *PostgresOrderStore) Get(ctx context.Context, orderID string) (*orders.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT order_id, customer_id, items, total_amount, status, reason, refund_id, refund_status
		FROM orders
		WHERE order_id = $1`,
		orderID,
	)

	var order orders.Order
	var items []byte
	var status, refundStatus string
	err := row.Scan(&order.OrderID, &order.CustomerID, &items, &order.TotalAmount,
		&status, &order.Reason, &order.RefundID, &refundStatus)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("decode items for order %s: %w", orderID, err)
	}
	order.Status = orders.Status(status)
	order.RefundStatus = orders.RefundStatus(refundStatus)
	return &order, nil
}
