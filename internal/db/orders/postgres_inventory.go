package ordersdb

import (
	"context"
	"database/sql"
	"fmt"

	"tradewind/internal/orders"
)

// PostgresInventoryPort persists per-product reservations in Postgres.
// Reserving and releasing are both upserts, so either operation can be
// replayed and a release finds nothing to do for an order that never
// reserved.
type PostgresInventoryPort struct {
	db *sql.DB
}

// NewPostgresInventoryPort constructs an InventoryPort backed by Postgres.
func NewPostgresInventoryPort(db *sql.DB) *PostgresInventoryPort {
	return &PostgresInventoryPort{db: db}
}

// NewPostgresInventoryPortWithSchema initializes the schema then returns
// the port.
func NewPostgresInventoryPortWithSchema(ctx context.Context, db *sql.DB) (*PostgresInventoryPort, error) {
	port := NewPostgresInventoryPort(db)
	if err := port.InitSchema(ctx); err != nil {
		return nil, err
	}
	return port, nil
}

// InitSchema creates the inventory table if it does not exist.
func (p *PostgresInventoryPort) InitSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS inventory (
			product_id TEXT PRIMARY KEY,
			quantity INTEGER NOT NULL,
			reserved INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

func (p *PostgresInventoryPort) ReserveItems(ctx context.Context, order *orders.Order) (orders.ReservationOutcome, error) {
	if order.OrderID == "" {
		return orders.ReservationOutcome{}, fmt.Errorf("order id required")
	}

	reserved := make([]orders.InventoryItem, 0, len(order.Items))
	for _, line := range order.Items {
		_, err := p.db.ExecContext(ctx, `
			INSERT INTO inventory (product_id, quantity, reserved)
			VALUES ($1, $2, $2)
			ON CONFLICT (product_id) DO UPDATE
			SET reserved = EXCLUDED.reserved, updated_at = NOW()`,
			line.ProductID, line.Quantity,
		)
		if err != nil {
			return orders.ReservationOutcome{}, err
		}
		reserved = append(reserved, orders.InventoryItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Reserved:  line.Quantity,
		})
	}
	return orders.ReservedOutcome(reserved), nil
}

func (p *PostgresInventoryPort) ReleaseItems(ctx context.Context, order *orders.Order) ([]orders.InventoryItem, error) {
	released := make([]orders.InventoryItem, 0, len(order.Items))
	for _, line := range order.Items {
		_, err := p.db.ExecContext(ctx, `
			INSERT INTO inventory (product_id, quantity, reserved)
			VALUES ($1, $2, 0)
			ON CONFLICT (product_id) DO UPDATE
			SET reserved = 0, updated_at = NOW()`,
			line.ProductID, line.Quantity,
		)
		if err != nil {
			return nil, err
		}
		released = append(released, orders.InventoryItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Reserved:  0,
		})
	}
	return released, nil
}
