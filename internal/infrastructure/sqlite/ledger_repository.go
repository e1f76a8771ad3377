package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jhoicas/warehouse-monitor/internal/domain"
	"github.com/jhoicas/warehouse-monitor/internal/domain/repository"
)

var _ repository.QuantityLedger = (*LedgerRepo)(nil)

// LedgerRepo implementación SQLite de QuantityLedger.
type LedgerRepo struct {
	db *sql.DB // nil cuando el repo está atado a una transacción
	q  dbtx
}

// NewLedgerRepository repositorio fuera de transacción.
func NewLedgerRepository(db *sql.DB) *LedgerRepo {
	return &LedgerRepo{db: db, q: db}
}

func newLedgerRepositoryTx(tx *sql.Tx) *LedgerRepo {
	return &LedgerRepo{q: tx}
}

// EnsureWarehouse registra la bodega si no existe.
func (r *LedgerRepo) EnsureWarehouse(ctx context.Context, warehouseID string) error {
	return ensureWarehouse(ctx, r.q, warehouseID)
}

// EnsureProduct registra el producto si no existe.
func (r *LedgerRepo) EnsureProduct(ctx context.Context, productID string) error {
	return ensureProduct(ctx, r.q, productID)
}

// GetQuantity saldo actual del par; 0 si nunca se registró.
func (r *LedgerRepo) GetQuantity(ctx context.Context, warehouseID, productID string) (int64, error) {
	return getQuantity(ctx, r.q, warehouseID, productID)
}

// AdjustQuantity suma delta al saldo. Valida la invariante antes de escribir, así un
// rechazo no deja rastro.
func (r *LedgerRepo) AdjustQuantity(ctx context.Context, warehouseID, productID string, delta int64) (int64, error) {
	var next int64
	err := atomic(ctx, r.db, r.q, func(q dbtx) error {
		current, err := getQuantity(ctx, q, warehouseID, productID)
		if err != nil {
			return err
		}
		next = current + delta
		if next < 0 {
			return fmt.Errorf("%w: %s/%s saldo %d, ajuste %d", domain.ErrInvariantViolation, warehouseID, productID, current, delta)
		}
		if err := ensureWarehouse(ctx, q, warehouseID); err != nil {
			return err
		}
		if err := ensureProduct(ctx, q, productID); err != nil {
			return err
		}
		const upsert = `
			INSERT INTO warehouse_products (warehouse_id, product_id, quantity)
			VALUES (?, ?, ?)
			ON CONFLICT (warehouse_id, product_id) DO UPDATE SET quantity = excluded.quantity`
		if _, err := q.ExecContext(ctx, upsert, warehouseID, productID, next); err != nil {
			return mapError("upsert warehouse_products", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

func ensureWarehouse(ctx context.Context, q dbtx, id string) error {
	if _, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO warehouses (id) VALUES (?)`, id); err != nil {
		return mapError("ensure warehouse", err)
	}
	return nil
}

func ensureProduct(ctx context.Context, q dbtx, id string) error {
	if _, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO products (id) VALUES (?)`, id); err != nil {
		return mapError("ensure product", err)
	}
	return nil
}

func getQuantity(ctx context.Context, q dbtx, warehouseID, productID string) (int64, error) {
	var qty int64
	err := q.QueryRowContext(ctx,
		`SELECT quantity FROM warehouse_products WHERE warehouse_id = ? AND product_id = ?`,
		warehouseID, productID,
	).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, mapError("get quantity", err)
	}
	return qty, nil
}
