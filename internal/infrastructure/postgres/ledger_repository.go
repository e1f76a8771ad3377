package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/warehouse-monitor/internal/domain"
	"github.com/jhoicas/warehouse-monitor/internal/domain/repository"
)

var _ repository.QuantityLedger = (*LedgerRepo)(nil)

// LedgerRepo implementación de QuantityLedger sobre PostgreSQL (usable con pool o tx).
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador de saldos. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

// EnsureWarehouse registra la bodega si no existe.
func (r *LedgerRepo) EnsureWarehouse(ctx context.Context, warehouseID string) error {
	return ensureWarehouse(ctx, r.q, warehouseID)
}

// EnsureProduct registra el producto si no existe.
func (r *LedgerRepo) EnsureProduct(ctx context.Context, productID string) error {
	return ensureProduct(ctx, r.q, productID)
}

// GetQuantity obtiene el saldo actual; 0 si el par nunca se registró.
func (r *LedgerRepo) GetQuantity(ctx context.Context, warehouseID, productID string) (int64, error) {
	var qty int64
	err := r.q.QueryRow(ctx,
		`SELECT quantity FROM warehouse_products WHERE warehouse_id = $1 AND product_id = $2`,
		warehouseID, productID,
	).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, mapError("get quantity", err)
	}
	return qty, nil
}

// AdjustQuantity bloquea la fila (SELECT FOR UPDATE), valida el nuevo saldo y lo escribe.
// Corre en un savepoint cuando se usa dentro de una tx, así un rechazo no deja rastro.
func (r *LedgerRepo) AdjustQuantity(ctx context.Context, warehouseID, productID string, delta int64) (int64, error) {
	var next int64
	err := atomic(ctx, r.q, func(tx pgx.Tx) error {
		if err := ensureWarehouse(ctx, tx, warehouseID); err != nil {
			return err
		}
		if err := ensureProduct(ctx, tx, productID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO warehouse_products (warehouse_id, product_id, quantity)
			VALUES ($1, $2, 0)
			ON CONFLICT (warehouse_id, product_id) DO NOTHING`,
			warehouseID, productID,
		); err != nil {
			return mapError("init warehouse_products", err)
		}

		var current int64
		if err := tx.QueryRow(ctx, `
			SELECT quantity FROM warehouse_products
			WHERE warehouse_id = $1 AND product_id = $2
			FOR UPDATE`,
			warehouseID, productID,
		).Scan(&current); err != nil {
			return mapError("get quantity for update", err)
		}

		next = current + delta
		if next < 0 {
			return fmt.Errorf("%w: %s/%s saldo %d, ajuste %d", domain.ErrInvariantViolation, warehouseID, productID, current, delta)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE warehouse_products SET quantity = $3 WHERE warehouse_id = $1 AND product_id = $2`,
			warehouseID, productID, next,
		); err != nil {
			return mapError("update quantity", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

func ensureWarehouse(ctx context.Context, q Querier, id string) error {
	if _, err := q.Exec(ctx, `INSERT INTO warehouses (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, id); err != nil {
		return mapError("ensure warehouse", err)
	}
	return nil
}

func ensureProduct(ctx context.Context, q Querier, id string) error {
	if _, err := q.Exec(ctx, `INSERT INTO products (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, id); err != nil {
		return mapError("ensure product", err)
	}
	return nil
}
