package repository

import "context"

// QuantityLedger puerto del saldo por (bodega, producto).
// Las identidades de bodega y producto se registran de forma implícita y nunca se borran.
type QuantityLedger interface {
	EnsureWarehouse(ctx context.Context, warehouseID string) error
	EnsureProduct(ctx context.Context, productID string) error
	// GetQuantity devuelve 0 para un par nunca visto.
	GetQuantity(ctx context.Context, warehouseID, productID string) (int64, error)
	// AdjustQuantity suma delta al saldo de forma atómica y devuelve el nuevo saldo.
	// Si el resultado fuera negativo devuelve domain.ErrInvariantViolation sin modificar nada.
	AdjustQuantity(ctx context.Context, warehouseID, productID string, delta int64) (int64, error)
}
