package movement

import (
	"context"
	"time"

	"github.com/jhoicas/warehouse-monitor/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error no se confirma nada.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		ledger repository.QuantityLedger,
		movements repository.MovementRepository,
	) error) error
}

// Cache contrato del cache de resultados de lectura.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Delete(key string)
}
