package sqlite

import (
	"context"
	"database/sql"

	"github.com/jhoicas/warehouse-monitor/internal/application/movement"
	"github.com/jhoicas/warehouse-monitor/internal/domain/repository"
)

var _ movement.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción SQLite.
type TxRunner struct {
	db *sql.DB
}

// NewTxRunner construye el runner.
func NewTxRunner(db *sql.DB) *TxRunner {
	return &TxRunner{db: db}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	ledger repository.QuantityLedger,
	movements repository.MovementRepository,
) error) error {
	return atomic(ctx, r.db, nil, func(q dbtx) error {
		tx := q.(*sql.Tx)
		return fn(newLedgerRepositoryTx(tx), newMovementRepositoryTx(tx))
	})
}
