package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/warehouse-monitor/pkg/config"
)

// Store agrupa el pool y los repositorios del backend PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// Open crea el pool y aplica el esquema.
func Open(ctx context.Context, cfg config.DBConfig) (*Store, error) {
	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close cierra el pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping verifica que la base responde.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return mapError("ping DB", err)
	}
	return nil
}

// Pool devuelve el pool subyacente.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Ledger repositorio de saldos fuera de transacción.
func (s *Store) Ledger() *LedgerRepo {
	return NewLedgerRepository(s.pool)
}

// Movements repositorio de movimientos fuera de transacción.
func (s *Store) Movements() *MovementRepo {
	return NewMovementRepository(s.pool)
}

// TxRunner runner transaccional sobre este pool.
func (s *Store) TxRunner() *TxRunner {
	return NewTxRunner(s.pool)
}
