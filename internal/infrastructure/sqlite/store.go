package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// dbtx operaciones comunes a *sql.DB y *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store base SQLite embebida para el ledger y los movimientos.
// Un único escritor: las transacciones se abren con BEGIN IMMEDIATE.
type Store struct {
	db *sql.DB
}

// dsnParams pragmas por conexión. Van en el DSN para que el driver los aplique
// a cada conexión nueva del pool, no sólo a la primera.
const dsnParams = "_txlock=immediate&_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL"

// dsn agrega dsnParams a path respetando una query ya presente.
func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + dsnParams
	}
	return path + "?" + dsnParams
}

// Open crea o abre la base en path, aplica pragmas y el esquema. Es idempotente.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, mapError("ping sqlite", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close cierra la base.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifica que la base responde.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return mapError("ping sqlite", err)
	}
	return nil
}

// DB devuelve el *sql.DB subyacente.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ledger repositorio de saldos fuera de transacción.
func (s *Store) Ledger() *LedgerRepo {
	return NewLedgerRepository(s.db)
}

// Movements repositorio de movimientos fuera de transacción.
func (s *Store) Movements() *MovementRepo {
	return NewMovementRepository(s.db)
}

// TxRunner runner transaccional sobre esta base.
func (s *Store) TxRunner() *TxRunner {
	return NewTxRunner(s.db)
}

// atomic ejecuta fn en una transacción propia si db no es nil; si no, sobre q
// (ya dentro de la transacción del llamador).
func atomic(ctx context.Context, db *sql.DB, q dbtx, fn func(q dbtx) error) error {
	if db == nil {
		return fn(q)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return mapError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapError("commit transaction", err)
	}
	return nil
}
