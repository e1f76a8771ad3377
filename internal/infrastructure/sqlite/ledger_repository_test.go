package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/warehouse-monitor/internal/domain"
)

func TestOpen_CreaArchivoYEsIdempotente(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wm.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	assert.NoError(t, s2.Ping(context.Background()))
}

func TestOpen_PragmasEnConexionesNuevas(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	// sin conexiones ociosas, cada consulta abre una conexión nueva
	s.DB().SetMaxIdleConns(0)

	for i := 0; i < 3; i++ {
		var fk, busy int
		var mode string
		require.NoError(t, s.DB().QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk))
		require.NoError(t, s.DB().QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&busy))
		require.NoError(t, s.DB().QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
		assert.Equal(t, 1, fk)
		assert.Equal(t, 5000, busy)
		assert.Equal(t, "wal", mode)
	}
}

func TestDSN_RespetaQueryExistente(t *testing.T) {
	assert.Equal(t, "a.db?"+dsnParams, dsn("a.db"))
	assert.Equal(t, "file:a.db?cache=shared&"+dsnParams, dsn("file:a.db?cache=shared"))
}

func TestLedger_ParDesconocidoEsCero(t *testing.T) {
	s := createTestStore(t)

	qty, err := s.Ledger().GetQuantity(context.Background(), "W1", "P1")
	require.NoError(t, err)
	assert.Zero(t, qty)
}

func TestLedger_SumaDeDeltas(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	ledger := s.Ledger()

	deltas := []int64{10, -3, 5, -12, 0, 7}
	var want int64
	for _, d := range deltas {
		got, err := ledger.AdjustQuantity(ctx, "W1", "P1", d)
		require.NoError(t, err)
		want += d
		assert.Equal(t, want, got)
	}

	qty, err := ledger.GetQuantity(ctx, "W1", "P1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), qty)
}

func TestLedger_RechazoNoModificaSaldo(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	ledger := s.Ledger()

	_, err := ledger.AdjustQuantity(ctx, "W1", "P1", 5)
	require.NoError(t, err)

	_, err = ledger.AdjustQuantity(ctx, "W1", "P1", -6)
	require.ErrorIs(t, err, domain.ErrInvariantViolation)

	qty, err := ledger.GetQuantity(ctx, "W1", "P1")
	require.NoError(t, err)
	assert.Equal(t, int64(5), qty)
}

func TestLedger_RechazoSobreParNuevoNoRegistraIdentidades(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.Ledger().AdjustQuantity(ctx, "W9", "P9", -1)
	require.ErrorIs(t, err, domain.ErrInvariantViolation)

	var n int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM warehouses WHERE id = 'W9'`).Scan(&n))
	assert.Zero(t, n)
}

func TestLedger_EnsureEsIdempotente(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	ledger := s.Ledger()

	require.NoError(t, ledger.EnsureWarehouse(ctx, "W1"))
	require.NoError(t, ledger.EnsureWarehouse(ctx, "W1"))
	require.NoError(t, ledger.EnsureProduct(ctx, "P1"))
	require.NoError(t, ledger.EnsureProduct(ctx, "P1"))

	var n int
	require.NoError(t, s.DB().QueryRow(`SELECT COUNT(*) FROM warehouses`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestLedger_AjustesConcurrentes(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	ledger := s.Ledger()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.AdjustQuantity(ctx, "W1", "P1", 2)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	qty, err := ledger.GetQuantity(ctx, "W1", "P1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), qty)
}

func TestSchema_CheckRechazaSaldoNegativo(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Ledger().EnsureWarehouse(ctx, "W1"))
	require.NoError(t, s.Ledger().EnsureProduct(ctx, "P1"))

	_, err := s.DB().ExecContext(ctx,
		`INSERT INTO warehouse_products (warehouse_id, product_id, quantity) VALUES ('W1', 'P1', -1)`)
	require.Error(t, err)
	assert.ErrorIs(t, mapError("insert", err), domain.ErrInvariantViolation)
}
