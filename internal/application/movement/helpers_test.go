package movement_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jhoicas/warehouse-monitor/internal/application/movement"
	"github.com/jhoicas/warehouse-monitor/internal/domain/entity"
	"github.com/jhoicas/warehouse-monitor/internal/domain/repository"
	"github.com/jhoicas/warehouse-monitor/internal/infrastructure/sqlite"
	"github.com/jhoicas/warehouse-monitor/pkg/cache"
	"github.com/jhoicas/warehouse-monitor/pkg/logger"
	"github.com/jhoicas/warehouse-monitor/pkg/metrics"
)

var ten = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store      *sqlite.Store
	cache      *cache.Cache
	metrics    *metrics.Registry
	reconciler *movement.Reconciler
	query      *movement.QueryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "wm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	reg := metrics.NewRegistry()
	c := cache.New(time.Minute, cache.WithMetrics(reg))
	return &fixture{
		store:      store,
		cache:      c,
		metrics:    reg,
		reconciler: movement.NewReconciler(store.TxRunner(), c, logger.Nop(), reg),
		query:      movement.NewQueryService(store.Movements(), store.Ledger(), c, time.Minute),
	}
}

func (f *fixture) quantity(t *testing.T, warehouseID, productID string) int64 {
	t.Helper()
	qty, err := f.store.Ledger().GetQuantity(context.Background(), warehouseID, productID)
	require.NoError(t, err)
	return qty
}

func (f *fixture) seed(t *testing.T, warehouseID, productID string, qty int64) {
	t.Helper()
	_, err := f.store.Ledger().AdjustQuantity(context.Background(), warehouseID, productID, qty)
	require.NoError(t, err)
}

func departure(movementID, warehouseID string, at time.Time, qty int64) entity.MovementEvent {
	return entity.MovementEvent{MovementID: movementID, WarehouseID: warehouseID, Kind: entity.EventDeparture, ProductID: "P1", Timestamp: at, Quantity: qty}
}

func arrival(movementID, warehouseID string, at time.Time, qty int64) entity.MovementEvent {
	return entity.MovementEvent{MovementID: movementID, WarehouseID: warehouseID, Kind: entity.EventArrival, ProductID: "P1", Timestamp: at, Quantity: qty}
}

// failingTxRunner simula un almacenamiento caído.
type failingTxRunner struct {
	err error
}

func (r failingTxRunner) Run(context.Context, func(repository.QuantityLedger, repository.MovementRepository) error) error {
	return r.err
}
