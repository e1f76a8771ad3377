package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jhoicas/warehouse-monitor/internal/domain/entity"
)

var baseTime = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

// createTestStore crea una base temporal por test.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func event(movementID, warehouseID string, kind entity.EventKind, at time.Time, qty int64) entity.MovementEvent {
	return entity.MovementEvent{
		MovementID:  movementID,
		WarehouseID: warehouseID,
		Kind:        kind,
		ProductID:   "P1",
		Timestamp:   at,
		Quantity:    qty,
	}
}
