package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/warehouse-monitor/internal/domain/entity"
	"github.com/jhoicas/warehouse-monitor/internal/domain/repository"
)

func TestMovements_GetInexistente(t *testing.T) {
	s := createTestStore(t)

	m, err := s.Movements().Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestMovements_UpsertAmbosLadosEnCualquierOrden(t *testing.T) {
	departure := event("M1", "W1", entity.EventDeparture, baseTime, 100)
	arrival := event("M1", "W2", entity.EventArrival, baseTime.Add(2*time.Hour), 98)

	orders := map[string][]entity.MovementEvent{
		"salida primero":  {departure, arrival},
		"llegada primero": {arrival, departure},
	}
	for name, evs := range orders {
		t.Run(name, func(t *testing.T) {
			s := createTestStore(t)
			ctx := context.Background()
			repo := s.Movements()

			first, err := repo.UpsertSide(ctx, evs[0])
			require.NoError(t, err)
			assert.True(t, first.Created)
			assert.Nil(t, first.Previous)

			second, err := repo.UpsertSide(ctx, evs[1])
			require.NoError(t, err)
			assert.False(t, second.Created)
			assert.Nil(t, second.Previous)

			m, err := repo.Get(ctx, "M1")
			require.NoError(t, err)
			require.NotNil(t, m)
			require.NotNil(t, m.Departure)
			require.NotNil(t, m.Arrival)
			assert.Equal(t, "W1", m.Departure.WarehouseID)
			assert.Equal(t, "W2", m.Arrival.WarehouseID)
			assert.True(t, baseTime.Equal(m.Departure.Timestamp))

			v := m.View()
			require.NotNil(t, v.TransitTimeSeconds)
			assert.Equal(t, 7200.0, *v.TransitTimeSeconds)
			assert.Equal(t, int64(-2), v.QuantityDifference)
		})
	}
}

func TestMovements_ReentregaDevuelveLadoAnterior(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	repo := s.Movements()
	ev := event("M1", "W1", entity.EventDeparture, baseTime, 10)

	_, err := repo.UpsertSide(ctx, ev)
	require.NoError(t, err)

	again, err := repo.UpsertSide(ctx, ev)
	require.NoError(t, err)
	require.NotNil(t, again.Previous)
	assert.True(t, again.Duplicate())
	assert.Empty(t, again.Adjustments(entity.EventDeparture))
}

func TestMovements_ProductoLoFijaElPrimerEvento(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	repo := s.Movements()

	_, err := repo.UpsertSide(ctx, event("M1", "W1", entity.EventDeparture, baseTime, 10))
	require.NoError(t, err)

	other := event("M1", "W2", entity.EventArrival, baseTime, 10)
	other.ProductID = "P2"
	change, err := repo.UpsertSide(ctx, other)
	require.NoError(t, err)
	assert.Equal(t, "P1", change.ProductID)

	m, err := repo.Get(ctx, "M1")
	require.NoError(t, err)
	assert.Equal(t, "P1", m.ProductID)
}

func TestMovements_ZonaHorariaSeNormaliza(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	bogota := time.FixedZone("COT", -5*3600)

	_, err := s.Movements().UpsertSide(ctx, event("M1", "W1", entity.EventDeparture, baseTime.In(bogota), 1))
	require.NoError(t, err)

	m, err := s.Movements().Get(ctx, "M1")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, m.Departure.Timestamp.Location())
	assert.True(t, baseTime.Equal(m.Departure.Timestamp))
}

func TestTxRunner_RollbackDescartaTodo(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.TxRunner().Run(ctx, func(ledger repository.QuantityLedger, movements repository.MovementRepository) error {
		if _, err := movements.UpsertSide(ctx, event("M1", "W1", entity.EventArrival, baseTime, 5)); err != nil {
			return err
		}
		if _, err := ledger.AdjustQuantity(ctx, "W1", "P1", 5); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	m, err := s.Movements().Get(ctx, "M1")
	require.NoError(t, err)
	assert.Nil(t, m)

	qty, err := s.Ledger().GetQuantity(ctx, "W1", "P1")
	require.NoError(t, err)
	assert.Zero(t, qty)
}

func TestTxRunner_CommitConfirma(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.TxRunner().Run(ctx, func(ledger repository.QuantityLedger, movements repository.MovementRepository) error {
		_, err := ledger.AdjustQuantity(ctx, "W1", "P1", 3)
		return err
	})
	require.NoError(t, err)

	qty, err := s.Ledger().GetQuantity(ctx, "W1", "P1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), qty)
}
