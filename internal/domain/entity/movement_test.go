package entity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/warehouse-monitor/internal/domain"
	"github.com/jhoicas/warehouse-monitor/internal/domain/entity"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func TestParseEventKind(t *testing.T) {
	k, err := entity.ParseEventKind(" ARRIVAL ")
	require.NoError(t, err)
	assert.Equal(t, entity.EventArrival, k)

	_, err = entity.ParseEventKind("transfer")
	assert.ErrorIs(t, err, domain.ErrMalformedEvent)
}

func TestMovementEvent_Validate(t *testing.T) {
	valid := entity.MovementEvent{
		MovementID: "m", WarehouseID: "w", ProductID: "p",
		Kind: entity.EventDeparture, Timestamp: t0, Quantity: 0,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*entity.MovementEvent)
	}{
		{"sin movimiento", func(e *entity.MovementEvent) { e.MovementID = " " }},
		{"sin bodega", func(e *entity.MovementEvent) { e.WarehouseID = "" }},
		{"sin producto", func(e *entity.MovementEvent) { e.ProductID = "" }},
		{"tipo desconocido", func(e *entity.MovementEvent) { e.Kind = "loss" }},
		{"sin timestamp", func(e *entity.MovementEvent) { e.Timestamp = time.Time{} }},
		{"cantidad negativa", func(e *entity.MovementEvent) { e.Quantity = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := valid
			tt.mutate(&ev)
			assert.ErrorIs(t, ev.Validate(), domain.ErrMalformedEvent)
		})
	}
}

func TestSideChange_Adjustments(t *testing.T) {
	side := func(wh string, qty int64) entity.SideState {
		return entity.SideState{WarehouseID: wh, Timestamp: t0, Quantity: qty}
	}
	ptr := func(s entity.SideState) *entity.SideState { return &s }

	tests := []struct {
		name   string
		kind   entity.EventKind
		change entity.SideChange
		want   []entity.LedgerAdjustment
	}{
		{
			name:   "primera salida",
			kind:   entity.EventDeparture,
			change: entity.SideChange{Current: side("W1", 10)},
			want:   []entity.LedgerAdjustment{{WarehouseID: "W1", Delta: -10}},
		},
		{
			name:   "primera llegada",
			kind:   entity.EventArrival,
			change: entity.SideChange{Current: side("W2", 10)},
			want:   []entity.LedgerAdjustment{{WarehouseID: "W2", Delta: 10}},
		},
		{
			name:   "reentrega idéntica",
			kind:   entity.EventArrival,
			change: entity.SideChange{Previous: ptr(side("W2", 10)), Current: side("W2", 10)},
			want:   nil,
		},
		{
			name:   "corrección de cantidad en la misma bodega",
			kind:   entity.EventDeparture,
			change: entity.SideChange{Previous: ptr(side("W1", 10)), Current: side("W1", 7)},
			want:   []entity.LedgerAdjustment{{WarehouseID: "W1", Delta: 3}},
		},
		{
			name: "solo cambia el timestamp",
			kind: entity.EventArrival,
			change: entity.SideChange{
				Previous: ptr(side("W2", 10)),
				Current:  entity.SideState{WarehouseID: "W2", Timestamp: t0.Add(time.Hour), Quantity: 10},
			},
			want: nil,
		},
		{
			name:   "cambio de bodega revierte la anterior",
			kind:   entity.EventArrival,
			change: entity.SideChange{Previous: ptr(side("W2", 10)), Current: side("W3", 8)},
			want: []entity.LedgerAdjustment{
				{WarehouseID: "W2", Delta: -10},
				{WarehouseID: "W3", Delta: 8},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.change.Adjustments(tt.kind))
		})
	}
}

func TestSideState_EqualIgnoraZona(t *testing.T) {
	bogota := time.FixedZone("COT", -5*3600)
	a := entity.SideState{WarehouseID: "W", Timestamp: t0, Quantity: 1}
	b := entity.SideState{WarehouseID: "W", Timestamp: t0.In(bogota), Quantity: 1}
	assert.True(t, a.Equal(b))
}

func TestMovement_View(t *testing.T) {
	t.Run("ambos lados", func(t *testing.T) {
		m := entity.Movement{
			ID: "M1", ProductID: "P1",
			Departure: &entity.SideState{WarehouseID: "W1", Timestamp: t0, Quantity: 100},
			Arrival:   &entity.SideState{WarehouseID: "W2", Timestamp: t0.Add(90 * time.Minute), Quantity: 95},
		}
		v := m.View()
		require.NotNil(t, v.TransitTimeSeconds)
		assert.Equal(t, 5400.0, *v.TransitTimeSeconds)
		assert.Equal(t, int64(-5), v.QuantityDifference)
		assert.Equal(t, int64(100), v.Quantity)
		assert.Equal(t, "W1", *v.SourceWarehouse)
		assert.Equal(t, "W2", *v.DestinationWarehouse)
	})

	t.Run("solo salida", func(t *testing.T) {
		m := entity.Movement{ID: "M1", ProductID: "P1", Departure: &entity.SideState{WarehouseID: "W1", Timestamp: t0, Quantity: 4}}
		v := m.View()
		assert.Nil(t, v.TransitTimeSeconds)
		assert.Nil(t, v.ArrivalTime)
		assert.Nil(t, v.DestinationWarehouse)
		assert.Zero(t, v.QuantityDifference)
		assert.Equal(t, int64(4), v.Quantity)
	})

	t.Run("solo llegada", func(t *testing.T) {
		m := entity.Movement{ID: "M1", ProductID: "P1", Arrival: &entity.SideState{WarehouseID: "W2", Timestamp: t0, Quantity: 6}}
		v := m.View()
		assert.Nil(t, v.SourceWarehouse)
		assert.Equal(t, int64(6), v.Quantity)
	})

	t.Run("tránsito negativo se informa tal cual", func(t *testing.T) {
		m := entity.Movement{
			ID: "M1", ProductID: "P1",
			Departure: &entity.SideState{WarehouseID: "W1", Timestamp: t0.Add(time.Hour), Quantity: 100},
			Arrival:   &entity.SideState{WarehouseID: "W2", Timestamp: t0, Quantity: 100},
		}
		v := m.View()
		require.NotNil(t, v.TransitTimeSeconds)
		assert.Equal(t, -3600.0, *v.TransitTimeSeconds)
		assert.Zero(t, v.QuantityDifference)
	})

	t.Run("tránsito conserva fracciones de segundo", func(t *testing.T) {
		m := entity.Movement{
			ID: "M1", ProductID: "P1",
			Departure: &entity.SideState{WarehouseID: "W1", Timestamp: t0, Quantity: 1},
			Arrival:   &entity.SideState{WarehouseID: "W2", Timestamp: t0.Add(90*time.Second + 250*time.Millisecond), Quantity: 1},
		}
		v := m.View()
		require.NotNil(t, v.TransitTimeSeconds)
		assert.InDelta(t, 90.25, *v.TransitTimeSeconds, 1e-9)
	})
}
