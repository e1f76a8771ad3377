package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/warehouse-monitor/internal/domain"
)

// EventKind lado del movimiento que describe un evento.
type EventKind string

// Tipos de evento de movimiento.
const (
	EventDeparture EventKind = "departure" // salida de la bodega origen
	EventArrival   EventKind = "arrival"   // llegada a la bodega destino
)

// ParseEventKind normaliza y valida el tipo de evento.
func ParseEventKind(s string) (EventKind, error) {
	switch EventKind(strings.ToLower(strings.TrimSpace(s))) {
	case EventDeparture:
		return EventDeparture, nil
	case EventArrival:
		return EventArrival, nil
	default:
		return "", fmt.Errorf("%w: tipo de evento %q desconocido", domain.ErrMalformedEvent, s)
	}
}

// Sign signo del efecto del evento sobre el saldo de su bodega: -1 salida, +1 llegada.
func (k EventKind) Sign() int64 {
	if k == EventDeparture {
		return -1
	}
	return 1
}

// MovementEvent evento decodificado que describe un lado de un movimiento.
type MovementEvent struct {
	MovementID  string
	WarehouseID string
	Kind        EventKind
	ProductID   string
	Timestamp   time.Time
	Quantity    int64
}

// Validate comprueba los campos obligatorios del evento.
func (e MovementEvent) Validate() error {
	switch {
	case strings.TrimSpace(e.MovementID) == "":
		return fmt.Errorf("%w: movement_id vacío", domain.ErrMalformedEvent)
	case strings.TrimSpace(e.WarehouseID) == "":
		return fmt.Errorf("%w: warehouse_id vacío", domain.ErrMalformedEvent)
	case strings.TrimSpace(e.ProductID) == "":
		return fmt.Errorf("%w: product_id vacío", domain.ErrMalformedEvent)
	case e.Kind != EventDeparture && e.Kind != EventArrival:
		return fmt.Errorf("%w: tipo de evento %q desconocido", domain.ErrMalformedEvent, e.Kind)
	case e.Timestamp.IsZero():
		return fmt.Errorf("%w: timestamp vacío", domain.ErrMalformedEvent)
	case e.Quantity < 0:
		return fmt.Errorf("%w: cantidad negativa %d", domain.ErrMalformedEvent, e.Quantity)
	}
	return nil
}

// Side estado del lado que registra el evento.
func (e MovementEvent) Side() SideState {
	return SideState{WarehouseID: e.WarehouseID, Timestamp: e.Timestamp.UTC(), Quantity: e.Quantity}
}
