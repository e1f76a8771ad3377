package entity

import "time"

// SideState datos de un lado (salida o llegada) de un movimiento.
type SideState struct {
	WarehouseID string
	Timestamp   time.Time
	Quantity    int64
}

// Equal compara dos lados; los instantes se comparan como instantes, no por zona.
func (s SideState) Equal(o SideState) bool {
	return s.WarehouseID == o.WarehouseID && s.Quantity == o.Quantity && s.Timestamp.Equal(o.Timestamp)
}

// Movement traslado de un producto entre bodegas. Cada lado puede faltar
// mientras no llegue su evento.
type Movement struct {
	ID        string
	ProductID string
	Departure *SideState
	Arrival   *SideState
}

// SideChange resultado de registrar un lado: su valor anterior (nil si no existía) y el nuevo.
type SideChange struct {
	Created   bool   // el movimiento no existía antes del evento
	ProductID string // producto registrado en el movimiento (fijado por el primer evento)
	Previous  *SideState
	Current   SideState
}

// Duplicate indica que el lado ya estaba registrado con los mismos valores.
func (c SideChange) Duplicate() bool {
	return c.Previous != nil && c.Previous.Equal(c.Current)
}

// LedgerAdjustment ajuste de saldo para un par (bodega, producto).
type LedgerAdjustment struct {
	WarehouseID string
	Delta       int64
}

// Adjustments ajustes de saldo que produce el cambio de lado. La reversión del valor
// anterior va primero; un duplicado exacto no produce ajustes.
func (c SideChange) Adjustments(kind EventKind) []LedgerAdjustment {
	sign := kind.Sign()
	switch {
	case c.Previous == nil:
		return []LedgerAdjustment{{WarehouseID: c.Current.WarehouseID, Delta: sign * c.Current.Quantity}}
	case c.Duplicate():
		return nil
	case c.Previous.WarehouseID == c.Current.WarehouseID:
		delta := sign * (c.Current.Quantity - c.Previous.Quantity)
		if delta == 0 {
			return nil
		}
		return []LedgerAdjustment{{WarehouseID: c.Current.WarehouseID, Delta: delta}}
	default:
		return []LedgerAdjustment{
			{WarehouseID: c.Previous.WarehouseID, Delta: -sign * c.Previous.Quantity},
			{WarehouseID: c.Current.WarehouseID, Delta: sign * c.Current.Quantity},
		}
	}
}

// MovementView vista derivada de un movimiento para consulta.
type MovementView struct {
	MovementID           string
	SourceWarehouse      *string
	DestinationWarehouse *string
	DepartureTime        *time.Time
	ArrivalTime          *time.Time
	TransitTimeSeconds   *float64
	ProductID            string
	Quantity             int64
	QuantityDifference   int64
}

// View deriva tiempos, cantidades y diferencia.
// Con ambos lados: tránsito = llegada - salida (puede ser negativo), diferencia = llegada - salida.
// La cantidad mostrada es la de salida si existe, si no la de llegada.
func (m *Movement) View() MovementView {
	v := MovementView{MovementID: m.ID, ProductID: m.ProductID}
	if a := m.Arrival; a != nil {
		wh, ts := a.WarehouseID, a.Timestamp
		v.DestinationWarehouse, v.ArrivalTime = &wh, &ts
		v.Quantity = a.Quantity
	}
	if d := m.Departure; d != nil {
		wh, ts := d.WarehouseID, d.Timestamp
		v.SourceWarehouse, v.DepartureTime = &wh, &ts
		v.Quantity = d.Quantity
	}
	if m.Departure != nil && m.Arrival != nil {
		transit := m.Arrival.Timestamp.Sub(m.Departure.Timestamp).Seconds()
		v.TransitTimeSeconds = &transit
		v.QuantityDifference = m.Arrival.Quantity - m.Departure.Quantity
	}
	return v
}
