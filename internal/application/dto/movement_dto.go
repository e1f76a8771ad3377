package dto

import "time"

// MovementInfoResponse vista de un movimiento para GET /api/movements/{movement_id}.
// Los lados ausentes se devuelven como null.
type MovementInfoResponse struct {
	MovementID           string     `json:"movement_id"`
	SourceWarehouse      *string    `json:"source_warehouse"`
	DestinationWarehouse *string    `json:"destination_warehouse"`
	DepartureTime        *time.Time `json:"departure_time"`
	ArrivalTime          *time.Time `json:"arrival_time"`
	TransitTimeSeconds   *float64   `json:"transit_time_seconds"` // llegada - salida en segundos, con fracción; negativo si la llegada es anterior
	ProductID            string     `json:"product_id"`
	Quantity             int64      `json:"quantity"`
	QuantityDifference   int64      `json:"quantity_difference"`
}

// WarehouseProductResponse saldo para GET /api/warehouses/{warehouse_id}/products/{product_id}.
type WarehouseProductResponse struct {
	WarehouseID string `json:"warehouse_id"`
	ProductID   string `json:"product_id"`
	Quantity    int64  `json:"quantity"`
}
