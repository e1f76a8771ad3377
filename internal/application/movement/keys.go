package movement

import "fmt"

// MovementKey clave de cache de la vista de un movimiento.
func MovementKey(movementID string) string {
	return fmt.Sprintf("movement:%s", movementID)
}

// WarehouseProductKey clave de cache del saldo de un producto en una bodega.
func WarehouseProductKey(warehouseID, productID string) string {
	return fmt.Sprintf("warehouse_product:%s:%s", warehouseID, productID)
}
