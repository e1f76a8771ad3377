package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/warehouse-monitor/internal/application/dto"
)

// WarehouseHandler maneja las consultas de saldo por bodega.
type WarehouseHandler struct {
	queries MovementQueries
}

// NewWarehouseHandler construye el handler.
func NewWarehouseHandler(queries MovementQueries) *WarehouseHandler {
	return &WarehouseHandler{queries: queries}
}

// GetProductQuantity godoc
// @Summary      Saldo de un producto en una bodega
// @Description  Un par nunca visto devuelve cantidad 0.
// @Tags         warehouses
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  path  string  true  "ID de la bodega"
// @Param        product_id    path  string  true  "ID del producto"
// @Success      200  {object}  dto.WarehouseProductResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/warehouses/{warehouse_id}/products/{product_id} [get]
func (h *WarehouseHandler) GetProductQuantity(c *fiber.Ctx) error {
	warehouseID, productID := c.Params("warehouse_id"), c.Params("product_id")
	if warehouseID == "" || productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "warehouse_id y product_id son requeridos"})
	}
	out, err := h.queries.GetWarehouseProductInfo(c.UserContext(), warehouseID, productID)
	if err != nil {
		return writeError(c, err, "saldo no encontrado")
	}
	return c.JSON(out)
}
