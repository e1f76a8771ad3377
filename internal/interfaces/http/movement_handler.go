package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/warehouse-monitor/internal/application/dto"
)

// MovementQueries consultas de lectura que exponen los handlers.
type MovementQueries interface {
	GetMovementInfo(ctx context.Context, movementID string) (*dto.MovementInfoResponse, error)
	GetWarehouseProductInfo(ctx context.Context, warehouseID, productID string) (*dto.WarehouseProductResponse, error)
}

// MovementHandler maneja las consultas de movimientos.
type MovementHandler struct {
	queries MovementQueries
}

// NewMovementHandler construye el handler.
func NewMovementHandler(queries MovementQueries) *MovementHandler {
	return &MovementHandler{queries: queries}
}

// GetByID godoc
// @Summary      Obtener movimiento por ID
// @Description  Lados registrados, tiempo de tránsito y diferencia de cantidad. Los lados ausentes se devuelven como null.
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        movement_id  path  string  true  "ID del movimiento"
// @Success      200  {object}  dto.MovementInfoResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/movements/{movement_id} [get]
func (h *MovementHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("movement_id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "movement_id es requerido"})
	}
	out, err := h.queries.GetMovementInfo(c.UserContext(), id)
	if err != nil {
		return writeError(c, err, "movimiento no encontrado")
	}
	return c.JSON(out)
}
