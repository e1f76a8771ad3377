package repository

import (
	"context"

	"github.com/jhoicas/warehouse-monitor/internal/domain/entity"
)

// MovementRepository puerto del registro de movimientos.
type MovementRepository interface {
	// UpsertSide crea el movimiento si no existe y sobrescribe el lado del evento.
	// El producto lo fija el primer evento y no se sobrescribe.
	UpsertSide(ctx context.Context, ev entity.MovementEvent) (entity.SideChange, error)
	// Get devuelve nil, nil si el movimiento no existe.
	Get(ctx context.Context, movementID string) (*entity.Movement, error)
}
