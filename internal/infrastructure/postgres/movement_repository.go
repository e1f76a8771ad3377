package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/warehouse-monitor/internal/domain/entity"
	"github.com/jhoicas/warehouse-monitor/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const selectMovement = `
	SELECT product_id, source_warehouse_id, departure_time, departure_quantity,
	       destination_warehouse_id, arrival_time, arrival_quantity
	FROM movements WHERE id = $1`

// MovementRepo implementación de MovementRepository sobre PostgreSQL (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// UpsertSide crea el movimiento si no existe, bloquea la fila y sobrescribe el lado del evento.
func (r *MovementRepo) UpsertSide(ctx context.Context, ev entity.MovementEvent) (entity.SideChange, error) {
	var change entity.SideChange
	err := atomic(ctx, r.q, func(tx pgx.Tx) error {
		if err := ensureWarehouse(ctx, tx, ev.WarehouseID); err != nil {
			return err
		}
		if err := ensureProduct(ctx, tx, ev.ProductID); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx,
			`INSERT INTO movements (id, product_id) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
			ev.MovementID, ev.ProductID)
		if err != nil {
			return mapError("insert movement", err)
		}
		change.Created = tag.RowsAffected() == 1

		m, err := scanMovement(ev.MovementID, tx.QueryRow(ctx, selectMovement+" FOR UPDATE", ev.MovementID))
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("movimiento %s no encontrado tras insertarlo", ev.MovementID)
		}
		change.ProductID = m.ProductID
		change.Current = ev.Side()

		var update string
		switch ev.Kind {
		case entity.EventDeparture:
			change.Previous = m.Departure
			update = `UPDATE movements
				SET source_warehouse_id = $2, departure_time = $3, departure_quantity = $4
				WHERE id = $1`
		case entity.EventArrival:
			change.Previous = m.Arrival
			update = `UPDATE movements
				SET destination_warehouse_id = $2, arrival_time = $3, arrival_quantity = $4
				WHERE id = $1`
		default:
			return fmt.Errorf("tipo de evento %q no soportado", ev.Kind)
		}
		if _, err := tx.Exec(ctx, update,
			ev.MovementID, change.Current.WarehouseID, change.Current.Timestamp, change.Current.Quantity,
		); err != nil {
			return mapError("update movement side", err)
		}
		return nil
	})
	if err != nil {
		return entity.SideChange{}, err
	}
	return change, nil
}

// Get obtiene el movimiento por ID; nil, nil si no existe.
func (r *MovementRepo) Get(ctx context.Context, movementID string) (*entity.Movement, error) {
	return scanMovement(movementID, r.q.QueryRow(ctx, selectMovement, movementID))
}

func scanMovement(id string, row pgx.Row) (*entity.Movement, error) {
	var (
		productID      string
		srcWh, dstWh   *string
		depTime, arrTm *time.Time
		depQty, arrQty *int64
	)
	if err := row.Scan(&productID, &srcWh, &depTime, &depQty, &dstWh, &arrTm, &arrQty); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get movement", err)
	}
	return &entity.Movement{
		ID:        id,
		ProductID: productID,
		Departure: toSide(srcWh, depTime, depQty),
		Arrival:   toSide(dstWh, arrTm, arrQty),
	}, nil
}

func toSide(wh *string, ts *time.Time, qty *int64) *entity.SideState {
	if wh == nil || ts == nil || qty == nil {
		return nil
	}
	return &entity.SideState{WarehouseID: *wh, Timestamp: ts.UTC(), Quantity: *qty}
}
