package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/warehouse-monitor/internal/domain/entity"
	"github.com/jhoicas/warehouse-monitor/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `product_id, source_warehouse_id, departure_time, departure_quantity,
	destination_warehouse_id, arrival_time, arrival_quantity`

// MovementRepo implementación SQLite de MovementRepository.
// Los instantes se guardan como texto RFC3339 en UTC.
type MovementRepo struct {
	db *sql.DB
	q  dbtx
}

// NewMovementRepository repositorio fuera de transacción.
func NewMovementRepository(db *sql.DB) *MovementRepo {
	return &MovementRepo{db: db, q: db}
}

func newMovementRepositoryTx(tx *sql.Tx) *MovementRepo {
	return &MovementRepo{q: tx}
}

// UpsertSide crea el movimiento si no existe y sobrescribe el lado del evento.
func (r *MovementRepo) UpsertSide(ctx context.Context, ev entity.MovementEvent) (entity.SideChange, error) {
	var change entity.SideChange
	err := atomic(ctx, r.db, r.q, func(q dbtx) error {
		if err := ensureWarehouse(ctx, q, ev.WarehouseID); err != nil {
			return err
		}
		if err := ensureProduct(ctx, q, ev.ProductID); err != nil {
			return err
		}

		res, err := q.ExecContext(ctx,
			`INSERT INTO movements (id, product_id) VALUES (?, ?) ON CONFLICT (id) DO NOTHING`,
			ev.MovementID, ev.ProductID)
		if err != nil {
			return mapError("insert movement", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 1 {
			change.Created = true
		}

		m, err := getMovement(ctx, q, ev.MovementID)
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
			update = `UPDATE movements SET source_warehouse_id = ?, departure_time = ?, departure_quantity = ? WHERE id = ?`
		case entity.EventArrival:
			change.Previous = m.Arrival
			update = `UPDATE movements SET destination_warehouse_id = ?, arrival_time = ?, arrival_quantity = ? WHERE id = ?`
		default:
			return fmt.Errorf("tipo de evento %q no soportado", ev.Kind)
		}
		if _, err := q.ExecContext(ctx, update,
			change.Current.WarehouseID, formatTime(change.Current.Timestamp), change.Current.Quantity, ev.MovementID,
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

// Get devuelve el movimiento o nil si no existe.
func (r *MovementRepo) Get(ctx context.Context, movementID string) (*entity.Movement, error) {
	return getMovement(ctx, r.q, movementID)
}

func getMovement(ctx context.Context, q dbtx, id string) (*entity.Movement, error) {
	var (
		productID                    string
		srcWh, depTime, dstWh, arrTm sql.NullString
		depQty, arrQty               sql.NullInt64
	)
	err := q.QueryRowContext(ctx, `SELECT `+movementColumns+` FROM movements WHERE id = ?`, id).
		Scan(&productID, &srcWh, &depTime, &depQty, &dstWh, &arrTm, &arrQty)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("get movement", err)
	}

	m := &entity.Movement{ID: id, ProductID: productID}
	if m.Departure, err = toSide(srcWh, depTime, depQty); err != nil {
		return nil, fmt.Errorf("movimiento %s: departure: %w", id, err)
	}
	if m.Arrival, err = toSide(dstWh, arrTm, arrQty); err != nil {
		return nil, fmt.Errorf("movimiento %s: arrival: %w", id, err)
	}
	return m, nil
}

func toSide(wh, ts sql.NullString, qty sql.NullInt64) (*entity.SideState, error) {
	if !wh.Valid || !ts.Valid || !qty.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, ts.String)
	if err != nil {
		return nil, err
	}
	return &entity.SideState{WarehouseID: wh.String, Timestamp: t.UTC(), Quantity: qty.Int64}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
