package movement

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/warehouse-monitor/internal/domain"
	"github.com/jhoicas/warehouse-monitor/internal/domain/entity"
	"github.com/jhoicas/warehouse-monitor/internal/domain/repository"
	"github.com/jhoicas/warehouse-monitor/pkg/logger"
	"github.com/jhoicas/warehouse-monitor/pkg/metrics"
)

// Reconciler aplica eventos de movimiento: registra el lado en el movimiento y ajusta
// el saldo de la bodega en una sola transacción, luego invalida el cache.
type Reconciler struct {
	txRunner TxRunner
	cache    Cache
	log      *logger.Logger
	metrics  *metrics.Registry
}

// NewReconciler construye el conciliador.
func NewReconciler(txRunner TxRunner, cache Cache, log *logger.Logger, reg *metrics.Registry) *Reconciler {
	return &Reconciler{
		txRunner: txRunner,
		cache:    cache,
		log:      log.Named("reconciler"),
		metrics:  reg,
	}
}

// Apply concilia un evento. Es idempotente: reentregar el mismo evento no vuelve a
// mover el saldo. Si el ajuste viola la invariante de saldo no se confirma nada,
// tampoco el lado del movimiento.
func (r *Reconciler) Apply(ctx context.Context, ev entity.MovementEvent) error {
	if err := ev.Validate(); err != nil {
		return r.fail(ev, err)
	}

	keys := []string{MovementKey(ev.MovementID), WarehouseProductKey(ev.WarehouseID, ev.ProductID)}
	balances := map[string]int64{}
	var duplicate bool

	err := r.txRunner.Run(ctx, func(ledger repository.QuantityLedger, movements repository.MovementRepository) error {
		change, err := movements.UpsertSide(ctx, ev)
		if err != nil {
			return err
		}
		if change.ProductID != ev.ProductID {
			return fmt.Errorf("%w: movimiento %s registrado con producto %s, evento trae %s",
				domain.ErrProductMismatch, ev.MovementID, change.ProductID, ev.ProductID)
		}
		duplicate = change.Duplicate()

		for _, adj := range change.Adjustments(ev.Kind) {
			balance, err := ledger.AdjustQuantity(ctx, adj.WarehouseID, ev.ProductID, adj.Delta)
			if err != nil {
				return fmt.Errorf("ajuste %s/%s (%+d): %w", adj.WarehouseID, ev.ProductID, adj.Delta, err)
			}
			balances[adj.WarehouseID] = balance
			if adj.WarehouseID != ev.WarehouseID {
				keys = append(keys, WarehouseProductKey(adj.WarehouseID, ev.ProductID))
			}
		}
		return nil
	})
	if err != nil {
		return r.fail(ev, err)
	}

	for _, k := range keys {
		r.cache.Delete(k)
	}
	for wh, balance := range balances {
		r.metrics.Set(metrics.WarehouseProductQuantity, balance,
			metrics.L("warehouse_id", wh), metrics.L("product_id", ev.ProductID))
		r.metrics.Inc(metrics.LedgerAdjustmentsTotal)
	}
	r.metrics.Inc(metrics.ReconciledEventsTotal, metrics.L("kind", string(ev.Kind)))
	if duplicate {
		r.metrics.Inc(metrics.DuplicateSidesTotal)
	}

	r.log.Debug().
		Str("movement_id", ev.MovementID).
		Str("warehouse_id", ev.WarehouseID).
		Str("product_id", ev.ProductID).
		Str("event", string(ev.Kind)).
		Int64("quantity", ev.Quantity).
		Bool("duplicate", duplicate).
		Msg("evento conciliado")
	return nil
}

func (r *Reconciler) fail(ev entity.MovementEvent, err error) error {
	errType := domain.ErrorType(err)
	r.metrics.Inc(metrics.ReconcileFailuresTotal, metrics.L("error_type", errType))
	r.log.Error().
		Err(err).
		Str("error_type", errType).
		Str("movement_id", ev.MovementID).
		Str("warehouse_id", ev.WarehouseID).
		Str("event", string(ev.Kind)).
		Time("event_time", ev.Timestamp.Truncate(time.Millisecond)).
		Msg("evento no conciliado")
	return err
}
