package movement

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/warehouse-monitor/internal/application/dto"
	"github.com/jhoicas/warehouse-monitor/internal/domain"
	"github.com/jhoicas/warehouse-monitor/internal/domain/entity"
	"github.com/jhoicas/warehouse-monitor/internal/domain/repository"
	"github.com/jhoicas/warehouse-monitor/pkg/cache"
)

// QueryService consultas de lectura respaldadas por el cache de resultados.
type QueryService struct {
	movements repository.MovementRepository
	ledger    repository.QuantityLedger
	cache     Cache
	ttl       time.Duration
}

// NewQueryService construye el servicio. ttl <= 0 usa el ttl por defecto del cache.
func NewQueryService(movements repository.MovementRepository, ledger repository.QuantityLedger, c Cache, ttl time.Duration) *QueryService {
	return &QueryService{movements: movements, ledger: ledger, cache: c, ttl: ttl}
}

// GetMovementInfo devuelve la vista del movimiento o domain.ErrNotFound.
// Un movimiento inexistente no se cachea.
func (s *QueryService) GetMovementInfo(ctx context.Context, movementID string) (*dto.MovementInfoResponse, error) {
	if strings.TrimSpace(movementID) == "" {
		return nil, domain.ErrInvalidInput
	}
	return cache.GetOrSet(ctx, s.cache, MovementKey(movementID), func(ctx context.Context) (*dto.MovementInfoResponse, error) {
		m, err := s.movements.Get(ctx, movementID)
		if err != nil {
			return nil, fmt.Errorf("get movement: %w", err)
		}
		if m == nil {
			return nil, domain.ErrNotFound
		}
		return toMovementInfo(m.View()), nil
	}, s.ttl)
}

// GetWarehouseProductInfo devuelve el saldo del par; un par nunca visto tiene saldo 0.
func (s *QueryService) GetWarehouseProductInfo(ctx context.Context, warehouseID, productID string) (*dto.WarehouseProductResponse, error) {
	if strings.TrimSpace(warehouseID) == "" || strings.TrimSpace(productID) == "" {
		return nil, domain.ErrInvalidInput
	}
	return cache.GetOrSet(ctx, s.cache, WarehouseProductKey(warehouseID, productID), func(ctx context.Context) (*dto.WarehouseProductResponse, error) {
		qty, err := s.ledger.GetQuantity(ctx, warehouseID, productID)
		if err != nil {
			return nil, fmt.Errorf("get quantity: %w", err)
		}
		return &dto.WarehouseProductResponse{WarehouseID: warehouseID, ProductID: productID, Quantity: qty}, nil
	}, s.ttl)
}

func toMovementInfo(v entity.MovementView) *dto.MovementInfoResponse {
	return &dto.MovementInfoResponse{
		MovementID:           v.MovementID,
		SourceWarehouse:      v.SourceWarehouse,
		DestinationWarehouse: v.DestinationWarehouse,
		DepartureTime:        v.DepartureTime,
		ArrivalTime:          v.ArrivalTime,
		TransitTimeSeconds:   v.TransitTimeSeconds,
		ProductID:            v.ProductID,
		Quantity:             v.Quantity,
		QuantityDifference:   v.QuantityDifference,
	}
}
