package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/warehouse-monitor/pkg/jwt"
	"github.com/jhoicas/warehouse-monitor/pkg/metrics"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Queries   MovementQueries
	Health    *HealthHandler
	Metrics   *metrics.Registry
	JWTSecret string // vacío: API de lectura sin autenticación
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Use(RequestMetrics(deps.Metrics))

	// Salud (público)
	health := app.Group("/health")
	health.Get("/live", deps.Health.Live)
	health.Get("/ready", deps.Health.Ready)

	readers := []fiber.Handler{}
	admins := []fiber.Handler{}
	if deps.JWTSecret != "" {
		readers = append(readers, AuthMiddleware(deps.JWTSecret), RequireScope(jwt.ScopeReader, jwt.ScopeAdmin))
		admins = append(admins, AuthMiddleware(deps.JWTSecret), RequireScope(jwt.ScopeAdmin))
	}

	metricsHandler := NewMetricsHandler(deps.Metrics)
	app.Get("/metrics", append(admins, metricsHandler.Snapshot)...)

	api := app.Group("/api", readers...)

	movementHandler := NewMovementHandler(deps.Queries)
	api.Get("/movements/:movement_id", movementHandler.GetByID)

	warehouseHandler := NewWarehouseHandler(deps.Queries)
	api.Get("/warehouses/:warehouse_id/products/:product_id", warehouseHandler.GetProductQuantity)
}
