package http

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/warehouse-monitor/internal/application/dto"
)

// checkTimeout plazo de cada verificación de readiness.
const checkTimeout = 2 * time.Second

// HealthCheck verifica una dependencia; nil significa disponible.
type HealthCheck func(ctx context.Context) error

// HealthHandler expone liveness y readiness.
type HealthHandler struct {
	ready  *atomic.Bool
	checks map[string]HealthCheck
}

// NewHealthHandler construye el handler. ready lo marca el ciclo de vida del servicio.
func NewHealthHandler(ready *atomic.Bool, checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{ready: ready, checks: checks}
}

// Live godoc
// @Summary      Liveness
// @Tags         health
// @Produce      json
// @Success      200  {object}  dto.HealthResponse
// @Router       /health/live [get]
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(dto.HealthResponse{Status: "ok"})
}

// Ready godoc
// @Summary      Readiness
// @Description  Almacenamiento accesible, transporte conectado y servicio inicializado.
// @Tags         health
// @Produce      json
// @Success      200  {object}  dto.HealthResponse
// @Failure      503  {object}  dto.HealthResponse
// @Router       /health/ready [get]
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	resp := dto.HealthResponse{Status: "ok", Components: map[string]string{}}

	if h.ready == nil || !h.ready.Load() {
		resp.Status = "down"
		resp.Components["service"] = "starting"
	} else {
		resp.Components["service"] = "ok"
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ctx, cancel := context.WithTimeout(c.UserContext(), checkTimeout)
		err := h.checks[name](ctx)
		cancel()
		if err != nil {
			resp.Status = "down"
			resp.Components[name] = err.Error()
			continue
		}
		resp.Components[name] = "ok"
	}

	if resp.Status != "ok" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
