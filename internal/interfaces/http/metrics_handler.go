package http

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/warehouse-monitor/pkg/metrics"
)

// RequestMetrics cuenta peticiones por endpoint, método y código, y acumula la latencia.
func RequestMetrics(reg *metrics.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		endpoint := c.Route().Path
		reg.Inc(metrics.APIRequestsTotal,
			metrics.L("endpoint", endpoint), metrics.L("method", c.Method()), metrics.L("status_code", strconv.Itoa(status)))
		reg.ObserveDuration(metrics.APIResponseTimeMs, time.Since(start), metrics.L("endpoint", endpoint))
		return err
	}
}

// MetricsHandler expone una copia de las métricas.
type MetricsHandler struct {
	reg *metrics.Registry
}

// NewMetricsHandler construye el handler.
func NewMetricsHandler(reg *metrics.Registry) *MetricsHandler {
	return &MetricsHandler{reg: reg}
}

// Snapshot godoc
// @Summary      Métricas del servicio
// @Tags         metrics
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]int64
// @Router       /metrics [get]
func (h *MetricsHandler) Snapshot(c *fiber.Ctx) error {
	return c.JSON(h.reg.Snapshot())
}
