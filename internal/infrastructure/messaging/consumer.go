package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jhoicas/warehouse-monitor/internal/domain"
	"github.com/jhoicas/warehouse-monitor/internal/domain/entity"
	"github.com/jhoicas/warehouse-monitor/pkg/logger"
	"github.com/jhoicas/warehouse-monitor/pkg/metrics"
)

// DefaultProcessTimeout tiempo máximo para procesar un mensaje, también durante el apagado.
const DefaultProcessTimeout = 30 * time.Second

// Espera entre intentos tras un fallo del transporte; se duplica hasta el tope.
const (
	DefaultRetryMin = 500 * time.Millisecond
	DefaultRetryMax = 30 * time.Second
)

// Applier aplica un evento decodificado (el conciliador).
type Applier interface {
	Apply(ctx context.Context, ev entity.MovementEvent) error
}

// Consumer bucle de ingesta: toma mensajes de a uno, los decodifica, los aplica y
// los confirma. Un mensaje fallido se registra y se rechaza; el bucle continúa.
type Consumer struct {
	source         Source
	applier        Applier
	log            *logger.Logger
	metrics        *metrics.Registry
	processTimeout time.Duration
	retryMin       time.Duration
	retryMax       time.Duration
	running        atomic.Bool
}

// NewConsumer construye el consumidor.
func NewConsumer(source Source, applier Applier, log *logger.Logger, reg *metrics.Registry) *Consumer {
	return &Consumer{
		source:         source,
		applier:        applier,
		log:            log.Named("consumer"),
		metrics:        reg,
		processTimeout: DefaultProcessTimeout,
		retryMin:       DefaultRetryMin,
		retryMax:       DefaultRetryMax,
	}
}

// Running indica si el bucle está activo.
func (c *Consumer) Running() bool {
	return c.running.Load()
}

// Run consume hasta que ctx se cancele y entonces devuelve nil. Un fallo del
// transporte se registra y se reintenta con espera creciente; no detiene el bucle.
// El mensaje en curso al cancelar se termina de procesar antes de salir.
func (c *Consumer) Run(ctx context.Context) error {
	c.running.Store(true)
	defer c.running.Store(false)

	c.log.Info().Msg("consumo de eventos iniciado")
	wait := c.retryMin
	for {
		d, err := c.source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info().Msg("consumo de eventos detenido")
				return nil
			}
			if !errors.Is(err, domain.ErrTransportUnavailable) {
				err = fmt.Errorf("%w: %w", domain.ErrTransportUnavailable, err)
			}
			c.metrics.Inc(metrics.MessagesFailedTotal,
				metrics.L("message_type", unknownMessageType), metrics.L("error_type", domain.ErrorType(err)))
			c.log.Warn().Err(err).Dur("retry_in", wait).Msg("fallo del transporte, reintentando")
			if !sleepCtx(ctx, wait) {
				c.log.Info().Msg("consumo de eventos detenido")
				return nil
			}
			wait = min(wait*2, c.retryMax)
			continue
		}
		wait = c.retryMin
		c.handle(ctx, d)
	}
}

// sleepCtx espera d o hasta que ctx se cancele; devuelve false si se canceló.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Consumer) handle(ctx context.Context, d Delivery) {
	start := time.Now()
	procCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.processTimeout)
	defer cancel()

	env, ev, err := Decode(d.Body())
	msgType := env.MessageType()
	c.metrics.Inc(metrics.MessagesReceivedTotal, metrics.L("message_type", msgType))

	if err == nil {
		err = c.applier.Apply(procCtx, ev)
	}
	c.metrics.ObserveDuration(metrics.ProcessingTimeMs, time.Since(start), metrics.L("message_type", msgType))

	if err != nil {
		errType := domain.ErrorType(err)
		c.metrics.Inc(metrics.MessagesFailedTotal, metrics.L("message_type", msgType), metrics.L("error_type", errType))
		requeue := domain.Retryable(err)
		if errors.Is(err, domain.ErrMalformedEvent) {
			c.log.Warn().Err(err).Str("message_type", msgType).Str("message_id", env.ID).Msg("mensaje descartado")
		}
		if rerr := d.Reject(requeue); rerr != nil {
			c.log.Error().Err(rerr).Str("message_id", env.ID).Msg("no se pudo rechazar el mensaje")
		}
		return
	}

	c.metrics.Inc(metrics.MessagesProcessedTotal, metrics.L("message_type", msgType))
	if aerr := d.Ack(); aerr != nil {
		c.log.Error().Err(aerr).Str("message_id", env.ID).Str("movement_id", ev.MovementID).Msg("no se pudo confirmar el mensaje")
	}
}
