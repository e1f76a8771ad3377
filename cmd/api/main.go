package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	_ "github.com/jhoicas/warehouse-monitor/docs"
	"github.com/jhoicas/warehouse-monitor/internal/application/movement"
	"github.com/jhoicas/warehouse-monitor/internal/domain"
	"github.com/jhoicas/warehouse-monitor/internal/infrastructure/messaging"
	httpRouter "github.com/jhoicas/warehouse-monitor/internal/interfaces/http"
	"github.com/jhoicas/warehouse-monitor/pkg/cache"
	"github.com/jhoicas/warehouse-monitor/pkg/config"
	"github.com/jhoicas/warehouse-monitor/pkg/logger"
	"github.com/jhoicas/warehouse-monitor/pkg/metrics"
)

const swaggerFile = "./docs/swagger.json"

// @title                       Warehouse Monitor API
// @version                     1.0
// @description                 Conciliación de movimientos entre bodegas.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := metrics.NewRegistry()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("apertura del almacenamiento")
	}

	resultCache := cache.New(cfg.Cache.TTL, cache.WithMetrics(reg))
	sweeper := cache.NewSweeper(resultCache, cfg.Cache.CleanupInterval, log.Named("cache"), reg)
	sweeper.Start(ctx)

	reconciler := movement.NewReconciler(store.txRunner, resultCache, log, reg)
	queries := movement.NewQueryService(store.movements, store.ledger, resultCache, cfg.Cache.TTL)

	// Sin broker al arrancar el servicio sigue en pie; el consumo reintenta la conexión.
	source := messaging.NewAMQPSource(cfg.AMQP, cfg.App.Name)
	if err := source.Connect(); err != nil {
		log.Warn().Err(err).Str("queue", cfg.AMQP.Queue).Msg("broker no disponible, se reintentará")
	}
	consumer := messaging.NewConsumer(source, reconciler, log, reg)

	ready := &atomic.Bool{}
	health := httpRouter.NewHealthHandler(ready, map[string]httpRouter.HealthCheck{
		"storage": store.ping,
		"transport": func(context.Context) error {
			if !source.Connected() {
				return domain.ErrTransportUnavailable
			}
			return nil
		},
		"consumer": func(context.Context) error {
			if !consumer.Running() {
				return errors.New("consumo detenido")
			}
			return nil
		},
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())

	// Swagger UI: http://localhost:<port>/docs (solo si el JSON está disponible)
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Warehouse Monitor API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Queries:   queries,
		Health:    health,
		Metrics:   reg,
		JWTSecret: cfg.JWT.Secret,
	})
	if cfg.JWT.Secret == "" {
		log.Warn().Msg("JWT_SECRET vacío: API de lectura sin autenticación")
	}

	consumerDone := make(chan error, 1)
	go func() { consumerDone <- consumer.Run(ctx) }()

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()
	ready.Store(true)

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servicio...")
	ready.Store(false)
	stop()

	// Orden inverso al arranque: HTTP, consumo, broker, cache, almacenamiento.
	if err := app.ShutdownWithTimeout(cfg.Shutdown.Timeout); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	select {
	case err := <-consumerDone:
		if err != nil {
			log.Error().Err(err).Msg("consumo de eventos")
		}
	case <-time.After(cfg.Shutdown.Timeout):
		log.Warn().Dur("timeout", cfg.Shutdown.Timeout).Msg("el consumo no terminó a tiempo")
	}
	if err := source.Close(); err != nil {
		log.Error().Err(err).Msg("cierre del broker")
	}
	if err := sweeper.Stop(cfg.Shutdown.Timeout); err != nil {
		log.Error().Err(err).Msg("detención del barrido de cache")
	}
	if err := store.close(); err != nil {
		log.Error().Err(err).Msg("cierre del almacenamiento")
	}

	log.Info().Msg("aplicación detenida")
}
