package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/warehouse-monitor/internal/infrastructure/messaging"
	"github.com/jhoicas/warehouse-monitor/pkg/config"
)

// Publisher publica sobres de eventos de movimiento.
type Publisher interface {
	Publish(ctx context.Context, env messaging.Envelope) error
	Close() error
}

// Dialer abre un Publisher contra el broker configurado.
type Dialer func(cfg config.AMQPConfig) (Publisher, error)

// DialAMQP Dialer real sobre RabbitMQ.
func DialAMQP(cfg config.AMQPConfig) (Publisher, error) {
	p, err := messaging.DialPublisher(cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// RootOptions flags globales.
type RootOptions struct {
	Config *config.Config
	AMQP   config.AMQPConfig
	Format string // "text" | "json"

	dial Dialer
	now  func() time.Time
}

// ValidFormats formatos de salida admitidos.
var ValidFormats = []string{"text", "json"}

// NewRootCommand crea el comando raíz de movementctl. cfg aporta los valores por defecto de los flags.
func NewRootCommand(cfg *config.Config, dial Dialer) *cobra.Command {
	return newRootCommand(cfg, dial, time.Now)
}

func newRootCommand(cfg *config.Config, dial Dialer, now func() time.Time) *cobra.Command {
	opts := &RootOptions{Config: cfg, AMQP: cfg.AMQP, dial: dial, now: now}

	cmd := &cobra.Command{
		Use:   "movementctl",
		Short: "Herramientas de operación del monitor de bodegas",
		Long:  "Publica eventos de movimiento de prueba y emite tokens para la API de lectura del monitor de bodegas.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range ValidFormats {
				if f == opts.Format {
					return nil
				}
			}
			return fmt.Errorf("formato %q inválido: debe ser uno de %v", opts.Format, ValidFormats)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.AMQP.URL, "amqp-url", cfg.AMQP.URL, "URL del broker AMQP")
	cmd.PersistentFlags().StringVar(&opts.AMQP.Exchange, "exchange", cfg.AMQP.Exchange, "exchange de eventos")
	cmd.PersistentFlags().StringVar(&opts.AMQP.Queue, "queue", cfg.AMQP.Queue, "cola destino cuando no hay exchange")
	cmd.PersistentFlags().StringVar(&opts.AMQP.RoutingKey, "routing-key", cfg.AMQP.RoutingKey, "routing key de publicación")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "formato de salida (json|text)")

	cmd.AddCommand(NewPublishCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}
