package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jhoicas/warehouse-monitor/internal/domain/entity"
	"github.com/jhoicas/warehouse-monitor/internal/infrastructure/messaging"
)

// PublishOptions flags del comando publish.
type PublishOptions struct {
	*RootOptions
	MovementID  string
	WarehouseID string
	ProductID   string
	Quantity    int64
	Timestamp   string
	Source      string
	Timeout     time.Duration
}

// NewPublishCommand crea el comando publish.
func NewPublishCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PublishOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "publish <departure|arrival>",
		Short: "Publica un evento de movimiento en el broker",
		Long: `Publica un evento de salida o llegada con el mismo sobre que emiten las bodegas.

Ejemplo:
  movementctl publish departure --movement-id M1 --warehouse-id W1 --product-id P1 --quantity 100
  movementctl publish arrival --movement-id M1 --warehouse-id W2 --product-id P1 --quantity 95`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return publishEvent(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.MovementID, "movement-id", "", "ID del movimiento (por defecto un UUID nuevo)")
	cmd.Flags().StringVar(&opts.WarehouseID, "warehouse-id", "", "bodega que emite el evento")
	cmd.Flags().StringVar(&opts.ProductID, "product-id", "", "producto movido")
	cmd.Flags().Int64Var(&opts.Quantity, "quantity", 0, "cantidad registrada")
	cmd.Flags().StringVar(&opts.Timestamp, "timestamp", "", "instante del evento en RFC3339 (por defecto ahora)")
	cmd.Flags().StringVar(&opts.Source, "source", "", "origen del sobre (por defecto la bodega)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 5*time.Second, "plazo de publicación")
	_ = cmd.MarkFlagRequired("warehouse-id")
	_ = cmd.MarkFlagRequired("product-id")

	return cmd
}

func publishEvent(cmd *cobra.Command, opts *PublishOptions, kindArg string) error {
	kind, err := entity.ParseEventKind(kindArg)
	if err != nil {
		return err
	}

	ts := opts.now().UTC()
	if opts.Timestamp != "" {
		ts, err = time.Parse(time.RFC3339, opts.Timestamp)
		if err != nil {
			return fmt.Errorf("--timestamp inválido: %w", err)
		}
	}
	movementID := opts.MovementID
	if movementID == "" {
		movementID = uuid.NewString()
	}
	source := opts.Source
	if source == "" {
		source = opts.WarehouseID
	}

	ev := entity.MovementEvent{
		MovementID:  movementID,
		WarehouseID: opts.WarehouseID,
		Kind:        kind,
		ProductID:   opts.ProductID,
		Timestamp:   ts,
		Quantity:    opts.Quantity,
	}
	if err := ev.Validate(); err != nil {
		return err
	}

	pub, err := opts.dial(opts.AMQP)
	if err != nil {
		return fmt.Errorf("conexión al broker: %w", err)
	}
	defer pub.Close()

	env := messaging.NewEnvelope(source, ev, opts.now())
	ctx, cancel := contextWithTimeout(cmd, opts.Timeout)
	defer cancel()
	if err := pub.Publish(ctx, env); err != nil {
		return fmt.Errorf("publicación: %w", err)
	}

	return write(cmd.OutOrStdout(), opts.Format, env,
		fmt.Sprintf("publicado %s %s (movimiento %s, bodega %s)", env.Subject, env.ID, ev.MovementID, ev.WarehouseID))
}
