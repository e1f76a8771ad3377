package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jhoicas/warehouse-monitor/internal/domain"
	"github.com/jhoicas/warehouse-monitor/pkg/config"
)

// dial abre conexión y canal y declara el exchange (topic, durable) si está configurado.
func dial(cfg config.AMQPConfig) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("amqp dial: %w: %w", domain.ErrTransportUnavailable, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("amqp channel: %w: %w", domain.ErrTransportUnavailable, err)
	}
	if cfg.Exchange != "" {
		if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, nil, fmt.Errorf("amqp exchange declare: %w: %w", domain.ErrTransportUnavailable, err)
		}
	}
	return conn, ch, nil
}

// ErrSourceClosed el origen ya fue cerrado con Close.
var ErrSourceClosed = errors.New("amqp: origen cerrado")

// AMQPSource consume eventos de una cola RabbitMQ con confirmación manual.
// Si la conexión o el canal se cierran, el siguiente Next vuelve a conectar y a
// declarar cola, binding y prefetch.
type AMQPSource struct {
	cfg         config.AMQPConfig
	consumerTag string

	mu         sync.Mutex
	conn       *amqp.Connection
	ch         *amqp.Channel
	deliveries <-chan amqp.Delivery
	closed     bool
}

var _ Source = (*AMQPSource)(nil)

// NewAMQPSource crea el origen sin conectar; la conexión se abre en Connect o en el primer Next.
func NewAMQPSource(cfg config.AMQPConfig, consumerTag string) *AMQPSource {
	return &AMQPSource{cfg: cfg, consumerTag: consumerTag}
}

// DialSource crea el origen y conecta de inmediato.
func DialSource(cfg config.AMQPConfig, consumerTag string) (*AMQPSource, error) {
	s := NewAMQPSource(cfg, consumerTag)
	if err := s.Connect(); err != nil {
		return nil, err
	}
	return s, nil
}

// Connect abre conexión y canal, declara cola y binding, fija el prefetch y empieza a consumir.
// No hace nada si ya hay una suscripción activa.
func (s *AMQPSource) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.subscriptionLocked()
	return err
}

func (s *AMQPSource) subscriptionLocked() (<-chan amqp.Delivery, error) {
	if s.closed {
		return nil, fmt.Errorf("%w: %w", domain.ErrTransportUnavailable, ErrSourceClosed)
	}
	if s.deliveries != nil && !s.conn.IsClosed() && !s.ch.IsClosed() {
		return s.deliveries, nil
	}
	s.teardownLocked()

	conn, ch, err := dial(s.cfg)
	if err != nil {
		return nil, err
	}
	deliveries, err := subscribe(ch, s.cfg, s.consumerTag)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrTransportUnavailable, err)
	}
	s.conn, s.ch, s.deliveries = conn, ch, deliveries
	return deliveries, nil
}

func subscribe(ch *amqp.Channel, cfg config.AMQPConfig, consumerTag string) (<-chan amqp.Delivery, error) {
	q, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("amqp queue declare: %w", err)
	}
	if cfg.Exchange != "" {
		if err := ch.QueueBind(q.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
			return nil, fmt.Errorf("amqp queue bind: %w", err)
		}
	}
	if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("amqp qos: %w", err)
	}
	deliveries, err := ch.Consume(q.Name, consumerTag, false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("amqp consume: %w", err)
	}
	return deliveries, nil
}

// teardownLocked libera la conexión actual, si la hay.
func (s *AMQPSource) teardownLocked() {
	if s.ch != nil {
		_ = s.ch.Close()
	}
	if s.conn != nil && !s.conn.IsClosed() {
		_ = s.conn.Close()
	}
	s.conn, s.ch, s.deliveries = nil, nil, nil
}

// Next espera la siguiente entrega, reconectando si hace falta. Si la conexión no
// puede abrirse o el canal se cierra devuelve ErrTransportUnavailable; el llamador
// decide cuándo reintentar.
func (s *AMQPSource) Next(ctx context.Context) (Delivery, error) {
	s.mu.Lock()
	deliveries, err := s.subscriptionLocked()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case d, ok := <-deliveries:
		if !ok {
			s.mu.Lock()
			if s.deliveries == deliveries {
				s.teardownLocked()
			}
			s.mu.Unlock()
			return nil, fmt.Errorf("amqp: canal de entregas cerrado: %w", domain.ErrTransportUnavailable)
		}
		return amqpDelivery{d: d}, nil
	}
}

// Connected indica si hay una suscripción abierta con el broker. Mientras se
// reconecta devuelve false sin esperar.
func (s *AMQPSource) Connected() bool {
	if !s.mu.TryLock() {
		return false
	}
	defer s.mu.Unlock()
	return s.conn != nil && !s.conn.IsClosed() && !s.ch.IsClosed()
}

// Close cierra canal y conexión; es seguro llamarlo varias veces.
func (s *AMQPSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	var err error
	if s.ch != nil {
		_ = s.ch.Close()
	}
	if s.conn != nil && !s.conn.IsClosed() {
		err = s.conn.Close()
	}
	s.conn, s.ch, s.deliveries = nil, nil, nil
	return err
}

type amqpDelivery struct {
	d amqp.Delivery
}

func (a amqpDelivery) Body() []byte { return a.d.Body }

func (a amqpDelivery) Ack() error { return a.d.Ack(false) }

func (a amqpDelivery) Reject(requeue bool) error { return a.d.Nack(false, requeue) }

// AMQPPublisher publica sobres de movimiento en el exchange configurado.
type AMQPPublisher struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	exchange   string
	routingKey string
}

// DialPublisher conecta y declara el exchange.
func DialPublisher(cfg config.AMQPConfig) (*AMQPPublisher, error) {
	conn, ch, err := dial(cfg)
	if err != nil {
		return nil, err
	}
	key := cfg.RoutingKey
	if cfg.Exchange == "" {
		// exchange por defecto: la clave de ruteo es el nombre de la cola
		key = cfg.Queue
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: cfg.Exchange, routingKey: key}, nil
}

// Publish serializa y publica el sobre como mensaje persistente.
func (p *AMQPPublisher) Publish(ctx context.Context, env Envelope) error {
	body, err := Encode(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  DataContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    env.ID,
		Type:         env.Type,
		AppId:        env.Source,
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, msg); err != nil {
		return fmt.Errorf("amqp publish: %w: %w", domain.ErrTransportUnavailable, err)
	}
	return nil
}

// Close cierra canal y conexión.
func (p *AMQPPublisher) Close() error {
	_ = p.ch.Close()
	return p.conn.Close()
}
