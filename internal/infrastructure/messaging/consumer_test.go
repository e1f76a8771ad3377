package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/warehouse-monitor/internal/domain"
	"github.com/jhoicas/warehouse-monitor/internal/domain/entity"
	"github.com/jhoicas/warehouse-monitor/pkg/logger"
	"github.com/jhoicas/warehouse-monitor/pkg/metrics"
)

/* ---------------- Fakes ---------------- */

type fakeDelivery struct {
	body []byte

	mu       sync.Mutex
	acked    bool
	rejected bool
	requeue  bool
}

func (d *fakeDelivery) Body() []byte { return d.body }

func (d *fakeDelivery) Ack() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.acked = true
	return nil
}

func (d *fakeDelivery) Reject(requeue bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rejected, d.requeue = true, requeue
	return nil
}

func (d *fakeDelivery) state() (acked, rejected, requeue bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.acked, d.rejected, d.requeue
}

type fakeSource struct {
	ch     chan Delivery
	err    error
	closed bool

	mu       sync.Mutex
	failures []error // se devuelven, en orden, antes de leer ch
	calls    int
}

func newFakeSource(ds ...Delivery) *fakeSource {
	s := &fakeSource{ch: make(chan Delivery, len(ds)+8)}
	for _, d := range ds {
		s.ch <- d
	}
	return s
}

func (s *fakeSource) Next(ctx context.Context) (Delivery, error) {
	s.mu.Lock()
	s.calls++
	if len(s.failures) > 0 {
		err := s.failures[0]
		s.failures = s.failures[1:]
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case d, ok := <-s.ch:
		if !ok {
			return nil, s.err
		}
		return d, nil
	}
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

type fakeApplier struct {
	mu      sync.Mutex
	applied []entity.MovementEvent
	err     func(entity.MovementEvent) error
	started chan struct{}
	block   chan struct{}
}

func (a *fakeApplier) Apply(ctx context.Context, ev entity.MovementEvent) error {
	if a.started != nil {
		close(a.started)
	}
	if a.block != nil {
		<-a.block
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.applied = append(a.applied, ev)
	if a.err != nil {
		return a.err(ev)
	}
	return nil
}

func (a *fakeApplier) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.applied)
}

func body(t *testing.T, kind entity.EventKind, movementID string, qty int64) []byte {
	t.Helper()
	ev := entity.MovementEvent{
		MovementID:  movementID,
		WarehouseID: "W1",
		Kind:        kind,
		ProductID:   "P1",
		Timestamp:   time.Date(2025, 2, 18, 14, 0, 0, 0, time.UTC),
		Quantity:    qty,
	}
	b, err := Encode(NewEnvelope("WH-1", ev, time.Now()))
	require.NoError(t, err)
	return b
}

func runConsumer(t *testing.T, c *Consumer) (cancel func(), done <-chan error) {
	t.Helper()
	ctx, cancelFn := context.WithCancel(context.Background())
	ch := make(chan error, 1)
	go func() { ch <- c.Run(ctx) }()
	return cancelFn, ch
}

/* ---------------- Tests ---------------- */

func TestConsumer_ConfirmaMensajesAplicados(t *testing.T) {
	d1 := &fakeDelivery{body: body(t, entity.EventArrival, "M1", 5)}
	d2 := &fakeDelivery{body: body(t, entity.EventDeparture, "M2", 3)}
	src := newFakeSource(d1, d2)
	app := &fakeApplier{}
	reg := metrics.NewRegistry()
	c := NewConsumer(src, app, logger.Nop(), reg)

	cancel, done := runConsumer(t, c)
	assert.Eventually(t, func() bool { return app.count() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	for _, d := range []*fakeDelivery{d1, d2} {
		acked, rejected, _ := d.state()
		assert.True(t, acked)
		assert.False(t, rejected)
	}
	assert.Equal(t, int64(1), reg.Value(metrics.MessagesReceivedTotal, metrics.L("message_type", "arrival")))
	assert.Equal(t, int64(1), reg.Value(metrics.MessagesProcessedTotal, metrics.L("message_type", "departure")))
	assert.Equal(t, int64(1), reg.Value(metrics.ProcessingTimeMs+"_count", metrics.L("message_type", "arrival")))
	assert.False(t, c.Running())
}

func TestConsumer_MensajeMalFormadoSeDescartaYSigue(t *testing.T) {
	bad := &fakeDelivery{body: []byte(`{"subject":"WH-1:ARRIVAL","data":{"quantity":"x"}}`)}
	good := &fakeDelivery{body: body(t, entity.EventArrival, "M1", 1)}
	app := &fakeApplier{}
	reg := metrics.NewRegistry()
	c := NewConsumer(newFakeSource(bad, good), app, logger.Nop(), reg)

	cancel, done := runConsumer(t, c)
	assert.Eventually(t, func() bool { return app.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	_, rejected, requeue := bad.state()
	assert.True(t, rejected)
	assert.False(t, requeue)
	assert.Equal(t, int64(1), reg.Value(metrics.MessagesFailedTotal,
		metrics.L("message_type", "arrival"), metrics.L("error_type", domain.ErrorTypeMalformedEvent)))
}

func TestConsumer_RequeueSoloSiElAlmacenamientoFalla(t *testing.T) {
	invariant := &fakeDelivery{body: body(t, entity.EventDeparture, "M-inv", 9)}
	storeDown := &fakeDelivery{body: body(t, entity.EventDeparture, "M-down", 9)}
	app := &fakeApplier{err: func(ev entity.MovementEvent) error {
		if ev.MovementID == "M-down" {
			return fmt.Errorf("begin: %w", domain.ErrStoreUnavailable)
		}
		return fmt.Errorf("ajuste: %w", domain.ErrInvariantViolation)
	}}
	reg := metrics.NewRegistry()
	c := NewConsumer(newFakeSource(invariant, storeDown), app, logger.Nop(), reg)

	cancel, done := runConsumer(t, c)
	assert.Eventually(t, func() bool { return app.count() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	_, rejected, requeue := invariant.state()
	assert.True(t, rejected)
	assert.False(t, requeue)

	_, rejected, requeue = storeDown.state()
	assert.True(t, rejected)
	assert.True(t, requeue)

	assert.Equal(t, int64(1), reg.Value(metrics.MessagesFailedTotal,
		metrics.L("message_type", "departure"), metrics.L("error_type", domain.ErrorTypeInvariantViolation)))
	assert.Equal(t, int64(1), reg.Value(metrics.MessagesFailedTotal,
		metrics.L("message_type", "departure"), metrics.L("error_type", domain.ErrorTypeStoreUnavailable)))
}

func TestConsumer_FalloDelTransporteNoDetieneElConsumo(t *testing.T) {
	d := &fakeDelivery{body: body(t, entity.EventArrival, "M1", 1)}
	src := newFakeSource(d)
	src.failures = []error{
		fmt.Errorf("amqp: canal de entregas cerrado: %w", domain.ErrTransportUnavailable),
		errors.New("connection reset"),
	}
	app := &fakeApplier{}
	reg := metrics.NewRegistry()
	c := NewConsumer(src, app, logger.Nop(), reg)
	c.retryMin, c.retryMax = time.Millisecond, 2*time.Millisecond

	cancel, done := runConsumer(t, c)
	assert.Eventually(t, func() bool { return app.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, c.Running())
	cancel()
	require.NoError(t, <-done)

	acked, _, _ := d.state()
	assert.True(t, acked)
	assert.Equal(t, int64(2), reg.Value(metrics.MessagesFailedTotal,
		metrics.L("message_type", "unknown"), metrics.L("error_type", domain.ErrorTypeTransportUnavailable)))
}

func TestConsumer_CancelarDuranteLaEsperaTerminaRun(t *testing.T) {
	src := newFakeSource()
	src.failures = []error{domain.ErrTransportUnavailable}
	c := NewConsumer(src, &fakeApplier{}, logger.Nop(), nil)
	c.retryMin, c.retryMax = time.Hour, time.Hour

	cancel, done := runConsumer(t, c)
	assert.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.calls == 1
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run no respetó la cancelación durante la espera")
	}
}

func TestConsumer_ApagadoTerminaElMensajeEnCurso(t *testing.T) {
	d := &fakeDelivery{body: body(t, entity.EventArrival, "M1", 1)}
	app := &fakeApplier{started: make(chan struct{}), block: make(chan struct{})}
	c := NewConsumer(newFakeSource(d), app, logger.Nop(), nil)

	cancel, done := runConsumer(t, c)
	<-app.started
	cancel()
	time.Sleep(10 * time.Millisecond)
	close(app.block)

	require.NoError(t, <-done)
	acked, _, _ := d.state()
	assert.True(t, acked, "el mensaje en curso se confirma aunque se haya pedido el apagado")
	assert.Equal(t, 1, app.count())
}
