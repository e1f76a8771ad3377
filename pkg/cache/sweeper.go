package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jhoicas/warehouse-monitor/pkg/logger"
	"github.com/jhoicas/warehouse-monitor/pkg/metrics"
)

// DefaultSweepInterval periodo por defecto entre barridos.
const DefaultSweepInterval = 60 * time.Second

// ErrSweeperStopTimeout el barrido no terminó dentro del plazo de Stop.
var ErrSweeperStopTimeout = errors.New("cache: el barrido no se detuvo a tiempo")

// Expirer contrato mínimo que necesita el Sweeper.
type Expirer interface {
	RemoveExpired() int
}

// Sweeper elimina periódicamente las entradas expiradas.
type Sweeper struct {
	store    Expirer
	interval time.Duration
	log      *logger.Logger
	metrics  *metrics.Registry

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper crea un Sweeper. Un interval <= 0 usa DefaultSweepInterval.
func NewSweeper(store Expirer, interval time.Duration, log *logger.Logger, reg *metrics.Registry) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		store:    store,
		interval: interval,
		log:      log,
		metrics:  reg,
	}
}

// Start lanza el ciclo en una goroutine; termina al cancelar ctx o al llamar Stop.
// Llamadas repetidas no lanzan un segundo ciclo.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
}

// Stop cancela el ciclo y espera a que termine como máximo timeout.
func (s *Sweeper) Stop(timeout time.Duration) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}

	cancel()
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return ErrSweeperStopTimeout
	}
}

func (s *Sweeper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce()
		case <-ctx.Done():
			s.log.Debug().Msg("barrido de cache detenido")
			return
		}
	}
}

func (s *Sweeper) runOnce() {
	removed := s.store.RemoveExpired()
	s.metrics.Inc(metrics.CacheSweepRunsTotal)
	if removed > 0 {
		s.metrics.Add(metrics.CacheExpiredTotal, int64(removed))
		s.log.Debug().Int("removed", removed).Msg("entradas expiradas eliminadas")
	}
}
