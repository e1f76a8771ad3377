package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/warehouse-monitor/pkg/metrics"
)

// DefaultTTL tiempo de vida por defecto de una entrada.
const DefaultTTL = 300 * time.Second

// Store contrato mínimo de lectura/escritura usado por GetOrSet.
type Store interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
}

// Option configura el Cache.
type Option func(*Cache)

// WithClock reemplaza el reloj (útil en tests).
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithMetrics registra aciertos, fallos y tamaño en el registro dado.
func WithMetrics(reg *metrics.Registry) Option {
	return func(c *Cache) { c.metrics = reg }
}

// Cache almacén clave/valor en memoria con expiración por entrada.
// Las entradas expiradas se eliminan al leerlas o mediante RemoveExpired.
type Cache struct {
	mu         sync.Mutex
	data       map[string]Entry
	inflight   map[string]*inflight // cálculos de GetOrSet en curso por clave
	defaultTTL time.Duration
	now        func() time.Time
	metrics    *metrics.Registry
}

// New crea un cache vacío. Un defaultTTL <= 0 usa DefaultTTL.
func New(defaultTTL time.Duration, opts ...Option) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	c := &Cache{
		data:       make(map[string]Entry),
		inflight:   make(map[string]*inflight),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get devuelve el valor si existe y no expiró. Una entrada expirada se elimina.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.data[key]
	if !ok {
		c.metrics.Inc(metrics.CacheMissesTotal)
		return nil, false
	}
	if e.IsExpired(c.now()) {
		delete(c.data, key)
		c.metrics.Inc(metrics.CacheMissesTotal)
		c.metrics.Set(metrics.CacheSize, int64(len(c.data)))
		return nil, false
	}
	c.metrics.Inc(metrics.CacheHitsTotal)
	return e.Value, true
}

// Set guarda el valor con el ttl indicado (ttl <= 0 usa el ttl por defecto).
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = Entry{Value: value, ExpiresAt: c.now().Add(ttl)}
	c.metrics.Set(metrics.CacheSize, int64(len(c.data)))
}

// Delete elimina la clave; no falla si no existe.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)
	if f, ok := c.inflight[key]; ok {
		f.gen++
	}
	c.metrics.Set(metrics.CacheSize, int64(len(c.data)))
}

// inflight generación de una clave mientras haya cálculos en curso. Delete la incrementa.
type inflight struct {
	gen     uint64
	pending int
}

// guarded lo implementa *Cache: GetOrSet descarta el resultado de un cálculo
// si la clave se invalidó mientras se calculaba.
type guarded interface {
	acquire(key string) uint64
	release(key string, value any, ttl time.Duration, gen uint64, store bool)
}

func (c *Cache) acquire(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.inflight[key]
	if !ok {
		f = &inflight{}
		c.inflight[key] = f
	}
	f.pending++
	return f.gen
}

func (c *Cache) release(key string, value any, ttl time.Duration, gen uint64, store bool) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	f := c.inflight[key]
	if store && f.gen == gen {
		c.data[key] = Entry{Value: value, ExpiresAt: c.now().Add(ttl)}
		c.metrics.Set(metrics.CacheSize, int64(len(c.data)))
	}
	if f.pending--; f.pending == 0 {
		delete(c.inflight, key)
	}
}

// Len número de entradas almacenadas, incluidas las expiradas aún no eliminadas.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// RemoveExpired elimina todas las entradas expiradas y devuelve cuántas eliminó.
func (c *Cache) RemoveExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, e := range c.data {
		if e.IsExpired(now) {
			delete(c.data, k)
			removed++
		}
	}
	c.metrics.Set(metrics.CacheSize, int64(len(c.data)))
	return removed
}

// GetOrSet devuelve el valor cacheado bajo key o lo calcula con compute y lo guarda.
// Los errores de compute no se cachean. Un valor de otro tipo bajo la misma clave se trata como fallo.
// Con un *Cache, un Delete de la clave mientras compute corre impide guardar el resultado.
func GetOrSet[T any](ctx context.Context, s Store, key string, compute func(context.Context) (T, error), ttl time.Duration) (T, error) {
	if v, ok := s.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	if g, ok := s.(guarded); ok {
		gen := g.acquire(key)
		v, err := compute(ctx)
		g.release(key, v, ttl, gen, err == nil)
		if err != nil {
			var zero T
			return zero, err
		}
		return v, nil
	}
	v, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	s.Set(key, v, ttl)
	return v, nil
}
