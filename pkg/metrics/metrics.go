package metrics

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MetricKey identificador tipado de una métrica.
type MetricKey string

// Claves de métricas (centralizadas).
const (
	// Mensajes del transporte
	MessagesReceivedTotal  MetricKey = "warehouse_messages_received_total"
	MessagesProcessedTotal MetricKey = "warehouse_messages_processed_total"
	MessagesFailedTotal    MetricKey = "warehouse_messages_failed_total"
	ProcessingTimeMs       MetricKey = "warehouse_processing_time_ms"

	// Conciliación
	ReconciledEventsTotal    MetricKey = "warehouse_reconciled_events_total"
	ReconcileFailuresTotal   MetricKey = "warehouse_reconcile_failures_total"
	DuplicateSidesTotal      MetricKey = "warehouse_duplicate_sides_total"
	LedgerAdjustmentsTotal   MetricKey = "warehouse_ledger_adjustments_total"
	WarehouseProductQuantity MetricKey = "warehouse_product_quantity"

	// API
	APIRequestsTotal  MetricKey = "warehouse_api_requests_total"
	APIResponseTimeMs MetricKey = "warehouse_api_response_time_ms"

	// Caché
	CacheHitsTotal      MetricKey = "warehouse_cache_hits_total"
	CacheMissesTotal    MetricKey = "warehouse_cache_misses_total"
	CacheSize           MetricKey = "warehouse_cache_size"
	CacheSweepRunsTotal MetricKey = "warehouse_cache_sweep_runs_total"
	CacheExpiredTotal   MetricKey = "warehouse_cache_expired_total"
)

// Label par nombre/valor que se agrega a la clave de una métrica.
type Label struct {
	Name  string
	Value string
}

// L construye un Label.
func L(name, value string) Label {
	return Label{Name: name, Value: value}
}

// Registry guarda contadores y gauges. Se construye explícitamente y se inyecta
// en cada componente; un Registry nil descarta todas las operaciones.
type Registry struct {
	mu       sync.RWMutex
	counters map[string]*int64
}

// NewRegistry crea un registro de métricas vacío.
func NewRegistry() *Registry {
	return &Registry{
		counters: make(map[string]*int64),
	}
}

// Inc incrementa la métrica en 1.
func (r *Registry) Inc(key MetricKey, labels ...Label) {
	r.Add(key, 1, labels...)
}

// Add incrementa la métrica en delta.
func (r *Registry) Add(key MetricKey, delta int64, labels ...Label) {
	if r == nil {
		return
	}
	atomic.AddInt64(r.slot(render(key, labels)), delta)
}

// Set fija el valor de un gauge.
func (r *Registry) Set(key MetricKey, value int64, labels ...Label) {
	if r == nil {
		return
	}
	atomic.StoreInt64(r.slot(render(key, labels)), value)
}

// ObserveDuration acumula la duración en milisegundos (<key>_sum) y el número de observaciones (<key>_count).
func (r *Registry) ObserveDuration(key MetricKey, d time.Duration, labels ...Label) {
	if r == nil {
		return
	}
	r.Add(key+"_sum", d.Milliseconds(), labels...)
	r.Add(key+"_count", 1, labels...)
}

// Value devuelve el valor actual de la métrica (0 si no existe).
func (r *Registry) Value(key MetricKey, labels ...Label) int64 {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	ptr, ok := r.counters[render(key, labels)]
	r.mu.RUnlock()
	if !ok {
		return 0
	}
	return atomic.LoadInt64(ptr)
}

func (r *Registry) slot(name string) *int64 {
	r.mu.RLock()
	ptr, ok := r.counters[name]
	r.mu.RUnlock()
	if ok {
		return ptr
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// doble verificación con el lock de escritura
	if ptr, ok = r.counters[name]; ok {
		return ptr
	}
	ptr = new(int64)
	r.counters[name] = ptr
	return ptr
}

// render arma la clave final: nombre{label1="v1",label2="v2"} en el orden recibido.
func render(key MetricKey, labels []Label) string {
	if len(labels) == 0 {
		return string(key)
	}
	var b strings.Builder
	b.WriteString(string(key))
	b.WriteByte('{')
	for i, l := range labels {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(l.Name)
		b.WriteString(`="`)
		b.WriteString(l.Value)
		b.WriteByte('"')
	}
	b.WriteByte('}')
	return b.String()
}
