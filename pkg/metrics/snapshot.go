package metrics

import "sync/atomic"

// Snapshot devuelve una copia de todas las métricas, segura para uso concurrente.
func (r *Registry) Snapshot() map[string]int64 {
	if r == nil {
		return map[string]int64{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]int64, len(r.counters))
	for name, ptr := range r.counters {
		out[name] = atomic.LoadInt64(ptr)
	}
	return out
}
