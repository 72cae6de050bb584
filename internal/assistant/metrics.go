package assistant

import (
	"sync"

	"github.com/RayKMAllen/email-assistant/internal/models"
)

// Metrics counts how classifications resolved over the life of a
// conversation.
type Metrics struct {
	mu       sync.Mutex
	inputs   int
	byMethod map[models.Method]int
	failures int
}

// NewMetrics returns zeroed counters.
func NewMetrics() *Metrics {
	return &Metrics{byMethod: make(map[models.Method]int)}
}

// Record counts one classified input.
func (m *Metrics) Record(result models.IntentResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs++
	m.byMethod[result.Method]++
}

// RecordFailure counts one failed operation.
func (m *Metrics) RecordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	Inputs   int
	ByMethod map[models.Method]int
	Failures int
}

// Snapshot copies the counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	byMethod := make(map[models.Method]int, len(m.byMethod))
	for k, v := range m.byMethod {
		byMethod[k] = v
	}
	return MetricsSnapshot{Inputs: m.inputs, ByMethod: byMethod, Failures: m.failures}
}
