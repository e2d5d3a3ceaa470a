package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cemleme/GRB-contracts/core/events"
)

type eventMetrics struct {
	emitted *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry counting committed game events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "spaced",
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Count of committed game events segmented by module and type.",
			}, []string{"module", "type"}),
		}
		prometheus.MustRegister(eventRegistry.emitted)
	})
	return eventRegistry
}

// Emit implements events.Emitter so the registry can sit in an emitter fan-out.
func (m *eventMetrics) Emit(evt events.Event) {
	if m == nil || evt == nil {
		return
	}
	m.Record(evt.EventType())
}

// Record increments the counter for an event type.
func (m *eventMetrics) Record(eventType string) {
	if m == nil {
		return
	}
	normalized := strings.TrimSpace(eventType)
	if normalized == "" {
		normalized = "unknown"
	}
	// Event types are "<module>.<action>".
	module, _, found := strings.Cut(normalized, ".")
	if !found {
		module = "unknown"
	}
	m.emitted.WithLabelValues(module, normalized).Inc()
}
