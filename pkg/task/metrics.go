package task

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/agent-protocol/a2a-go/pkg/a2a"
)

// Metrics holds the Prometheus collectors the task engine updates as tasks
// move through their lifecycle, grounded on the counter/gauge pattern
// kadirpekel-hector registers for its reasoning engine.
type Metrics struct {
	transitions *prometheus.CounterVec
}

// NewMetrics creates and registers the engine's collectors against reg. Pass
// prometheus.NewRegistry() for test isolation, or nil to use the default
// global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "a2a",
			Subsystem: "task",
			Name:      "state_transitions_total",
			Help:      "Count of task state transitions by resulting state.",
		}, []string{"state"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transitions)
	return m
}

func (m *Metrics) ObserveTransition(s a2a.TaskState) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(s)).Inc()
}
