package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics counts placements and delivery assignment outcomes.
type OrderMetrics struct {
	placed     prometheus.Counter
	assignment *prometheus.CounterVec
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	m := &OrderMetrics{
		placed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders persisted with a confirmed transaction.",
		}),
		assignment: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_assignment_total",
			Help:      "Delivery assignment attempts by outcome and reason.",
		}, []string{"outcome", "reason"}),
	}
	reg.MustRegister(m.placed, m.assignment)
	return m
}

func (m *OrderMetrics) IncPlaced() {
	if m == nil || m.placed == nil {
		return
	}
	m.placed.Inc()
}

func (m *OrderMetrics) IncAssignment(outcome, reason string) {
	if m == nil || m.assignment == nil {
		return
	}
	m.assignment.WithLabelValues(labelOrUnknown(outcome), labelOrUnknown(reason)).Inc()
}
