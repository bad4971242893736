// File: internal/server/metrics.go
package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Query outcome labels.
const (
	outcomeOK      = "ok"
	outcomeInvalid = "invalid"
	outcomeNoData  = "no_data"
	outcomeError   = "error"
)

// Metrics counts registry queries by type and outcome.
type Metrics struct {
	queriesTotal *prometheus.CounterVec
}

// NewMetrics registers the query counter on the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		queriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "detranbridge_queries_total",
			Help: "Registry queries served, by query type and outcome.",
		}, []string{"type", "outcome"}),
	}
	reg.MustRegister(m.queriesTotal)
	return m
}

func (m *Metrics) observe(queryType, outcome string) {
	m.queriesTotal.WithLabelValues(queryType, outcome).Inc()
}
