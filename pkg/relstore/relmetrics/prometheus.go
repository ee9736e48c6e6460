package relmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Mettra/fabula-ultima-technosphere-machine-sub000/pkg/relstore"
)

// PrometheusExporter exports limit violations to Prometheus. It implements relstore.Sink.
type PrometheusExporter struct {
	violations *prometheus.CounterVec
}

// NewPrometheusExporter creates an exporter whose metrics are registered with reg.
// A nil reg registers with the default registerer.
func NewPrometheusExporter(reg prometheus.Registerer) *PrometheusExporter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusExporter{
		violations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relstore_limit_violations_total",
				Help: "Total number of one-to-many relation limit violations",
			},
			[]string{"concept", "relation", "policy"},
		),
	}
}

// Notify records a violation in Prometheus
func (e *PrometheusExporter) Notify(v relstore.Violation) {
	e.violations.WithLabelValues(v.Concept, v.Relation, v.Policy.String()).Inc()
}
