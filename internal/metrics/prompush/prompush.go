// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package. A batch job has no scrape endpoint, so collected metrics
// are pushed once at the end of the run.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"movieload/internal/metrics"
)

// Config configures the Pushgateway backend.
type Config struct {
	// GatewayURL is the base URL of the Pushgateway, e.g. http://pushgateway:9091.
	GatewayURL string
	// Job is the Pushgateway "job" grouping key.
	Job string
	// RunID, when set, is added as a "run_id" grouping key so runs do not
	// overwrite each other.
	RunID string
}

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	cfg Config
	reg *prometheus.Registry

	steps    *prometheus.CounterVec
	duration *prometheus.SummaryVec
	rows     *prometheus.CounterVec
	batches  *prometheus.CounterVec
	indexes  *prometheus.CounterVec
}

var _ metrics.Backend = (*Backend)(nil)

// NewBackend registers the movieload collectors on a private registry.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.GatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if cfg.Job == "" {
		cfg.Job = "movieload"
	}

	b := &Backend{
		cfg: cfg,
		reg: prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Pipeline step executions by step and status.",
		}, []string{"step", "status"}),
		duration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       metrics.StepDuration,
			Help:       "Pipeline step duration in seconds by step and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"step", "status"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Rows written or rejected per sink and target.",
		}, []string{"sink", "target", "kind"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.BatchesTotal,
			Help: "Insert batches flushed per sink.",
		}, []string{"sink"}),
		indexes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metrics.IndexesTotal,
			Help: "Index builds per sink and outcome.",
		}, []string{"sink", "status"}),
	}

	for name, c := range map[string]prometheus.Collector{
		"step counter":  b.steps,
		"step summary":  b.duration,
		"row counter":   b.rows,
		"batch counter": b.batches,
		"index counter": b.indexes,
	} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}
	return b, nil
}

// IncCounter implements metrics.Backend. Unknown names are ignored.
func (b *Backend) IncCounter(name string, delta float64, l metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		b.steps.WithLabelValues(l["step"], l["status"]).Add(delta)
	case metrics.RowsTotal:
		b.rows.WithLabelValues(l["sink"], l["target"], l["kind"]).Add(delta)
	case metrics.BatchesTotal:
		b.batches.WithLabelValues(l["sink"]).Add(delta)
	case metrics.IndexesTotal:
		b.indexes.WithLabelValues(l["sink"], l["status"]).Add(delta)
	}
}

// ObserveHistogram implements metrics.Backend.
func (b *Backend) ObserveHistogram(name string, value float64, l metrics.Labels) {
	if name != metrics.StepDuration {
		return
	}
	b.duration.WithLabelValues(l["step"], l["status"]).Observe(value)
}

// Flush pushes the registry to the Pushgateway, replacing the group.
func (b *Backend) Flush() error {
	p := push.New(b.cfg.GatewayURL, b.cfg.Job).Gatherer(b.reg)
	if b.cfg.RunID != "" {
		p = p.Grouping("run_id", b.cfg.RunID)
	}
	if err := p.Push(); err != nil {
		return fmt.Errorf("prompush: push: %w", err)
	}
	return nil
}
