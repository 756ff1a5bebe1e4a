// Package metrics holds the Prometheus collectors for the monitor.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "benford"

const (
	StatusSuccess = "success"
	StatusFailure = "failed"
	StatusSkipped = "skipped"
)

// Metrics owns a private registry so tests can build as many instances as they need.
type Metrics struct {
	registry *prometheus.Registry

	CyclesTotal   *prometheus.CounterVec
	CycleDuration prometheus.Histogram
	FetchTotal    *prometheus.CounterVec
	LastVerdict   prometheus.Gauge
	SampleSize    prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg}

	m.CyclesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cycles_total",
		Help:      "Analysis cycles by outcome.",
	}, []string{"status"})

	m.CycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cycle_duration_seconds",
		Help:      "Wall time of completed analysis cycles.",
		Buckets:   prometheus.DefBuckets,
	})

	m.FetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_fetch_total",
		Help:      "Savings source fetches by category and outcome.",
	}, []string{"category", "status"})

	m.LastVerdict = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_verdict",
		Help:      "1 when the last published analysis passed, 0 otherwise.",
	})

	m.SampleSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sample_size",
		Help:      "Records with a leading digit in the last analysis.",
	})

	reg.MustRegister(m.CyclesTotal, m.CycleDuration, m.FetchTotal, m.LastVerdict, m.SampleSize)
	return m
}

func (m *Metrics) ObserveCycle(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.CyclesTotal.WithLabelValues(status).Inc()
	if status != StatusSkipped {
		m.CycleDuration.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) ObserveFetch(category string, err error) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	m.FetchTotal.WithLabelValues(category, status).Inc()
}

func (m *Metrics) ObserveVerdict(passes bool, sampleSize int) {
	if m == nil {
		return
	}
	v := 0.0
	if passes {
		v = 1
	}
	m.LastVerdict.Set(v)
	m.SampleSize.Set(float64(sampleSize))
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
