package scanner

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/amosWeiskopf/freshsmith/internal/models"
)

// Metrics bundles Prometheus collectors for a scan.
type Metrics struct {
	Registry       *prometheus.Registry
	PagesScanned   prometheus.Counter
	PagesSkipped   prometheus.Counter
	InjectionsDone *prometheus.CounterVec
	StalePages     prometheus.Counter
	PageAgeDays    prometheus.Histogram
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	scanned := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "freshsmith_pages_scanned_total",
			Help: "Article pages processed by the scanner.",
		},
	)
	skipped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "freshsmith_pages_skipped_total",
			Help: "HTML files excluded by content or ignore prefixes.",
		},
	)
	injections := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "freshsmith_pages_injected_total",
			Help: "Pages that received an injection, by kind.",
		},
		[]string{"kind"},
	)
	stale := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "freshsmith_pages_stale_total",
			Help: "Article pages older than the freshness threshold.",
		},
	)
	age := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "freshsmith_page_age_days",
			Help:    "Age in days of each article's effective date.",
			Buckets: []float64{30, 90, 180, 365, 730, 1095},
		},
	)

	registry.MustRegister(scanned, skipped, injections, stale, age)

	return &Metrics{
		Registry:       registry,
		PagesScanned:   scanned,
		PagesSkipped:   skipped,
		InjectionsDone: injections,
		StalePages:     stale,
		PageAgeDays:    age,
	}
}

// IncSkipped counts a file excluded by path filters.
func (m *Metrics) IncSkipped() {
	if m == nil {
		return
	}
	m.PagesSkipped.Inc()
}

// ObservePage records one processed page.
func (m *Metrics) ObservePage(result models.PageResult, structuredData, badge bool) {
	if m == nil {
		return
	}
	m.PagesScanned.Inc()
	m.PageAgeDays.Observe(float64(result.AgeInDays))
	if !result.IsFresh {
		m.StalePages.Inc()
	}
	if structuredData {
		m.InjectionsDone.WithLabelValues("json_ld").Inc()
	}
	if badge {
		m.InjectionsDone.WithLabelValues("badge").Inc()
	}
}

// WriteTextfile dumps the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
