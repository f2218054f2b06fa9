package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "covid_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for one ETL run.
type Metrics struct {
	PipelineRunning prometheus.Gauge
	RunDuration     prometheus.Histogram
	FetchDuration   prometheus.Histogram
	LastSuccess     prometheus.Gauge

	// Row counts per stage.
	FeedRows      prometheus.Gauge
	ReferenceRows prometheus.Gauge
	OutputRows    prometheus.Gauge
	JoinDropped   *prometheus.GaugeVec // labels: side={feed,reference}

	RunFailures   *prometheus.CounterVec // labels: stage={extract,transform,load}
	RowsPublished prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates all pipeline metrics and registers them, together
// with the Go runtime and process collectors, with a dedicated registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(m.collectors()...)
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry backing /metrics and the textfile. It is
// nil for metrics built with NewMetricsForTesting.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as
// many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete extract-transform-load run.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_fetch_duration_seconds",
			Help:      "Duration of the feed download and parse.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		FeedRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_rows",
			Help:      "Rows read from the county feed.",
		}),
		ReferenceRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reference_rows",
			Help:      "Rows read from the reference table.",
		}),
		OutputRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "output_rows",
			Help:      "Rows written to the output table.",
		}),
		JoinDropped: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "join_dropped_rows",
			Help:      "Rows without a match in the reference join, by side.",
		}, []string{"side"}),
		RunFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_failures_total",
			Help:      "Failed runs by the stage that failed.",
		}, []string{"stage"}),
		RowsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_published_total",
			Help:      "Output rows published to the sink topic.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.PipelineRunning,
		m.RunDuration,
		m.FetchDuration,
		m.LastSuccess,
		m.FeedRows,
		m.ReferenceRows,
		m.OutputRows,
		m.JoinDropped,
		m.RunFailures,
		m.RowsPublished,
	}
}

// WriteTextfile writes every registered metric to path in the text
// exposition format, for the node exporter textfile collector. It is a
// no-op when path is empty or the metrics are unregistered.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" || m.registry == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
