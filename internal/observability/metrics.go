package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "balneabilidade_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for an ETL run.
type Metrics struct {
	ReportsLocated *prometheus.CounterVec // labels: source={index,fallback,file}
	ReportsFetched *prometheus.CounterVec // labels: outcome={downloaded,cached,local,not_found,transient,timeout}
	FetchRetries   prometheus.Counter
	FetchDuration  prometheus.Histogram

	RowsExtracted prometheus.Counter
	RowsSkipped   prometheus.Counter
	ParseFailures prometheus.Counter

	RunOutcomes           *prometheus.CounterVec // labels: outcome={committed,recency_rejected,no_new_data,failed}
	StationsTracked       prometheus.Gauge
	StationsMissingCoords prometheus.Gauge
	RunDuration           prometheus.Histogram
	LastCommitTimestamp   prometheus.Gauge

	EventsPublished prometheus.Counter
	PublishErrors   prometheus.Counter
}

// NewMetrics creates and registers all run metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// Collectors returns every metric so callers can push them to a gateway.
func (m *Metrics) Collectors() []prometheus.Collector {
	return m.collectors()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsLocated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_located_total",
			Help:      "Candidate report documents found, by discovery source.",
		}, []string{"source"}),
		ReportsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_fetched_total",
			Help:      "Report fetch results by outcome.",
		}, []string{"outcome"}),
		FetchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_retries_total",
			Help:      "Report download attempts beyond the first.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a single report download attempt.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		RowsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_extracted_total",
			Help:      "Station rows extracted from report PDFs.",
		}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_skipped_total",
			Help:      "Rows dropped during normalization.",
		}),
		ParseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_failures_total",
			Help:      "Reports fetched but yielding no station rows.",
		}),
		RunOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed runs by outcome.",
		}, []string{"outcome"}),
		StationsTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stations_tracked",
			Help:      "Stations present in the published feed.",
		}),
		StationsMissingCoords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stations_missing_coordinates",
			Help:      "Published stations without a side-table coordinate entry.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete locate-fetch-extract-merge-write run.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		LastCommitTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_commit_timestamp_seconds",
			Help:      "Unix time of the last run that committed new readings.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Station update messages written to Kafka.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed Kafka publish calls.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ReportsLocated,
		m.ReportsFetched,
		m.FetchRetries,
		m.FetchDuration,
		m.RowsExtracted,
		m.RowsSkipped,
		m.ParseFailures,
		m.RunOutcomes,
		m.StationsTracked,
		m.StationsMissingCoords,
		m.RunDuration,
		m.LastCommitTimestamp,
		m.EventsPublished,
		m.PublishErrors,
	}
}
