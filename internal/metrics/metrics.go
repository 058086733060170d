// Package metrics records the work done by a duplicate-detection run.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Pass labels.
const (
	PassForward = "forward"
	PassReverse = "reverse"
)

// Metrics holds the collectors of one process. Each Metrics owns its
// registry so that tests and repeated runs do not collide.
type Metrics struct {
	Registry *prometheus.Registry

	// RecordsRead counts rows taken from the source.
	RecordsRead prometheus.Counter

	// RecordsWritten counts rows handed to the sink.
	RecordsWritten prometheus.Counter

	// Comparisons counts similarity evaluations, labeled by pass.
	Comparisons *prometheus.CounterVec

	// Merges counts cluster unions, labeled by pass.
	Merges *prometheus.CounterVec

	// Clusters is the number of clusters found by the last run.
	Clusters prometheus.Gauge

	// Suppressed counts rows dropped as singletons.
	Suppressed prometheus.Counter

	// ClusterDuration measures the clustering stage, source and sink excluded.
	ClusterDuration prometheus.Histogram
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RecordsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dupdetect_records_read_total",
			Help: "Total number of records read from the input",
		}),
		RecordsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dupdetect_records_written_total",
			Help: "Total number of records written to the output",
		}),
		Comparisons: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dupdetect_comparisons_total",
				Help: "Total number of similarity evaluations",
			},
			[]string{"pass"},
		),
		Merges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dupdetect_merges_total",
				Help: "Total number of cluster merges",
			},
			[]string{"pass"},
		),
		Clusters: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dupdetect_clusters",
			Help: "Number of clusters found by the last run",
		}),
		Suppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dupdetect_singletons_suppressed_total",
			Help: "Total number of singleton records removed from the output",
		}),
		ClusterDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "dupdetect_cluster_duration_seconds",
			Help: "Duration of the clustering stage in seconds",
			// From small batches (milliseconds) to large tables (minutes)
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}),
	}
	m.Registry.MustRegister(
		m.RecordsRead,
		m.RecordsWritten,
		m.Comparisons,
		m.Merges,
		m.Clusters,
		m.Suppressed,
		m.ClusterDuration,
	)
	return m
}

// ObservePass adds the work of one clustering pass.
func (m *Metrics) ObservePass(pass string, comparisons, merges int) {
	m.Comparisons.WithLabelValues(pass).Add(float64(comparisons))
	m.Merges.WithLabelValues(pass).Add(float64(merges))
}

// ObserveClustering records the outcome and duration of a clustering stage.
func (m *Metrics) ObserveClustering(clusters, suppressed int, d time.Duration) {
	m.Clusters.Set(float64(clusters))
	m.Suppressed.Add(float64(suppressed))
	m.ClusterDuration.Observe(d.Seconds())
}

// WriteTextfile exports every collector in the text exposition format,
// for pickup by a node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
