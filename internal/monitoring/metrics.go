// Package monitoring exposes Prometheus instrumentation for query runs.
// Metrics are additive observation only; nothing on the data path depends
// on them.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/oplogtools/logquery/internal/logging"
)

// Metrics holds all Prometheus metrics, registered on a private registry
// so parallel constructions (tests) never collide.
type Metrics struct {
	FilesProcessed *prometheus.CounterVec
	RecordsMatched *prometheus.CounterVec
	BytesWritten   *prometheus.CounterVec
	FilesSkipped   *prometheus.CounterVec
	TaskDuration   *prometheus.GaugeVec

	registry *prometheus.Registry
}

// New creates a metrics collector.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		FilesProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logquery_files_processed_total",
				Help: "Number of input files fully decoded",
			},
			[]string{"task"},
		),
		RecordsMatched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logquery_records_matched_total",
				Help: "Number of records that satisfied the match rules",
			},
			[]string{"task"},
		),
		BytesWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logquery_output_bytes_total",
				Help: "Bytes appended to the result file",
			},
			[]string{"task"},
		),
		FilesSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logquery_files_skipped_total",
				Help: "Number of input files skipped due to read or decode errors",
			},
			[]string{"task"},
		),
		TaskDuration: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "logquery_task_duration_seconds",
				Help: "Wall time of the last completed task",
			},
			[]string{"task"},
		),
	}
}

// ObserveTask records the final task totals.
func (m *Metrics) ObserveTask(task string, matched int, bytes int64, elapsed time.Duration) {
	m.RecordsMatched.WithLabelValues(task).Add(float64(matched))
	m.BytesWritten.WithLabelValues(task).Add(float64(bytes))
	m.TaskDuration.WithLabelValues(task).Set(elapsed.Seconds())
}

// Serve exposes the metrics endpoint on addr for the lifetime of the
// process. Best-effort: a listen failure is logged, never fatal.
func (m *Metrics) Serve(addr string, log *logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Warn("metrics endpoint unavailable", zap.Error(err))
		}
	}()
}
