package collector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	lvSuccess = "success"
	lvFail    = "fail"
)

type metrics struct {
	ticks         prometheus.Counter
	samples       *prometheus.CounterVec
	filtered      prometheus.Counter
	evictions     *prometheus.CounterVec
	drainErrors   prometheus.Counter
	drainDuration prometheus.Histogram
	processes     prometheus.Gauge
	sources       prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		ticks: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "calltop_collector_ticks_total",
			Help: "Total number of reconciliation ticks.",
		}),
		samples: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "calltop_collector_samples_total",
			Help: "Total number of samples drained from counter sources.",
		}, []string{"kind"}),
		filtered: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "calltop_collector_samples_filtered_total",
			Help: "Total number of samples rejected by the pid and process name allow-lists.",
		}),
		evictions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "calltop_collector_evictions_total",
			Help: "Total number of counter evictions requested from sources.",
		}, []string{"result"}),
		drainErrors: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "calltop_collector_drain_errors_total",
			Help: "Total number of failed source drains.",
		}),
		drainDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "calltop_collector_tick_duration_seconds",
			Help:    "Duration of a reconciliation tick.",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		processes: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "calltop_collector_processes",
			Help: "Number of process records in the collection.",
		}),
		sources: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "calltop_collector_sources",
			Help: "Number of attached counter sources.",
		}),
	}
	m.evictions.WithLabelValues(lvSuccess)
	m.evictions.WithLabelValues(lvFail)
	return m
}
