package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "heaters"

// Metrics holds the collectors updated by heater runs. A nil *Metrics is a no-op.
type Metrics struct {
	runsTotal      *prometheus.CounterVec
	decisionsTotal *prometheus.CounterVec
	familyFailures *prometheus.CounterVec
	runDuration    prometheus.Histogram
	lastRun        prometheus.Gauge
	tariffRed      prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Heater runs by result",
		}, []string{"result"}),
		decisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Per-device reconcile decisions by family and action",
		}, []string{"family", "action"}),
		familyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "family_failures_total",
			Help:      "Device families that could not be reached during a run",
		}, []string{"family"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a heater run",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last finished heater run",
		}),
		tariffRed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tariff_red",
			Help:      "1 while the tariff signal forces frost mode",
		}),
	}
	reg.MustRegister(m.runsTotal, m.decisionsTotal, m.familyFailures, m.runDuration, m.lastRun, m.tariffRed)
	return m
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(finished time.Time, took time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.runsTotal.WithLabelValues(result).Inc()
	m.runDuration.Observe(took.Seconds())
	m.lastRun.Set(float64(finished.Unix()))
}

func (m *Metrics) ObserveDecision(family, action string) {
	if m == nil {
		return
	}
	m.decisionsTotal.WithLabelValues(family, action).Inc()
}

func (m *Metrics) FamilyFailed(family string) {
	if m == nil {
		return
	}
	m.familyFailures.WithLabelValues(family).Inc()
}

func (m *Metrics) SetTariffRed(red bool) {
	if m == nil {
		return
	}
	if red {
		m.tariffRed.Set(1)
		return
	}
	m.tariffRed.Set(0)
}
