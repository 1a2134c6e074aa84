// Package metrics exposes the honeypot's Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors, all prefixed with "honeypot_".
//
//   - honeypot_turns_total{scam,source} - processed inbound turns
//   - honeypot_turn_duration_seconds - per-turn latency
//   - honeypot_classifications_total{method} - rules, verifier or clean
//   - honeypot_active_sessions - live conversations
//   - honeypot_reports_total{result} - sent, failed, queue_full
//   - honeypot_report_duration_seconds - delivery latency
type Metrics struct {
	reg *prometheus.Registry

	TurnsTotal      *prometheus.CounterVec
	TurnDuration    prometheus.Histogram
	Classifications *prometheus.CounterVec
	ActiveSessions  prometheus.Gauge
	ReportsTotal    *prometheus.CounterVec
	ReportDuration  prometheus.Histogram
}

// New registers the collectors, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		TurnsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "honeypot_turns_total",
				Help: "Total number of inbound turns processed",
			},
			[]string{"scam", "source"},
		),
		TurnDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "honeypot_turn_duration_seconds",
			Help:    "Time to produce a reply for one turn",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		}),
		Classifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "honeypot_classifications_total",
				Help: "Classifier verdicts by deciding method",
			},
			[]string{"method"},
		),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Name: "honeypot_active_sessions",
			Help: "Number of conversations held in memory",
		}),
		ReportsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "honeypot_reports_total",
				Help: "Final report delivery attempts by result",
			},
			[]string{"result"},
		),
		ReportDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "honeypot_report_duration_seconds",
			Help:    "Duration of final report deliveries",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) ObserveTurn(scam bool, source string, took time.Duration) {
	m.TurnsTotal.WithLabelValues(strconv.FormatBool(scam), source).Inc()
	m.TurnDuration.Observe(took.Seconds())
}

func (m *Metrics) ObserveClassification(method string) {
	m.Classifications.WithLabelValues(method).Inc()
}

func (m *Metrics) SetActiveSessions(n int) { m.ActiveSessions.Set(float64(n)) }

// ObserveDelivery records a report delivery result.
func (m *Metrics) ObserveDelivery(result string, took time.Duration) {
	m.ReportsTotal.WithLabelValues(result).Inc()
	if took > 0 {
		m.ReportDuration.Observe(took.Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }
