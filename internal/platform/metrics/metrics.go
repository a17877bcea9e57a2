// Package metrics provides Prometheus metrics for the hospital server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	HTTPRequests         *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec
	ClinicalEntries      *prometheus.CounterVec
	MutationRejections   *prometheus.CounterVec
	AppointmentConflicts prometheus.Counter
	PatientTransfers     prometheus.Counter
	TriageLevels         *prometheus.CounterVec
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method", "route"}),
		ClinicalEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clinical_entries_total",
			Help: "Clinical records written, by kind",
		}, []string{"kind"}),
		MutationRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mutation_rejections_total",
			Help: "Rejected writes, by kind and reason",
		}, []string{"kind", "reason"}),
		AppointmentConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "appointment_conflicts_total",
			Help: "Appointment requests refused because the slot was taken",
		}),
		PatientTransfers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "patient_transfers_total",
			Help: "Completed patient transfers",
		}),
		TriageLevels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "triage_classifications_total",
			Help: "Triage descriptors served, by level",
		}, []string{"level"}),
	}

	reg.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.ClinicalEntries,
		m.MutationRejections,
		m.AppointmentConflicts,
		m.PatientTransfers,
		m.TriageLevels,
	)

	return m
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) ClinicalEntry(kind string) {
	if m == nil {
		return
	}
	m.ClinicalEntries.WithLabelValues(kind).Inc()
}

func (m *Metrics) MutationRejected(kind, reason string) {
	if m == nil {
		return
	}
	m.MutationRejections.WithLabelValues(kind, reason).Inc()
}

func (m *Metrics) AppointmentConflict() {
	if m == nil {
		return
	}
	m.AppointmentConflicts.Inc()
}

func (m *Metrics) PatientTransferred() {
	if m == nil {
		return
	}
	m.PatientTransfers.Inc()
}

func (m *Metrics) TriageClassified(level int) {
	if m == nil {
		return
	}
	m.TriageLevels.WithLabelValues(strconv.Itoa(level)).Inc()
}

// Handler returns the Prometheus HTTP handler for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
