package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ClinicalEntry("vital_signs")
	m.ClinicalEntry("vital_signs")
	m.MutationRejected("nurse_note", "validation")
	m.AppointmentConflict()
	m.PatientTransferred()
	m.TriageClassified(2)

	if got := testutil.ToFloat64(m.ClinicalEntries.WithLabelValues("vital_signs")); got != 2 {
		t.Errorf("expected 2 vital_signs entries, got %v", got)
	}
	if got := testutil.ToFloat64(m.MutationRejections.WithLabelValues("nurse_note", "validation")); got != 1 {
		t.Errorf("expected 1 rejection, got %v", got)
	}
	if got := testutil.ToFloat64(m.AppointmentConflicts); got != 1 {
		t.Errorf("expected 1 conflict, got %v", got)
	}
	if got := testutil.ToFloat64(m.PatientTransfers); got != 1 {
		t.Errorf("expected 1 transfer, got %v", got)
	}
	if got := testutil.ToFloat64(m.TriageLevels.WithLabelValues("2")); got != 1 {
		t.Errorf("expected 1 level-2 classification, got %v", got)
	}
}

func TestMetrics_ObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRequest(http.MethodGet, "/api/v1/patients/:id", 200, 15*time.Millisecond)
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/v1/patients/:id", "200")); got != 1 {
		t.Errorf("expected 1 request, got %v", got)
	}
	if n := testutil.CollectAndCount(m.HTTPDuration); n != 1 {
		t.Errorf("expected 1 histogram series, got %d", n)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ClinicalEntry("x")
	m.MutationRejected("x", "y")
	m.AppointmentConflict()
	m.PatientTransferred()
	m.TriageClassified(1)
	m.ObserveRequest("GET", "/", 200, time.Second)
}

func TestHandler_ExposesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.AppointmentConflict()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "appointment_conflicts_total 1") {
		t.Errorf("expected conflict counter in output, got:\n%s", rec.Body.String())
	}
}
