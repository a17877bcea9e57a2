package reporting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
)

type fakeRunner struct {
	table Table
	err   error
	sql   string
}

func (f *fakeRunner) Run(_ context.Context, sql string) (Table, error) {
	f.sql = sql
	return f.table, f.err
}

var fixedNow = func() time.Time { return time.Date(2025, 11, 20, 9, 0, 0, 0, time.UTC) }

func TestPredefinedMeasures(t *testing.T) {
	expectedIDs := []string{
		"census-by-condition",
		"census-by-triage",
		"appointments-by-status",
		"surgeries-by-status",
		"treatments-by-medication",
	}
	if len(PredefinedMeasures) != len(expectedIDs) {
		t.Fatalf("expected %d measures, got %d", len(expectedIDs), len(PredefinedMeasures))
	}
	for i, id := range expectedIDs {
		m := PredefinedMeasures[i]
		if m.ID != id {
			t.Errorf("measure[%d]: expected %s, got %s", i, id, m.ID)
		}
		if m.SQL == "" || m.Name == "" || m.Description == "" {
			t.Errorf("measure %s is incomplete", m.ID)
		}
		if FindMeasure(m.ID) != &PredefinedMeasures[i] {
			t.Errorf("FindMeasure(%s) did not return the predefined entry", m.ID)
		}
	}
	if FindMeasure("nonexistent") != nil {
		t.Error("expected nil for unknown measure")
	}
}

func TestEvaluate_BuildsRowsInColumnOrder(t *testing.T) {
	r := &fakeRunner{table: Table{
		Columns: []string{"condition", "total"},
		Rows:    [][]interface{}{{"Estable", int64(2)}, {"Crítico", int64(1)}},
	}}
	m := FindMeasure("census-by-condition")

	report, err := Evaluate(context.Background(), r, m, fixedNow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.sql != m.SQL {
		t.Error("expected the measure SQL to be executed")
	}
	if len(report.Results) != 2 || report.Results[0]["condition"] != "Estable" || report.Results[1]["total"] != int64(1) {
		t.Errorf("unexpected results: %v", report.Results)
	}
	if len(report.Table().Rows) != 2 {
		t.Errorf("expected table rows to be kept for export")
	}
}

func TestEvaluate_EmptyResultIsNotNull(t *testing.T) {
	report, err := Evaluate(context.Background(), &fakeRunner{}, FindMeasure("census-by-triage"), fixedNow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := json.Marshal(report)
	var out map[string]interface{}
	_ = json.Unmarshal(b, &out)
	if _, ok := out["results"].([]interface{}); !ok {
		t.Errorf("expected results to serialize as [], got %v", out["results"])
	}
	if _, ok := out["columns"].([]interface{}); !ok {
		t.Errorf("expected columns to serialize as [], got %v", out["columns"])
	}
}

func TestHandler_EvaluateMeasure(t *testing.T) {
	h := NewHandler(&fakeRunner{table: Table{Columns: []string{"status", "total"}, Rows: [][]interface{}{{"Pendiente", int64(3)}}}}, fixedNow)
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/reports/appointments-by-status", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("appointments-by-status")

	if err := h.EvaluateMeasure(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var report MeasureReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.MeasureID != "appointments-by-status" || len(report.Results) != 1 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestHandler_UnknownMeasure(t *testing.T) {
	h := NewHandler(&fakeRunner{}, fixedNow)
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("nope")

	err := h.EvaluateMeasure(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestHandler_StoreFailureIs503(t *testing.T) {
	h := NewHandler(&fakeRunner{err: errors.New("connection reset")}, fixedNow)
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("census-by-condition")

	err := h.EvaluateMeasure(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %v", err)
	}
}

func TestHandler_ExportMeasure(t *testing.T) {
	h := NewHandler(&fakeRunner{table: Table{
		Columns: []string{"medication", "applications", "patients"},
		Rows:    [][]interface{}{{"Paracetamol", int64(4), int64(2)}},
	}}, fixedNow)
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues("treatments-by-medication")

	if err := h.ExportMeasure(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != XLSXContentType {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); cd != `attachment; filename="treatments-by-medication-20251120.xlsx"` {
		t.Errorf("unexpected disposition %q", cd)
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	if v, _ := f.GetCellValue("treatments-by-medication", "A2"); v != "Paracetamol" {
		t.Errorf("expected Paracetamol in A2, got %q", v)
	}
}
