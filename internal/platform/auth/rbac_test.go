package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func contextWithRole(req *http.Request, role Role) *http.Request {
	return req.WithContext(WithPrincipal(req.Context(), Principal{Subject: "u", Name: "Test", Role: role}))
}

func TestRequireCapability_Allowed(t *testing.T) {
	e := echo.New()
	req := contextWithRole(httptest.NewRequest(http.MethodGet, "/", nil), Nurse{StaffID: 2})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := RequireCapability(CapRecordVitals)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if err := h(c); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequireCapability_Denied(t *testing.T) {
	e := echo.New()
	req := contextWithRole(httptest.NewRequest(http.MethodGet, "/", nil), Patient{PatientID: 1})
	c := e.NewContext(req, httptest.NewRecorder())

	h := RequireCapability(CapRecordVitals)(func(c echo.Context) error { return nil })
	err := h(c)
	if err == nil {
		t.Fatal("expected error for missing capability")
	}
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %v", err)
	}
}

func TestRequireCapability_AnyOf(t *testing.T) {
	e := echo.New()
	req := contextWithRole(httptest.NewRequest(http.MethodGet, "/", nil), Patient{PatientID: 1})
	c := e.NewContext(req, httptest.NewRecorder())

	h := RequireCapability(CapViewChart, CapViewOwnChart)(func(c echo.Context) error { return nil })
	if err := h(c); err != nil {
		t.Errorf("expected patient to pass with own-chart capability, got %v", err)
	}
}

func TestRequireCapability_Unauthenticated(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	h := RequireCapability(CapViewWard)(func(c echo.Context) error { return nil })
	err := h(c)
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestCanViewPatient(t *testing.T) {
	tests := []struct {
		name      string
		role      Role
		patientID int64
		want      bool
	}{
		{"admin any", Admin{}, 9, true},
		{"doctor any", Doctor{StaffID: 3}, 9, true},
		{"nurse any", Nurse{StaffID: 2}, 9, true},
		{"patient own", Patient{PatientID: 9}, 9, true},
		{"patient other", Patient{PatientID: 9}, 10, false},
		{"patient unlinked", Patient{}, 0, false},
		{"no role", nil, 9, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanViewPatient(Principal{Role: tt.role}, tt.patientID); got != tt.want {
				t.Errorf("CanViewPatient = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequirePatientAccess(t *testing.T) {
	run := func(role Role, id string) error {
		e := echo.New()
		req := contextWithRole(httptest.NewRequest(http.MethodGet, "/", nil), role)
		c := e.NewContext(req, httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(id)
		return RequirePatientAccess("id")(func(c echo.Context) error { return nil })(c)
	}

	if err := run(Patient{PatientID: 4}, "4"); err != nil {
		t.Errorf("own chart should pass, got %v", err)
	}
	if err := run(Patient{PatientID: 4}, "5"); err == nil {
		t.Error("foreign chart should be denied")
	}
	if err := run(Nurse{}, "abc"); err == nil {
		t.Error("invalid id should be rejected")
	}
}
