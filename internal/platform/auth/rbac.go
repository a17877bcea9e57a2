package auth

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// RequireCapability returns middleware that admits callers whose role grants
// at least one of caps.
func RequireCapability(caps ...Capability) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			granted := CapabilitiesOf(p.Role)
			for _, required := range caps {
				if granted.Has(required) {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("role %s lacks capability %s", p.Role.Name(), caps[0]))
		}
	}
}

// CanViewPatient reports whether p may read the chart of patientID. Patients
// see only their own chart.
func CanViewPatient(p Principal, patientID int64) bool {
	if p.Role == nil {
		return false
	}
	switch r := p.Role.(type) {
	case Patient:
		return r.PatientID != 0 && r.PatientID == patientID
	case Admin, Doctor, Nurse:
		return CapabilitiesOf(r).Has(CapViewChart)
	default:
		panic(fmt.Sprintf("auth: unhandled role %T", r))
	}
}

// RequirePatientAccess guards routes whose path parameter param holds a
// patient id.
func RequirePatientAccess(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			id, err := strconv.ParseInt(c.Param(param), 10, 64)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid "+param)
			}
			if !CanViewPatient(p, id) {
				return echo.NewHTTPError(http.StatusForbidden, "access to this patient is not allowed")
			}
			return next(c)
		}
	}
}
