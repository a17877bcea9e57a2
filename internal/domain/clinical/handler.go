package clinical

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hectobyte1024/sistema-hospitalario/internal/domain/nursing"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/apperr"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/auth"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/reporting"
)

type Handler struct {
	gw *Gateway
}

func NewHandler(gw *Gateway) *Handler {
	return &Handler{gw: gw}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/patients/:id")
	own := auth.RequirePatientAccess("id")

	g.GET("/vitals", h.ListVitals, own)
	g.GET("/vitals/export", h.ExportVitals, own)
	g.POST("/vitals", h.RegisterVitalSigns, auth.RequireCapability(auth.CapRecordVitals))
	g.POST("/treatments", h.ApplyTreatment, auth.RequireCapability(auth.CapApplyTreatment))
	g.POST("/non-pharma-treatments", h.RecordNonPharmaTreatment, auth.RequireCapability(auth.CapApplyTreatment))
	g.POST("/notes", h.AddNurseNote, auth.RequireCapability(auth.CapWriteNotes))
	g.POST("/lab-tests", h.OrderLabTest, auth.RequireCapability(auth.CapOrderLabs))
	g.POST("/medical-history", h.AddMedicalHistory, auth.RequireCapability(auth.CapWriteHistory))
}

func parsePatientID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	return id, nil
}

// FilterFromQuery reads date_from, date_to and shift from the request.
func FilterFromQuery(c echo.Context) (VitalsFilter, error) {
	f, err := ParseVitalsFilter(c.QueryParam("date_from"), c.QueryParam("date_to"), c.QueryParam("shift"))
	if err != nil {
		return VitalsFilter{}, apperr.HTTPError(err)
	}
	return f, nil
}

func (h *Handler) ListVitals(c echo.Context) error {
	id, err := parsePatientID(c)
	if err != nil {
		return err
	}
	f, err := FilterFromQuery(c)
	if err != nil {
		return err
	}
	items, err := h.gw.ListVitals(c.Request().Context(), id, f)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}

// ExportVitals downloads the filtered vitals as a workbook with a derived
// shift column.
func (h *Handler) ExportVitals(c echo.Context) error {
	id, err := parsePatientID(c)
	if err != nil {
		return err
	}
	f, err := FilterFromQuery(c)
	if err != nil {
		return err
	}
	items, err := h.gw.ListVitals(c.Request().Context(), id, f)
	if err != nil {
		return apperr.HTTPError(err)
	}
	data, err := reporting.WriteWorkbook("Signos vitales", VitalsTable(items, h.gw.Windows()))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not build workbook").SetInternal(err)
	}
	return reporting.Attachment(c, fmt.Sprintf("signos-vitales-paciente-%d.xlsx", id), data)
}

// VitalsTable lays out vitals for export.
func VitalsTable(items []*VitalSigns, w nursing.ShiftWindows) reporting.Table {
	t := reporting.Table{
		Columns: []string{"Fecha", "Turno", "Temperatura", "Presión arterial",
			"Frecuencia cardiaca", "Frecuencia respiratoria", "Registrado por"},
		Rows: make([][]interface{}, 0, len(items)),
	}
	for _, v := range items {
		t.Rows = append(t.Rows, []interface{}{
			v.Date.String(), string(w.Classify(v.Date.Hour())), v.Temperature, v.BloodPressure,
			v.HeartRate, v.RespiratoryRate, v.RegisteredBy,
		})
	}
	return t
}

func (h *Handler) RegisterVitalSigns(c echo.Context) error {
	id, err := parsePatientID(c)
	if err != nil {
		return err
	}
	var in VitalSigns
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	in.ID = 0
	in.PatientID = id
	out, err := h.gw.RegisterVitalSigns(c.Request().Context(), &in)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *Handler) ApplyTreatment(c echo.Context) error {
	id, err := parsePatientID(c)
	if err != nil {
		return err
	}
	var in Treatment
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	in.ID = 0
	in.PatientID = id
	out, err := h.gw.ApplyTreatment(c.Request().Context(), &in)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *Handler) RecordNonPharmaTreatment(c echo.Context) error {
	id, err := parsePatientID(c)
	if err != nil {
		return err
	}
	var in NonPharmaTreatment
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	in.ID = 0
	in.PatientID = id
	out, err := h.gw.RecordNonPharmaTreatment(c.Request().Context(), &in)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *Handler) AddNurseNote(c echo.Context) error {
	id, err := parsePatientID(c)
	if err != nil {
		return err
	}
	var in NurseNote
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	in.ID = 0
	in.PatientID = id
	out, err := h.gw.AddNurseNote(c.Request().Context(), &in)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *Handler) OrderLabTest(c echo.Context) error {
	id, err := parsePatientID(c)
	if err != nil {
		return err
	}
	var in LabTest
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	in.ID = 0
	in.PatientID = id
	out, err := h.gw.OrderLabTest(c.Request().Context(), &in)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *Handler) AddMedicalHistory(c echo.Context) error {
	id, err := parsePatientID(c)
	if err != nil {
		return err
	}
	var in MedicalHistory
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	in.ID = 0
	in.PatientID = id
	out, err := h.gw.AddMedicalHistory(c.Request().Context(), &in)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, out)
}
