package reporting

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/apperr"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/auth"
)

// MeasureDefinition is a named ward census query.
type MeasureDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SQL         string `json:"-"`
}

// MeasureReport holds the results of evaluating a measure.
type MeasureReport struct {
	MeasureID   string                   `json:"measure_id"`
	MeasureName string                   `json:"measure_name"`
	GeneratedAt time.Time                `json:"generated_at"`
	Columns     []string                 `json:"columns"`
	Results     []map[string]interface{} `json:"results"`

	table Table
}

// Table returns the report in column order, for spreadsheet export.
func (r *MeasureReport) Table() Table { return r.table }

// PredefinedMeasures is the list of available reporting measures.
var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "census-by-condition",
		Name:        "Censo por condición",
		Description: "Active patients grouped by clinical condition",
		SQL:         `SELECT condition, COUNT(*) AS total FROM patients WHERE active GROUP BY condition ORDER BY total DESC, condition`,
	},
	{
		ID:          "census-by-triage",
		Name:        "Censo por nivel de triaje",
		Description: "Active patients grouped by triage level",
		SQL:         `SELECT triage_level, COUNT(*) AS total FROM patients WHERE active GROUP BY triage_level ORDER BY triage_level`,
	},
	{
		ID:          "appointments-by-status",
		Name:        "Citas por estado",
		Description: "Appointments grouped by status",
		SQL:         `SELECT status, COUNT(*) AS total FROM appointments GROUP BY status ORDER BY total DESC, status`,
	},
	{
		ID:          "surgeries-by-status",
		Name:        "Cirugías por estado",
		Description: "Surgeries grouped by status",
		SQL:         `SELECT status, COUNT(*) AS total FROM surgeries GROUP BY status ORDER BY total DESC, status`,
	},
	{
		ID:          "treatments-by-medication",
		Name:        "Tratamientos por medicamento",
		Description: "Treatment applications and distinct patients per medication",
		SQL: `SELECT medication, COUNT(*) AS applications, COUNT(DISTINCT patient_id) AS patients
			FROM treatments GROUP BY medication ORDER BY applications DESC, medication`,
	},
}

// FindMeasure looks up a measure by ID.
func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}

// Runner executes a read-only query and returns its rows in column order.
type Runner interface {
	Run(ctx context.Context, sql string) (Table, error)
}

type poolRunner struct {
	pool *pgxpool.Pool
}

func NewPoolRunner(pool *pgxpool.Pool) Runner {
	return &poolRunner{pool: pool}
}

func (r *poolRunner) Run(ctx context.Context, sql string) (Table, error) {
	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return Table{}, err
	}
	defer rows.Close()

	var t Table
	for _, fd := range rows.FieldDescriptions() {
		t.Columns = append(t.Columns, fd.Name)
	}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return Table{}, err
		}
		t.Rows = append(t.Rows, values)
	}
	return t, rows.Err()
}

// Evaluate runs m and builds its report.
func Evaluate(ctx context.Context, r Runner, m *MeasureDefinition, now time.Time) (*MeasureReport, error) {
	t, err := r.Run(ctx, m.SQL)
	if err != nil {
		return nil, apperr.Store("evaluate "+m.ID, err)
	}

	results := make([]map[string]interface{}, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]interface{}, len(t.Columns))
		for i, col := range t.Columns {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		results = append(results, rec)
	}
	if t.Columns == nil {
		t.Columns = []string{}
	}

	return &MeasureReport{
		MeasureID:   m.ID,
		MeasureName: m.Name,
		GeneratedAt: now,
		Columns:     t.Columns,
		Results:     results,
		table:       t,
	}, nil
}

// Handler provides HTTP handlers for the reporting API.
type Handler struct {
	runner Runner
	now    func() time.Time
}

func NewHandler(runner Runner, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{runner: runner, now: now}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/reports", auth.RequireCapability(auth.CapViewReports))
	g.GET("", h.ListMeasures)
	g.GET("/:id", h.EvaluateMeasure)
	g.GET("/:id/export", h.ExportMeasure)
}

func (h *Handler) ListMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedMeasures)
}

func (h *Handler) EvaluateMeasure(c echo.Context) error {
	m := FindMeasure(c.Param("id"))
	if m == nil {
		return echo.NewHTTPError(http.StatusNotFound, "measure not found")
	}
	report, err := Evaluate(c.Request().Context(), h.runner, m, h.now())
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handler) ExportMeasure(c echo.Context) error {
	m := FindMeasure(c.Param("id"))
	if m == nil {
		return echo.NewHTTPError(http.StatusNotFound, "measure not found")
	}
	report, err := Evaluate(c.Request().Context(), h.runner, m, h.now())
	if err != nil {
		return apperr.HTTPError(err)
	}
	data, err := WriteWorkbook(m.ID, report.Table())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not build workbook").SetInternal(err)
	}
	return Attachment(c, fmt.Sprintf("%s-%s.xlsx", m.ID, report.GeneratedAt.Format("20060102")), data)
}

// Attachment sends an xlsx payload as a download.
func Attachment(c echo.Context, filename string, data []byte) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, XLSXContentType, data)
}
