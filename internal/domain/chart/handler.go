package chart

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hectobyte1024/sistema-hospitalario/internal/domain/clinical"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/apperr"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/auth"
)

type Handler struct {
	agg *Aggregator
}

func NewHandler(agg *Aggregator) *Handler {
	return &Handler{agg: agg}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/:id/detail", h.GetPatientDetail, auth.RequirePatientAccess("id"))
}

// GetPatientDetail accepts date_from, date_to and shift to narrow vitals and
// notes.
func (h *Handler) GetPatientDetail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	f, err := clinical.FilterFromQuery(c)
	if err != nil {
		return err
	}
	d, err := h.agg.GetPatientDetail(c.Request().Context(), id, f)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, d)
}
