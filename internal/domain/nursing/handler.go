package nursing

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/apperr"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/auth"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/wallclock"
	"github.com/hectobyte1024/sistema-hospitalario/pkg/pagination"
)

type Handler struct {
	svc      *Service
	resolver *Resolver
}

func NewHandler(svc *Service, resolver *Resolver) *Handler {
	return &Handler{svc: svc, resolver: resolver}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	view := auth.RequireCapability(auth.CapViewShifts)
	manage := auth.RequireCapability(auth.CapManageShifts)

	nurses := api.Group("/nurses", view)
	nurses.GET("/:id/shifts", h.ListShifts)
	nurses.GET("/:id/active-shift", h.GetActiveShift)
	nurses.GET("/:id/patients", h.ListAssignedPatients)

	shifts := api.Group("/shifts", manage)
	shifts.POST("", h.CreateShift)
	shifts.POST("/:id/assignments", h.CreateAssignment)

	me := api.Group("/me", view)
	me.GET("/shift", h.GetMyShift)
	me.GET("/patients", h.ListMyPatients)

	staff := api.Group("/staff", manage)
	staff.GET("", h.ListStaff)
	staff.POST("", h.CreateStaff)
	staff.GET("/:id", h.GetStaff)
}

// ActiveShift is the body of the active-shift endpoints.
type ActiveShift struct {
	Assigned bool        `json:"assigned"`
	Shift    *NurseShift `json:"shift"`
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// currentNurse returns the staff id of an authenticated nurse.
func currentNurse(c echo.Context) (int64, error) {
	if n, ok := auth.RoleFromContext(c.Request().Context()).(auth.Nurse); ok && n.StaffID > 0 {
		return n.StaffID, nil
	}
	return 0, echo.NewHTTPError(http.StatusForbidden, "only nurses have shifts")
}

func (h *Handler) refParam(c echo.Context) (wallclock.Timestamp, error) {
	raw := c.QueryParam("ref")
	if raw == "" {
		return h.resolver.Now(), nil
	}
	ref, err := wallclock.Parse(raw)
	if err != nil {
		return wallclock.Timestamp{}, echo.NewHTTPError(http.StatusBadRequest, "invalid ref: want YYYY-MM-DD HH:MM")
	}
	return ref, nil
}

func (h *Handler) ListShifts(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	from := wallclock.StartOfDay(h.resolver.Now().Time)
	to := from.AddDate(0, 0, 6)
	if v := c.QueryParam("from"); v != "" {
		if from, err = wallclock.ParseDate(v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	if v := c.QueryParam("to"); v != "" {
		if to, err = wallclock.ParseDate(v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	items, err := h.resolver.ListShiftsInWindow(c.Request().Context(), id, from, to)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) activeShift(c echo.Context, nurseID int64) error {
	s, err := h.resolver.ResolveActiveShift(c.Request().Context(), nurseID, h.resolver.Now())
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, ActiveShift{Assigned: s != nil, Shift: s})
}

func (h *Handler) assignedPatients(c echo.Context, nurseID int64) error {
	ref, err := h.refParam(c)
	if err != nil {
		return err
	}
	items, err := h.resolver.ResolveAssignedPatients(c.Request().Context(), nurseID, ref)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetActiveShift(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	return h.activeShift(c, id)
}

func (h *Handler) ListAssignedPatients(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	return h.assignedPatients(c, id)
}

func (h *Handler) GetMyShift(c echo.Context) error {
	id, err := currentNurse(c)
	if err != nil {
		return err
	}
	return h.activeShift(c, id)
}

func (h *Handler) ListMyPatients(c echo.Context) error {
	id, err := currentNurse(c)
	if err != nil {
		return err
	}
	return h.assignedPatients(c, id)
}

func (h *Handler) CreateShift(c echo.Context) error {
	var s NurseShift
	if err := c.Bind(&s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s.ID = 0
	s.CreatedAt = time.Time{}
	if err := h.svc.CreateShift(c.Request().Context(), &s); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *Handler) CreateAssignment(c echo.Context) error {
	shiftID, err := parseID(c)
	if err != nil {
		return err
	}
	var a ShiftAssignment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a.ID = 0
	a.ShiftID = shiftID
	if err := h.svc.AssignPatient(c.Request().Context(), &a); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) ListStaff(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListStaff(c.Request().Context(), c.QueryParam("role"), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) CreateStaff(c echo.Context) error {
	var s Staff
	if err := c.Bind(&s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s.ID = 0
	if err := h.svc.CreateStaff(c.Request().Context(), &s); err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *Handler) GetStaff(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	s, err := h.svc.GetStaff(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTPError(err)
	}
	return c.JSON(http.StatusOK, s)
}
