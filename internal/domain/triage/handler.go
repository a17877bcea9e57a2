package triage

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/auth"
)

// Recorder counts descriptor lookups.
type Recorder interface {
	TriageClassified(level int)
}

type Handler struct {
	rec Recorder
}

func NewHandler() *Handler {
	return &Handler{}
}

// SetRecorder attaches an optional metrics recorder.
func (h *Handler) SetRecorder(r Recorder) {
	h.rec = r
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/triage-levels", auth.RequireCapability(auth.CapViewWard, auth.CapViewOwnChart))
	g.GET("", h.ListLevels)
	g.GET("/:level", h.GetLevel)
}

func (h *Handler) ListLevels(c echo.Context) error {
	return c.JSON(http.StatusOK, Levels())
}

func (h *Handler) GetLevel(c echo.Context) error {
	// A level that is not a number gets the default descriptor, like any
	// other out-of-range level.
	level, err := strconv.Atoi(c.Param("level"))
	if err != nil {
		level = DefaultLevel
	}
	info := Classify(level)
	if h.rec != nil {
		h.rec.TriageClassified(info.Level)
	}
	return c.JSON(http.StatusOK, info)
}
