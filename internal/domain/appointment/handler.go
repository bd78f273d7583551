package appointment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinio/clinio/internal/domain/patient"
	"github.com/clinio/clinio/internal/platform/session"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/patient/:id/appointments", h.List)
	e.POST("/patient/:id/appointments", h.Create)
	e.POST("/appointment/:id/status", h.SetStatus)
}

func (h *Handler) List(c echo.Context) error {
	actor, ok := session.FromContext(c.Request().Context())
	if !ok {
		return c.Redirect(http.StatusFound, "/login")
	}

	appts, err := h.svc.ListForPatient(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"appointments": appts,
		"flash":        session.PopFlash(c),
	})
}

func (h *Handler) Create(c echo.Context) error {
	actor, ok := session.FromContext(c.Request().Context())
	if !ok {
		return c.Redirect(http.StatusFound, "/login")
	}

	id := c.Param("id")
	in := CreateInput{
		DateTime: c.FormValue("date_time"),
		Notes:    c.FormValue("notes"),
	}
	if _, err := h.svc.Create(c.Request().Context(), actor, id, in); err != nil {
		var verr ValidationError
		switch {
		case errors.Is(err, patient.ErrNotFound), errors.Is(err, patient.ErrForbidden):
			return h.renderError(c, err)
		case errors.As(err, &verr):
			session.Flash(c, verr.Error())
			return c.Redirect(http.StatusFound, "/patient/"+id+"/appointments")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "request failed")
		}
	}

	session.Flash(c, "appointment scheduled")
	return c.Redirect(http.StatusFound, "/patient/"+id+"/appointments")
}

func (h *Handler) SetStatus(c echo.Context) error {
	actor, ok := session.FromContext(c.Request().Context())
	if !ok {
		return c.Redirect(http.StatusFound, "/login")
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}

	a, err := h.svc.SetStatus(c.Request().Context(), actor, id, c.FormValue("status"))
	if err != nil {
		switch {
		case errors.Is(err, ErrBadStatus), errors.Is(err, ErrFinal):
			session.Flash(c, err.Error())
			return c.Redirect(http.StatusFound, "/dashboard")
		default:
			return h.renderError(c, err)
		}
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) renderError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, patient.ErrNotFound), errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, patient.ErrForbidden), errors.Is(err, ErrForbidden):
		session.Flash(c, "not authorized to view this patient")
		return c.Redirect(http.StatusFound, "/dashboard")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "request failed")
	}
}
