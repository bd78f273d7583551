package billing

import (
	"errors"
	"net/http"

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
	e.GET("/patient/:id/invoices", h.List)
	e.POST("/patient/:id/invoices", h.Create)
}

func (h *Handler) List(c echo.Context) error {
	actor, ok := session.FromContext(c.Request().Context())
	if !ok {
		return c.Redirect(http.StatusFound, "/login")
	}

	invoices, err := h.svc.ListForPatient(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"invoices": invoices,
		"flash":    session.PopFlash(c),
	})
}

func (h *Handler) Create(c echo.Context) error {
	actor, ok := session.FromContext(c.Request().Context())
	if !ok {
		return c.Redirect(http.StatusFound, "/login")
	}

	id := c.Param("id")
	if _, err := h.svc.Create(c.Request().Context(), actor, id, c.FormValue("amount")); err != nil {
		var verr ValidationError
		switch {
		case errors.Is(err, patient.ErrNotFound), errors.Is(err, patient.ErrForbidden):
			return h.renderError(c, err)
		case errors.As(err, &verr):
			session.Flash(c, verr.Error())
			return c.Redirect(http.StatusFound, "/patient/"+id+"/invoices")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "request failed")
		}
	}

	session.Flash(c, "invoice recorded")
	return c.Redirect(http.StatusFound, "/patient/"+id+"/invoices")
}

func (h *Handler) renderError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, patient.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, patient.ErrForbidden):
		session.Flash(c, "not authorized to view this patient")
		return c.Redirect(http.StatusFound, "/dashboard")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "request failed")
	}
}
