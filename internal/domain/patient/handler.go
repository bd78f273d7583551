package patient

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinio/clinio/internal/platform/session"
	"github.com/clinio/clinio/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/dashboard", h.Dashboard)
	e.GET("/add_patient", h.AddPatientPage)
	e.POST("/add_patient", h.AddPatient)
	e.GET("/patient/:id", h.Detail)
	e.POST("/patient/:id", h.AddSession)
	e.GET("/patient/:id/assessment", h.Assessment)
	e.POST("/patient/:id/assessment", h.SaveAssessment)
}

// Dashboard lists the patients visible to the logged-in doctor, newest first.
func (h *Handler) Dashboard(c echo.Context) error {
	actor, ok := session.FromContext(c.Request().Context())
	if !ok {
		return c.Redirect(http.StatusFound, "/login")
	}

	page := pagination.FromContext(c)
	patients, total, err := h.svc.ListForPrincipal(c.Request().Context(), actor, page.Limit, page.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load patients")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"doctor":   actor.FullName,
		"role":     actor.Role,
		"patients": pagination.NewResponse(patients, total, page.Limit, page.Offset),
		"flash":    session.PopFlash(c),
	})
}

// AddPatientPage describes the intake form. Admins additionally get the
// doctor directory so they can assign the new patient to any account.
func (h *Handler) AddPatientPage(c echo.Context) error {
	actor, ok := session.FromContext(c.Request().Context())
	if !ok {
		return c.Redirect(http.StatusFound, "/login")
	}

	resp := map[string]interface{}{
		"form":   "add_patient",
		"fields": []string{"name", "section", "notes", "doctor_id"},
		"flash":  session.PopFlash(c),
	}
	if actor.IsAdmin() {
		doctors, total, err := h.svc.Doctors(c.Request().Context(), pagination.MaxLimit, 0)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to load doctors")
		}
		resp["doctors"] = pagination.NewResponse(doctors, total, pagination.MaxLimit, 0)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) AddPatient(c echo.Context) error {
	actor, ok := session.FromContext(c.Request().Context())
	if !ok {
		return c.Redirect(http.StatusFound, "/login")
	}

	in := CreateInput{
		Name:     c.FormValue("name"),
		Section:  c.FormValue("section"),
		Notes:    c.FormValue("notes"),
		DoctorID: c.FormValue("doctor_id"),
	}
	if _, err := h.svc.Create(c.Request().Context(), actor, in); err != nil {
		var verr ValidationError
		if errors.As(err, &verr) {
			session.Flash(c, verr.Error())
			return c.Redirect(http.StatusFound, "/add_patient")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to add patient")
	}

	session.Flash(c, "patient added")
	return c.Redirect(http.StatusFound, "/dashboard")
}

func (h *Handler) Detail(c echo.Context) error {
	actor, ok := session.FromContext(c.Request().Context())
	if !ok {
		return c.Redirect(http.StatusFound, "/login")
	}

	detail, err := h.svc.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return h.renderError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"patient":    detail.Patient,
		"sessions":   detail.Sessions,
		"assessment": detail.Assessment,
		"flash":      session.PopFlash(c),
	})
}

func (h *Handler) AddSession(c echo.Context) error {
	actor, ok := session.FromContext(c.Request().Context())
	if !ok {
		return c.Redirect(http.StatusFound, "/login")
	}

	id := c.Param("id")
	in := SessionInput{
		Date:        c.FormValue("date"),
		Weight:      c.FormValue("weight"),
		WaistBefore: c.FormValue("waist_before"),
		WaistAfter:  c.FormValue("waist_after"),
		BellyBefore: c.FormValue("belly_before"),
		BellyAfter:  c.FormValue("belly_after"),
		Hip:         c.FormValue("hip"),
		Arms:        c.FormValue("arms"),
		Thighs:      c.FormValue("thighs"),
		Notes:       c.FormValue("notes"),
	}

	if _, err := h.svc.AddSession(c.Request().Context(), actor, id, in); err != nil {
		var verr ValidationError
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden):
			return h.renderError(c, err)
		case errors.Is(err, ErrBadDate):
			session.Flash(c, err.Error())
			return c.Redirect(http.StatusFound, "/patient/"+id)
		case errors.As(err, &verr):
			// validation failures return to the form on the detail page
			session.Flash(c, verr.Error())
			return c.Redirect(http.StatusFound, "/patient/"+id)
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "request failed")
		}
	}

	session.Flash(c, "session recorded")
	return c.Redirect(http.StatusFound, "/patient/"+id)
}

func (h *Handler) Assessment(c echo.Context) error {
	actor, ok := session.FromContext(c.Request().Context())
	if !ok {
		return c.Redirect(http.StatusFound, "/login")
	}

	a, err := h.svc.GetAssessment(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return h.renderError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"assessment": a,
		"fields": []string{"medical_history", "dietary_habits",
			"activity_level", "goal", "pregnancy"},
		"flash": session.PopFlash(c),
	})
}

func (h *Handler) SaveAssessment(c echo.Context) error {
	actor, ok := session.FromContext(c.Request().Context())
	if !ok {
		return c.Redirect(http.StatusFound, "/login")
	}

	id := c.Param("id")
	in := AssessmentInput{
		MedicalHistory: c.FormValue("medical_history"),
		DietaryHabits:  c.FormValue("dietary_habits"),
		ActivityLevel:  c.FormValue("activity_level"),
		Goal:           c.FormValue("goal"),
		Pregnancy:      c.FormValue("pregnancy"),
	}
	if _, err := h.svc.SaveAssessment(c.Request().Context(), actor, id, in); err != nil {
		return h.renderError(c, err)
	}

	session.Flash(c, "assessment saved")
	return c.Redirect(http.StatusFound, "/patient/"+id)
}

// renderError maps domain errors to the redirect taxonomy: unknown patients
// are a plain 404, ownership violations bounce to the dashboard with a
// notice and no record data.
func (h *Handler) renderError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	case errors.Is(err, ErrForbidden):
		session.Flash(c, "not authorized to view this patient")
		return c.Redirect(http.StatusFound, "/dashboard")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "request failed")
	}
}
