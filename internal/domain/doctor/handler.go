package doctor

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinio/clinio/internal/platform/session"
	"github.com/clinio/clinio/pkg/pagination"
)

type Handler struct {
	svc      *Service
	sessions *session.Manager
}

func NewHandler(svc *Service, sessions *session.Manager) *Handler {
	return &Handler{svc: svc, sessions: sessions}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.LoginPage)
	e.GET("/login", h.LoginPage)
	e.POST("/", h.Login)
	e.POST("/login", h.Login)
	e.GET("/logout", h.Logout)

	admin := e.Group("", session.RequireRole(session.RoleAdmin))
	admin.GET("/add_doctor", h.AddDoctorPage)
	admin.POST("/add_doctor", h.AddDoctor)
}

// LoginPage is the unauthenticated entry point. A valid session skips the
// form and lands on the dashboard directly.
func (h *Handler) LoginPage(c echo.Context) error {
	if _, ok := session.FromContext(c.Request().Context()); ok {
		return c.Redirect(http.StatusFound, "/dashboard")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"form":   "login",
		"fields": []string{"username", "password"},
		"flash":  session.PopFlash(c),
	})
}

func (h *Handler) Login(c echo.Context) error {
	username := c.FormValue("username")
	password := c.FormValue("password")

	d, err := h.svc.Authenticate(c.Request().Context(), username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			session.Flash(c, "invalid credentials")
			return c.Redirect(http.StatusFound, "/login")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}

	p := session.Principal{
		ID:       d.ID,
		Username: d.Username,
		Role:     d.Role,
		FullName: d.FullName,
	}
	if err := h.sessions.Issue(c, p); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}
	return c.Redirect(http.StatusFound, "/dashboard")
}

func (h *Handler) Logout(c echo.Context) error {
	h.sessions.Clear(c)
	return c.Redirect(http.StatusFound, "/login")
}

// AddDoctorPage describes the provisioning form and includes the existing
// accounts so an admin can check taken usernames and look up doctor ids for
// patient assignment.
func (h *Handler) AddDoctorPage(c echo.Context) error {
	doctors, total, err := h.svc.List(c.Request().Context(), pagination.MaxLimit, 0)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load doctors")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"form":    "add_doctor",
		"fields":  []string{"username", "password", "full_name", "specialty", "role"},
		"doctors": pagination.NewResponse(doctors, total, pagination.MaxLimit, 0),
		"flash":   session.PopFlash(c),
	})
}

func (h *Handler) AddDoctor(c echo.Context) error {
	in := CreateInput{
		Username:  c.FormValue("username"),
		Password:  c.FormValue("password"),
		FullName:  c.FormValue("full_name"),
		Specialty: c.FormValue("specialty"),
		Role:      c.FormValue("role"),
	}

	if _, err := h.svc.Create(c.Request().Context(), in); err != nil {
		var verr ValidationError
		switch {
		case errors.Is(err, ErrUsernameTaken):
			session.Flash(c, "username already taken")
			return c.Redirect(http.StatusFound, "/add_doctor")
		case errors.As(err, &verr):
			session.Flash(c, verr.Error())
			return c.Redirect(http.StatusFound, "/add_doctor")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to add doctor")
		}
	}

	session.Flash(c, "doctor added")
	return c.Redirect(http.StatusFound, "/dashboard")
}
