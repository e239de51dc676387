package user

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/abctrack/abctrack/internal/platform/apperr"
	"github.com/abctrack/abctrack/internal/platform/auth"
	"github.com/abctrack/abctrack/internal/platform/db"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterPublicRoutes mounts the unauthenticated surface.
func (h *Handler) RegisterPublicRoutes(api *echo.Group) {
	api.POST("/auth/login", h.Login)
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/auth/me", h.Me)

	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.POST("/users", h.Create)
	admin.GET("/users", h.List)
	admin.PATCH("/users/:id/active", h.SetActive)
}

func (h *Handler) Login(c echo.Context) error {
	var in LoginInput
	if err := c.Bind(&in); err != nil {
		return apperr.Input(err.Error())
	}
	out, err := h.svc.Login(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return apperr.Auth("missing user identity")
	}
	u, err := h.svc.Get(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return apperr.Input(err.Error())
	}
	ctx := c.Request().Context()
	out, err := h.svc.Create(ctx, db.ProjectFromContext(ctx), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	users, err := h.svc.ListByProject(ctx, db.ProjectFromContext(ctx))
	if err != nil {
		return err
	}
	if users == nil {
		users = []*User{}
	}
	return c.JSON(http.StatusOK, users)
}

func (h *Handler) SetActive(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InputField("id", "must be a UUID")
	}
	var in struct {
		Active *bool `json:"active"`
	}
	if err := c.Bind(&in); err != nil {
		return apperr.Input(err.Error())
	}
	if in.Active == nil {
		return apperr.InputField("active", "is required")
	}
	ctx := c.Request().Context()
	u, err := h.svc.SetActive(ctx, db.ProjectFromContext(ctx), id, *in.Active)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}
