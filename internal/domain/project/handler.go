package project

import (
	"net/http"

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

func (h *Handler) RegisterRoutes(api *echo.Group) {
	global := api.Group("", auth.RequireSuperAdmin())
	global.POST("/projects", h.Create)
	global.GET("/projects", h.List)

	scoped := api.Group("", auth.RequireRole(auth.RoleAdmin))
	scoped.GET("/config", h.GetConfig)
	scoped.PUT("/config", h.UpdateConfig)
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return apperr.Input(err.Error())
	}
	out, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *Handler) List(c echo.Context) error {
	projects, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	if projects == nil {
		projects = []*Project{}
	}
	return c.JSON(http.StatusOK, projects)
}

// GetConfig returns the calling user's project settings.
func (h *Handler) GetConfig(c echo.Context) error {
	ctx := c.Request().Context()
	p, err := h.svc.Get(ctx, db.ProjectFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateConfig(c echo.Context) error {
	var in UpdateInput
	if err := c.Bind(&in); err != nil {
		return apperr.Input(err.Error())
	}
	ctx := c.Request().Context()
	p, err := h.svc.Update(ctx, db.ProjectFromContext(ctx), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
