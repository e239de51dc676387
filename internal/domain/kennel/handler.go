package kennel

import (
	"net/http"

	"github.com/labstack/echo/v4"

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
	read := api.Group("", auth.RequireRole(auth.RoleDriver, auth.RoleCatcher, auth.RoleVetDoctor, auth.RoleCaretaker))
	read.GET("/kennels", h.List)
}

// List handles GET /kennels?status=free|occupied|all.
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	projectID := db.ProjectFromContext(ctx)

	kennels, err := h.svc.List(ctx, projectID, c.QueryParam("status"))
	if err != nil {
		return err
	}
	if kennels == nil {
		kennels = []*Kennel{}
	}
	return c.JSON(http.StatusOK, kennels)
}
