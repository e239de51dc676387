package feeding

import (
	"net/http"
	"time"

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
	care := api.Group("", auth.RequireRole(auth.RoleCaretaker))
	care.POST("/daily-feeding", h.Record)

	read := api.Group("", auth.RequireRole(auth.RoleDriver, auth.RoleCatcher, auth.RoleVetDoctor, auth.RoleCaretaker))
	read.GET("/daily-feeding", h.ListByDate)
}

func (h *Handler) Record(c echo.Context) error {
	var in Input
	if err := c.Bind(&in); err != nil {
		return apperr.Input(err.Error())
	}
	ctx := c.Request().Context()
	rec, err := h.svc.Record(ctx, db.ProjectFromContext(ctx), in, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, rec)
}

// ListByDate handles GET /daily-feeding?date=YYYY-MM-DD (default today).
func (h *Handler) ListByDate(c echo.Context) error {
	day := time.Now().UTC()
	if v := c.QueryParam("date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return apperr.InputField("date", "must be YYYY-MM-DD")
		}
		day = parsed
	}
	ctx := c.Request().Context()
	records, err := h.svc.ListByDate(ctx, db.ProjectFromContext(ctx), day)
	if err != nil {
		return err
	}
	if records == nil {
		records = []*Record{}
	}
	return c.JSON(http.StatusOK, records)
}
