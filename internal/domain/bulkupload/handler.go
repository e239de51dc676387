package bulkupload

import (
	"fmt"
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
	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/bulk-upload/template/:kind", h.Template)
	admin.POST("/bulk-upload/:kind", h.Upload)
}

func (h *Handler) Template(c echo.Context) error {
	kind := c.Param("kind")
	f, err := Template(kind)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, kind+"-template.xlsx"))
	c.Response().Header().Set(echo.HeaderContentType,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().WriteHeader(http.StatusOK)
	_, err = f.WriteTo(c.Response())
	return err
}

func (h *Handler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return apperr.InputField("file", "multipart file is required")
	}
	src, err := fh.Open()
	if err != nil {
		return apperr.Input("could not open uploaded file")
	}
	defer src.Close()

	ctx := c.Request().Context()
	result, err := h.svc.Process(ctx, db.ProjectFromContext(ctx), c.Param("kind"), src, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
