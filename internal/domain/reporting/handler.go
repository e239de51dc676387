package reporting

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"

	"github.com/abctrack/abctrack/internal/platform/apperr"
	"github.com/abctrack/abctrack/internal/platform/auth"
	"github.com/abctrack/abctrack/internal/platform/db"

	"github.com/abctrack/abctrack/internal/domain/inventory"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleDriver, auth.RoleCatcher, auth.RoleVetDoctor, auth.RoleCaretaker))
	read.GET("/reports/daily-catching", h.DailyCatching)
	read.GET("/reports/monthly-log", h.MonthlyLog)
	read.GET("/reports/medicine-usage", h.MedicineUsage)
	read.GET("/reports/case-paper/:id", h.CasePaper)
	read.GET("/statistics/dashboard", h.Dashboard)
}

// DailyCatching handles GET /reports/daily-catching?date=YYYY-MM-DD.
func (h *Handler) DailyCatching(c echo.Context) error {
	day := time.Now().UTC()
	if v := c.QueryParam("date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return apperr.InputField("date", "must be YYYY-MM-DD")
		}
		day = parsed
	}
	ctx := c.Request().Context()
	list, err := h.svc.DailyCatching(ctx, db.ProjectFromContext(ctx), day)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// MonthlyLog handles GET /reports/monthly-log?month=YYYY-MM[&format=xlsx].
func (h *Handler) MonthlyLog(c echo.Context) error {
	month := c.QueryParam("month")
	if month == "" {
		month = time.Now().UTC().Format("2006-01")
	}
	ctx := c.Request().Context()
	log, err := h.svc.MonthlyLog(ctx, db.ProjectFromContext(ctx), month)
	if err != nil {
		return err
	}
	if c.QueryParam("format") == "xlsx" {
		f, err := MonthlyLogXLSX(log)
		if err != nil {
			return err
		}
		return streamXLSX(c, f, fmt.Sprintf("monthly-log-%s.xlsx", month))
	}
	return c.JSON(http.StatusOK, log)
}

// MedicineUsage handles GET /reports/medicine-usage with the same period
// parameters as the ledger usage report, plus format=xlsx.
func (h *Handler) MedicineUsage(c echo.Context) error {
	p, err := inventory.ParsePeriod(
		c.QueryParam("period"), c.QueryParam("month"), c.QueryParam("week"),
		c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	rows, err := h.svc.MedicineUsage(ctx, db.ProjectFromContext(ctx), p)
	if err != nil {
		return err
	}
	if c.QueryParam("format") == "xlsx" {
		f, err := MedicineUsageXLSX(rows)
		if err != nil {
			return err
		}
		return streamXLSX(c, f, "medicine-usage.xlsx")
	}
	return c.JSON(http.StatusOK, rows)
}

func (h *Handler) CasePaper(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InputField("id", "must be a UUID")
	}
	ctx := c.Request().Context()
	paper, err := h.svc.CasePaper(ctx, db.ProjectFromContext(ctx), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, paper)
}

func (h *Handler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	stats, err := h.svc.Dashboard(ctx, db.ProjectFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func streamXLSX(c echo.Context, f *excelize.File, filename string) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().WriteHeader(http.StatusOK)
	_, err := f.WriteTo(c.Response())
	return err
}
