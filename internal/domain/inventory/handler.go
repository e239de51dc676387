package inventory

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/abctrack/abctrack/internal/platform/apperr"
	"github.com/abctrack/abctrack/internal/platform/auth"
	"github.com/abctrack/abctrack/internal/platform/db"
	"github.com/abctrack/abctrack/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleDriver, auth.RoleCatcher, auth.RoleVetDoctor, auth.RoleCaretaker))
	read.GET("/medicines", h.ListMedicines)
	read.GET("/medicines/usage-report", h.UsageReport)
	read.GET("/medicines/:id/history", h.MedicineHistory)
	read.GET("/food-items", h.ListFoodItems)
	read.GET("/food-items/:id/history", h.FoodHistory)

	write := api.Group("", auth.RequireRole(auth.RoleAdmin))
	write.POST("/medicines", h.CreateMedicine)
	write.PUT("/medicines/:id", h.UpdateMedicine)
	write.POST("/medicines/stock/add", h.RestockMedicine)
	write.POST("/medicines/misc-use", h.MiscUse)
	write.POST("/medicines/adjustments", h.Adjust)
	write.POST("/food-items", h.CreateFoodItem)
	write.POST("/food-items/stock/add", h.RestockFood)
}

func (h *Handler) ListMedicines(c echo.Context) error {
	ctx := c.Request().Context()
	meds, err := h.svc.ListMedicines(ctx, db.ProjectFromContext(ctx))
	if err != nil {
		return err
	}
	if meds == nil {
		meds = []*Medicine{}
	}
	return c.JSON(http.StatusOK, meds)
}

func (h *Handler) CreateMedicine(c echo.Context) error {
	var in CreateMedicineInput
	if err := c.Bind(&in); err != nil {
		return apperr.Input(err.Error())
	}
	ctx := c.Request().Context()
	m, err := h.svc.CreateMedicine(ctx, db.ProjectFromContext(ctx), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) UpdateMedicine(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InputField("id", "invalid medicine id")
	}
	var in CreateMedicineInput
	if err := c.Bind(&in); err != nil {
		return apperr.Input(err.Error())
	}
	ctx := c.Request().Context()
	m, err := h.svc.UpdateMedicine(ctx, db.ProjectFromContext(ctx), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) RestockMedicine(c echo.Context) error {
	var in RestockInput
	if err := c.Bind(&in); err != nil {
		return apperr.Input(err.Error())
	}
	ctx := c.Request().Context()
	entry, err := h.svc.RestockMedicine(ctx, db.ProjectFromContext(ctx), in, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, entry)
}

type miscUseRequest struct {
	MedicineID uuid.UUID `json:"medicine_id"`
	Units      float64   `json:"units"`
	Note       string    `json:"note"`
}

func (h *Handler) MiscUse(c echo.Context) error {
	var req miscUseRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Input(err.Error())
	}
	ctx := c.Request().Context()
	entry, err := h.svc.MiscUse(ctx, db.ProjectFromContext(ctx), req.MedicineID, req.Units, req.Note, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, entry)
}

type adjustRequest struct {
	MedicineID uuid.UUID `json:"medicine_id"`
	Delta      float64   `json:"delta"`
	CaseID     string    `json:"case_id"`
	Note       string    `json:"note"`
}

// Adjust handles POST /medicines/adjustments. Recorded surgery medicines are
// immutable; corrections land here as signed ledger entries referencing the
// case.
func (h *Handler) Adjust(c echo.Context) error {
	var req adjustRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Input(err.Error())
	}
	ctx := c.Request().Context()
	entry, err := h.svc.Adjust(ctx, db.ProjectFromContext(ctx),
		req.MedicineID, req.Delta, req.CaseID, req.Note, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, entry)
}

// UsageReport handles GET /medicines/usage-report?period=month|week|custom.
func (h *Handler) UsageReport(c echo.Context) error {
	p, err := ParsePeriod(c.QueryParam("period"), c.QueryParam("month"),
		c.QueryParam("week"), c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	rows, err := h.svc.UsageReport(ctx, db.ProjectFromContext(ctx), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"from": p.From,
		"to":   p.To,
		"rows": rows,
	})
}

func (h *Handler) MedicineHistory(c echo.Context) error {
	return h.history(c)
}

func (h *Handler) FoodHistory(c echo.Context) error {
	return h.history(c)
}

func (h *Handler) history(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.InputField("id", "invalid item id")
	}
	params := pagination.FromContext(c)
	ctx := c.Request().Context()
	entries, total, err := h.svc.History(ctx, db.ProjectFromContext(ctx), id, params.Limit, params.Offset)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []*LedgerEntry{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, params.Limit, params.Offset))
}

func (h *Handler) ListFoodItems(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.svc.ListFoodItems(ctx, db.ProjectFromContext(ctx))
	if err != nil {
		return err
	}
	if items == nil {
		items = []*FoodItem{}
	}
	return c.JSON(http.StatusOK, items)
}

type createFoodRequest struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

func (h *Handler) CreateFoodItem(c echo.Context) error {
	var req createFoodRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Input(err.Error())
	}
	ctx := c.Request().Context()
	f, err := h.svc.CreateFoodItem(ctx, db.ProjectFromContext(ctx), req.Name, req.Unit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, f)
}

type restockFoodRequest struct {
	FoodItemID uuid.UUID `json:"food_item_id"`
	Units      float64   `json:"units"`
}

func (h *Handler) RestockFood(c echo.Context) error {
	var req restockFoodRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Input(err.Error())
	}
	ctx := c.Request().Context()
	entry, err := h.svc.RestockFood(ctx, db.ProjectFromContext(ctx), req.FoodItemID, req.Units, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, entry)
}
