package cases

import (
	"net/http"
	"strconv"
	"time"

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
	all := api.Group("", auth.RequireRole(auth.RoleDriver, auth.RoleCatcher, auth.RoleVetDoctor, auth.RoleCaretaker))
	all.GET("/cases", h.List)
	all.GET("/cases/:id", h.Get)
	all.GET("/medicines/calculate-dosage", h.CalculateDosage)
	all.GET("/medicines/treatment-dosage", h.TreatmentDosage)

	driver := api.Group("", auth.RequireRole(auth.RoleDriver))
	driver.POST("/cases/catching", h.Catch)
	driver.PUT("/cases/:id/catching", h.EditCatching)

	catcher := api.Group("", auth.RequireRole(auth.RoleCatcher))
	catcher.POST("/cases/:id/initial-observation", h.Observe)
	catcher.PUT("/cases/:id/initial-observation", h.EditObservation)
	catcher.POST("/cases/:id/release", h.Release)
	catcher.PUT("/cases/:id/release", h.EditRelease)

	vet := api.Group("", auth.RequireRole(auth.RoleVetDoctor))
	vet.POST("/cases/:id/surgery", h.Surgery)
	vet.PUT("/cases/:id/surgery", h.EditSurgery)

	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.POST("/cases/:id/treatment", h.Treatment)
	admin.POST("/cases/:id/deceased", h.Deceased)
}

func caseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.InputField("id", "must be a UUID")
	}
	return id, nil
}

func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	p := pagination.FromContext(c)

	f := ListFilter{
		State:          c.QueryParam("status"),
		NumberContains: c.QueryParam("search"),
	}
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return apperr.InputField("from", "must be YYYY-MM-DD")
		}
		f.From = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return apperr.InputField("to", "must be YYYY-MM-DD")
		}
		t = t.AddDate(0, 0, 1) // inclusive end date
		f.To = &t
	}

	list, total, err := h.svc.List(ctx, db.ProjectFromContext(ctx), f, p.Limit, p.Offset)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*Case{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(list, total, p.Limit, p.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	projectID := db.ProjectFromContext(ctx)

	// Lookups by case number share the path with UUID lookups.
	if ValidCaseNumber(c.Param("id")) {
		out, err := h.svc.GetByNumber(ctx, projectID, c.Param("id"))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, out)
	}
	id, err := caseID(c)
	if err != nil {
		return err
	}
	out, err := h.svc.Get(ctx, projectID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Catch(c echo.Context) error {
	var in CatchingInput
	if err := c.Bind(&in); err != nil {
		return apperr.Input(err.Error())
	}
	ctx := c.Request().Context()
	out, err := h.svc.Catch(ctx, db.ProjectFromContext(ctx), in, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *Handler) Observe(c echo.Context) error {
	id, err := caseID(c)
	if err != nil {
		return err
	}
	var in ObservationInput
	if err := c.Bind(&in); err != nil {
		return apperr.Input(err.Error())
	}
	ctx := c.Request().Context()
	out, err := h.svc.RecordObservation(ctx, db.ProjectFromContext(ctx), id, in, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Surgery(c echo.Context) error {
	id, err := caseID(c)
	if err != nil {
		return err
	}
	var in SurgeryInput
	if err := c.Bind(&in); err != nil {
		return apperr.Input(err.Error())
	}
	ctx := c.Request().Context()
	out, err := h.svc.RecordSurgery(ctx, db.ProjectFromContext(ctx), id, in, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Treatment(c echo.Context) error {
	id, err := caseID(c)
	if err != nil {
		return err
	}
	var in TreatmentInput
	if err := c.Bind(&in); err != nil {
		return apperr.Input(err.Error())
	}
	ctx := c.Request().Context()
	out, err := h.svc.RecordTreatment(ctx, db.ProjectFromContext(ctx), id, in, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Release(c echo.Context) error {
	id, err := caseID(c)
	if err != nil {
		return err
	}
	var in ReleaseInput
	if err := c.Bind(&in); err != nil {
		return apperr.Input(err.Error())
	}
	ctx := c.Request().Context()
	out, err := h.svc.RecordRelease(ctx, db.ProjectFromContext(ctx), id, in, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) Deceased(c echo.Context) error {
	id, err := caseID(c)
	if err != nil {
		return err
	}
	var in DeceasedInput
	if err := c.Bind(&in); err != nil {
		return apperr.Input(err.Error())
	}
	ctx := c.Request().Context()
	out, err := h.svc.MarkDeceased(ctx, db.ProjectFromContext(ctx), id, in, auth.UserIDFromContext(ctx))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) EditCatching(c echo.Context) error {
	id, err := caseID(c)
	if err != nil {
		return err
	}
	var in CatchingInput
	if err := c.Bind(&in); err != nil {
		return apperr.Input(err.Error())
	}
	ctx := c.Request().Context()
	out, err := h.svc.EditCatching(ctx, db.ProjectFromContext(ctx), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) EditObservation(c echo.Context) error {
	id, err := caseID(c)
	if err != nil {
		return err
	}
	var in ObservationInput
	if err := c.Bind(&in); err != nil {
		return apperr.Input(err.Error())
	}
	ctx := c.Request().Context()
	out, err := h.svc.EditObservation(ctx, db.ProjectFromContext(ctx), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) EditSurgery(c echo.Context) error {
	id, err := caseID(c)
	if err != nil {
		return err
	}
	var in SurgeryInput
	if err := c.Bind(&in); err != nil {
		return apperr.Input(err.Error())
	}
	ctx := c.Request().Context()
	out, err := h.svc.EditSurgery(ctx, db.ProjectFromContext(ctx), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) EditRelease(c echo.Context) error {
	id, err := caseID(c)
	if err != nil {
		return err
	}
	var in ReleaseInput
	if err := c.Bind(&in); err != nil {
		return apperr.Input(err.Error())
	}
	ctx := c.Request().Context()
	out, err := h.svc.EditRelease(ctx, db.ProjectFromContext(ctx), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// CalculateDosage handles GET /medicines/calculate-dosage?weight=&gender=.
func (h *Handler) CalculateDosage(c echo.Context) error {
	weight, err := strconv.ParseFloat(c.QueryParam("weight"), 64)
	if err != nil || weight <= 0 {
		return apperr.InputField("weight", "must be a positive number")
	}
	gender := c.QueryParam("gender")
	if !validGenders[gender] {
		return apperr.InputField("gender", "must be Male or Female")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"weight":    weight,
		"gender":    gender,
		"medicines": SurgeryDosage(weight, gender),
	})
}

// TreatmentDosage handles GET /medicines/treatment-dosage?weight=.
func (h *Handler) TreatmentDosage(c echo.Context) error {
	weight, err := strconv.ParseFloat(c.QueryParam("weight"), 64)
	if err != nil || weight <= 0 {
		return apperr.InputField("weight", "must be a positive number")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"weight":    weight,
		"medicines": TreatmentDosage(weight),
	})
}
