package db

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const ProjectIDKey contextKey = "project_id"

var projectIDPattern = regexp.MustCompile(`^[0-9a-fA-F-]{36}$`)

// ProjectMiddleware resolves the project a request operates on and stores its
// id in the request context. Regular users are bound to the project in their
// token; a super admin selects one per request via the X-Project-ID header or
// the project_id query parameter.
func ProjectMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			projectID := extractProjectID(c)

			if projectID != "" && !projectIDPattern.MatchString(projectID) {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid project identifier")
			}

			ctx := context.WithValue(c.Request().Context(), ProjectIDKey, projectID)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("project_id", projectID)

			return next(c)
		}
	}
}

func extractProjectID(c echo.Context) string {
	// 1. Check JWT claim (set by auth middleware)
	if pid, ok := c.Get("jwt_project_id").(string); ok && pid != "" {
		return pid
	}

	// 2. Check X-Project-ID header (super admin project selection)
	if pid := c.Request().Header.Get("X-Project-ID"); pid != "" {
		return pid
	}

	// 3. Check query parameter
	if pid := c.QueryParam("project_id"); pid != "" {
		return pid
	}

	return ""
}

// ProjectFromContext retrieves the request's project id from context. The nil
// UUID means no project is selected (super admin without a selection).
func ProjectFromContext(ctx context.Context) uuid.UUID {
	pid, _ := ctx.Value(ProjectIDKey).(string)
	if pid == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(pid)
	if err != nil {
		return uuid.Nil
	}
	return id
}
