package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Role names as stored on users and carried in token claims.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleDriver     = "driver"
	RoleCatcher    = "catcher"
	RoleVetDoctor  = "vet_doctor"
	RoleCaretaker  = "caretaker"
)

var knownRoles = map[string]bool{
	RoleSuperAdmin: true,
	RoleAdmin:      true,
	RoleDriver:     true,
	RoleCatcher:    true,
	RoleVetDoctor:  true,
	RoleCaretaker:  true,
}

// KnownRole reports whether r is a recognized role name.
func KnownRole(r string) bool {
	return knownRoles[r]
}

// RequireRole returns middleware that checks if the user holds one of the
// specified roles. A super admin passes every gate; an admin passes every
// project-scoped gate, which is every gate expressed through this helper.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRole := RoleFromContext(c.Request().Context())
			if userRole == RoleSuperAdmin || userRole == RoleAdmin {
				return next(c)
			}
			for _, required := range roles {
				if userRole == required {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}

// RequireSuperAdmin returns middleware guarding global administration
// routes: project management and cross-project user administration.
func RequireSuperAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if RoleFromContext(c.Request().Context()) != RoleSuperAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "required role: super_admin")
			}
			return next(c)
		}
	}
}
