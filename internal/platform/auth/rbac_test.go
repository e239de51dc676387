package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func contextWithRole(e *echo.Echo, role string) echo.Context {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	ctx := context.WithValue(c.Request().Context(), UserRoleKey, role)
	c.SetRequest(c.Request().WithContext(ctx))
	return c
}

func TestRequireRole(t *testing.T) {
	e := echo.New()

	tests := []struct {
		name     string
		userRole string
		required []string
		allowed  bool
	}{
		{"exact match", RoleDriver, []string{RoleDriver}, true},
		{"one of several", RoleCatcher, []string{RoleDriver, RoleCatcher}, true},
		{"wrong role", RoleCaretaker, []string{RoleVetDoctor}, false},
		{"admin passes any gate", RoleAdmin, []string{RoleDriver}, true},
		{"super admin passes any gate", RoleSuperAdmin, []string{RoleCaretaker}, true},
		{"no role", "", []string{RoleDriver}, false},
		{"unknown role", "janitor", []string{RoleDriver}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := contextWithRole(e, tt.userRole)
			called := false
			h := RequireRole(tt.required...)(func(c echo.Context) error {
				called = true
				return c.NoContent(http.StatusOK)
			})

			err := h(c)
			if tt.allowed {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !called {
					t.Error("expected handler to run")
				}
				return
			}

			httpErr, ok := err.(*echo.HTTPError)
			if !ok {
				t.Fatalf("expected echo.HTTPError, got %v", err)
			}
			if httpErr.Code != http.StatusForbidden {
				t.Errorf("expected 403, got %d", httpErr.Code)
			}
		})
	}
}

func TestRequireSuperAdmin(t *testing.T) {
	e := echo.New()

	h := RequireSuperAdmin()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	if err := h(contextWithRole(e, RoleSuperAdmin)); err != nil {
		t.Fatalf("unexpected error for super admin: %v", err)
	}

	err := h(contextWithRole(e, RoleAdmin))
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError for admin, got %v", err)
	}
	if httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403 for admin, got %d", httpErr.Code)
	}
}

func TestKnownRole(t *testing.T) {
	for _, r := range []string{RoleSuperAdmin, RoleAdmin, RoleDriver, RoleCatcher, RoleVetDoctor, RoleCaretaker} {
		if !KnownRole(r) {
			t.Errorf("expected %s to be known", r)
		}
	}
	for _, r := range []string{"", "root", "Admin", "vet doctor"} {
		if KnownRole(r) {
			t.Errorf("expected %s to be unknown", r)
		}
	}
}
