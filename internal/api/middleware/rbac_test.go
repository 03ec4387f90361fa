package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/taskdesk/task-system/internal/core/domain"
)

func TestRBAC_Allows(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(ClaimsKey, &domain.Claims{IdentityID: "u1", Roles: []string{domain.RoleAdmin}})

	called := false
	mw := RBAC(domain.RoleUser, domain.RoleAdmin)
	handler := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRBAC_Denies(t *testing.T) {
	cases := []struct {
		name   string
		claims *domain.Claims
		want   error
	}{
		{"no claims", nil, domain.ErrUnauthenticated},
		{"wrong role", &domain.Claims{IdentityID: "u1", Roles: []string{domain.RoleUser}}, domain.ErrForbidden},
		{"no roles", &domain.Claims{IdentityID: "u1"}, domain.ErrForbidden},
	}
	for _, tc := range cases {
		c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		if tc.claims != nil {
			c.Set(ClaimsKey, tc.claims)
		}
		err := RBAC(domain.RoleAdmin)(func(c echo.Context) error {
			t.Fatalf("%s: next must not be called", tc.name)
			return nil
		})(c)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}
