package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/taskdesk/task-system/internal/core/domain"
	"github.com/taskdesk/task-system/internal/core/token"
)

func newIssuer(t *testing.T) *token.Issuer {
	t.Helper()
	issuer, err := token.NewIssuer(token.Config{Secret: "secret", Issuer: "task-system", Audience: "task-system-web"})
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	return issuer
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	issuer := newIssuer(t)
	signed, err := issuer.Issue(&domain.Identity{ID: "u1", Username: "alice", Email: "alice@example.com"}, []string{domain.RoleAdmin})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+signed)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(issuer)(func(c echo.Context) error {
		called = true
		claims := ClaimsFrom(c)
		if claims == nil || claims.IdentityID != "u1" || claims.Username != "alice" {
			t.Fatalf("claims not set: %+v", claims)
		}
		if !claims.HasRole(domain.RoleAdmin) {
			t.Fatalf("roles not set: %v", claims.Roles)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	issuer := newIssuer(t)
	foreign, err := token.NewIssuer(token.Config{Secret: "other", Issuer: "task-system", Audience: "task-system-web"})
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	forged, _ := foreign.Issue(&domain.Identity{ID: "u1"}, []string{domain.RoleAdmin})

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz"},
		{"empty bearer", "Bearer "},
		{"garbage", "Bearer not-a-token"},
		{"wrong secret", "Bearer " + forged},
	}
	for _, tc := range cases {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set(echo.HeaderAuthorization, tc.header)
		}
		c := e.NewContext(req, httptest.NewRecorder())

		err := Auth(issuer)(func(c echo.Context) error {
			t.Fatalf("%s: next must not be called", tc.name)
			return nil
		})(c)
		if domain.ReasonOf(err) != domain.ReasonUnauthenticated {
			t.Fatalf("%s: expected Unauthenticated, got %v", tc.name, err)
		}
	}
}

func TestClaimsFrom_Missing(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if ClaimsFrom(c) != nil {
		t.Fatal("expected nil claims")
	}
	c.Set(ClaimsKey, "not claims")
	if ClaimsFrom(c) != nil {
		t.Fatal("expected nil claims for wrong type")
	}
	if !errors.Is(Auth(newIssuer(t))(nil)(c), domain.ErrUnauthenticated) {
		t.Fatal("expected ErrUnauthenticated without header")
	}
}
