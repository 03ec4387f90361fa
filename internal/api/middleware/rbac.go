package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/taskdesk/task-system/internal/core/authz"
)

// RBAC admits callers holding any of allowedRoles. It must run after Auth.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	requirement := authz.RequireAnyRole(allowedRoles...)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := authz.Check(ClaimsFrom(c), requirement); err != nil {
				return err
			}
			return next(c)
		}
	}
}
