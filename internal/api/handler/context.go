package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/taskdesk/task-system/internal/api/middleware"
	"github.com/taskdesk/task-system/internal/core/domain"
)

// actor returns the claims injected by the Auth middleware. Services treat
// nil as unauthenticated.
func actor(c echo.Context) *domain.Claims {
	return middleware.ClaimsFrom(c)
}

// bind decodes and validates the request body into req.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return &ValidationError{Messages: []string{"invalid payload"}}
	}
	return c.Validate(req)
}
