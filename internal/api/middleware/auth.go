package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskdesk/task-system/internal/core/domain"
)

// ClaimsKey is the echo context key holding the verified *domain.Claims.
const ClaimsKey = "claims"

var errInvalidToken = domain.NewError(domain.ReasonUnauthenticated, "invalid or expired token")

// TokenValidator verifies a raw bearer token.
type TokenValidator interface {
	Validate(raw string) (*domain.Claims, error)
}

// Auth validates the bearer token and injects the claims into the context.
func Auth(validator TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return domain.ErrUnauthenticated
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return errInvalidToken
			}

			claims, err := validator.Validate(strings.TrimSpace(parts[1]))
			if err != nil || !claims.Authenticated() {
				return errInvalidToken
			}

			c.Set(ClaimsKey, claims)
			return next(c)
		}
	}
}

// ClaimsFrom returns the claims injected by Auth, or nil.
func ClaimsFrom(c echo.Context) *domain.Claims {
	claims, _ := c.Get(ClaimsKey).(*domain.Claims)
	return claims
}
