package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskdesk/task-system/internal/core/domain"
)

// UserHandler serves the role-gated demo endpoints. They only read the
// verified claims.
type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

type ProfileResponse struct {
	Message  string   `json:"message"`
	UserID   string   `json:"userId"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Roles    []string `json:"roles"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// Profile echoes the caller's claims.
//
// @Summary      Current user profile
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ProfileResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /api/user/profile [get]
func (h *UserHandler) Profile(c echo.Context) error {
	claims := actor(c)
	if !claims.Authenticated() {
		return domain.ErrUnauthenticated
	}
	roles := claims.Roles
	if roles == nil {
		roles = []string{}
	}
	return c.JSON(http.StatusOK, ProfileResponse{
		Message:  fmt.Sprintf("Welcome, %s! This is your profile area.", claims.Username),
		UserID:   claims.IdentityID,
		Username: claims.Username,
		Email:    claims.Email,
		Roles:    roles,
	})
}

// UserData is reachable by the User role only.
//
// @Summary      User-only data
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  MessageResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /api/user/user-specific-data [get]
func (h *UserHandler) UserData(c echo.Context) error {
	claims := actor(c)
	if !claims.Authenticated() {
		return domain.ErrUnauthenticated
	}
	return c.JSON(http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Hello %s, this is data specifically for the '%s' role.", claims.Username, domain.RoleUser),
	})
}

// AdminData is reachable by the Admin role only.
//
// @Summary      Admin dashboard data
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  MessageResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /api/dashboard/admin-data [get]
func (h *UserHandler) AdminData(c echo.Context) error {
	claims := actor(c)
	if !claims.Authenticated() {
		return domain.ErrUnauthenticated
	}
	return c.JSON(http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Welcome to the Admin Dashboard, %s! This data is admin-only.", claims.Username),
	})
}
