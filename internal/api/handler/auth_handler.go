package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskdesk/task-system/internal/api/metrics"
	"github.com/taskdesk/task-system/internal/core/domain"
	"github.com/taskdesk/task-system/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	log         zerolog.Logger
}

func NewAuthHandler(authService ports.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

// Register creates a new account with the User role and returns a token.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      200   {object}  ports.AuthResult
// @Failure      400   {object}  ports.AuthResult
// @Failure      409   {object}  ports.AuthResult
// @Failure      500   {object}  ports.AuthResult
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return h.reject(c, err)
	}

	res, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	metrics.ObserveAuth("register", err)
	if err != nil {
		h.log.Warn().Str("email", req.Email).Str("reason", domain.ReasonOf(err).String()).Msg("registration failed")
		return h.reject(c, err)
	}

	if !res.OK() {
		h.log.Error().Msg("auth service returned an incomplete success envelope")
		return h.reject(c, domain.ErrDatabase)
	}

	h.log.Info().Str("username", res.Username).Msg("user registered")
	return c.JSON(http.StatusOK, res)
}

// Login authenticates by username or email and returns a token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  ports.AuthResult
// @Failure      400   {object}  ports.AuthResult
// @Failure      401   {object}  ports.AuthResult
// @Failure      423   {object}  ports.AuthResult
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return h.reject(c, err)
	}

	res, err := h.authService.Login(c.Request().Context(), ports.LoginInput{
		UsernameOrEmail: req.UsernameOrEmail,
		Password:        req.Password,
	})
	metrics.ObserveAuth("login", err)
	if err != nil {
		h.log.Warn().Str("login", req.UsernameOrEmail).Str("reason", domain.ReasonOf(err).String()).Msg("login failed")
		return h.reject(c, err)
	}

	if !res.OK() {
		h.log.Error().Msg("auth service returned an incomplete success envelope")
		return h.reject(c, domain.ErrDatabase)
	}

	h.log.Info().Str("username", res.Username).Msg("user logged in")
	return c.JSON(http.StatusOK, res)
}

// reject renders a failed envelope. Validation failures are 400; domain
// failures use StatusFor.
func (h *AuthHandler) reject(c echo.Context, err error) error {
	res := ports.AuthResult{IsSuccess: false}

	var ve *ValidationError
	var de *domain.Error
	switch {
	case errors.As(err, &ve):
		res.Message = "Invalid request."
		res.Errors = ve.Messages
		return c.JSON(http.StatusBadRequest, res)
	case errors.As(err, &de) && domain.ReasonOf(err) != domain.ReasonDatabaseError:
		res.Message = de.Message
		res.Errors = de.Details
	default:
		res.Message = domain.ErrDatabase.Message
	}
	return c.JSON(StatusFor(domain.ReasonOf(err)), res)
}
