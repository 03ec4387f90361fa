package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskdesk/task-system/internal/api/handler"
	"github.com/taskdesk/task-system/internal/api/metrics"
	"github.com/taskdesk/task-system/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain reasons to HTTP status codes through handler.StatusFor.
//   - Logs storage and unexpected errors without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>", "reason": "<reason>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, handler.ErrorResponse) {
	// Echo's own errors (router 404/405, oversized bodies, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, handler.ErrorResponse{Error: fmt.Sprintf("%v", he.Message)}
	}

	var ve *handler.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, handler.ErrorResponse{
			Error:   "invalid request",
			Details: ve.Messages,
		}
	}

	reason := domain.ReasonOf(err)
	metrics.ObserveDenial(reason)

	var de *domain.Error
	if reason != domain.ReasonDatabaseError && errors.As(err, &de) {
		return handler.StatusFor(reason), handler.ErrorResponse{
			Error:   de.Message,
			Reason:  reason.String(),
			Details: de.Details,
		}
	}

	// Storage or unexpected error: log the real cause, return a generic message.
	log.Error().
		Str("cause", domain.CauseOf(err)).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, handler.ErrorResponse{
		Error:  "internal server error",
		Reason: domain.ReasonDatabaseError.String(),
	}
}
