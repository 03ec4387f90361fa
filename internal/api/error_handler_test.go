package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskdesk/task-system/internal/api/handler"
	"github.com/taskdesk/task-system/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
		wantError  string
	}{
		{"not found", domain.ErrTaskNotFound, http.StatusNotFound, "NotFound", "task not found"},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, "Forbidden", "access forbidden"},
		{"unauthenticated", domain.ErrUnauthenticated, http.StatusUnauthorized, "Unauthenticated", "authentication required"},
		{"unknown assignee", domain.ErrUserNotFound, http.StatusBadRequest, "UserNotFound", "user not found"},
		{"concurrency", domain.ErrConcurrency, http.StatusConflict, "ConcurrencyError", domain.ErrConcurrency.Message},
		{"storage", domain.Storage("tasks.update", errors.New("disk I/O error")), http.StatusInternalServerError, "DatabaseError", "internal server error"},
		{"foreign", errors.New("boom"), http.StatusInternalServerError, "DatabaseError", "internal server error"},
		{"echo", echo.NewHTTPError(http.StatusMethodNotAllowed, "method not allowed"), http.StatusMethodNotAllowed, "", "method not allowed"},
		{"validation", &handler.ValidationError{Messages: []string{"title is required"}}, http.StatusBadRequest, "", "invalid request"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/tasks/t1", nil), rec)

			NewHTTPErrorHandler(zerolog.Nop())(tc.err, c)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rec.Code)
			}
			var body handler.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body.Reason != tc.wantReason || body.Error != tc.wantError {
				t.Fatalf("unexpected body: %+v", body)
			}
			if strings.Contains(rec.Body.String(), "disk") || strings.Contains(rec.Body.String(), "boom") {
				t.Fatalf("internal detail leaked: %s", rec.Body.String())
			}
		})
	}
}

func TestHTTPErrorHandler_Details(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/tasks", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(&handler.ValidationError{Messages: []string{"title is required", "urgency is required"}}, c)

	var body handler.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(body.Details) != 2 {
		t.Fatalf("expected two details, got %+v", body)
	}
}

func TestHTTPErrorHandler_CommittedResponse(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = c.NoContent(http.StatusNoContent)

	NewHTTPErrorHandler(zerolog.Nop())(domain.ErrForbidden, c)

	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Fatalf("committed response was rewritten: %d %q", rec.Code, rec.Body.String())
	}
}
