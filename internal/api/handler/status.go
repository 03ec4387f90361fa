package handler

import (
	"net/http"

	"github.com/taskdesk/task-system/internal/core/domain"
)

var statusByReason = map[domain.Reason]int{
	domain.ReasonSuccess:            http.StatusOK,
	domain.ReasonNotFound:           http.StatusNotFound,
	domain.ReasonForbidden:          http.StatusForbidden,
	domain.ReasonUnauthenticated:    http.StatusUnauthorized,
	domain.ReasonUserNotFound:       http.StatusBadRequest,
	domain.ReasonDuplicateEmail:     http.StatusConflict,
	domain.ReasonDuplicateUsername:  http.StatusConflict,
	domain.ReasonWeakPassword:       http.StatusBadRequest,
	domain.ReasonInvalidCredentials: http.StatusUnauthorized,
	domain.ReasonAccountLocked:      http.StatusLocked,
	domain.ReasonConcurrencyError:   http.StatusConflict,
	domain.ReasonDatabaseError:      http.StatusInternalServerError,
}

// StatusFor maps a reason to its HTTP status. Unknown reasons are 500.
func StatusFor(reason domain.Reason) int {
	if status, ok := statusByReason[reason]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorResponse is the JSON body of every failed non-auth request.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Reason  string   `json:"reason,omitempty"`
	Details []string `json:"details,omitempty"`
}
