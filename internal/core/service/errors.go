package service

import (
	"github.com/rs/zerolog"

	"github.com/taskdesk/task-system/internal/core/domain"
)

// normalize converts repository failures into domain errors. Opaque storage
// failures become domain.ErrDatabase and are logged with their cause.
func normalize(log zerolog.Logger, op string, err error) error {
	if err == nil {
		return nil
	}
	wrapped := domain.Storage(op, err)
	if domain.ReasonOf(wrapped) == domain.ReasonDatabaseError {
		log.Error().Str("op", op).Str("cause", domain.CauseOf(wrapped)).Msg("storage failure")
	}
	return wrapped
}
