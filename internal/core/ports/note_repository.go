package ports

import (
	"context"

	"github.com/taskdesk/task-system/internal/core/domain"
)

// NoteRepository persists notes. Every read and write is scoped by owner; a
// note owned by someone else is reported as domain.ErrNoteNotFound.
type NoteRepository interface {
	Create(ctx context.Context, n *domain.Note) error
	FindForOwner(ctx context.Context, id, ownerID string) (*domain.Note, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Note, error)
	Update(ctx context.Context, n *domain.Note) error
	Delete(ctx context.Context, id, ownerID string) error
}
