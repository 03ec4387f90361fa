package ports

import (
	"context"
	"time"

	"github.com/taskdesk/task-system/internal/core/domain"
)

// NoteInput carries the editable fields of a note.
type NoteInput struct {
	Title       string
	Description string
}

// NoteView is the outward shape of a note.
type NoteView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NoteService manages the caller's own notes.
type NoteService interface {
	List(ctx context.Context, actor *domain.Claims) ([]NoteView, error)
	Get(ctx context.Context, actor *domain.Claims, id string) (*NoteView, error)
	Create(ctx context.Context, actor *domain.Claims, in NoteInput) (*NoteView, error)
	Update(ctx context.Context, actor *domain.Claims, id string, in NoteInput) error
	Delete(ctx context.Context, actor *domain.Claims, id string) error
}
