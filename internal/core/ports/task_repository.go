package ports

import (
	"context"

	"github.com/taskdesk/task-system/internal/core/domain"
)

// ListTasksFilter narrows List. An empty AssignedTo lists every task.
type ListTasksFilter struct {
	AssignedTo string
}

// TaskRepository persists tasks and their comments.
type TaskRepository interface {
	// Create stores t. t.Version must already be set to 1.
	Create(ctx context.Context, t *domain.Task) error
	FindByID(ctx context.Context, id string) (*domain.Task, error)
	// List returns matching tasks, newest first.
	List(ctx context.Context, filter ListTasksFilter) ([]*domain.Task, error)
	// Update writes t only if the stored version still equals
	// expectedVersion, storing t.Version (expectedVersion+1) on success.
	// A version mismatch is domain.ErrConcurrency; a missing row is
	// domain.ErrTaskNotFound.
	Update(ctx context.Context, t *domain.Task, expectedVersion int64) error
	// Delete removes the task and all of its comments.
	Delete(ctx context.Context, id string) error

	AddComment(ctx context.Context, c *domain.Comment) error
	// ListComments returns comments for the given tasks, oldest first.
	ListComments(ctx context.Context, taskIDs ...string) ([]*domain.Comment, error)
}
