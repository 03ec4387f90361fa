package ports

import (
	"context"
	"time"

	"github.com/taskdesk/task-system/internal/core/domain"
)

// CreateTaskInput carries the fields of a new task. A zero DueDate means now.
type CreateTaskInput struct {
	Title       string
	Description string
	Urgency     domain.Urgency
	DueDate     time.Time
	AssignedTo  string
}

// UpdateTaskInput replaces every editable field of a task. ExpectedVersion,
// when non-zero, must equal the stored version.
type UpdateTaskInput struct {
	Title           string
	Description     string
	Urgency         domain.Urgency
	Status          domain.TaskStatus
	DueDate         time.Time
	AssignedTo      string
	ExpectedVersion int64
}

// UpdateStatusInput changes only the status of a task.
type UpdateStatusInput struct {
	Status          domain.TaskStatus
	ExpectedVersion int64
}

// CommentView is a comment joined with its author's username.
type CommentView struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"createdAt"`
	AuthorID       string    `json:"authorId"`
	AuthorUserName string    `json:"authorUserName"`
	TaskID         string    `json:"taskId"`
}

// TaskView is a task joined with its assignee and comments.
type TaskView struct {
	ID                  string        `json:"id"`
	Title               string        `json:"title"`
	Description         string        `json:"description,omitempty"`
	Urgency             string        `json:"urgency"`
	Status              string        `json:"status"`
	DueDate             time.Time     `json:"dueDate"`
	CreatedAt           time.Time     `json:"createdAt"`
	UpdatedAt           time.Time     `json:"updatedAt"`
	Version             int64         `json:"version"`
	AssignedToUserID    string        `json:"assignedToUserId"`
	AssignedToUserName  string        `json:"assignedToUserName"`
	AssignedToUserEmail string        `json:"assignedToUserEmail,omitempty"`
	Comments            []CommentView `json:"comments"`
}

// TaskService is the task ownership and concurrency engine. Every operation
// takes the caller's verified claims and enforces its own access rule.
type TaskService interface {
	ListAssignableUsers(ctx context.Context, actor *domain.Claims) ([]domain.UserSummary, error)
	UrgencyLevels(ctx context.Context, actor *domain.Claims) ([]string, error)
	CreateTask(ctx context.Context, actor *domain.Claims, in CreateTaskInput) (*TaskView, error)
	ListTasks(ctx context.Context, actor *domain.Claims) ([]TaskView, error)
	ListMyTasks(ctx context.Context, actor *domain.Claims) ([]TaskView, error)
	GetTask(ctx context.Context, actor *domain.Claims, id string) (*TaskView, error)
	UpdateTask(ctx context.Context, actor *domain.Claims, id string, in UpdateTaskInput) (*TaskView, error)
	UpdateStatus(ctx context.Context, actor *domain.Claims, id string, in UpdateStatusInput) (*TaskView, error)
	DeleteTask(ctx context.Context, actor *domain.Claims, id string) error
	AddComment(ctx context.Context, actor *domain.Claims, taskID, text string) (*CommentView, error)
}
