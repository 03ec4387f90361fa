package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/taskdesk/task-system/internal/core/domain"
	"github.com/taskdesk/task-system/internal/core/ports"
)

// TaskStore implements ports.TaskRepository. Updates are conditional on the
// stored version.
type TaskStore struct {
	db *sql.DB
}

const taskColumns = `id, title, description, urgency, status, due_date, created_at, updated_at, version, assigned_to`

func (s *TaskStore) Create(ctx context.Context, t *domain.Task) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO tasks (`+taskColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.Title,
		t.Description,
		string(t.Urgency),
		string(t.Status),
		toMillis(t.DueDate),
		toMillis(t.CreatedAt),
		toMillis(t.UpdatedAt),
		t.Version,
		t.AssignedTo,
	)
	if isForeignKeyViolation(err) {
		return domain.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (s *TaskStore) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find task: %w", err)
	}
	return t, nil
}

func (s *TaskStore) List(ctx context.Context, filter ports.ListTasksFilter) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var args []any
	if filter.AssignedTo != "" {
		query += ` WHERE assigned_to = ?`
		args = append(args, filter.AssignedTo)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return out, nil
}

func (s *TaskStore) Update(ctx context.Context, t *domain.Task, expectedVersion int64) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE tasks
SET title = ?, description = ?, urgency = ?, status = ?, due_date = ?, updated_at = ?, version = ?, assigned_to = ?
WHERE id = ? AND version = ?`,
		t.Title,
		t.Description,
		string(t.Urgency),
		string(t.Status),
		toMillis(t.DueDate),
		toMillis(t.UpdatedAt),
		t.Version,
		t.AssignedTo,
		t.ID,
		expectedVersion,
	)
	if isForeignKeyViolation(err) {
		return domain.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	var found int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM tasks WHERE id = ?`, t.ID).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrTaskNotFound
	}
	if err != nil {
		return fmt.Errorf("check task existence: %w", err)
	}
	return domain.ErrConcurrency
}

func (s *TaskStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete task: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE task_id = ?`, id); err != nil {
		return fmt.Errorf("delete task comments: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrTaskNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete task: %w", err)
	}
	return nil
}

func (s *TaskStore) AddComment(ctx context.Context, c *domain.Comment) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO comments (id, task_id, author_id, text, created_at)
VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.TaskID, c.AuthorID, c.Text, toMillis(c.CreatedAt),
	)
	if isForeignKeyViolation(err) {
		return domain.ErrTaskNotFound
	}
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (s *TaskStore) ListComments(ctx context.Context, taskIDs ...string) ([]*domain.Comment, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(taskIDs))
	for _, id := range taskIDs {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, task_id, author_id, text, created_at
FROM comments
WHERE task_id IN (`+placeholders(len(taskIDs))+`)
ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var out []*domain.Comment
	for rows.Next() {
		var (
			c         domain.Comment
			createdAt int64
		)
		if err := rows.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		c.CreatedAt = fromMillis(createdAt)
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return out, nil
}

func scanTask(row scanner) (*domain.Task, error) {
	var (
		t                             domain.Task
		urgency, status               string
		dueDate, createdAt, updatedAt int64
	)
	if err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&urgency,
		&status,
		&dueDate,
		&createdAt,
		&updatedAt,
		&t.Version,
		&t.AssignedTo,
	); err != nil {
		return nil, err
	}
	t.Urgency = domain.Urgency(urgency)
	t.Status = domain.TaskStatus(status)
	t.DueDate = fromMillis(dueDate)
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updatedAt)
	return &t, nil
}
