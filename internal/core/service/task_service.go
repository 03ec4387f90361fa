package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/taskdesk/task-system/internal/core/authz"
	"github.com/taskdesk/task-system/internal/core/domain"
	"github.com/taskdesk/task-system/internal/core/ports"
)

var (
	adminOnly     = authz.RequireRole(domain.RoleAdmin)
	authenticated = authz.RequireAnyRole(domain.RoleUser, domain.RoleAdmin)
)

// TaskService enforces who may create, change and comment on tasks, and
// rejects writes based on a stale version.
type TaskService struct {
	tasks       ports.TaskRepository
	credentials *CredentialStore
	log         zerolog.Logger
	now         func() time.Time
}

func NewTaskService(tasks ports.TaskRepository, credentials *CredentialStore, log zerolog.Logger) *TaskService {
	return &TaskService{tasks: tasks, credentials: credentials, log: log, now: time.Now}
}

// ListAssignableUsers returns every non-admin identity. Admin only.
func (s *TaskService) ListAssignableUsers(ctx context.Context, actor *domain.Claims) ([]domain.UserSummary, error) {
	if err := authz.Check(actor, adminOnly); err != nil {
		return nil, err
	}
	identities, err := s.credentials.ListAssignable(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.UserSummary, 0, len(identities))
	for _, identity := range identities {
		out = append(out, identity.Summary())
	}
	return out, nil
}

// UrgencyLevels lists the urgency values for any authenticated caller.
func (s *TaskService) UrgencyLevels(_ context.Context, actor *domain.Claims) ([]string, error) {
	if err := authz.Check(actor, authenticated); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(domain.UrgencyLevels))
	for _, u := range domain.UrgencyLevels {
		out = append(out, string(u))
	}
	return out, nil
}

// CreateTask creates an Assigned task. Admin only; the assignee must exist.
func (s *TaskService) CreateTask(ctx context.Context, actor *domain.Claims, in ports.CreateTaskInput) (view *ports.TaskView, err error) {
	ctx, span := startSpan(ctx, "TaskService.CreateTask")
	defer func() { endSpan(span, err) }()

	if err := authz.Check(actor, adminOnly); err != nil {
		return nil, err
	}

	assignee, err := s.credentials.FindByID(ctx, in.AssignedTo)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	due := in.DueDate
	if due.IsZero() {
		due = now
	}
	task := &domain.Task{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Urgency:     in.Urgency,
		Status:      domain.StatusAssigned,
		DueDate:     due.UTC().Truncate(time.Millisecond),
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
		AssignedTo:  assignee.ID,
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, normalize(s.log, "create task", err)
	}

	s.log.Info().Str("task_id", task.ID).Str("assigned_to", task.AssignedTo).Str("actor", actor.IdentityID).Msg("task created")
	return s.view(ctx, task)
}

// ListTasks returns every task, newest first. Admin only.
func (s *TaskService) ListTasks(ctx context.Context, actor *domain.Claims) ([]ports.TaskView, error) {
	if err := authz.Check(actor, adminOnly); err != nil {
		return nil, err
	}
	return s.list(ctx, ports.ListTasksFilter{})
}

// ListMyTasks returns the tasks assigned to the caller.
func (s *TaskService) ListMyTasks(ctx context.Context, actor *domain.Claims) ([]ports.TaskView, error) {
	if err := authz.Check(actor, authenticated); err != nil {
		return nil, err
	}
	return s.list(ctx, ports.ListTasksFilter{AssignedTo: actor.IdentityID})
}

// GetTask returns one task to an Admin or to its assignee.
func (s *TaskService) GetTask(ctx context.Context, actor *domain.Claims, id string) (*ports.TaskView, error) {
	if !actor.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	task, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Check(actor, authz.RequireOwnerOrRole(task.AssignedTo, domain.RoleAdmin)); err != nil {
		return nil, err
	}
	return s.view(ctx, task)
}

// UpdateTask replaces the editable fields of a task. Admin only. Empty
// urgency, empty status or a zero due date keep the stored value.
func (s *TaskService) UpdateTask(ctx context.Context, actor *domain.Claims, id string, in ports.UpdateTaskInput) (view *ports.TaskView, err error) {
	ctx, span := startSpan(ctx, "TaskService.UpdateTask", attribute.String("task_id", id))
	defer func() { endSpan(span, err) }()

	if err := authz.Check(actor, adminOnly); err != nil {
		return nil, err
	}

	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkVersion(current, in.ExpectedVersion); err != nil {
		return nil, err
	}

	next := *current
	if assignee := strings.TrimSpace(in.AssignedTo); assignee != "" && assignee != current.AssignedTo {
		identity, err := s.credentials.FindByID(ctx, assignee)
		if err != nil {
			return nil, err
		}
		next.AssignedTo = identity.ID
	}
	next.Title = strings.TrimSpace(in.Title)
	next.Description = strings.TrimSpace(in.Description)
	if in.Urgency != "" {
		next.Urgency = in.Urgency
	}
	if in.Status != "" {
		next.Status = in.Status
	}
	if !in.DueDate.IsZero() {
		next.DueDate = in.DueDate.UTC().Truncate(time.Millisecond)
	}

	if err := s.commit(ctx, current, &next); err != nil {
		return nil, err
	}

	s.log.Info().Str("task_id", id).Int64("version", next.Version).Str("actor", actor.IdentityID).Msg("task updated")
	return s.view(ctx, &next)
}

// UpdateStatus changes only the status. Allowed for the assignee and any
// Admin; every other caller gets domain.ErrForbidden and the row is left
// untouched.
func (s *TaskService) UpdateStatus(ctx context.Context, actor *domain.Claims, id string, in ports.UpdateStatusInput) (view *ports.TaskView, err error) {
	ctx, span := startSpan(ctx, "TaskService.UpdateStatus", attribute.String("task_id", id))
	defer func() { endSpan(span, err) }()

	if !actor.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}

	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.credentials.FindByID(ctx, actor.IdentityID); err != nil {
		return nil, err
	}
	if err := authz.Check(actor, authz.RequireOwnerOrRole(current.AssignedTo, domain.RoleAdmin)); err != nil {
		s.log.Warn().Str("task_id", id).Str("actor", actor.IdentityID).Msg("status update forbidden")
		return nil, err
	}
	if err := checkVersion(current, in.ExpectedVersion); err != nil {
		return nil, err
	}

	next := *current
	next.Status = in.Status
	if err := s.commit(ctx, current, &next); err != nil {
		return nil, err
	}

	s.log.Info().Str("task_id", id).Str("status", string(next.Status)).Str("actor", actor.IdentityID).Msg("task status updated")
	return s.view(ctx, &next)
}

// DeleteTask removes a task and its comments. Admin only.
func (s *TaskService) DeleteTask(ctx context.Context, actor *domain.Claims, id string) (err error) {
	ctx, span := startSpan(ctx, "TaskService.DeleteTask", attribute.String("task_id", id))
	defer func() { endSpan(span, err) }()

	if err := authz.Check(actor, adminOnly); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return normalize(s.log, "delete task", err)
	}
	s.log.Info().Str("task_id", id).Str("actor", actor.IdentityID).Msg("task deleted")
	return nil
}

// AddComment attaches a comment to an existing task. Any authenticated
// caller may comment.
func (s *TaskService) AddComment(ctx context.Context, actor *domain.Claims, taskID, text string) (view *ports.CommentView, err error) {
	ctx, span := startSpan(ctx, "TaskService.AddComment", attribute.String("task_id", taskID))
	defer func() { endSpan(span, err) }()

	if err := authz.Check(actor, authenticated); err != nil {
		return nil, err
	}
	task, err := s.find(ctx, taskID)
	if err != nil {
		return nil, err
	}
	author, err := s.credentials.FindByID(ctx, actor.IdentityID)
	if err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		ID:        uuid.NewString(),
		TaskID:    task.ID,
		AuthorID:  author.ID,
		Text:      strings.TrimSpace(text),
		CreatedAt: s.clock(),
	}
	if err := s.tasks.AddComment(ctx, comment); err != nil {
		return nil, normalize(s.log, "add comment", err)
	}

	cv := commentView(comment, author.Username)
	return &cv, nil
}

// commit writes next if the stored row is still at current.Version.
func (s *TaskService) commit(ctx context.Context, current, next *domain.Task) error {
	next.Version = current.Version + 1
	next.UpdatedAt = s.clock()
	if !next.UpdatedAt.After(current.UpdatedAt) {
		next.UpdatedAt = current.UpdatedAt.Add(time.Millisecond)
	}

	err := s.tasks.Update(ctx, next, current.Version)
	if errors.Is(err, domain.ErrConcurrency) {
		s.log.Warn().Str("task_id", current.ID).Int64("expected_version", current.Version).Msg("concurrent task update rejected")
	}
	return normalize(s.log, "update task", err)
}

func checkVersion(t *domain.Task, expected int64) error {
	if expected != 0 && expected != t.Version {
		return domain.ErrConcurrency
	}
	return nil
}

func (s *TaskService) find(ctx context.Context, id string) (*domain.Task, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrTaskNotFound
	}
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, normalize(s.log, "find task", err)
	}
	return task, nil
}

func (s *TaskService) clock() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *TaskService) list(ctx context.Context, filter ports.ListTasksFilter) ([]ports.TaskView, error) {
	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, normalize(s.log, "list tasks", err)
	}
	return s.views(ctx, tasks)
}

func (s *TaskService) view(ctx context.Context, t *domain.Task) (*ports.TaskView, error) {
	views, err := s.views(ctx, []*domain.Task{t})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// views joins tasks with their assignees and comments.
func (s *TaskService) views(ctx context.Context, tasks []*domain.Task) ([]ports.TaskView, error) {
	out := make([]ports.TaskView, 0, len(tasks))
	if len(tasks) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	comments, err := s.tasks.ListComments(ctx, ids...)
	if err != nil {
		return nil, normalize(s.log, "list comments", err)
	}
	byTask := make(map[string][]*domain.Comment, len(tasks))
	for _, c := range comments {
		byTask[c.TaskID] = append(byTask[c.TaskID], c)
	}

	people := newIdentityCache(s.credentials)
	for _, t := range tasks {
		assignee, err := people.get(ctx, t.AssignedTo)
		if err != nil {
			return nil, err
		}

		v := ports.TaskView{
			ID:                 t.ID,
			Title:              t.Title,
			Description:        t.Description,
			Urgency:            string(t.Urgency),
			Status:             string(t.Status),
			DueDate:            t.DueDate,
			CreatedAt:          t.CreatedAt,
			UpdatedAt:          t.UpdatedAt,
			Version:            t.Version,
			AssignedToUserID:   t.AssignedTo,
			AssignedToUserName: domain.UnknownUserName,
			Comments:           make([]ports.CommentView, 0, len(byTask[t.ID])),
		}
		if assignee != nil {
			v.AssignedToUserName = assignee.Username
			v.AssignedToUserEmail = assignee.Email
		}

		for _, c := range byTask[t.ID] {
			author, err := people.get(ctx, c.AuthorID)
			if err != nil {
				return nil, err
			}
			name := domain.UnknownUserName
			if author != nil {
				name = author.Username
			}
			v.Comments = append(v.Comments, commentView(c, name))
		}
		out = append(out, v)
	}
	return out, nil
}

func commentView(c *domain.Comment, authorName string) ports.CommentView {
	return ports.CommentView{
		ID:             c.ID,
		Text:           c.Text,
		CreatedAt:      c.CreatedAt,
		AuthorID:       c.AuthorID,
		AuthorUserName: authorName,
		TaskID:         c.TaskID,
	}
}

// identityCache memoises identity lookups for a single request. A missing
// identity resolves to nil.
type identityCache struct {
	store *CredentialStore
	seen  map[string]*domain.Identity
}

func newIdentityCache(store *CredentialStore) *identityCache {
	return &identityCache{store: store, seen: make(map[string]*domain.Identity)}
}

func (c *identityCache) get(ctx context.Context, id string) (*domain.Identity, error) {
	if identity, ok := c.seen[id]; ok {
		return identity, nil
	}
	identity, err := c.store.FindByID(ctx, id)
	if errors.Is(err, domain.ErrUserNotFound) {
		identity, err = nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.seen[id] = identity
	return identity, nil
}
