package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/taskdesk/task-system/internal/core/domain"
	"github.com/taskdesk/task-system/internal/core/ports"
)

type taskFixture struct {
	svc        *TaskService
	tasks      *stubTaskRepo
	identities *stubIdentityRepo
	admin      *domain.Claims
	user       *domain.Claims
	other      *domain.Claims
}

func newTaskFixture() *taskFixture {
	identities := newStubIdentityRepo()
	tasks := newStubTaskRepo()
	admin := identities.put("admin-1", "adminuser", domain.RoleAdmin)
	user := identities.put("user-1", "uma", domain.RoleUser)
	other := identities.put("user-2", "otto", domain.RoleUser)

	svc := NewTaskService(tasks, newTestCredentialStore(identities, nil), discardLogger)
	return &taskFixture{
		svc:        svc,
		tasks:      tasks,
		identities: identities,
		admin:      claimsFor(admin),
		user:       claimsFor(user),
		other:      claimsFor(other),
	}
}

func (f *taskFixture) create(t *testing.T) *ports.TaskView {
	t.Helper()
	v, err := f.svc.CreateTask(context.Background(), f.admin, ports.CreateTaskInput{
		Title:      "Write report",
		Urgency:    domain.UrgencyHigh,
		DueDate:    time.Now().Add(24 * time.Hour),
		AssignedTo: f.user.IdentityID,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return v
}

// ---------------------------------------------------------------------------
// Create / read
// ---------------------------------------------------------------------------

func TestTaskService_Scenario(t *testing.T) {
	f := newTaskFixture()
	ctx := context.Background()

	created := f.create(t)
	if created.Status != string(domain.StatusAssigned) || created.Urgency != string(domain.UrgencyHigh) {
		t.Fatalf("unexpected created task: %+v", created)
	}
	if created.AssignedToUserName != "uma" || created.Version != 1 {
		t.Fatalf("unexpected assignee/version: %+v", created)
	}

	mine, err := f.svc.ListMyTasks(ctx, f.user)
	if err != nil {
		t.Fatalf("my tasks: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != created.ID {
		t.Fatalf("expected the task in my-tasks, got %+v", mine)
	}

	updated, err := f.svc.UpdateStatus(ctx, f.user, created.ID, ports.UpdateStatusInput{Status: domain.StatusCompleted})
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("expected updatedAt to advance: %v -> %v", created.UpdatedAt, updated.UpdatedAt)
	}
	if updated.Version != 2 {
		t.Fatalf("expected version 2, got %d", updated.Version)
	}

	seen, err := f.svc.GetTask(ctx, f.admin, created.ID)
	if err != nil {
		t.Fatalf("admin get: %v", err)
	}
	if seen.Status != string(domain.StatusCompleted) {
		t.Fatalf("admin expected Completed, got %s", seen.Status)
	}
}

func TestTaskService_CreateTask_Rules(t *testing.T) {
	f := newTaskFixture()
	ctx := context.Background()

	_, err := f.svc.CreateTask(ctx, f.user, ports.CreateTaskInput{Title: "Nope", Urgency: domain.UrgencyLow, AssignedTo: f.user.IdentityID})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-admin, got %v", err)
	}
	if len(f.tasks.tasks) != 0 {
		t.Fatalf("forbidden create stored a row")
	}

	_, err = f.svc.CreateTask(ctx, nil, ports.CreateTaskInput{Title: "Nope"})
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for missing claims, got %v", err)
	}

	_, err = f.svc.CreateTask(ctx, f.admin, ports.CreateTaskInput{Title: "Orphan", Urgency: domain.UrgencyLow, AssignedTo: "ghost"})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	before := time.Now().Add(-time.Second)
	v, err := f.svc.CreateTask(ctx, f.admin, ports.CreateTaskInput{Title: "No due date", Urgency: domain.UrgencyMedium, AssignedTo: f.user.IdentityID})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if v.DueDate.Before(before) {
		t.Fatalf("expected due date to default to now, got %v", v.DueDate)
	}
}

func TestTaskService_ReadAccess(t *testing.T) {
	f := newTaskFixture()
	ctx := context.Background()
	created := f.create(t)

	if _, err := f.svc.ListTasks(ctx, f.user); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden listing all tasks as user, got %v", err)
	}
	all, err := f.svc.ListTasks(ctx, f.admin)
	if err != nil || len(all) != 1 {
		t.Fatalf("admin list: %v %+v", err, all)
	}

	if _, err := f.svc.GetTask(ctx, f.user, created.ID); err != nil {
		t.Fatalf("assignee get: %v", err)
	}
	if _, err := f.svc.GetTask(ctx, f.other, created.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for stranger, got %v", err)
	}
	if _, err := f.svc.GetTask(ctx, f.admin, "missing"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}

	theirs, err := f.svc.ListMyTasks(ctx, f.other)
	if err != nil || len(theirs) != 0 {
		t.Fatalf("expected no tasks for other user, got %v %+v", err, theirs)
	}
}

func TestTaskService_UnknownAssigneeName(t *testing.T) {
	f := newTaskFixture()
	created := f.create(t)
	delete(f.identities.byID, f.user.IdentityID)

	v, err := f.svc.GetTask(context.Background(), f.admin, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v.AssignedToUserName != domain.UnknownUserName {
		t.Fatalf("expected %q, got %q", domain.UnknownUserName, v.AssignedToUserName)
	}
}

func TestTaskService_ListAssignableUsers(t *testing.T) {
	f := newTaskFixture()
	ctx := context.Background()

	users, err := f.svc.ListAssignableUsers(ctx, f.admin)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 non-admin users, got %+v", users)
	}
	for _, u := range users {
		if u.ID == f.admin.IdentityID {
			t.Fatalf("admin must not be assignable")
		}
	}

	if _, err := f.svc.ListAssignableUsers(ctx, f.user); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestTaskService_UrgencyLevels(t *testing.T) {
	f := newTaskFixture()
	levels, err := f.svc.UrgencyLevels(context.Background(), f.user)
	if err != nil {
		t.Fatalf("levels: %v", err)
	}
	if len(levels) != 3 || levels[0] != "Low" || levels[2] != "High" {
		t.Fatalf("unexpected levels: %v", levels)
	}
	if _, err := f.svc.UrgencyLevels(context.Background(), nil); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Updates and concurrency
// ---------------------------------------------------------------------------

func TestTaskService_UpdateStatus_Forbidden(t *testing.T) {
	f := newTaskFixture()
	created := f.create(t)

	_, err := f.svc.UpdateStatus(context.Background(), f.other, created.ID, ports.UpdateStatusInput{Status: domain.StatusBlocked})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	stored := f.tasks.tasks[created.ID]
	if stored.Status != domain.StatusAssigned || stored.Version != 1 {
		t.Fatalf("forbidden update modified the row: %+v", stored)
	}
	if f.tasks.updateCalls != 0 {
		t.Fatalf("forbidden update reached the repository")
	}
}

func TestTaskService_UpdateStatus_AdminOverride(t *testing.T) {
	f := newTaskFixture()
	created := f.create(t)

	v, err := f.svc.UpdateStatus(context.Background(), f.admin, created.ID, ports.UpdateStatusInput{Status: domain.StatusInProgress})
	if err != nil {
		t.Fatalf("admin status update: %v", err)
	}
	if v.Status != string(domain.StatusInProgress) {
		t.Fatalf("unexpected status %s", v.Status)
	}
}

func TestTaskService_UpdateStatus_Errors(t *testing.T) {
	f := newTaskFixture()
	created := f.create(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		actor *domain.Claims
		id    string
		want  error
	}{
		{"unauthenticated", nil, created.ID, domain.ErrUnauthenticated},
		{"missing task", f.user, "missing", domain.ErrTaskNotFound},
		{"vanished caller", &domain.Claims{IdentityID: "gone", Roles: []string{domain.RoleUser}}, created.ID, domain.ErrUserNotFound},
	}
	for _, tc := range cases {
		_, err := f.svc.UpdateStatus(ctx, tc.actor, tc.id, ports.UpdateStatusInput{Status: domain.StatusCompleted})
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestTaskService_UpdateTask(t *testing.T) {
	f := newTaskFixture()
	created := f.create(t)
	ctx := context.Background()

	in := ports.UpdateTaskInput{
		Title:      "Write final report",
		Urgency:    domain.UrgencyLow,
		Status:     domain.StatusBlocked,
		AssignedTo: f.other.IdentityID,
	}
	v, err := f.svc.UpdateTask(ctx, f.admin, created.ID, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if v.Title != in.Title || v.Urgency != "Low" || v.Status != "Blocked" || v.AssignedToUserName != "otto" {
		t.Fatalf("unexpected view: %+v", v)
	}
	if !v.DueDate.Equal(created.DueDate) {
		t.Fatalf("zero due date must keep the stored value")
	}

	if _, err := f.svc.UpdateTask(ctx, f.user, created.ID, in); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for user, got %v", err)
	}

	in.AssignedTo = "ghost"
	if _, err := f.svc.UpdateTask(ctx, f.admin, created.ID, in); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for unknown assignee, got %v", err)
	}

	in.AssignedTo = ""
	if _, err := f.svc.UpdateTask(ctx, f.admin, "missing", in); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestTaskService_ConcurrentUpdateRejected(t *testing.T) {
	f := newTaskFixture()
	created := f.create(t)
	ctx := context.Background()

	// A second writer lands between our read and our write.
	f.tasks.beforeUpdate = func() {
		stored := f.tasks.tasks[created.ID]
		stored.Title = "second writer"
		stored.Version++
	}

	_, err := f.svc.UpdateTask(ctx, f.admin, created.ID, ports.UpdateTaskInput{Title: "first writer"})
	if !errors.Is(err, domain.ErrConcurrency) {
		t.Fatalf("expected ErrConcurrency, got %v", err)
	}
	if f.tasks.updateCalls != 1 {
		t.Fatalf("expected exactly one write attempt, got %d", f.tasks.updateCalls)
	}

	stored := f.tasks.tasks[created.ID]
	if stored.Title != "second writer" || stored.Version != 2 {
		t.Fatalf("expected only the second update to persist, got %+v", stored)
	}
}

func TestTaskService_StaleExpectedVersion(t *testing.T) {
	f := newTaskFixture()
	created := f.create(t)
	ctx := context.Background()

	if _, err := f.svc.UpdateStatus(ctx, f.user, created.ID, ports.UpdateStatusInput{Status: domain.StatusInProgress, ExpectedVersion: created.Version}); err != nil {
		t.Fatalf("first update: %v", err)
	}
	_, err := f.svc.UpdateStatus(ctx, f.admin, created.ID, ports.UpdateStatusInput{Status: domain.StatusBlocked, ExpectedVersion: created.Version})
	if !errors.Is(err, domain.ErrConcurrency) {
		t.Fatalf("expected ErrConcurrency for stale version, got %v", err)
	}
	if got := f.tasks.tasks[created.ID].Status; got != domain.StatusInProgress {
		t.Fatalf("expected first update to persist, got %s", got)
	}
}

func TestTaskService_UpdateTask_RowDeletedMidway(t *testing.T) {
	f := newTaskFixture()
	created := f.create(t)

	f.tasks.beforeUpdate = func() { delete(f.tasks.tasks, created.ID) }
	_, err := f.svc.UpdateTask(context.Background(), f.admin, created.ID, ports.UpdateTaskInput{Title: "late"})
	if !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Delete and comments
// ---------------------------------------------------------------------------

func TestTaskService_DeleteCascadesComments(t *testing.T) {
	f := newTaskFixture()
	created := f.create(t)
	ctx := context.Background()

	if _, err := f.svc.AddComment(ctx, f.user, created.ID, "started"); err != nil {
		t.Fatalf("comment 1: %v", err)
	}
	if _, err := f.svc.AddComment(ctx, f.admin, created.ID, "thanks"); err != nil {
		t.Fatalf("comment 2: %v", err)
	}

	v, _ := f.svc.GetTask(ctx, f.admin, created.ID)
	if len(v.Comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(v.Comments))
	}

	if err := f.svc.DeleteTask(ctx, f.user, created.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for user delete, got %v", err)
	}
	if err := f.svc.DeleteTask(ctx, f.admin, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if left, _ := f.tasks.ListComments(ctx, created.ID); len(left) != 0 {
		t.Fatalf("expected comments to be deleted, got %d", len(left))
	}
	if err := f.svc.DeleteTask(ctx, f.admin, created.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound on second delete, got %v", err)
	}
}

func TestTaskService_AddComment(t *testing.T) {
	f := newTaskFixture()
	created := f.create(t)
	ctx := context.Background()

	c, err := f.svc.AddComment(ctx, f.other, created.ID, "  drive-by  ")
	if err != nil {
		t.Fatalf("comment by non-assignee: %v", err)
	}
	if c.Text != "drive-by" || c.AuthorUserName != "otto" || c.TaskID != created.ID {
		t.Fatalf("unexpected comment: %+v", c)
	}

	if _, err := f.svc.AddComment(ctx, f.user, "missing", "hi"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	ghost := &domain.Claims{IdentityID: "gone", Roles: []string{domain.RoleUser}}
	if _, err := f.svc.AddComment(ctx, ghost, created.ID, "hi"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := f.svc.AddComment(ctx, nil, created.ID, "hi"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
