package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskdesk/task-system/internal/api/metrics"
	"github.com/taskdesk/task-system/internal/core/domain"
	"github.com/taskdesk/task-system/internal/core/ports"
)

type TaskHandler struct {
	taskService ports.TaskService
}

func NewTaskHandler(taskService ports.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

type createTaskRequest struct {
	Title            string     `json:"title" validate:"required,min=3,max=100"`
	Description      string     `json:"description" validate:"max=500"`
	Urgency          string     `json:"urgency" validate:"required,oneof=Low Medium High"`
	DueDate          *time.Time `json:"dueDate"`
	AssignedToUserID string     `json:"assignedToUserId" validate:"required"`
}

type updateTaskRequest struct {
	Title            string     `json:"title" validate:"required,min=3,max=100"`
	Description      string     `json:"description" validate:"max=500"`
	Urgency          string     `json:"urgency" validate:"required,oneof=Low Medium High"`
	Status           string     `json:"status" validate:"omitempty,oneof=Assigned InProgress Completed Blocked"`
	DueDate          *time.Time `json:"dueDate"`
	AssignedToUserID string     `json:"assignedToUserId" validate:"required"`
	Version          int64      `json:"version" validate:"min=0"`
}

type updateStatusRequest struct {
	Status  string `json:"status" validate:"required,oneof=Assigned InProgress Completed Blocked"`
	Version int64  `json:"version" validate:"min=0"`
}

type commentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=500"`
}

func dueDate(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// ListUsers returns the identities a task can be assigned to.
//
// @Summary      List assignable users
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.UserSummary
// @Failure      403  {object}  ErrorResponse
// @Router       /api/tasks/users [get]
func (h *TaskHandler) ListUsers(c echo.Context) error {
	users, err := h.taskService.ListAssignableUsers(c.Request().Context(), actor(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// UrgencyLevels returns the allowed urgency values.
//
// @Summary      List urgency levels
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  string
// @Router       /api/tasks/urgency-levels [get]
func (h *TaskHandler) UrgencyLevels(c echo.Context) error {
	levels, err := h.taskService.UrgencyLevels(c.Request().Context(), actor(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, levels)
}

// Create adds a task assigned to an existing user.
//
// @Summary      Create task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createTaskRequest  true  "Task"
// @Success      201   {object}  ports.TaskView
// @Failure      400   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Router       /api/tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	var req createTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	view, err := h.taskService.CreateTask(c.Request().Context(), actor(c), ports.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Urgency:     domain.Urgency(req.Urgency),
		DueDate:     dueDate(req.DueDate),
		AssignedTo:  req.AssignedToUserID,
	})
	metrics.ObserveTaskMutation("create", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, view)
}

// List returns every task.
//
// @Summary      List tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   ports.TaskView
// @Failure      403  {object}  ErrorResponse
// @Router       /api/tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	tasks, err := h.taskService.ListTasks(c.Request().Context(), actor(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

// MyTasks returns the tasks assigned to the caller.
//
// @Summary      List my tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  ports.TaskView
// @Router       /api/tasks/my-tasks [get]
func (h *TaskHandler) MyTasks(c echo.Context) error {
	tasks, err := h.taskService.ListMyTasks(c.Request().Context(), actor(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

// Get returns one task.
//
// @Summary      Get task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  ports.TaskView
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	view, err := h.taskService.GetTask(c.Request().Context(), actor(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// Update replaces the editable fields of a task.
//
// @Summary      Update task
// @Tags         tasks
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string             true  "Task ID"
// @Param        body  body  updateTaskRequest  true  "Task"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /api/tasks/{id} [put]
func (h *TaskHandler) Update(c echo.Context) error {
	var req updateTaskRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	_, err := h.taskService.UpdateTask(c.Request().Context(), actor(c), c.Param("id"), ports.UpdateTaskInput{
		Title:           req.Title,
		Description:     req.Description,
		Urgency:         domain.Urgency(req.Urgency),
		Status:          domain.TaskStatus(req.Status),
		DueDate:         dueDate(req.DueDate),
		AssignedTo:      req.AssignedToUserID,
		ExpectedVersion: req.Version,
	})
	metrics.ObserveTaskMutation("update", err)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateStatus changes the status of a task.
//
// @Summary      Update task status
// @Tags         tasks
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string               true  "Task ID"
// @Param        body  body  updateStatusRequest  true  "Status"
// @Success      204
// @Failure      403  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /api/tasks/{id}/status [patch]
func (h *TaskHandler) UpdateStatus(c echo.Context) error {
	var req updateStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	_, err := h.taskService.UpdateStatus(c.Request().Context(), actor(c), c.Param("id"), ports.UpdateStatusInput{
		Status:          domain.TaskStatus(req.Status),
		ExpectedVersion: req.Version,
	})
	metrics.ObserveTaskMutation("update_status", err)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete removes a task and its comments.
//
// @Summary      Delete task
// @Tags         tasks
// @Security     BearerAuth
// @Param        id  path  string  true  "Task ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Router       /api/tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	err := h.taskService.DeleteTask(c.Request().Context(), actor(c), c.Param("id"))
	metrics.ObserveTaskMutation("delete", err)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// AddComment attaches a comment to a task.
//
// @Summary      Comment on task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "Task ID"
// @Param        body  body      commentRequest  true  "Comment"
// @Success      201   {object}  ports.CommentView
// @Failure      404   {object}  ErrorResponse
// @Router       /api/tasks/{id}/comments [post]
func (h *TaskHandler) AddComment(c echo.Context) error {
	var req commentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	view, err := h.taskService.AddComment(c.Request().Context(), actor(c), c.Param("id"), req.Text)
	metrics.ObserveTaskMutation("comment", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, view)
}
