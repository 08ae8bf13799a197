package handler

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"taskboard/internal/errors"
	"taskboard/internal/model"
	"taskboard/internal/repository"
	"taskboard/internal/service"
)

// TaskHandler handles task endpoints.
type TaskHandler struct {
	taskService service.TaskService
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// OptionalTime is a JSON timestamp that remembers whether it was present.
// An explicit null or empty string clears the value. Plain dates
// (2006-01-02) are accepted as midnight UTC.
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	o.Value = nil

	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("dueDate must be a string or null")
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			o.Value = &t
			return nil
		}
	}
	return fmt.Errorf("dueDate %q is not a valid date", raw)
}

// TaskRequest is the body of task create and update calls. On update only
// the fields present in the body are changed.
type TaskRequest struct {
	Title       *string           `json:"title" example:"Buy milk"`
	Description *string           `json:"description"`
	DueDate     OptionalTime      `json:"dueDate" swaggertype:"string" format:"date-time"`
	Priority    *model.Priority   `json:"priority" enums:"low,medium,high"`
	Status      *model.TaskStatus `json:"status" enums:"pending,in-progress,completed"`
}

func (r *TaskRequest) input() model.TaskInput {
	var in model.TaskInput
	if r.Title != nil {
		in.Title = *r.Title
	}
	if r.Description != nil {
		in.Description = *r.Description
	}
	in.DueDate = r.DueDate.Value
	if r.Priority != nil {
		in.Priority = *r.Priority
	}
	if r.Status != nil {
		in.Status = *r.Status
	}
	return in
}

func (r *TaskRequest) update() model.TaskUpdate {
	u := model.TaskUpdate{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Status:      r.Status,
	}
	if r.DueDate.Set {
		if r.DueDate.Value == nil {
			u.ClearDueDate = true
		} else {
			u.DueDate = r.DueDate.Value
		}
	}
	return u
}

func bindTask(c echo.Context) (*TaskRequest, error) {
	var req TaskRequest
	if err := c.Bind(&req); err != nil {
		var he *echo.HTTPError
		if stderrors.As(err, &he) && he.Internal != nil {
			if msg := he.Internal.Error(); strings.Contains(msg, "dueDate") {
				return nil, errors.Validation(dueDateMessage(msg))
			}
		}
		return nil, invalidBody(err)
	}
	return &req, nil
}

func dueDateMessage(msg string) string {
	if i := strings.Index(msg, "dueDate"); i >= 0 {
		return msg[i:]
	}
	return msg
}

// List godoc
// @Summary List tasks
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status" Enums(pending, in-progress, completed)
// @Param priority query string false "Filter by priority" Enums(low, medium, high)
// @Param search query string false "Case-insensitive match on title or description"
// @Param sort query string false "Ordering; priority lists high before medium before low, -priority reverses it" Enums(-createdAt, createdAt, dueDate, -dueDate, priority, -priority)
// @Success 200 {array} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	filter := repository.TaskFilter{
		Status:   model.TaskStatus(c.QueryParam("status")),
		Priority: model.Priority(c.QueryParam("priority")),
		Search:   strings.TrimSpace(c.QueryParam("search")),
		Sort:     repository.TaskSort(c.QueryParam("sort")),
	}
	return h.list(c, filter)
}

// ListByStatus godoc
// @Summary List tasks with a status
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param status path string true "Status" Enums(pending, in-progress, completed)
// @Success 200 {array} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Router /tasks/status/{status} [get]
func (h *TaskHandler) ListByStatus(c echo.Context) error {
	status := model.TaskStatus(c.Param("status"))
	if !status.Valid() {
		return errors.Validation(fmt.Sprintf("invalid status %q", status))
	}
	return h.list(c, repository.TaskFilter{Status: status})
}

// ListByPriority godoc
// @Summary List tasks with a priority
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param priority path string true "Priority" Enums(low, medium, high)
// @Success 200 {array} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Router /tasks/priority/{priority} [get]
func (h *TaskHandler) ListByPriority(c echo.Context) error {
	priority := model.Priority(c.Param("priority"))
	if !priority.Valid() {
		return errors.Validation(fmt.Sprintf("invalid priority %q", priority))
	}
	return h.list(c, repository.TaskFilter{Priority: priority})
}

func (h *TaskHandler) list(c echo.Context, filter repository.TaskFilter) error {
	tasks, err := h.taskService.List(c.Request().Context(), currentUserID(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

// Get godoc
// @Summary Get a task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} model.Task
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	task, err := h.taskService.Get(c.Request().Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Create godoc
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body TaskRequest true "Task"
// @Success 201 {object} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Router /tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	req, err := bindTask(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.Create(c.Request().Context(), currentUserID(c), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

// Update godoc
// @Summary Update a task
// @Description Only the fields present in the body change. A null dueDate removes the due date.
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param request body TaskRequest true "Fields to change"
// @Success 200 {object} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id} [put]
// @Router /tasks/{id} [patch]
func (h *TaskHandler) Update(c echo.Context) error {
	req, err := bindTask(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.Update(c.Request().Context(), currentUserID(c), c.Param("id"), req.update())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Delete godoc
// @Summary Delete a task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	if err := h.taskService.Delete(c.Request().Context(), currentUserID(c), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "task deleted"})
}
