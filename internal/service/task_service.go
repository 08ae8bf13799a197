package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "taskboard/internal/errors"
	"taskboard/internal/model"
	"taskboard/internal/repository"
)

// ErrTaskNotFound is returned for tasks that do not exist or belong to another user.
var ErrTaskNotFound = apperrors.NotFound("task not found")

// TaskService handles task operations on behalf of a calling user.
type TaskService interface {
	List(ctx context.Context, callerID string, filter repository.TaskFilter) ([]model.Task, error)
	Get(ctx context.Context, callerID, id string) (*model.Task, error)
	Create(ctx context.Context, callerID string, input model.TaskInput) (*model.Task, error)
	Update(ctx context.Context, callerID, id string, update model.TaskUpdate) (*model.Task, error)
	Delete(ctx context.Context, callerID, id string) error
}

type taskService struct {
	taskRepo repository.TaskRepository
	validate *validator.Validate
}

// NewTaskService creates a new task service. Task text is stored as given
// apart from surrounding whitespace; escaping is left to whoever renders it.
func NewTaskService(taskRepo repository.TaskRepository) TaskService {
	return &taskService{
		taskRepo: taskRepo,
		validate: NewValidator(),
	}
}

type taskFields struct {
	Title       string           `json:"title" validate:"required,max=200"`
	Description string           `json:"description" validate:"max=2000"`
	Priority    model.Priority   `json:"priority" validate:"required,oneof=low medium high"`
	Status      model.TaskStatus `json:"status" validate:"required,oneof=pending in-progress completed"`
}

// authorizeOwner lets the operation proceed only when task belongs to callerID.
func authorizeOwner(callerID string, task *model.Task) error {
	if task == nil || callerID == "" || task.UserID != callerID {
		return ErrTaskNotFound
	}
	return nil
}

// List returns the caller's tasks matching filter. The result is never nil.
func (s *taskService) List(ctx context.Context, callerID string, filter repository.TaskFilter) ([]model.Task, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("invalid status %q", filter.Status))
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("invalid priority %q", filter.Priority))
	}
	if !filter.Sort.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("invalid sort %q", filter.Sort))
	}

	tasks, err := s.taskRepo.List(ctx, callerID, filter)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("list tasks: %w", err))
	}

	owned := make([]model.Task, 0, len(tasks))
	for i := range tasks {
		if authorizeOwner(callerID, &tasks[i]) == nil {
			owned = append(owned, tasks[i])
		}
	}
	return owned, nil
}

// Get returns one of the caller's tasks.
func (s *taskService) Get(ctx context.Context, callerID, id string) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, callerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, apperrors.Internal(fmt.Errorf("find task: %w", err))
	}
	if err := authorizeOwner(callerID, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Create stores a new task owned by the caller. Missing priority and status
// default to medium and pending.
func (s *taskService) Create(ctx context.Context, callerID string, input model.TaskInput) (*model.Task, error) {
	task := &model.Task{
		UserID:      callerID,
		Title:       input.Title,
		Description: input.Description,
		DueDate:     input.DueDate,
		Priority:    input.Priority,
		Status:      input.Status,
	}
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}
	if task.Status == "" {
		task.Status = model.TaskStatusPending
	}
	if err := s.prepare(task); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("create task: %w", err))
	}
	return task, nil
}

// Update merges the set fields of update into one of the caller's tasks.
func (s *taskService) Update(ctx context.Context, callerID, id string, update model.TaskUpdate) (*model.Task, error) {
	task, err := s.Get(ctx, callerID, id)
	if err != nil {
		return nil, err
	}
	if update.Empty() {
		return task, nil
	}

	update.Apply(task)
	if err := s.prepare(task); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, apperrors.Internal(fmt.Errorf("update task: %w", err))
	}
	return task, nil
}

// Delete removes one of the caller's tasks.
func (s *taskService) Delete(ctx context.Context, callerID, id string) error {
	task, err := s.Get(ctx, callerID, id)
	if err != nil {
		return err
	}
	if err := s.taskRepo.Delete(ctx, task.UserID, task.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTaskNotFound
		}
		return apperrors.Internal(fmt.Errorf("delete task: %w", err))
	}
	return nil
}

// prepare normalises task and validates it. It is idempotent, so re-running
// it on a stored task leaves the text untouched.
func (s *taskService) prepare(task *model.Task) error {
	task.Title = strings.TrimSpace(task.Title)
	task.Description = strings.TrimSpace(task.Description)
	if task.DueDate != nil {
		due := task.DueDate.UTC()
		task.DueDate = &due
	}
	task.PriorityRank = task.Priority.Rank()

	return ValidateStruct(s.validate, taskFields{
		Title:       task.Title,
		Description: task.Description,
		Priority:    task.Priority,
		Status:      task.Status,
	})
}
