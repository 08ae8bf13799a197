package repository

import (
	"context"
	"errors"
	"time"

	"taskboard/internal/model"
)

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a unique index.
	ErrDuplicate = errors.New("duplicate key")
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByExternalID(ctx context.Context, externalID string) (*model.User, error)
}

// TaskRepository defines persistence operations for tasks. Every method that
// addresses a single task also takes the owner id and matches on both.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	FindByID(ctx context.Context, owner, id string) (*model.Task, error)
	List(ctx context.Context, owner string, filter TaskFilter) ([]model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, owner, id string) error
	// ListDueBetween returns incomplete tasks of all owners due within [from, to].
	ListDueBetween(ctx context.Context, from, to time.Time) ([]model.Task, error)
}

// TaskSort names a supported task ordering.
type TaskSort string

const (
	SortCreatedDesc  TaskSort = "-createdAt"
	SortCreatedAsc   TaskSort = "createdAt"
	SortDueAsc       TaskSort = "dueDate"
	SortDueDesc      TaskSort = "-dueDate"
	SortPriorityAsc  TaskSort = "priority"
	SortPriorityDesc TaskSort = "-priority"
)

// Valid reports whether s is a supported ordering. The empty value means default.
func (s TaskSort) Valid() bool {
	switch s {
	case "", SortCreatedDesc, SortCreatedAsc, SortDueAsc, SortDueDesc, SortPriorityAsc, SortPriorityDesc:
		return true
	}
	return false
}

// TaskFilter narrows a task listing. Zero-valued fields do not filter.
type TaskFilter struct {
	Status   model.TaskStatus
	Priority model.Priority
	Search   string
	Sort     TaskSort
}

type sortKey int

const (
	sortByCreated sortKey = iota
	sortByDue
	sortByPriority
)

// sortSpec resolves s to a key and direction; unknown values fall back to newest first.
// Priorities order high < medium < low, so ascending priority is descending rank.
func sortSpec(s TaskSort) (key sortKey, desc bool) {
	switch s {
	case SortCreatedAsc:
		return sortByCreated, false
	case SortDueAsc:
		return sortByDue, false
	case SortDueDesc:
		return sortByDue, true
	case SortPriorityAsc:
		return sortByPriority, true
	case SortPriorityDesc:
		return sortByPriority, false
	default:
		return sortByCreated, true
	}
}
