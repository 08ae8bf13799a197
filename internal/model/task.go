package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Priority represents how urgent a task is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Rank orders priorities from low (1) to high (3). Unknown values rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	}
	return 0
}

// TaskStatus represents the progress of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// Task is a to-do item owned by exactly one user.
type Task struct {
	ID           string     `json:"id" bson:"_id" gorm:"type:char(36);primaryKey"`
	UserID       string     `json:"user" bson:"user" gorm:"column:user_id;type:char(36);not null;index"`
	Title        string     `json:"title" bson:"title" gorm:"size:200;not null"`
	Description  string     `json:"description" bson:"description" gorm:"type:text"`
	DueDate      *time.Time `json:"dueDate" bson:"due_date,omitempty" gorm:"index"`
	Priority     Priority   `json:"priority" bson:"priority" gorm:"type:varchar(10);not null;default:'medium';index"`
	PriorityRank int        `json:"-" bson:"priority_rank" gorm:"not null;default:2"`
	Status       TaskStatus `json:"status" bson:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	CreatedAt    time.Time  `json:"createdAt" bson:"created_at" gorm:"index"`
	UpdatedAt    time.Time  `json:"updatedAt" bson:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// BeforeSave keeps the persisted sort rank in step with the priority.
func (t *Task) BeforeSave(tx *gorm.DB) error {
	t.PriorityRank = t.Priority.Rank()
	return nil
}

// TaskInput carries caller-supplied fields for a new task.
type TaskInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    Priority
	Status      TaskStatus
}

// TaskUpdate is a partial update; nil fields are left unchanged.
// ClearDueDate removes the due date and takes precedence over DueDate.
type TaskUpdate struct {
	Title        *string
	Description  *string
	DueDate      *time.Time
	ClearDueDate bool
	Priority     *Priority
	Status       *TaskStatus
}

// Empty reports whether the update carries no fields.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.DueDate == nil &&
		!u.ClearDueDate && u.Priority == nil && u.Status == nil
}

// Apply merges the non-nil fields of u into t.
func (u TaskUpdate) Apply(t *Task) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.ClearDueDate {
		t.DueDate = nil
	} else if u.DueDate != nil {
		due := *u.DueDate
		t.DueDate = &due
	}
	if u.Priority != nil {
		t.Priority = *u.Priority
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
}
