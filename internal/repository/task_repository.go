package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"taskboard/internal/model"
)

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository builds a GORM-backed task repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return translateGormError("create task", err)
	}
	return nil
}

func (r *taskRepository) FindByID(ctx context.Context, owner, id string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, owner).First(&task).Error
	if err != nil {
		return nil, translateGormError("find task", err)
	}
	return &task, nil
}

func (r *taskRepository) List(ctx context.Context, owner string, filter TaskFilter) ([]model.Task, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", owner)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", filter.Priority)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := likePattern(search)
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", pattern, pattern)
	}

	tasks := make([]model.Task, 0)
	if err := q.Order(gormTaskOrder(filter.Sort)).Find(&tasks).Error; err != nil {
		return nil, translateGormError("list tasks", err)
	}
	return tasks, nil
}

func (r *taskRepository) Update(ctx context.Context, task *model.Task) error {
	res := r.db.WithContext(ctx).
		Model(task).
		Where("user_id = ?", task.UserID).
		Select("*").
		Omit("id", "user_id", "created_at").
		Updates(task)
	if res.Error != nil {
		return translateGormError("update task", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, owner, id string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, owner).Delete(&model.Task{})
	if res.Error != nil {
		return translateGormError("delete task", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *taskRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]model.Task, error) {
	tasks := make([]model.Task, 0)
	err := r.db.WithContext(ctx).
		Where("due_date BETWEEN ? AND ?", from, to).
		Where("status <> ?", model.TaskStatusCompleted).
		Order("due_date ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, translateGormError("list due tasks", err)
	}
	return tasks, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a lowercase substring pattern with LIKE wildcards escaped.
func likePattern(search string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
}

// gormTaskOrder returns the ORDER BY clause for s, tie-broken by newest first.
func gormTaskOrder(s TaskSort) string {
	direction := "ASC"
	key, desc := sortSpec(s)
	if desc {
		direction = "DESC"
	}
	switch key {
	case sortByDue:
		return "due_date " + direction + ", created_at DESC"
	case sortByPriority:
		return "priority_rank " + direction + ", created_at DESC"
	default:
		return "created_at " + direction + ", id " + direction
	}
}
