package repository

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"taskboard/internal/model"
)

func newMockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	require.NoError(t, err)
	return gdb, mock
}

func taskRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "title", "priority", "priority_rank", "status"})
}

func TestGormTaskRepository_FindByIDScopesOwner(t *testing.T) {
	query := regexp.QuoteMeta("SELECT * FROM `tasks` WHERE id = ? AND user_id = ? ORDER BY `tasks`.`id` LIMIT ?")

	tests := []struct {
		name    string
		owner   string
		rows    *sqlmock.Rows
		wantErr error
	}{
		{
			name:  "owner",
			owner: "alice",
			rows:  taskRows().AddRow("task-1", "alice", "Buy milk", "high", 3, "pending"),
		},
		{
			name:    "other user",
			owner:   "bob",
			rows:    taskRows(),
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gdb, mock := newMockGorm(t)
			mock.ExpectQuery(query).WithArgs("task-1", tt.owner, 1).WillReturnRows(tt.rows)

			task, err := NewTaskRepository(gdb).FindByID(context.Background(), tt.owner, "task-1")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, task)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "alice", task.UserID)
				assert.Equal(t, "Buy milk", task.Title)
				assert.Equal(t, model.PriorityHigh, task.Priority)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormTaskRepository_UpdateScopesOwner(t *testing.T) {
	stmt := "UPDATE `tasks` SET .+ WHERE user_id = \\? AND `id` = \\?"
	anySet := []driver.Value{sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()}

	tests := []struct {
		name     string
		owner    string
		affected int64
		wantErr  error
	}{
		{name: "matched", owner: "alice", affected: 1},
		{name: "other user", owner: "bob", affected: 0, wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gdb, mock := newMockGorm(t)
			mock.ExpectBegin()
			mock.ExpectExec(stmt).
				WithArgs(append(anySet, tt.owner, "task-1")...).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))
			mock.ExpectCommit()

			task := &model.Task{ID: "task-1", UserID: tt.owner, Title: "Buy milk", Priority: model.PriorityLow, Status: model.TaskStatusPending}
			err := NewTaskRepository(gdb).Update(context.Background(), task)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, 1, task.PriorityRank)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormTaskRepository_DeleteTwice(t *testing.T) {
	stmt := regexp.QuoteMeta("DELETE FROM `tasks` WHERE id = ? AND user_id = ?")

	gdb, mock := newMockGorm(t)
	mock.ExpectBegin()
	mock.ExpectExec(stmt).WithArgs("task-1", "alice").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(stmt).WithArgs("task-1", "alice").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	repo := NewTaskRepository(gdb)

	require.NoError(t, repo.Delete(context.Background(), "alice", "task-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "alice", "task-1"), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTaskRepository_ListDueBetween(t *testing.T) {
	from := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	query := regexp.QuoteMeta("SELECT * FROM `tasks` WHERE (due_date BETWEEN ? AND ?) AND status <> ? ORDER BY due_date ASC")

	gdb, mock := newMockGorm(t)
	mock.ExpectQuery(query).
		WithArgs(from, to, "completed").
		WillReturnRows(taskRows().
			AddRow("task-1", "alice", "Buy milk", "high", 3, "pending").
			AddRow("task-2", "bob", "Pay rent", "medium", 2, "in-progress"))

	tasks, err := NewTaskRepository(gdb).ListDueBetween(context.Background(), from, to)

	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "task-1", tasks[0].ID)
	assert.Equal(t, model.TaskStatusInProgress, tasks[1].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUserRepository_Duplicate(t *testing.T) {
	dup := &mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry 'a@example.com' for key 'users.idx_users_email'"}

	tests := []struct {
		name  string
		setup func(sqlmock.Sqlmock)
		run   func(UserRepository) error
	}{
		{
			name: "create",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO `users`").WillReturnError(dup)
				mock.ExpectRollback()
			},
			run: func(repo UserRepository) error {
				return repo.Create(context.Background(), &model.User{Email: "a@example.com", Username: "alice"})
			},
		},
		{
			name: "update",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("UPDATE `users` SET").WillReturnError(dup)
				mock.ExpectRollback()
			},
			run: func(repo UserRepository) error {
				return repo.Update(context.Background(), &model.User{ID: "user-1", Email: "a@example.com", Username: "alice"})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gdb, mock := newMockGorm(t)
			tt.setup(mock)

			assert.ErrorIs(t, tt.run(NewUserRepository(gdb)), ErrDuplicate)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGormUserRepository_FindByEmailNotFound(t *testing.T) {
	query := regexp.QuoteMeta("SELECT * FROM `users` WHERE email = ? ORDER BY `users`.`id` LIMIT ?")

	gdb, mock := newMockGorm(t)
	mock.ExpectQuery(query).WithArgs("ghost@example.com", 1).WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

	user, err := NewUserRepository(gdb).FindByEmail(context.Background(), "ghost@example.com")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, user)
	require.NoError(t, mock.ExpectationsWereMet())
}
