package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"taskboard/internal/db"
	"taskboard/internal/model"
)

func newMockMongo(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func taskDoc(id, owner, title string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "user", Value: owner},
		{Key: "title", Value: title},
		{Key: "priority", Value: "high"},
		{Key: "priority_rank", Value: 3},
		{Key: "status", Value: "pending"},
	}
}

func tasksNS(mt *mtest.T) string {
	return mt.DB.Name() + "." + db.TasksCollection
}

func TestMongoTaskRepository_FindByIDScopesOwner(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("owner", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, tasksNS(mt), mtest.FirstBatch, taskDoc("task-1", "alice", "Buy milk")))

		task, err := NewMongoTaskRepository(mt.DB).FindByID(context.Background(), "alice", "task-1")

		require.NoError(mt, err)
		assert.Equal(mt, "Buy milk", task.Title)
		assert.Equal(mt, model.PriorityHigh, task.Priority)

		filter := mt.GetStartedEvent().Command.Lookup("filter")
		assert.Equal(mt, "task-1", filter.Document().Lookup("_id").StringValue())
		assert.Equal(mt, "alice", filter.Document().Lookup("user").StringValue())
	})

	mt.Run("other user", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, tasksNS(mt), mtest.FirstBatch))

		task, err := NewMongoTaskRepository(mt.DB).FindByID(context.Background(), "bob", "task-1")

		assert.ErrorIs(mt, err, ErrNotFound)
		assert.Nil(mt, task)
		assert.Equal(mt, "bob", mt.GetStartedEvent().Command.Lookup("filter", "user").StringValue())
	})
}

func TestMongoTaskRepository_UpdateScopesOwner(t *testing.T) {
	mt := newMockMongo(t)

	tests := []struct {
		name    string
		owner   string
		matched int
		wantErr error
	}{
		{name: "matched", owner: "alice", matched: 1},
		{name: "unchanged document still matches", owner: "alice", matched: 1},
		{name: "other user", owner: "bob", matched: 0, wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		mt.Run(tt.name, func(mt *mtest.T) {
			mt.AddMockResponses(mtest.CreateSuccessResponse(
				bson.E{Key: "n", Value: tt.matched},
				bson.E{Key: "nModified", Value: 0},
			))

			task := &model.Task{ID: "task-1", UserID: tt.owner, Title: "Buy milk", Priority: model.PriorityLow, Status: model.TaskStatusPending}
			err := NewMongoTaskRepository(mt.DB).Update(context.Background(), task)

			if tt.wantErr != nil {
				assert.ErrorIs(mt, err, tt.wantErr)
			} else {
				assert.NoError(mt, err)
			}

			cmd := mt.GetStartedEvent().Command
			assert.Equal(mt, "task-1", cmd.Lookup("updates", "0", "q", "_id").StringValue())
			assert.Equal(mt, tt.owner, cmd.Lookup("updates", "0", "q", "user").StringValue())
			assert.Equal(mt, int32(1), cmd.Lookup("updates", "0", "u", "priority_rank").Int32())
		})
	}
}

func TestMongoTaskRepository_DeleteTwice(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("second delete is not found", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)
		repo := NewMongoTaskRepository(mt.DB)

		require.NoError(mt, repo.Delete(context.Background(), "alice", "task-1"))
		assert.ErrorIs(mt, repo.Delete(context.Background(), "alice", "task-1"), ErrNotFound)

		for i := 0; i < 2; i++ {
			cmd := mt.GetStartedEvent().Command
			assert.Equal(mt, "task-1", cmd.Lookup("deletes", "0", "q", "_id").StringValue())
			assert.Equal(mt, "alice", cmd.Lookup("deletes", "0", "q", "user").StringValue())
		}
	})
}

func TestMongoTaskRepository_ListDueBetween(t *testing.T) {
	mt := newMockMongo(t)
	from := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	mt.Run("bounds and status", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, tasksNS(mt), mtest.FirstBatch,
			taskDoc("task-1", "alice", "Buy milk"),
			taskDoc("task-2", "bob", "Pay rent"),
		))

		tasks, err := NewMongoTaskRepository(mt.DB).ListDueBetween(context.Background(), from, to)

		require.NoError(mt, err)
		require.Len(mt, tasks, 2)
		assert.Equal(mt, "bob", tasks[1].UserID)

		cmd := mt.GetStartedEvent().Command
		assert.True(mt, from.Equal(cmd.Lookup("filter", "due_date", "$gte").Time()))
		assert.True(mt, to.Equal(cmd.Lookup("filter", "due_date", "$lte").Time()))
		assert.Equal(mt, "completed", cmd.Lookup("filter", "status", "$ne").StringValue())
		_, hasOwner := cmd.Lookup("filter").Document().Lookup("user").StringValueOK()
		assert.False(mt, hasOwner)
		assert.Equal(mt, int32(1), cmd.Lookup("sort", "due_date").Int32())
	})
}

func TestMongoUserRepository_Duplicate(t *testing.T) {
	mt := newMockMongo(t)
	dup := mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error collection: taskboard.users index: email_1"})

	mt.Run("create", func(mt *mtest.T) {
		mt.AddMockResponses(dup)

		err := NewMongoUserRepository(mt.DB).Create(context.Background(), &model.User{Email: "a@example.com", Username: "alice"})

		assert.ErrorIs(mt, err, ErrDuplicate)
	})

	mt.Run("update", func(mt *mtest.T) {
		mt.AddMockResponses(dup)

		err := NewMongoUserRepository(mt.DB).Update(context.Background(), &model.User{ID: "user-1", Email: "a@example.com"})

		assert.ErrorIs(mt, err, ErrDuplicate)
	})
}

func TestMongoUserRepository_FindByEmailNotFound(t *testing.T) {
	mt := newMockMongo(t)

	mt.Run("missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+"."+db.UsersCollection, mtest.FirstBatch))

		user, err := NewMongoUserRepository(mt.DB).FindByEmail(context.Background(), "ghost@example.com")

		assert.ErrorIs(mt, err, ErrNotFound)
		assert.Nil(mt, user)
		assert.Equal(mt, "ghost@example.com", mt.GetStartedEvent().Command.Lookup("filter", "email").StringValue())
	})
}
