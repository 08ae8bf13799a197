package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taskboard/internal/db"
	"taskboard/internal/model"
)

type mongoTaskRepository struct {
	coll *mongo.Collection
}

// NewMongoTaskRepository builds a MongoDB-backed task repository.
func NewMongoTaskRepository(database *mongo.Database) TaskRepository {
	return &mongoTaskRepository{coll: database.Collection(db.TasksCollection)}
}

func (r *mongoTaskRepository) Create(ctx context.Context, task *model.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	task.CreatedAt = now
	task.UpdatedAt = now
	prepareMongoTask(task)

	if _, err := r.coll.InsertOne(ctx, task); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *mongoTaskRepository) FindByID(ctx context.Context, owner, id string) (*model.Task, error) {
	var task model.Task
	err := r.coll.FindOne(ctx, bson.M{"_id": id, "user": owner}).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return &task, nil
}

func (r *mongoTaskRepository) List(ctx context.Context, owner string, filter TaskFilter) ([]model.Task, error) {
	opts := options.Find().SetSort(mongoTaskSort(filter.Sort))
	return r.find(ctx, mongoTaskFilter(owner, filter), opts)
}

func (r *mongoTaskRepository) Update(ctx context.Context, task *model.Task) error {
	task.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	prepareMongoTask(task)

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": task.ID, "user": task.UserID}, task)
	if err != nil {
		return fmt.Errorf("replace task: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoTaskRepository) Delete(ctx context.Context, owner, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "user": owner})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoTaskRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]model.Task, error) {
	filter := bson.M{
		"due_date": bson.M{"$gte": from, "$lte": to},
		"status":   bson.M{"$ne": model.TaskStatusCompleted},
	}
	opts := options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *mongoTaskRepository) find(ctx context.Context, filter any, opts *options.FindOptions) ([]model.Task, error) {
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := make([]model.Task, 0)
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	return tasks, nil
}

func prepareMongoTask(task *model.Task) {
	task.PriorityRank = task.Priority.Rank()
	if task.DueDate != nil {
		due := task.DueDate.UTC().Truncate(time.Millisecond)
		task.DueDate = &due
	}
}

// mongoTaskFilter builds the owner-scoped query document for filter.
func mongoTaskFilter(owner string, filter TaskFilter) bson.M {
	query := bson.M{"user": owner}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Priority != "" {
		query["priority"] = filter.Priority
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
	}
	return query
}

// mongoTaskSort returns the sort document for s, tie-broken by newest first.
func mongoTaskSort(s TaskSort) bson.D {
	direction := func(desc bool) int {
		if desc {
			return -1
		}
		return 1
	}

	key, desc := sortSpec(s)
	switch key {
	case sortByDue:
		return bson.D{{Key: "due_date", Value: direction(desc)}, {Key: "created_at", Value: -1}}
	case sortByPriority:
		return bson.D{{Key: "priority_rank", Value: direction(desc)}, {Key: "created_at", Value: -1}}
	default:
		return bson.D{{Key: "created_at", Value: direction(desc)}, {Key: "_id", Value: direction(desc)}}
	}
}
