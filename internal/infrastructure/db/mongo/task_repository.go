package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskdesk/task-system/internal/core/domain"
	"github.com/taskdesk/task-system/internal/core/ports"
)

const (
	tasksCollection    = "tasks"
	commentsCollection = "comments"
)

// TaskRepository implements ports.TaskRepository using MongoDB. Comments
// live in their own collection keyed by task_id.
type TaskRepository struct {
	tasks    *mongo.Collection
	comments *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{
		tasks:    db.Collection(tasksCollection),
		comments: db.Collection(commentsCollection),
	}
}

type taskDoc struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	Urgency     string    `bson:"urgency"`
	Status      string    `bson:"status"`
	DueDate     time.Time `bson:"due_date"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
	Version     int64     `bson:"version"`
	AssignedTo  string    `bson:"assigned_to"`
}

func newTaskDoc(t *domain.Task) taskDoc {
	return taskDoc{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Urgency:     string(t.Urgency),
		Status:      string(t.Status),
		DueDate:     t.DueDate.UTC(),
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
		Version:     t.Version,
		AssignedTo:  t.AssignedTo,
	}
}

func (d taskDoc) toDomain() *domain.Task {
	return &domain.Task{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Urgency:     domain.Urgency(d.Urgency),
		Status:      domain.TaskStatus(d.Status),
		DueDate:     d.DueDate.UTC(),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
		Version:     d.Version,
		AssignedTo:  d.AssignedTo,
	}
}

type commentDoc struct {
	ID        string    `bson:"_id"`
	TaskID    string    `bson:"task_id"`
	AuthorID  string    `bson:"author_id"`
	Text      string    `bson:"text"`
	CreatedAt time.Time `bson:"created_at"`
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.tasks.InsertOne(ctx, newTaskDoc(t)); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc taskDoc
	if err := r.tasks.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *TaskRepository) List(ctx context.Context, filter ports.ListTasksFilter) ([]*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.AssignedTo != "" {
		query["assigned_to"] = filter.AssignedTo
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})

	cur, err := r.tasks.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	var docs []taskDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}

	out := make([]*domain.Task, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// Update replaces the task only when the stored version still matches.
func (r *TaskRepository) Update(ctx context.Context, t *domain.Task, expectedVersion int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := newTaskDoc(t)
	update := bson.M{"$set": bson.M{
		"title":       doc.Title,
		"description": doc.Description,
		"urgency":     doc.Urgency,
		"status":      doc.Status,
		"due_date":    doc.DueDate,
		"updated_at":  doc.UpdatedAt,
		"version":     doc.Version,
		"assigned_to": doc.AssignedTo,
	}}

	res, err := r.tasks.UpdateOne(ctx, bson.M{"_id": t.ID, "version": expectedVersion}, update)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	n, err := r.tasks.CountDocuments(ctx, bson.M{"_id": t.ID})
	if err != nil {
		return fmt.Errorf("check task existence: %w", err)
	}
	if n == 0 {
		return domain.ErrTaskNotFound
	}
	return domain.ErrConcurrency
}

// Delete removes the task's comments first, then the task.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.comments.DeleteMany(ctx, bson.M{"task_id": id}); err != nil {
		return fmt.Errorf("delete task comments: %w", err)
	}
	res, err := r.tasks.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// AddComment inserts the comment and then confirms the task still exists.
// A task deleted in between gets the comment rolled back.
func (r *TaskRepository) AddComment(ctx context.Context, c *domain.Comment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := commentDoc{
		ID:        c.ID,
		TaskID:    c.TaskID,
		AuthorID:  c.AuthorID,
		Text:      c.Text,
		CreatedAt: c.CreatedAt.UTC(),
	}
	if _, err := r.comments.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}

	n, err := r.tasks.CountDocuments(ctx, bson.M{"_id": c.TaskID})
	if err != nil {
		return fmt.Errorf("check task existence: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := r.comments.DeleteOne(ctx, bson.M{"_id": c.ID}); err != nil {
		return fmt.Errorf("roll back comment: %w", err)
	}
	return domain.ErrTaskNotFound
}

func (r *TaskRepository) ListComments(ctx context.Context, taskIDs ...string) ([]*domain.Comment, error) {
	if len(taskIDs) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.comments.Find(ctx, bson.M{"task_id": bson.M{"$in": taskIDs}}, opts)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	var docs []commentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}

	out := make([]*domain.Comment, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domain.Comment{
			ID:        d.ID,
			TaskID:    d.TaskID,
			AuthorID:  d.AuthorID,
			Text:      d.Text,
			CreatedAt: d.CreatedAt.UTC(),
		})
	}
	return out, nil
}

// EnsureIndexes creates the lookup indexes on tasks and comments.
func (r *TaskRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := r.tasks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "assigned_to", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}); err != nil {
		return err
	}
	_, err := r.comments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "task_id", Value: 1}, {Key: "created_at", Value: 1}}},
	})
	return err
}
