package habits

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xyz-asif/habitstreak/internal/database"
	"github.com/xyz-asif/habitstreak/internal/pkg/logger"
	apperrors "github.com/xyz-asif/habitstreak/pkg/errors"
)

const (
	collectionName = "habits"
	storeName      = "Habit store"
)

// Repository is the MongoDB Store.
type Repository struct {
	collection *mongo.Collection
}

func NewRepository(db *mongo.Database) *Repository {
	collection := db.Collection(collectionName)

	// Create indexes
	_, err := collection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{{Key: "ownerEmail", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "isPublic", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "currentStreak", Value: -1}}},
		{Keys: bson.D{{Key: "reminderTime", Value: 1}}},
	})
	if err != nil {
		logger.Warn("Failed to create habit indexes: %v", err)
	}

	return &Repository{collection: collection}
}

func (r *Repository) GetByID(ctx context.Context, id primitive.ObjectID) (*Habit, error) {
	var habit Habit
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&habit)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("Habit not found")
		}
		return nil, database.Classify(storeName, "find habit", err)
	}
	return &habit, nil
}

func (r *Repository) ListByOwner(ctx context.Context, email string) ([]*Habit, error) {
	return r.find(ctx, bson.M{"ownerEmail": email})
}

func (r *Repository) ListPublic(ctx context.Context) ([]*Habit, error) {
	return r.find(ctx, bson.M{"isPublic": true})
}

func (r *Repository) ListStreaking(ctx context.Context) ([]*Habit, error) {
	return r.find(ctx, bson.M{"currentStreak": bson.M{"$gt": 0}})
}

func (r *Repository) ListByReminderTime(ctx context.Context, hhmm string) ([]*Habit, error) {
	return r.find(ctx, bson.M{"reminderTime": hhmm})
}

func (r *Repository) Insert(ctx context.Context, habit *Habit) error {
	habit.Version = 1

	result, err := r.collection.InsertOne(ctx, habit)
	if err != nil {
		return database.Classify(storeName, "insert habit", err)
	}

	habit.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// Replace is a single conditional write keyed on (_id, version), so two
// writers that read the same version cannot both succeed.
func (r *Repository) Replace(ctx context.Context, habit *Habit, expectedVersion int64) error {
	habit.Version = expectedVersion + 1

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": habit.ID, "version": expectedVersion}, habit)
	if err != nil {
		habit.Version = expectedVersion
		return database.Classify(storeName, "replace habit", err)
	}

	if result.MatchedCount == 0 {
		habit.Version = expectedVersion
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": habit.ID})
		if err != nil {
			return database.Classify(storeName, "count habit", err)
		}
		if count == 0 {
			return apperrors.NotFound("Habit not found")
		}
		return ErrVersionConflict
	}

	return nil
}

func (r *Repository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return database.Classify(storeName, "delete habit", err)
	}
	if result.DeletedCount == 0 {
		return apperrors.NotFound("Habit not found")
	}
	return nil
}

func (r *Repository) find(ctx context.Context, filter bson.M) ([]*Habit, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, database.Classify(storeName, "list habits", err)
	}
	defer cursor.Close(ctx)

	var habits []*Habit
	if err := cursor.All(ctx, &habits); err != nil {
		return nil, database.Classify(storeName, "decode habits", err)
	}

	if habits == nil {
		habits = []*Habit{}
	}
	return habits, nil
}
