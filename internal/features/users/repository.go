package users

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xyz-asif/habitstreak/internal/database"
	"github.com/xyz-asif/habitstreak/internal/pkg/logger"
	apperrors "github.com/xyz-asif/habitstreak/pkg/errors"
)

const storeName = "Profile store"

// Store persists profiles by email
type Store interface {
	Upsert(ctx context.Context, profile *Profile) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
}

// Repository handles database interactions for user profiles
type Repository struct {
	collection *mongo.Collection
}

// NewRepository initializes the repository and creates necessary indexes
func NewRepository(db *mongo.Database) *Repository {
	collection := db.Collection("users")

	_, err := collection.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		logger.Warn("Failed to create user indexes: %v", err)
	}

	return &Repository{collection: collection}
}

// Upsert creates the profile or refreshes its name and photo, returning the stored document
func (r *Repository) Upsert(ctx context.Context, profile *Profile) (*Profile, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"name":      profile.Name,
			"photoUrl":  profile.PhotoURL,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"email":     profile.Email,
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored Profile
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"email": profile.Email}, update, opts).Decode(&stored)
	if err != nil {
		return nil, database.Classify(storeName, "upsert profile", err)
	}
	return &stored, nil
}

// GetByEmail finds a profile by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	var profile Profile
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("Profile not found")
		}
		return nil, database.Classify(storeName, "find profile", err)
	}
	return &profile, nil
}
