package users

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Profile is the display identity of a signed-in user, keyed by email.
// Habits copy it at creation and are not updated when it changes.
type Profile struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string             `bson:"email" json:"email" example:"ana@example.com"`
	Name      string             `bson:"name" json:"name" example:"Ana Lima"`
	PhotoURL  string             `bson:"photoUrl,omitempty" json:"photoUrl,omitempty" example:"https://lh3.googleusercontent.com/a/photo.jpg"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// UpsertProfileRequest overrides the name and photo taken from the token
type UpsertProfileRequest struct {
	Name     string `json:"name" binding:"omitempty,max=80" example:"Ana Lima"`
	PhotoURL string `json:"photoUrl" binding:"omitempty,url" example:"https://lh3.googleusercontent.com/a/photo.jpg"`
}
