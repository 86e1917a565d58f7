package habits

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrVersionConflict is returned by Replace when the stored habit changed
// since it was read.
var ErrVersionConflict = errors.New("habit was modified concurrently")

// Store persists habits. Listing methods return habits in insertion order.
// Implementations classify I/O failures as Unavailable and missing
// documents as NotFound using pkg/errors.
type Store interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*Habit, error)
	ListByOwner(ctx context.Context, email string) ([]*Habit, error)
	ListPublic(ctx context.Context) ([]*Habit, error)

	// Insert assigns the id and sets Version to 1.
	Insert(ctx context.Context, habit *Habit) error

	// Replace writes habit only if the stored version equals expectedVersion,
	// then sets habit.Version to expectedVersion+1.
	Replace(ctx context.Context, habit *Habit, expectedVersion int64) error

	Delete(ctx context.Context, id primitive.ObjectID) error

	// ListStreaking returns habits whose stored current streak is positive.
	ListStreaking(ctx context.Context) ([]*Habit, error)

	// ListByReminderTime returns habits whose reminder is set to hhmm.
	ListByReminderTime(ctx context.Context, hhmm string) ([]*Habit, error)
}
