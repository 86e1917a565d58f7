package habits

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "github.com/xyz-asif/habitstreak/pkg/errors"
)

// MemoryStore is a process-local Store used by tests and by the
// STORE=memory development mode. It copies habits in and out.
type MemoryStore struct {
	mu     sync.RWMutex
	habits map[primitive.ObjectID]*Habit
	order  []primitive.ObjectID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{habits: make(map[primitive.ObjectID]*Habit)}
}

func (s *MemoryStore) GetByID(_ context.Context, id primitive.ObjectID) (*Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.habits[id]
	if !ok {
		return nil, apperrors.NotFound("Habit not found")
	}
	return h.Clone(), nil
}

func (s *MemoryStore) ListByOwner(_ context.Context, email string) ([]*Habit, error) {
	return s.list(func(h *Habit) bool { return h.OwnerEmail == email }), nil
}

func (s *MemoryStore) ListPublic(_ context.Context) ([]*Habit, error) {
	return s.list(func(h *Habit) bool { return h.IsPublic }), nil
}

func (s *MemoryStore) ListStreaking(_ context.Context) ([]*Habit, error) {
	return s.list(func(h *Habit) bool { return h.CurrentStreak > 0 }), nil
}

func (s *MemoryStore) ListByReminderTime(_ context.Context, hhmm string) ([]*Habit, error) {
	return s.list(func(h *Habit) bool { return h.ReminderTime == hhmm }), nil
}

func (s *MemoryStore) Insert(_ context.Context, habit *Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	habit.ID = primitive.NewObjectID()
	habit.Version = 1
	s.habits[habit.ID] = habit.Clone()
	s.order = append(s.order, habit.ID)
	return nil
}

func (s *MemoryStore) Replace(_ context.Context, habit *Habit, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.habits[habit.ID]
	if !ok {
		return apperrors.NotFound("Habit not found")
	}
	if current.Version != expectedVersion {
		return ErrVersionConflict
	}

	habit.Version = expectedVersion + 1
	s.habits[habit.ID] = habit.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.habits[id]; !ok {
		return apperrors.NotFound("Habit not found")
	}
	delete(s.habits, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) list(keep func(*Habit) bool) []*Habit {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Habit, 0)
	for _, id := range s.order {
		if h := s.habits[id]; keep(h) {
			out = append(out, h.Clone())
		}
	}
	return out
}
