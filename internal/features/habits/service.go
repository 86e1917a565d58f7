package habits

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/habitstreak/internal/features/auth"
	"github.com/xyz-asif/habitstreak/internal/pkg/logger"
	"github.com/xyz-asif/habitstreak/internal/pkg/validator"
	apperrors "github.com/xyz-asif/habitstreak/pkg/errors"
)

const (
	// maxWriteAttempts bounds the read/compute/replace loop for one request.
	maxWriteAttempts = 5

	// featuredCacheSize is how many ranked habits are cached; requests slice from it.
	featuredCacheSize = 50

	FeaturedCacheKey = "habits:featured"
)

// Event types published after a successful write.
const (
	EventCreated   = "habit.created"
	EventUpdated   = "habit.updated"
	EventCompleted = "habit.completed"
	EventDeleted   = "habit.deleted"
)

// Cache stores JSON values by key. A miss is (false, nil).
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Publisher emits domain events keyed by habit id.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload interface{}) error
}

// ServiceConfig carries the deployment-level knobs of the service.
type ServiceConfig struct {
	Location         *time.Location
	FeaturedCount    int
	FeaturedCacheTTL time.Duration
	Now              func() time.Time
}

type Service struct {
	store         Store
	cache         Cache
	publisher     Publisher
	loc           *time.Location
	now           func() time.Time
	featuredCount int
	featuredTTL   time.Duration
}

// NewService wires the habit engine. cache and publisher may be nil.
func NewService(store Store, cache Cache, publisher Publisher, cfg ServiceConfig) *Service {
	s := &Service{
		store:         store,
		cache:         cache,
		publisher:     publisher,
		loc:           cfg.Location,
		now:           cfg.Now,
		featuredCount: cfg.FeaturedCount,
		featuredTTL:   cfg.FeaturedCacheTTL,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.featuredCount <= 0 {
		s.featuredCount = DefaultFeaturedCount
	}
	if s.featuredTTL <= 0 {
		s.featuredTTL = 5 * time.Minute
	}
	return s
}

// Today is the current calendar day in the streak timezone.
func (s *Service) Today() civil.Date {
	return DayIn(s.now(), s.loc)
}

// Location is the fixed reference timezone for streak days.
func (s *Service) Location() *time.Location {
	return s.loc
}

// Create validates input and stores a new habit owned by caller.
func (s *Service) Create(ctx context.Context, caller auth.Caller, req CreateHabitRequest) (*Habit, error) {
	if caller.Anonymous() {
		return nil, apperrors.Unauthorized("Sign in to create habits")
	}
	if err := ValidateCreate(req); err != nil {
		return nil, err
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	now := s.now().UTC()
	habit := &Habit{
		Title:             strings.TrimSpace(req.Title),
		Description:       strings.TrimSpace(req.Description),
		Category:          req.Category,
		ReminderTime:      req.ReminderTime,
		ImageURL:          req.ImageURL,
		IsPublic:          isPublic,
		OwnerEmail:        auth.NormalizeEmail(caller.Email),
		OwnerName:         caller.Name,
		OwnerPhotoURL:     caller.PhotoURL,
		CompletionHistory: CompletionHistory{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.store.Insert(ctx, habit); err != nil {
		return nil, err
	}

	if habit.IsPublic {
		s.invalidateFeatured(ctx)
	}
	s.publish(ctx, EventCreated, habit)
	return habit, nil
}

// Update applies the editable fields of patch. Only the owner may update.
func (s *Service) Update(ctx context.Context, caller auth.Caller, id primitive.ObjectID, patch UpdateHabitRequest) (*Habit, error) {
	var wasPublic bool
	habit, _, err := s.mutate(ctx, id, func(h *Habit) (bool, error) {
		if err := authorizeMutation(caller, h, "Only the owner can edit this habit"); err != nil {
			return false, err
		}
		if err := ValidateUpdate(patch); err != nil {
			return false, err
		}

		wasPublic = h.IsPublic
		applyPatch(h, patch)
		h.UpdatedAt = s.now().UTC()
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if wasPublic || habit.IsPublic {
		s.invalidateFeatured(ctx)
	}
	s.publish(ctx, EventUpdated, habit)
	return habit, nil
}

func applyPatch(h *Habit, patch UpdateHabitRequest) {
	if patch.Title != nil {
		h.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		h.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Category != nil {
		h.Category = *patch.Category
	}
	if patch.ReminderTime != nil {
		h.ReminderTime = *patch.ReminderTime
	}
	if patch.ImageURL != nil {
		h.ImageURL = *patch.ImageURL
	}
	if patch.IsPublic != nil {
		h.IsPublic = *patch.IsPublic
	}
}

// MarkComplete records today for the habit. Completing twice on the same day
// returns the stored habit unchanged.
func (s *Service) MarkComplete(ctx context.Context, caller auth.Caller, id primitive.ObjectID) (*Habit, error) {
	today := s.Today()

	habit, changed, err := s.mutate(ctx, id, func(h *Habit) (bool, error) {
		if err := authorizeMutation(caller, h, "Only the owner can complete this habit"); err != nil {
			return false, err
		}
		if h.CompletionHistory.Contains(today) {
			return false, nil
		}

		h.CompletionHistory = h.CompletionHistory.With(today)
		stats := Recompute(h.CompletionHistory, today)
		h.CurrentStreak = stats.Current
		h.LongestStreak = stats.Longest
		h.UpdatedAt = s.now().UTC()
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		if habit.IsPublic {
			s.invalidateFeatured(ctx)
		}
		s.publish(ctx, EventCompleted, habit)
	}
	return habit, nil
}

// Delete removes the habit permanently. Only the owner may delete.
func (s *Service) Delete(ctx context.Context, caller auth.Caller, id primitive.ObjectID) error {
	habit, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeMutation(caller, habit, "Only the owner can delete this habit"); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	if habit.IsPublic {
		s.invalidateFeatured(ctx)
	}
	s.publish(ctx, EventDeleted, habit)
	return nil
}

// ListByOwner returns every habit owned by email, public or private.
func (s *Service) ListByOwner(ctx context.Context, email string) ([]*Habit, error) {
	email = auth.NormalizeEmail(email)
	if email == "" {
		return nil, apperrors.Validation("owner email is required")
	}
	if !validator.IsValidEmail(email) {
		return nil, apperrors.Validation("owner email is invalid")
	}
	return s.store.ListByOwner(ctx, email)
}

// ListPublic returns public habits matching filter in store order.
func (s *Service) ListPublic(ctx context.Context, filter FeedFilter) ([]*Habit, error) {
	habits, err := s.store.ListPublic(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(habits, filter), nil
}

// GetByID returns a habit visible to caller. Private habits of other owners
// are reported as not found.
func (s *Service) GetByID(ctx context.Context, caller auth.Caller, id primitive.ObjectID) (*Habit, error) {
	habit, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanRead(caller, habit) {
		return nil, apperrors.NotFound("Habit not found")
	}
	return habit, nil
}

// Featured returns up to n top-ranked public habits. n <= 0 uses the
// configured default.
func (s *Service) Featured(ctx context.Context, n int) ([]*Habit, error) {
	if n <= 0 {
		n = s.featuredCount
	}
	if n > featuredCacheSize {
		n = featuredCacheSize
	}

	ranked, err := s.rankedFeatured(ctx)
	if err != nil {
		return nil, err
	}
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked, nil
}

func (s *Service) rankedFeatured(ctx context.Context) ([]*Habit, error) {
	if s.cache != nil {
		var cached []*Habit
		hit, err := s.cache.GetJSON(ctx, FeaturedCacheKey, &cached)
		if err != nil {
			logger.Warn("featured cache read failed: %v", err)
		} else if hit {
			return cached, nil
		}
	}

	public, err := s.store.ListPublic(ctx)
	if err != nil {
		return nil, err
	}
	ranked := SelectFeatured(public, featuredCacheSize)

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, FeaturedCacheKey, ranked, s.featuredTTL); err != nil {
			logger.Warn("featured cache write failed: %v", err)
		}
	}
	return ranked, nil
}

// Progress derives streak stats for a readable habit as of today.
func (s *Service) Progress(ctx context.Context, caller auth.Caller, id primitive.ObjectID) (*Progress, error) {
	habit, err := s.GetByID(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	today := s.Today()
	stats := Recompute(habit.CompletionHistory, today)
	return &Progress{
		HabitID:     habit.ID,
		AsOf:        today,
		Current:     stats.Current,
		Longest:     stats.Longest,
		ProgressPct: stats.ProgressPct,
		DoneToday:   habit.CompletionHistory.Contains(today),
	}, nil
}

// RefreshStreaks recomputes stored streaks as of today for every habit with
// a positive current streak and returns how many were rewritten.
// A failure on one habit is logged and does not stop the pass.
func (s *Service) RefreshStreaks(ctx context.Context) (int, error) {
	streaking, err := s.store.ListStreaking(ctx)
	if err != nil {
		return 0, err
	}

	today := s.Today()
	updated := 0
	anyPublic := false
	for _, candidate := range streaking {
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		habit, changed, err := s.mutate(ctx, candidate.ID, func(h *Habit) (bool, error) {
			stats := Recompute(h.CompletionHistory, today)
			if stats.Current == h.CurrentStreak && stats.Longest == h.LongestStreak {
				return false, nil
			}
			h.CurrentStreak = stats.Current
			h.LongestStreak = stats.Longest
			h.UpdatedAt = s.now().UTC()
			return true, nil
		})
		if err != nil {
			if apperrors.KindOf(err) != apperrors.KindNotFound {
				logger.Warn("streak refresh failed for habit %s: %v", candidate.ID.Hex(), err)
			}
			continue
		}
		if changed {
			updated++
			anyPublic = anyPublic || habit.IsPublic
		}
	}

	if anyPublic {
		s.invalidateFeatured(ctx)
	}
	return updated, nil
}

// DueReminders returns habits whose reminder falls on the minute of at, in
// the streak timezone, and which are not yet completed that day.
func (s *Service) DueReminders(ctx context.Context, at time.Time) ([]*Habit, error) {
	local := at.In(s.loc)
	habits, err := s.store.ListByReminderTime(ctx, local.Format("15:04"))
	if err != nil {
		return nil, err
	}

	day := civil.DateOf(local)
	due := make([]*Habit, 0, len(habits))
	for _, h := range habits {
		if !h.CompletionHistory.Contains(day) {
			due = append(due, h)
		}
	}
	return due, nil
}

// mutate runs apply against the latest stored habit and writes the result
// only if nobody else wrote in between. On conflict the habit is re-read and
// apply runs again. apply returns false when there is nothing to write.
func (s *Service) mutate(ctx context.Context, id primitive.ObjectID, apply func(*Habit) (bool, error)) (*Habit, bool, error) {
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		habit, err := s.store.GetByID(ctx, id)
		if err != nil {
			return nil, false, err
		}

		expected := habit.Version
		changed, err := apply(habit)
		if err != nil {
			return nil, false, err
		}
		if !changed {
			return habit, false, nil
		}

		err = s.store.Replace(ctx, habit, expected)
		if err == nil {
			return habit, true, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, false, err
		}
		logger.Debug("habit %s changed concurrently, retrying (attempt %d)", id.Hex(), attempt)
	}
	return nil, false, apperrors.Unavailable("Habit is busy, please retry", ErrVersionConflict)
}

func (s *Service) invalidateFeatured(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, FeaturedCacheKey); err != nil {
		logger.Warn("featured cache invalidation failed: %v", err)
	}
}

func (s *Service) publish(ctx context.Context, eventType string, habit *Habit) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, habit.ID.Hex(), habit); err != nil {
		logger.Warn("publish %s for habit %s failed: %v", eventType, habit.ID.Hex(), err)
	}
}
