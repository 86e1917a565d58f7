package habits

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/habitstreak/internal/features/auth"
	apperrors "github.com/xyz-asif/habitstreak/pkg/errors"
)

var (
	owner    = auth.Caller{Email: "ana@example.com", Name: "Ana Lima", PhotoURL: "https://example.com/ana.png"}
	stranger = auth.Caller{Email: "bo@example.com", Name: "Bo"}
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deletes int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte)}
}

func (c *memCache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = raw
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	c.deletes++
	return nil
}

type recordedEvent struct {
	Type string
	Key  string
}

type capturePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, eventType, key string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Type: eventType, Key: key})
	return p.err
}

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type serviceFixture struct {
	svc       *Service
	store     *MemoryStore
	clock     *fakeClock
	cache     *memCache
	publisher *capturePublisher
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		store:     NewMemoryStore(),
		clock:     &fakeClock{now: time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)},
		cache:     newMemCache(),
		publisher: &capturePublisher{},
	}
	f.svc = NewService(f.store, f.cache, f.publisher, ServiceConfig{
		Location: time.UTC,
		Now:      f.clock.Now,
	})
	return f
}

func (f *serviceFixture) create(t *testing.T, title string, public bool) *Habit {
	t.Helper()
	req := validCreate()
	req.Title = title
	req.IsPublic = &public
	h, err := f.svc.Create(context.Background(), owner, req)
	require.NoError(t, err)
	return h
}

func TestService_Create(t *testing.T) {
	f := newFixture(t)

	h, err := f.svc.Create(context.Background(), owner, validCreate())
	require.NoError(t, err)
	require.False(t, h.ID.IsZero())
	require.Equal(t, owner.Email, h.OwnerEmail)
	require.Equal(t, owner.Name, h.OwnerName)
	require.Equal(t, owner.PhotoURL, h.OwnerPhotoURL)
	require.True(t, h.IsPublic)
	require.NotNil(t, h.CompletionHistory)
	require.Empty(t, h.CompletionHistory)
	require.Zero(t, h.CurrentStreak)
	require.Zero(t, h.LongestStreak)
	require.Equal(t, f.clock.Now(), h.CreatedAt)
	require.Equal(t, h.CreatedAt, h.UpdatedAt)
	require.Equal(t, []string{EventCreated}, f.publisher.types())
}

func TestService_CreateRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)

	req := validCreate()
	req.Category = "Weekend"
	_, err := f.svc.Create(context.Background(), owner, req)
	require.True(t, errors.Is(err, apperrors.ErrValidation))

	_, err = f.svc.Create(context.Background(), auth.Caller{}, validCreate())
	require.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	all, _ := f.store.ListByOwner(context.Background(), owner.Email)
	require.Empty(t, all)
}

func TestService_MarkCompleteIsIdempotentPerDay(t *testing.T) {
	f := newFixture(t)
	h := f.create(t, "Run", true)
	ctx := context.Background()

	first, err := f.svc.MarkComplete(ctx, owner, h.ID)
	require.NoError(t, err)
	require.Len(t, first.CompletionHistory, 1)
	require.Equal(t, 1, first.CurrentStreak)
	require.Equal(t, 1, first.LongestStreak)

	f.clock.Advance(2 * time.Hour)
	second, err := f.svc.MarkComplete(ctx, owner, h.ID)
	require.NoError(t, err)
	require.Len(t, second.CompletionHistory, 1)
	require.Equal(t, first.UpdatedAt, second.UpdatedAt)
	require.Equal(t, first.Version, second.Version)

	require.Equal(t, []string{EventCreated, EventCompleted}, f.publisher.types())
}

func TestService_MarkCompleteBuildsStreak(t *testing.T) {
	f := newFixture(t)
	h := f.create(t, "Read", false)
	ctx := context.Background()

	longest := 0
	for i := 0; i < 4; i++ {
		got, err := f.svc.MarkComplete(ctx, owner, h.ID)
		require.NoError(t, err)
		require.GreaterOrEqual(t, got.LongestStreak, longest)
		require.GreaterOrEqual(t, got.LongestStreak, got.CurrentStreak)
		longest = got.LongestStreak
		f.clock.Advance(24 * time.Hour)
	}
	require.Equal(t, 4, longest)

	// skip two days, then complete again
	f.clock.Advance(48 * time.Hour)
	got, err := f.svc.MarkComplete(ctx, owner, h.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.CurrentStreak)
	require.Equal(t, 4, got.LongestStreak)
}

func TestService_MarkCompleteRequiresOwner(t *testing.T) {
	f := newFixture(t)
	h := f.create(t, "Run", true)

	_, err := f.svc.MarkComplete(context.Background(), stranger, h.ID)
	require.True(t, errors.Is(err, apperrors.ErrForbidden))

	_, err = f.svc.MarkComplete(context.Background(), owner, primitive.NewObjectID())
	require.True(t, errors.Is(err, apperrors.ErrNotFound))

	stored, _ := f.store.GetByID(context.Background(), h.ID)
	require.Empty(t, stored.CompletionHistory)
}

func TestService_MarkCompleteConcurrent(t *testing.T) {
	f := newFixture(t)
	h := f.create(t, "Meditate", true)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.MarkComplete(context.Background(), owner, h.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := f.store.GetByID(context.Background(), h.ID)
	require.NoError(t, err)
	require.Len(t, stored.CompletionHistory, 1)
	require.Equal(t, 1, stored.CurrentStreak)
	require.Equal(t, int64(2), stored.Version)
}

// conflictStore fails the first n Replace calls with a version conflict.
type conflictStore struct {
	*MemoryStore
	mu        sync.Mutex
	conflicts int
	calls     int
}

func (s *conflictStore) Replace(ctx context.Context, habit *Habit, expectedVersion int64) error {
	s.mu.Lock()
	s.calls++
	fail := s.calls <= s.conflicts
	s.mu.Unlock()
	if fail {
		return ErrVersionConflict
	}
	return s.MemoryStore.Replace(ctx, habit, expectedVersion)
}

func TestService_MarkCompleteRetriesConflicts(t *testing.T) {
	store := &conflictStore{MemoryStore: NewMemoryStore(), conflicts: 2}
	clock := &fakeClock{now: time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)}
	svc := NewService(store, nil, nil, ServiceConfig{Now: clock.Now})

	h, err := svc.Create(context.Background(), owner, validCreate())
	require.NoError(t, err)

	got, err := svc.MarkComplete(context.Background(), owner, h.ID)
	require.NoError(t, err)
	require.Len(t, got.CompletionHistory, 1)
	require.Equal(t, 3, store.calls)
}

func TestService_MarkCompleteGivesUpAsUnavailable(t *testing.T) {
	store := &conflictStore{MemoryStore: NewMemoryStore(), conflicts: 100}
	svc := NewService(store, nil, nil, ServiceConfig{})

	h, err := svc.Create(context.Background(), owner, validCreate())
	require.NoError(t, err)

	_, err = svc.MarkComplete(context.Background(), owner, h.ID)
	require.True(t, errors.Is(err, apperrors.ErrUnavailable))
	require.Equal(t, maxWriteAttempts, store.calls)
}

func TestService_UpdateAppliesOnlyEditableFields(t *testing.T) {
	f := newFixture(t)
	h := f.create(t, "Run", true)
	_, err := f.svc.MarkComplete(context.Background(), owner, h.ID)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	title := "  Evening Run "
	private := false
	got, err := f.svc.Update(context.Background(), owner, h.ID, UpdateHabitRequest{Title: &title, IsPublic: &private})
	require.NoError(t, err)
	require.Equal(t, "Evening Run", got.Title)
	require.False(t, got.IsPublic)
	require.Equal(t, h.Description, got.Description)
	require.Len(t, got.CompletionHistory, 1)
	require.Equal(t, 1, got.CurrentStreak)
	require.Equal(t, owner.Email, got.OwnerEmail)
	require.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestService_NonOwnerCannotChangeHabit(t *testing.T) {
	f := newFixture(t)
	h := f.create(t, "Run", true)
	ctx := context.Background()
	before, _ := f.store.GetByID(ctx, h.ID)

	title := "Hijacked"
	_, err := f.svc.Update(ctx, stranger, h.ID, UpdateHabitRequest{Title: &title})
	require.True(t, errors.Is(err, apperrors.ErrForbidden))

	err = f.svc.Delete(ctx, stranger, h.ID)
	require.True(t, errors.Is(err, apperrors.ErrForbidden))

	after, err := f.store.GetByID(ctx, h.ID)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestService_UpdateUnknownHabit(t *testing.T) {
	f := newFixture(t)
	title := "x"
	_, err := f.svc.Update(context.Background(), owner, primitive.NewObjectID(), UpdateHabitRequest{Title: &title})
	require.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestService_DeleteRemovesEverywhere(t *testing.T) {
	f := newFixture(t)
	h := f.create(t, "Run", true)
	kept := f.create(t, "Read", true)
	ctx := context.Background()

	require.NoError(t, f.svc.Delete(ctx, owner, h.ID))

	_, err := f.svc.GetByID(ctx, owner, h.ID)
	require.True(t, errors.Is(err, apperrors.ErrNotFound))

	public, err := f.svc.ListPublic(ctx, FeedFilter{})
	require.NoError(t, err)
	require.Equal(t, []string{kept.Title}, titles(public))

	mine, err := f.svc.ListByOwner(ctx, owner.Email)
	require.NoError(t, err)
	require.Equal(t, []string{kept.Title}, titles(mine))

	err = f.svc.Delete(ctx, owner, h.ID)
	require.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestService_PrivateHabitHiddenFromWriters(t *testing.T) {
	f := newFixture(t)
	h := f.create(t, "Journal", false)
	ctx := context.Background()
	before, _ := f.store.GetByID(ctx, h.ID)

	title := "Peek"
	_, err := f.svc.Update(ctx, stranger, h.ID, UpdateHabitRequest{Title: &title})
	require.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = f.svc.MarkComplete(ctx, stranger, h.ID)
	require.True(t, errors.Is(err, apperrors.ErrNotFound))

	err = f.svc.Delete(ctx, stranger, h.ID)
	require.True(t, errors.Is(err, apperrors.ErrNotFound))

	after, err := f.store.GetByID(ctx, h.ID)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestService_CreateNormalizesOwnerEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mixed := auth.Caller{Email: " Ana@Example.COM ", Name: "Ana"}

	h, err := f.svc.Create(ctx, mixed, validCreate())
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", h.OwnerEmail)

	mine, err := f.svc.ListByOwner(ctx, owner.Email)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	_, err = f.svc.MarkComplete(ctx, mixed, h.ID)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, auth.Caller{Email: "   "}, validCreate())
	require.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestService_PrivateHabitVisibility(t *testing.T) {
	f := newFixture(t)
	h := f.create(t, "Journal", false)
	ctx := context.Background()

	got, err := f.svc.GetByID(ctx, owner, h.ID)
	require.NoError(t, err)
	require.Equal(t, h.ID, got.ID)

	_, err = f.svc.GetByID(ctx, stranger, h.ID)
	require.True(t, errors.Is(err, apperrors.ErrNotFound))

	_, err = f.svc.GetByID(ctx, auth.Caller{}, h.ID)
	require.True(t, errors.Is(err, apperrors.ErrNotFound))

	public, _ := f.svc.ListPublic(ctx, FeedFilter{})
	require.Empty(t, public)

	mine, _ := f.svc.ListByOwner(ctx, " ANA@example.com ")
	require.Len(t, mine, 1)

	_, err = f.svc.ListByOwner(ctx, "ana")
	require.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestService_ListPublicFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, req := range []CreateHabitRequest{
		{Title: "Morning Yoga", Description: "Stretch", Category: CategoryMorning, ReminderTime: "07:00"},
		{Title: "Deep work", Description: "Yoga session for focus", Category: CategoryWork, ReminderTime: "09:00"},
		{Title: "Lift", Description: "Weights", Category: CategoryFitness, ReminderTime: "18:00"},
	} {
		_, err := f.svc.Create(ctx, owner, req)
		require.NoError(t, err)
	}

	got, err := f.svc.ListPublic(ctx, FeedFilter{Category: CategoryAll, Search: "yoga"})
	require.NoError(t, err)
	require.Equal(t, []string{"Morning Yoga", "Deep work"}, titles(got))

	got, err = f.svc.ListPublic(ctx, FeedFilter{Category: CategoryWork, Search: "YOGA"})
	require.NoError(t, err)
	require.Equal(t, []string{"Deep work"}, titles(got))
}

func TestService_FeaturedUsesCacheAndInvalidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.create(t, "A", true)
	f.clock.Advance(time.Minute)
	f.create(t, "B", true)
	f.create(t, "Hidden", false)

	got, err := f.svc.Featured(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"B", "A"}, titles(got))

	_, cached := f.cache.entries[FeaturedCacheKey]
	require.True(t, cached)

	_, err = f.svc.MarkComplete(ctx, owner, a.ID)
	require.NoError(t, err)
	_, cached = f.cache.entries[FeaturedCacheKey]
	require.False(t, cached)

	got, err = f.svc.Featured(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"A"}, titles(got))
	require.Equal(t, 1, got[0].CurrentStreak)
}

func TestService_FeaturedServedFromCache(t *testing.T) {
	f := newFixture(t)
	stale := []*Habit{{ID: primitive.NewObjectID(), Title: "Cached"}}
	require.NoError(t, f.cache.SetJSON(context.Background(), FeaturedCacheKey, stale, time.Minute))

	got, err := f.svc.Featured(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, []string{"Cached"}, titles(got))
}

func TestService_PublishFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	h, err := f.svc.Create(context.Background(), owner, validCreate())
	require.NoError(t, err)
	require.False(t, h.ID.IsZero())
}

func TestService_Progress(t *testing.T) {
	f := newFixture(t)
	h := f.create(t, "Run", true)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.MarkComplete(ctx, owner, h.ID)
		require.NoError(t, err)
		f.clock.Advance(24 * time.Hour)
	}

	p, err := f.svc.Progress(ctx, stranger, h.ID)
	require.NoError(t, err)
	require.Equal(t, day("2024-01-06"), p.AsOf)
	require.Equal(t, 3, p.Current)
	require.Equal(t, 3, p.Longest)
	require.Equal(t, 10, p.ProgressPct)
	require.False(t, p.DoneToday)

	f.clock.Advance(24 * time.Hour)
	p, err = f.svc.Progress(ctx, stranger, h.ID)
	require.NoError(t, err)
	require.Zero(t, p.Current)
	require.Equal(t, 3, p.Longest)
}

func TestService_RefreshStreaks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lapsed := f.create(t, "Lapsed", true)
	active := f.create(t, "Active", true)

	_, err := f.svc.MarkComplete(ctx, owner, lapsed.ID)
	require.NoError(t, err)
	_, err = f.svc.MarkComplete(ctx, owner, active.ID)
	require.NoError(t, err)

	// active is completed again the next day, lapsed is not
	f.clock.Advance(24 * time.Hour)
	_, err = f.svc.MarkComplete(ctx, owner, active.ID)
	require.NoError(t, err)

	f.clock.Advance(24 * time.Hour)
	n, err := f.svc.RefreshStreaks(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, _ := f.store.GetByID(ctx, lapsed.ID)
	require.Zero(t, got.CurrentStreak)
	require.Equal(t, 1, got.LongestStreak)

	got, _ = f.store.GetByID(ctx, active.ID)
	require.Equal(t, 2, got.CurrentStreak)

	n, err = f.svc.RefreshStreaks(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestService_DueReminders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := validCreate()
	req.ReminderTime = "09:00"
	done, err := f.svc.Create(ctx, owner, req)
	require.NoError(t, err)
	pending, err := f.svc.Create(ctx, owner, req)
	require.NoError(t, err)
	req.ReminderTime = "10:00"
	_, err = f.svc.Create(ctx, owner, req)
	require.NoError(t, err)

	_, err = f.svc.MarkComplete(ctx, owner, done.ID)
	require.NoError(t, err)

	due, err := f.svc.DueReminders(ctx, time.Date(2024, 1, 3, 9, 0, 30, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, pending.ID, due[0].ID)
}

func TestService_DueRemindersUsesStreakTimezone(t *testing.T) {
	store := NewMemoryStore()
	tokyo := time.FixedZone("JST", 9*60*60)
	svc := NewService(store, nil, nil, ServiceConfig{Location: tokyo})

	req := validCreate()
	req.ReminderTime = "07:30"
	h, err := svc.Create(context.Background(), owner, req)
	require.NoError(t, err)

	due, err := svc.DueReminders(context.Background(), time.Date(2024, 1, 2, 22, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, h.ID, due[0].ID)
}
