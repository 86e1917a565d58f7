package habits

import (
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is the fixed set of habit groupings.
type Category string

const (
	CategoryMorning Category = "Morning"
	CategoryWork    Category = "Work"
	CategoryFitness Category = "Fitness"
	CategoryEvening Category = "Evening"
	CategoryStudy   Category = "Study"

	// CategoryAll is a filter value only and is never stored on a habit.
	CategoryAll Category = "All"
)

var validCategories = map[Category]bool{
	CategoryMorning: true,
	CategoryWork:    true,
	CategoryFitness: true,
	CategoryEvening: true,
	CategoryStudy:   true,
}

func (c Category) Valid() bool {
	return validCategories[c]
}

// Categories lists the storable categories in display order.
func Categories() []Category {
	return []Category{CategoryMorning, CategoryWork, CategoryFitness, CategoryEvening, CategoryStudy}
}

// Habit is a user-defined recurring activity with its completion record.
type Habit struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id" example:"65f1c2a9e4b0a1b2c3d4e5f6"`
	Title         string             `bson:"title" json:"title" example:"Morning Yoga"`
	Description   string             `bson:"description" json:"description" example:"Twenty minutes of stretching before breakfast"`
	Category      Category           `bson:"category" json:"category" example:"Morning" enums:"Morning,Work,Fitness,Evening,Study"`
	ReminderTime  string             `bson:"reminderTime" json:"reminderTime" example:"07:30"`
	ImageURL      string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty" example:"https://res.cloudinary.com/demo/image/upload/yoga.jpg"`
	IsPublic      bool               `bson:"isPublic" json:"isPublic" example:"true"`
	OwnerEmail    string             `bson:"ownerEmail" json:"ownerEmail" example:"ana@example.com"`
	OwnerName     string             `bson:"ownerName" json:"ownerName" example:"Ana Lima"`
	OwnerPhotoURL string             `bson:"ownerPhotoUrl,omitempty" json:"ownerPhotoUrl,omitempty"`

	CompletionHistory CompletionHistory `bson:"completionHistory" json:"completionHistory" swaggertype:"array,string" example:"2024-01-01,2024-01-02"`
	CurrentStreak     int               `bson:"currentStreak" json:"currentStreak" example:"2"`
	LongestStreak     int               `bson:"longestStreak" json:"longestStreak" example:"5"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`

	// Version guards read-modify-write cycles against concurrent writers.
	Version int64 `bson:"version" json:"-"`
}

// IsOwnedBy reports whether email owns the habit.
func (h *Habit) IsOwnedBy(email string) bool {
	return email != "" && h.OwnerEmail == email
}

// Clone returns a deep copy so stores never share history slices with callers.
func (h *Habit) Clone() *Habit {
	cp := *h
	cp.CompletionHistory = make(CompletionHistory, len(h.CompletionHistory))
	copy(cp.CompletionHistory, h.CompletionHistory)
	return &cp
}

// CompletionHistory is the set of calendar days a habit was completed.
// It is kept sorted ascending and free of duplicates.
// In BSON it is an array of "YYYY-MM-DD" strings.
type CompletionHistory []civil.Date

// Contains reports whether day is recorded.
func (h CompletionHistory) Contains(day civil.Date) bool {
	i := sort.Search(len(h), func(i int) bool { return !h[i].Before(day) })
	return i < len(h) && h[i] == day
}

// With returns a new history including day; the receiver is not modified.
func (h CompletionHistory) With(day civil.Date) CompletionHistory {
	if h.Contains(day) {
		return append(CompletionHistory(nil), h...)
	}
	out := make(CompletionHistory, 0, len(h)+1)
	out = append(out, h...)
	out = append(out, day)
	return normalize(out)
}

func (h CompletionHistory) MarshalBSONValue() (bsontype.Type, []byte, error) {
	days := make([]string, len(h))
	for i, d := range h {
		days[i] = d.String()
	}
	return bson.MarshalValue(days)
}

func (h *CompletionHistory) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bsontype.Null || t == bsontype.Undefined {
		*h = nil
		return nil
	}

	var days []string
	if err := (bson.RawValue{Type: t, Value: data}).Unmarshal(&days); err != nil {
		return fmt.Errorf("decode completion history: %w", err)
	}

	out := make(CompletionHistory, 0, len(days))
	for _, s := range days {
		d, err := civil.ParseDate(s)
		if err != nil {
			return fmt.Errorf("decode completion day %q: %w", s, err)
		}
		out = append(out, d)
	}
	*h = normalize(out)
	return nil
}

// normalize sorts ascending and drops duplicate days in place.
func normalize(days CompletionHistory) CompletionHistory {
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	out := days[:0]
	for i, d := range days {
		if i > 0 && d == days[i-1] {
			continue
		}
		out = append(out, d)
	}
	return out
}

// CreateHabitRequest is the payload for creating a habit
type CreateHabitRequest struct {
	Title        string   `json:"title" example:"Morning Yoga"`
	Description  string   `json:"description" example:"Twenty minutes of stretching"`
	Category     Category `json:"category" example:"Morning" enums:"Morning,Work,Fitness,Evening,Study"`
	ReminderTime string   `json:"reminderTime" example:"07:30"`
	ImageURL     string   `json:"imageUrl,omitempty" example:"https://res.cloudinary.com/demo/image/upload/yoga.jpg"`
	IsPublic     *bool    `json:"isPublic,omitempty" example:"true"`
}

// UpdateHabitRequest is a partial update. Nil fields are left unchanged.
// Owner, history and streak fields are not part of the payload, so clients
// sending a full habit document cannot overwrite them.
type UpdateHabitRequest struct {
	Title        *string   `json:"title,omitempty" example:"Evening Yoga"`
	Description  *string   `json:"description,omitempty"`
	Category     *Category `json:"category,omitempty" example:"Evening" enums:"Morning,Work,Fitness,Evening,Study"`
	ReminderTime *string   `json:"reminderTime,omitempty" example:"19:00"`
	ImageURL     *string   `json:"imageUrl,omitempty"`
	IsPublic     *bool     `json:"isPublic,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (r UpdateHabitRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.Category == nil &&
		r.ReminderTime == nil && r.ImageURL == nil && r.IsPublic == nil
}

// FeedFilter narrows the public feed.
type FeedFilter struct {
	Category Category
	Search   string
}

// Progress is the derived streak view of a habit as of a given day.
type Progress struct {
	HabitID     primitive.ObjectID `json:"habitId"`
	AsOf        civil.Date         `json:"asOf" swaggertype:"string" example:"2024-01-05"`
	Current     int                `json:"currentStreak" example:"3"`
	Longest     int                `json:"longestStreak" example:"7"`
	ProgressPct int                `json:"progressPct" example:"40"`
	DoneToday   bool               `json:"doneToday"`
}
