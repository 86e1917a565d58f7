package habits

import (
	"sort"
	"strings"
)

// DefaultFeaturedCount is used when no positive count is requested.
const DefaultFeaturedCount = 6

// Filter applies the public feed predicates to habits, preserving input order.
// An empty or "All" category matches everything, and the search term is a
// case-insensitive substring of title or description.
func Filter(habits []*Habit, filter FeedFilter) []*Habit {
	term := strings.ToLower(strings.TrimSpace(filter.Search))
	byCategory := filter.Category != "" && filter.Category != CategoryAll

	out := make([]*Habit, 0, len(habits))
	for _, h := range habits {
		if byCategory && h.Category != filter.Category {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(h.Title), term) &&
			!strings.Contains(strings.ToLower(h.Description), term) {
			continue
		}
		out = append(out, h)
	}
	return out
}

// SelectFeatured ranks habits by current streak, newest first on ties, and
// returns at most n of them. The input slice is not reordered.
func SelectFeatured(habits []*Habit, n int) []*Habit {
	if n <= 0 {
		n = DefaultFeaturedCount
	}

	ranked := make([]*Habit, len(habits))
	copy(ranked, habits)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.CurrentStreak != b.CurrentStreak {
			return a.CurrentStreak > b.CurrentStreak
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.Hex() > b.ID.Hex()
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
