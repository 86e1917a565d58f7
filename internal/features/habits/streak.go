package habits

import (
	"math"
	"time"

	"cloud.google.com/go/civil"
)

// ProgressWindowDays is the trailing window used for the progress percentage.
const ProgressWindowDays = 30

// Stats are the values derived from a completion history.
type Stats struct {
	Current     int
	Longest     int
	ProgressPct int
}

// Recompute derives streak statistics from history as of the given day.
//
// The current streak may end on asOf or the day before it, so a streak is
// only broken once a full day has passed without a completion. The result
// depends on nothing but its arguments.
func Recompute(history []civil.Date, asOf civil.Date) Stats {
	if len(history) == 0 {
		return Stats{}
	}

	days := normalize(append(CompletionHistory(nil), history...))

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i-1].AddDays(1) == days[i] {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	current := 0
	last := days[len(days)-1]
	if last == asOf || last == asOf.AddDays(-1) {
		current = 1
		for i := len(days) - 1; i > 0 && days[i-1].AddDays(1) == days[i]; i-- {
			current++
		}
	}

	windowStart := asOf.AddDays(-(ProgressWindowDays - 1))
	recent := 0
	for _, d := range days {
		if !d.Before(windowStart) && !d.After(asOf) {
			recent++
		}
	}
	pct := int(math.Round(100 * float64(recent) / ProgressWindowDays))
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}

	return Stats{Current: current, Longest: longest, ProgressPct: pct}
}

// DayIn returns the calendar day of t in loc.
func DayIn(t time.Time, loc *time.Location) civil.Date {
	return civil.DateOf(t.In(loc))
}
