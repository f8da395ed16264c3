package goals

import (
	"sort"
	"time"
)

// DefaultDailyGoal is used for days not covered by any goal history entry.
const DefaultDailyGoal = 50

// Goal is one entry of the user's daily goal history. A goal entry applies
// from its start date (inclusive) until a later entry takes over.
type Goal struct {
	UserID    string    `json:"-"`
	StartDate string    `json:"startDate"` // YYYY-MM-DD
	Value     int       `json:"value"`
	ChangedAt time.Time `json:"changedAt"`
}

// EffectiveValue resolves the daily goal in force on the given day: the entry
// with the latest start date not after the day wins. Days before the first
// entry fall back to DefaultDailyGoal.
func EffectiveValue(history []Goal, day string) int {
	var best *Goal
	for i := range history {
		g := &history[i]
		if g.StartDate > day {
			continue
		}
		if best == nil ||
			g.StartDate > best.StartDate ||
			(g.StartDate == best.StartDate && g.ChangedAt.After(best.ChangedAt)) {
			best = g
		}
	}
	if best == nil {
		return DefaultDailyGoal
	}
	return best.Value
}

// Sorted returns the history ordered by start date, oldest first.
func Sorted(history []Goal) []Goal {
	sorted := make([]Goal, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartDate < sorted[j].StartDate
	})
	return sorted
}
