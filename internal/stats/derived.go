package stats

import (
	"time"

	"github.com/2beens/pushuppal/internal/logs"
)

// Derived holds aggregates recomputed from scratch from the full log
// collection. It is never stored, so it can not drift from the source data.
type Derived struct {
	TotalPushups   int            `json:"totalPushups"`
	DaysLogged     int            `json:"daysLogged"`
	GoalsHit       int            `json:"goalsHit"`
	DayCounts      map[string]int `json:"dayCounts"`
	SessionsPerDay map[string]int `json:"sessionsPerDay"`
}

// Compute derives the stats snapshot. Day buckets use the local calendar day
// of each entry, so sessions either side of local midnight land in different
// buckets regardless of how the store represents timestamps internally.
//
// goalForDay resolves the daily goal in force on a given day (YYYY-MM-DD), so
// goal hits respect the goal history rather than the current goal only.
//
// Entries with a zero timestamp have no usable day: they contribute to
// TotalPushups but are excluded from all day-keyed groupings.
func Compute(entries []logs.Entry, goalForDay func(day string) int) Derived {
	derived := Derived{
		DayCounts:      map[string]int{},
		SessionsPerDay: map[string]int{},
	}

	for _, entry := range entries {
		derived.TotalPushups += entry.Count
		if entry.CreatedAt.IsZero() {
			continue
		}
		day := entry.Day()
		derived.DayCounts[day] += entry.Count
		derived.SessionsPerDay[day]++
	}

	derived.DaysLogged = len(derived.DayCounts)

	for day, count := range derived.DayCounts {
		if count >= goalForDay(day) {
			derived.GoalsHit++
		}
	}

	return derived
}

// ComputeFixedGoal derives the stats snapshot against a single goal value for
// all days.
func ComputeFixedGoal(entries []logs.Entry, goal int) Derived {
	return Compute(entries, func(string) int { return goal })
}

// WeeklyTotals sums pushups per week, keyed by the Monday of each week
// (YYYY-MM-DD). Entries with a zero timestamp are skipped.
func WeeklyTotals(entries []logs.Entry) map[string]int {
	totals := map[string]int{}
	for _, entry := range entries {
		if entry.CreatedAt.IsZero() {
			continue
		}
		totals[weekStart(entry.CreatedAt)] += entry.Count
	}
	return totals
}

func weekStart(t time.Time) string {
	t = t.Local()
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	monday := t.AddDate(0, 0, -daysSinceMonday)
	return monday.Format("2006-01-02")
}

// SessionsPerHour counts sessions per local hour of day (0..23).
func SessionsPerHour(entries []logs.Entry) map[int]int {
	sessions := map[int]int{}
	for _, entry := range entries {
		if entry.CreatedAt.IsZero() {
			continue
		}
		sessions[entry.CreatedAt.Local().Hour()]++
	}
	return sessions
}

// MaxInMap returns the largest value in the map, 0 for an empty map.
func MaxInMap(m map[string]int) int {
	max := 0
	for _, v := range m {
		if v > max {
			max = v
		}
	}
	return max
}
