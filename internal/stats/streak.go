package stats

import (
	"math"
	"sort"
	"time"

	"github.com/2beens/pushuppal/internal/logs"
)

// noonOf normalizes a timestamp to 12:00 of its local calendar day. Day
// differencing on noon-normalized times is stable across DST transitions,
// where midnight-to-midnight differences can be 23 or 25 hours.
func noonOf(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, t.Location())
}

func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}

// uniqueDays projects entries to their unique local calendar days,
// noon-normalized and sorted ascending. Entries with a zero timestamp have no
// day and are skipped.
func uniqueDays(entries []logs.Entry) []time.Time {
	seen := map[string]time.Time{}
	for _, entry := range entries {
		if entry.CreatedAt.IsZero() {
			continue
		}
		noon := noonOf(entry.CreatedAt)
		seen[noon.Format("2006-01-02")] = noon
	}

	days := make([]time.Time, 0, len(seen))
	for _, day := range seen {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Before(days[j])
	})
	return days
}

// LongestStreak returns the longest run of consecutive calendar days with at
// least one log entry. 0 for no entries, at least 1 otherwise.
func LongestStreak(entries []logs.Entry) int {
	days := uniqueDays(entries)
	if len(days) == 0 {
		return 0
	}

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if daysBetween(days[i-1], days[i]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// CurrentStreak returns the streak ending at the given day: the day itself
// counts only if it has a log, and every prior consecutive logged day extends
// the streak. A day in the future always yields 0.
func CurrentStreak(entries []logs.Entry, day time.Time) int {
	return currentStreakAt(entries, day, time.Now())
}

func currentStreakAt(entries []logs.Entry, day, now time.Time) int {
	dayNoon := noonOf(day)
	if dayNoon.After(noonOf(now)) {
		return 0
	}

	logged := map[string]bool{}
	for _, entry := range entries {
		if entry.CreatedAt.IsZero() {
			continue
		}
		logged[entry.Day()] = true
	}

	streak := 0
	if logged[dayNoon.Format("2006-01-02")] {
		streak = 1
	}

	prev := dayNoon.AddDate(0, 0, -1)
	for logged[prev.Format("2006-01-02")] {
		streak++
		prev = prev.AddDate(0, 0, -1)
	}

	return streak
}
