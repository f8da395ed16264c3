package achievements

import (
	"sort"
	"time"

	"github.com/2beens/pushuppal/internal/logs"
	"github.com/2beens/pushuppal/internal/stats"
)

// Catalog returns the ordered badge catalog. IDs are stable forever, they are
// the keys of the persisted earned records.
func Catalog() []Badge {
	return catalog
}

var catalog = []Badge{
	// rank 1
	{
		ID: "first_pushup", Name: "First Pushup", Emoji: "💪", Rank: 1,
		Description: "Log your first pushup",
		Condition: func(entries []logs.Entry, st stats.Derived, _ []string, _ []Badge) bool {
			return st.TotalPushups >= 1
		},
	},
	{
		ID: "daily_goal", Name: "Goal Getter", Emoji: "🎯", Rank: 1,
		Description: "Hit your daily goal",
		Condition: func(_ []logs.Entry, st stats.Derived, _ []string, _ []Badge) bool {
			return st.GoalsHit >= 1
		},
	},
	{
		ID: "fifty_total", Name: "Fifty Club", Emoji: "🏅", Rank: 1,
		Description: "50 pushups in total",
		Condition: func(_ []logs.Entry, st stats.Derived, _ []string, _ []Badge) bool {
			return st.TotalPushups >= 50
		},
	},
	{
		ID: "hundred_club", Name: "Hundred Club", Emoji: "💯", Rank: 1,
		Description: "100 pushups in total",
		Condition: func(_ []logs.Entry, st stats.Derived, _ []string, _ []Badge) bool {
			return st.TotalPushups >= 100
		},
	},
	{
		ID: "three_day_streak", Name: "On a Roll", Emoji: "🔥", Rank: 1,
		Description: "3 days in a row",
		Condition: func(entries []logs.Entry, _ stats.Derived, _ []string, _ []Badge) bool {
			return stats.LongestStreak(entries) >= 3
		},
	},
	{
		ID: "five_sessions", Name: "Regular", Emoji: "📆", Rank: 1,
		Description: "5 sessions logged",
		Condition: func(entries []logs.Entry, _ stats.Derived, _ []string, _ []Badge) bool {
			return len(entries) >= 5
		},
	},
	{
		ID: "twenty_five_day", Name: "Quarter Century", Emoji: "🌟", Rank: 1,
		Description: "25 pushups in a single day",
		Condition: func(_ []logs.Entry, st stats.Derived, _ []string, _ []Badge) bool {
			return stats.MaxInMap(st.DayCounts) >= 25
		},
	},
	{
		ID: "three_sessions_day", Name: "Triple Threat", Emoji: "🔁", Rank: 1,
		Description: "3 sessions on the same day",
		Condition: func(_ []logs.Entry, st stats.Derived, _ []string, _ []Badge) bool {
			return stats.MaxInMap(st.SessionsPerDay) >= 3
		},
	},
	{
		ID: "five_goals", Name: "High Five", Emoji: "🖐️", Rank: 1,
		Description: "Hit your goal on 5 days",
		Condition: func(_ []logs.Entry, st stats.Derived, _ []string, _ []Badge) bool {
			return st.GoalsHit >= 5
		},
	},
	{
		ID: "week_warrior", Name: "Week Warrior", Emoji: "🗓️", Rank: 1,
		Description: "7 days in a row",
		Condition: func(entries []logs.Entry, _ stats.Derived, _ []string, _ []Badge) bool {
			return stats.LongestStreak(entries) >= 7
		},
	},

	// rank 2
	{
		ID: "thousand_total", Name: "Thousand Club", Emoji: "🚀", Rank: 2,
		Description: "1000 pushups in total",
		Condition: func(_ []logs.Entry, st stats.Derived, _ []string, _ []Badge) bool {
			return st.TotalPushups >= 1000
		},
	},
	{
		ID: "hundred_day", Name: "Century Day", Emoji: "⚡", Rank: 2,
		Description: "100 pushups in a single day",
		Condition: func(_ []logs.Entry, st stats.Derived, _ []string, _ []Badge) bool {
			return stats.MaxInMap(st.DayCounts) >= 100
		},
	},
	{
		ID: "two_week_streak", Name: "Fortnight Fighter", Emoji: "🛡️", Rank: 2,
		Description: "14 days in a row",
		Condition: func(entries []logs.Entry, _ stats.Derived, _ []string, _ []Badge) bool {
			return stats.LongestStreak(entries) >= 14
		},
	},
	{
		ID: "twenty_sessions", Name: "Habitual", Emoji: "📈", Rank: 2,
		Description: "20 sessions logged",
		Condition: func(entries []logs.Entry, _ stats.Derived, _ []string, _ []Badge) bool {
			return len(entries) >= 20
		},
	},
	{
		ID: "early_bird", Name: "Early Bird", Emoji: "🌅", Rank: 2,
		Description: "A session before 7am",
		Condition: func(entries []logs.Entry, _ stats.Derived, _ []string, _ []Badge) bool {
			return anySessionInWindow(entries, 0, 7)
		},
	},
	{
		ID: "night_owl", Name: "Night Owl", Emoji: "🦉", Rank: 2,
		Description: "A session after 10pm",
		Condition: func(entries []logs.Entry, _ stats.Derived, _ []string, _ []Badge) bool {
			return anySessionInWindow(entries, 22, 24)
		},
	},
	{
		ID: "ten_goals", Name: "Perfect Ten", Emoji: "🔟", Rank: 2,
		Description: "Hit your goal on 10 days",
		Condition: func(_ []logs.Entry, st stats.Derived, _ []string, _ []Badge) bool {
			return st.GoalsHit >= 10
		},
	},
	{
		ID: "consistency", Name: "Consistency", Emoji: "🧱", Rank: 2,
		Description: "2+ sessions a day, 5 days in a row",
		Condition: func(_ []logs.Entry, st stats.Derived, _ []string, _ []Badge) bool {
			return consecutiveDaysWithSessions(st.SessionsPerDay, 5, 2)
		},
	},

	// rank 3
	{
		ID: "five_k_total", Name: "5K Crusher", Emoji: "🏔️", Rank: 3,
		Description: "5000 pushups in total",
		Condition: func(_ []logs.Entry, st stats.Derived, _ []string, _ []Badge) bool {
			return st.TotalPushups >= 5000
		},
	},
	{
		ID: "ten_k_total", Name: "10K Legend", Emoji: "🏆", Rank: 3,
		Description: "10000 pushups in total",
		Condition: func(_ []logs.Entry, st stats.Derived, _ []string, _ []Badge) bool {
			return st.TotalPushups >= 10000
		},
	},
	{
		ID: "two_hundred_day", Name: "Double Century", Emoji: "🌋", Rank: 3,
		Description: "200 pushups in a single day",
		Condition: func(_ []logs.Entry, st stats.Derived, _ []string, _ []Badge) bool {
			return stats.MaxInMap(st.DayCounts) >= 200
		},
	},
	{
		ID: "month_streak", Name: "Iron Month", Emoji: "🗿", Rank: 3,
		Description: "30 days in a row",
		Condition: func(entries []logs.Entry, _ stats.Derived, _ []string, _ []Badge) bool {
			return stats.LongestStreak(entries) >= 30
		},
	},
	{
		ID: "twenty_five_goals", Name: "Goal Machine", Emoji: "⚙️", Rank: 3,
		Description: "Hit your goal on 25 days",
		Condition: func(_ []logs.Entry, st stats.Derived, _ []string, _ []Badge) bool {
			return st.GoalsHit >= 25
		},
	},
	{
		ID: "completionist", Name: "Completionist", Emoji: "👑", Rank: 3,
		Description: "Earn every rank 1 badge",
		Condition: func(_ []logs.Entry, _ stats.Derived, unlockedIDs []string, catalog []Badge) bool {
			unlocked := map[string]bool{}
			for _, id := range unlockedIDs {
				unlocked[id] = true
			}
			for _, badge := range catalog {
				if badge.Rank == 1 && !unlocked[badge.ID] {
					return false
				}
			}
			return true
		},
	},
}

func anySessionInWindow(entries []logs.Entry, fromHour, toHour int) bool {
	for _, entry := range entries {
		if entry.CreatedAt.IsZero() {
			continue
		}
		hour := entry.CreatedAt.Local().Hour()
		if hour >= fromHour && hour < toHour {
			return true
		}
	}
	return false
}

// consecutiveDaysWithSessions reports whether there are k consecutive calendar
// days each having at least m sessions.
func consecutiveDaysWithSessions(sessionsPerDay map[string]int, k, m int) bool {
	var days []time.Time
	for day, sessions := range sessionsPerDay {
		if sessions < m {
			continue
		}
		parsed, err := time.ParseInLocation("2006-01-02", day, time.Local)
		if err != nil {
			continue
		}
		days = append(days, parsed)
	}
	if len(days) < k {
		return false
	}

	sort.Slice(days, func(i, j int) bool {
		return days[i].Before(days[j])
	})

	run := 1
	if run >= k {
		return true
	}
	for i := 1; i < len(days); i++ {
		// calendar-day arithmetic, stable across DST transitions
		if days[i-1].AddDate(0, 0, 1).Equal(days[i]) {
			run++
		} else {
			run = 1
		}
		if run >= k {
			return true
		}
	}
	return false
}
