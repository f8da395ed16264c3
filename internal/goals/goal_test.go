package goals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveValue(t *testing.T) {
	changed := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	history := []Goal{
		{StartDate: "2024-01-10", Value: 60, ChangedAt: changed},
		{StartDate: "2024-02-01", Value: 100, ChangedAt: changed},
	}

	testCases := []struct {
		name     string
		day      string
		expected int
	}{
		{name: "BeforeAnyEntry", day: "2024-01-05", expected: DefaultDailyGoal},
		{name: "OnFirstEntryStart", day: "2024-01-10", expected: 60},
		{name: "BetweenEntries", day: "2024-01-20", expected: 60},
		{name: "OnSecondEntryStart", day: "2024-02-01", expected: 100},
		{name: "AfterAllEntries", day: "2024-06-15", expected: 100},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, EffectiveValue(history, tc.day))
		})
	}
}

func TestEffectiveValue_emptyHistory(t *testing.T) {
	assert.Equal(t, DefaultDailyGoal, EffectiveValue(nil, "2024-01-01"))
}

func TestEffectiveValue_sameStartDateLatestChangeWins(t *testing.T) {
	history := []Goal{
		{StartDate: "2024-01-10", Value: 60, ChangedAt: time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)},
		{StartDate: "2024-01-10", Value: 75, ChangedAt: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)},
	}
	assert.Equal(t, 75, EffectiveValue(history, "2024-01-15"))
}

func TestSorted(t *testing.T) {
	history := []Goal{
		{StartDate: "2024-03-01", Value: 100},
		{StartDate: "2024-01-01", Value: 50},
		{StartDate: "2024-02-01", Value: 75},
	}

	sorted := Sorted(history)
	assert.Equal(t, "2024-01-01", sorted[0].StartDate)
	assert.Equal(t, "2024-02-01", sorted[1].StartDate)
	assert.Equal(t, "2024-03-01", sorted[2].StartDate)

	// original untouched
	assert.Equal(t, "2024-03-01", history[0].StartDate)
}
