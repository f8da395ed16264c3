package prestige

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFor(t *testing.T) {
	testCases := []struct {
		name     string
		total    int
		stored   int
		expected int
	}{
		{name: "ZeroTotal", total: 0, stored: 1, expected: 1},
		{name: "JustBelowFirstThreshold", total: 999, stored: 1, expected: 1},
		{name: "FirstThreshold", total: 1000, stored: 1, expected: 2},
		{name: "MidThreshold", total: 20000, stored: 1, expected: 5},
		{name: "TopThreshold", total: 365000, stored: 1, expected: 9},
		{name: "WayPastTop", total: 1000000, stored: 1, expected: 9},
		{name: "RatchetHoldsAfterLogDeletion", total: 0, stored: 5, expected: 5},
		{name: "RatchetHoldsManualTenthLevel", total: 500, stored: 10, expected: 10},
		{name: "StoredBelowMinClamped", total: 0, stored: 0, expected: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, LevelFor(tc.total, tc.stored))
		})
	}
}

func TestLevelFor_stable(t *testing.T) {
	// calling twice with the same total must be stable
	first := LevelFor(5000, 1)
	second := LevelFor(5000, first)
	assert.Equal(t, first, second)
}

func TestLevelFor_neverDecreases(t *testing.T) {
	for stored := MinLevel; stored <= MaxLevel; stored++ {
		for _, total := range []int{0, 999, 1000, 50000, 365000} {
			assert.GreaterOrEqual(t, LevelFor(total, stored), stored)
		}
	}
}

func TestIncrement(t *testing.T) {
	assert.Equal(t, 2, Increment(1))
	assert.Equal(t, 10, Increment(9))
	// capped at max
	assert.Equal(t, 10, Increment(10))
	assert.Equal(t, 10, Increment(15))
	// below min clamps then advances
	assert.Equal(t, 2, Increment(0))
}
