package prestige

// Lifetime pushup totals unlocking prestige levels 1..9. Level 10 is reachable
// only through a manual increment.
var thresholds = []int{0, 1000, 5000, 10000, 20000, 50000, 100000, 200000, 365000}

const (
	MinLevel = 1
	MaxLevel = 10
)

// LevelFor returns the prestige level for the given lifetime pushup total.
// Prestige is a ratchet: the result never drops below the stored level, even
// if the total no longer reaches it (logs may have been deleted).
func LevelFor(totalPushups, stored int) int {
	if stored < MinLevel {
		stored = MinLevel
	}

	auto := MinLevel
	for i, threshold := range thresholds {
		if totalPushups >= threshold {
			auto = i + 1
		}
	}

	if auto < stored {
		return stored
	}
	return auto
}

// Increment advances the level by exactly one, capped at MaxLevel.
func Increment(level int) int {
	if level < MinLevel {
		return MinLevel + 1
	}
	if level >= MaxLevel {
		return MaxLevel
	}
	return level + 1
}
