package achievements

import (
	"github.com/2beens/pushuppal/internal/logs"
	"github.com/2beens/pushuppal/internal/stats"
)

// Condition is a pure predicate deciding whether a badge is qualified for.
// Most conditions only look at the entries and the derived stats; the
// unlockedIDs and catalog arguments exist for badges that depend on other
// badges being earned. Conditions must not mutate their inputs or keep state
// between calls.
type Condition func(entries []logs.Entry, st stats.Derived, unlockedIDs []string, catalog []Badge) bool

type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Emoji       string `json:"emoji"`
	Rank        int    `json:"rank"`

	Condition Condition `json:"-"`
}
