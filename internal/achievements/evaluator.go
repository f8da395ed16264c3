package achievements

import (
	"sort"

	"github.com/2beens/pushuppal/internal/logs"
	"github.com/2beens/pushuppal/internal/stats"

	log "github.com/sirupsen/logrus"
)

type EvalInput struct {
	Entries  []logs.Entry
	Stats    stats.Derived
	Prestige int
	// Earned is the badge IDs currently held, with missing meaning not earned.
	Earned map[string]bool
	// Revocable controls whether a held badge whose condition no longer holds
	// is revoked, or kept forever (append-only catalogs).
	Revocable bool
}

// Evaluate runs every eligible badge condition against the snapshot and
// returns the transitions: badges to newly award and badges to revoke.
// Idempotent: a second call with the converged earned set returns nothing.
func Evaluate(in EvalInput) (toAward, toRevoke []Badge) {
	unlockedIDs := make([]string, 0, len(in.Earned))
	for id, earned := range in.Earned {
		if earned {
			unlockedIDs = append(unlockedIDs, id)
		}
	}
	sort.Strings(unlockedIDs)

	all := Catalog()
	for _, badge := range all {
		if badge.Rank > in.Prestige {
			continue
		}

		qualified := evalCondition(badge, in.Entries, in.Stats, unlockedIDs, all)
		earned := in.Earned[badge.ID]

		switch {
		case qualified && !earned:
			toAward = append(toAward, badge)
		case !qualified && earned && in.Revocable:
			toRevoke = append(toRevoke, badge)
		}
	}

	return toAward, toRevoke
}

// evalCondition treats a panicking condition as not-qualified for this pass,
// so one broken badge can not abort evaluation of the rest of the catalog.
func evalCondition(
	badge Badge,
	entries []logs.Entry,
	st stats.Derived,
	unlockedIDs []string,
	all []Badge,
) (qualified bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("badge [%s] condition panicked: %v", badge.ID, r)
			qualified = false
		}
	}()
	return badge.Condition(entries, st, unlockedIDs, all)
}
