package achievements

import (
	"context"
	"time"
)

// Earned is one persisted earned-badge record. Only earned badges have
// records, a missing record means not earned.
type Earned struct {
	BadgeID  string    `json:"badgeId"`
	EarnedAt time.Time `json:"earnedAt"`
}

// EarnedStore is the persistence port for earned badges. The pgx repo is the
// authoritative adapter; the freecache-backed local store is the best-effort
// fallback used when the database is unreachable.
type EarnedStore interface {
	ListEarned(ctx context.Context, userID string) ([]Earned, error)
	UpsertEarned(ctx context.Context, userID, badgeID string, earnedAt time.Time) error
	DeleteEarned(ctx context.Context, userID, badgeID string) error
}
