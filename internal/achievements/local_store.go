package achievements

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

var _ EarnedStore = (*LocalStore)(nil)

const (
	localStoreSizeBytes = 2 * 1024 * 1024
	localStoreTTL       = 7 * 24 * time.Hour
)

// LocalStore is a best-effort in-process fallback for the earned badge set,
// used when the authoritative store is unreachable. Entries expire so stale
// fallback state can not shadow the database forever.
type LocalStore struct {
	cache *freecache.Cache
}

func NewLocalStore() *LocalStore {
	return &LocalStore{
		cache: freecache.NewCache(localStoreSizeBytes),
	}
}

func (s *LocalStore) ListEarned(_ context.Context, userID string) ([]Earned, error) {
	data, err := s.cache.Get([]byte(userID))
	if err != nil {
		if err == freecache.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}

	var earned []Earned
	if err := json.Unmarshal(data, &earned); err != nil {
		// malformed cached state, discard and treat as empty
		log.Errorf("local achievements store, unmarshal for user [%s]: %s", userID, err)
		s.cache.Del([]byte(userID))
		return nil, nil
	}
	return earned, nil
}

func (s *LocalStore) UpsertEarned(ctx context.Context, userID, badgeID string, earnedAt time.Time) error {
	earned, err := s.ListEarned(ctx, userID)
	if err != nil {
		return err
	}

	for _, e := range earned {
		if e.BadgeID == badgeID {
			return nil
		}
	}

	earned = append(earned, Earned{BadgeID: badgeID, EarnedAt: earnedAt})
	return s.save(userID, earned)
}

func (s *LocalStore) DeleteEarned(ctx context.Context, userID, badgeID string) error {
	earned, err := s.ListEarned(ctx, userID)
	if err != nil {
		return err
	}

	kept := earned[:0]
	for _, e := range earned {
		if e.BadgeID != badgeID {
			kept = append(kept, e)
		}
	}
	return s.save(userID, kept)
}

// Replace overwrites the cached set with the given one, used to mirror the
// authoritative store after a successful read.
func (s *LocalStore) Replace(userID string, earned []Earned) error {
	return s.save(userID, earned)
}

func (s *LocalStore) save(userID string, earned []Earned) error {
	data, err := json.Marshal(earned)
	if err != nil {
		return fmt.Errorf("marshal earned set: %w", err)
	}
	if err := s.cache.Set([]byte(userID), data, int(localStoreTTL.Seconds())); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}
