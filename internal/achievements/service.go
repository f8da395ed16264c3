package achievements

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/2beens/pushuppal/internal/goals"
	"github.com/2beens/pushuppal/internal/logs"
	"github.com/2beens/pushuppal/internal/prestige"
	"github.com/2beens/pushuppal/internal/stats"
	"github.com/2beens/pushuppal/internal/telemetry/metrics"

	gocache "github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

type entriesProvider interface {
	ListAll(ctx context.Context, userID string) ([]logs.Entry, error)
}

type goalsProvider interface {
	History(ctx context.Context, userID string) ([]goals.Goal, error)
}

type prestigeStore interface {
	Get(ctx context.Context, userID string) (int, error)
	Set(ctx context.Context, userID string, level int) error
}

type ServiceConfig struct {
	// Revocable: when false the catalog is append-only, earned badges are
	// kept even when their condition no longer holds.
	Revocable bool
	// GracePeriod after a user's first pass during which transitions are
	// persisted but not announced, so reloads do not re-celebrate old badges.
	GracePeriod time.Duration
	// NotifyCooldown de-duplicates identical transitions re-notifying within
	// the window. Zero disables de-duplication.
	NotifyCooldown time.Duration
}

// Service owns the earned badge set. Every mutation of earned state goes
// through its serialized per-user evaluation pass, no other code path may
// award or revoke badges.
type Service struct {
	entriesRepo    entriesProvider
	goalsRepo      goalsProvider
	store          EarnedStore
	local          *LocalStore
	prestigeRepo   prestigeStore
	notifier       Notifier
	metricsManager *metrics.Manager
	cfg            ServiceConfig

	processed *gocache.Cache

	mu         sync.Mutex
	runStates  map[string]*runState
	graceUntil map[string]time.Time
}

// runState serializes evaluation passes per user: a pass requested while one
// is in flight is coalesced into a single rerun once the current pass ends.
type runState struct {
	running bool
	queued  bool
}

func NewService(
	entriesRepo entriesProvider,
	goalsRepo goalsProvider,
	store EarnedStore,
	prestigeRepo prestigeStore,
	notifier Notifier,
	metricsManager *metrics.Manager,
	cfg ServiceConfig,
) *Service {
	return &Service{
		entriesRepo:    entriesRepo,
		goalsRepo:      goalsRepo,
		store:          store,
		local:          NewLocalStore(),
		prestigeRepo:   prestigeRepo,
		notifier:       notifier,
		metricsManager: metricsManager,
		cfg:            cfg,
		processed:      gocache.New(cfg.NotifyCooldown, 10*time.Minute),
		runStates:      map[string]*runState{},
		graceUntil:     map[string]time.Time{},
	}
}

// EvaluateUser runs one full reconcile-and-evaluate pass for the user. If a
// pass is already in flight the request is coalesced: the in-flight pass is
// followed by exactly one rerun, which will see the latest state.
func (s *Service) EvaluateUser(ctx context.Context, userID string) error {
	if !s.tryAcquire(userID) {
		return nil
	}

	var errs error
	for {
		errs = multierr.Append(errs, s.pass(ctx, userID))
		if !s.release(userID) {
			break
		}
	}
	return errs
}

func (s *Service) tryAcquire(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs := s.runStates[userID]
	if rs == nil {
		rs = &runState{}
		s.runStates[userID] = rs
	}
	if rs.running {
		rs.queued = true
		return false
	}
	rs.running = true
	return true
}

// release ends the critical section, or consumes a queued rerun request and
// keeps it, in which case it returns true.
func (s *Service) release(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rs := s.runStates[userID]
	if rs.queued {
		rs.queued = false
		return true
	}
	rs.running = false
	return false
}

func (s *Service) queueRerun(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rs := s.runStates[userID]; rs != nil && rs.running {
		rs.queued = true
	}
}

func (s *Service) pass(ctx context.Context, userID string) (err error) {
	begin := time.Now()
	defer func() {
		s.metricsManager.CounterEvaluationPasses.Inc()
		s.metricsManager.HistEvaluationDuration.Observe(time.Since(begin).Seconds())
	}()

	// reconcile: the remote store is the single source of truth, so the pass
	// simply adopts its set - remote-only badges appear locally without a
	// notification, locally-known badges missing remotely are dropped
	earned, err := s.loadEarned(ctx, userID)
	if err != nil {
		return err
	}

	inGrace := s.checkGrace(userID)

	entries, err := s.entriesRepo.ListAll(ctx, userID)
	if err != nil {
		// without the log collection a pass could only mass-revoke, bail out
		return fmt.Errorf("evaluation pass, list entries: %w", err)
	}

	goalHistory, err := s.goalsRepo.History(ctx, userID)
	if err != nil {
		log.Errorf("evaluation pass, goal history for user [%s]: %s", userID, err)
		goalHistory = nil
	}

	derived := stats.Compute(entries, func(day string) int {
		return goals.EffectiveValue(goalHistory, day)
	})

	var errs error
	storedPrestige, prestigeErr := s.prestigeRepo.Get(ctx, userID)
	if prestigeErr != nil {
		log.Errorf("evaluation pass, prestige for user [%s]: %s", userID, prestigeErr)
		errs = multierr.Append(errs, prestigeErr)
		storedPrestige = prestige.MinLevel
	}

	earnedSet := make(map[string]bool, len(earned))
	for _, e := range earned {
		earnedSet[e.BadgeID] = true
	}

	toAward, toRevoke := Evaluate(EvalInput{
		Entries:   entries,
		Stats:     derived,
		Prestige:  storedPrestige,
		Earned:    earnedSet,
		Revocable: s.cfg.Revocable,
	})

	now := time.Now()
	for _, badge := range toAward {
		if err := s.persistAward(ctx, userID, badge.ID, now); err != nil {
			errs = multierr.Append(errs, err)
		}
		s.metricsManager.CounterBadgesAwarded.Inc()
		s.notify(ctx, userID, badge, NotificationKindAward, inGrace)
	}
	for _, badge := range toRevoke {
		if err := s.persistRevoke(ctx, userID, badge.ID); err != nil {
			errs = multierr.Append(errs, err)
		}
		s.metricsManager.CounterBadgesRevoked.Inc()
		s.notify(ctx, userID, badge, NotificationKindRevoke, inGrace)
	}

	// the prestige ratchet auto-advances with the lifetime total; a raised
	// level makes more badges eligible, so queue a follow-up pass. A failed
	// prestige read must not feed the advance: LevelFor against the MinLevel
	// fallback could write a level below the user's stored one
	if prestigeErr == nil {
		newLevel := prestige.LevelFor(derived.TotalPushups, storedPrestige)
		if newLevel > storedPrestige {
			if err := s.prestigeRepo.Set(ctx, userID, newLevel); err != nil {
				log.Errorf("evaluation pass, set prestige for user [%s]: %s", userID, err)
				errs = multierr.Append(errs, err)
			} else {
				log.Debugf("user [%s] advanced to prestige %d", userID, newLevel)
				s.queueRerun(userID)
			}
		}
	}

	return errs
}

// loadEarned fetches the authoritative earned set, mirrors it into the local
// fallback, and falls back to the last mirrored set when the store fails.
func (s *Service) loadEarned(ctx context.Context, userID string) ([]Earned, error) {
	earned, err := s.store.ListEarned(ctx, userID)
	if err == nil {
		if cacheErr := s.local.Replace(userID, earned); cacheErr != nil {
			log.Errorf("mirror earned set for user [%s]: %s", userID, cacheErr)
		}
		return earned, nil
	}

	log.Errorf("list earned badges for user [%s]: %s, using local fallback", userID, err)
	s.metricsManager.CounterReconcileFallbacks.Inc()

	earned, localErr := s.local.ListEarned(ctx, userID)
	if localErr != nil {
		return nil, multierr.Append(err, localErr)
	}
	return earned, nil
}

func (s *Service) persistAward(ctx context.Context, userID, badgeID string, earnedAt time.Time) error {
	if err := s.store.UpsertEarned(ctx, userID, badgeID, earnedAt); err != nil {
		log.Errorf("persist award [%s] for user [%s]: %s, using local fallback", badgeID, userID, err)
		s.metricsManager.CounterReconcileFallbacks.Inc()
		if localErr := s.local.UpsertEarned(ctx, userID, badgeID, earnedAt); localErr != nil {
			return multierr.Append(err, localErr)
		}
		return err
	}
	if err := s.local.UpsertEarned(ctx, userID, badgeID, earnedAt); err != nil {
		log.Errorf("mirror award [%s] for user [%s]: %s", badgeID, userID, err)
	}
	return nil
}

func (s *Service) persistRevoke(ctx context.Context, userID, badgeID string) error {
	if err := s.store.DeleteEarned(ctx, userID, badgeID); err != nil {
		log.Errorf("persist revoke [%s] for user [%s]: %s, using local fallback", badgeID, userID, err)
		s.metricsManager.CounterReconcileFallbacks.Inc()
		if localErr := s.local.DeleteEarned(ctx, userID, badgeID); localErr != nil {
			return multierr.Append(err, localErr)
		}
		return err
	}
	if err := s.local.DeleteEarned(ctx, userID, badgeID); err != nil {
		log.Errorf("mirror revoke [%s] for user [%s]: %s", badgeID, userID, err)
	}
	return nil
}

// checkGrace starts the user's grace window on the first pass and reports
// whether the window is still open.
func (s *Service) checkGrace(userID string) bool {
	if s.cfg.GracePeriod <= 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.graceUntil[userID]
	if !ok {
		until = time.Now().Add(s.cfg.GracePeriod)
		s.graceUntil[userID] = until
	}
	return time.Now().Before(until)
}

func (s *Service) notify(ctx context.Context, userID string, badge Badge, kind string, inGrace bool) {
	if inGrace {
		log.Tracef("grace period, notification suppressed: user [%s], badge [%s] %s", userID, badge.ID, kind)
		return
	}

	if s.cfg.NotifyCooldown > 0 {
		key := userID + "|" + badge.ID + "|" + kind
		if _, alreadyNotified := s.processed.Get(key); alreadyNotified {
			return
		}
		s.processed.SetDefault(key, struct{}{})
	}

	err := s.notifier.Notify(ctx, Notification{
		UserID:    userID,
		BadgeID:   badge.ID,
		BadgeName: badge.Name,
		Kind:      kind,
		Celebrate: kind == NotificationKindAward,
		At:        time.Now(),
	})
	if err != nil {
		log.Errorf("notify %s for user [%s], badge [%s]: %s", kind, userID, badge.ID, err)
	}
}

// UserBadge is a catalog badge together with the user's earned state.
type UserBadge struct {
	Badge
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earnedAt,omitempty"`
}

// Achievements returns the full catalog with the user's earned state merged in.
func (s *Service) Achievements(ctx context.Context, userID string) ([]UserBadge, error) {
	earned, err := s.loadEarned(ctx, userID)
	if err != nil {
		return nil, err
	}

	earnedAt := make(map[string]time.Time, len(earned))
	for _, e := range earned {
		earnedAt[e.BadgeID] = e.EarnedAt
	}

	catalog := Catalog()
	userBadges := make([]UserBadge, 0, len(catalog))
	for _, badge := range catalog {
		ub := UserBadge{Badge: badge}
		if at, ok := earnedAt[badge.ID]; ok {
			ub.Earned = true
			at := at
			ub.EarnedAt = &at
		}
		userBadges = append(userBadges, ub)
	}
	return userBadges, nil
}
