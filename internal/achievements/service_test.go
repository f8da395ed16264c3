package achievements

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/2beens/pushuppal/internal/goals"
	"github.com/2beens/pushuppal/internal/logs"
	"github.com/2beens/pushuppal/internal/telemetry/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEntriesRepo struct {
	mu      sync.Mutex
	entries []logs.Entry
	err     error
}

func (f *fakeEntriesRepo) ListAll(_ context.Context, _ string) ([]logs.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]logs.Entry{}, f.entries...), nil
}

func (f *fakeEntriesRepo) set(entries []logs.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = entries
}

type fakeGoalsRepo struct {
	history []goals.Goal
}

func (f *fakeGoalsRepo) History(_ context.Context, _ string) ([]goals.Goal, error) {
	return f.history, nil
}

type fakeEarnedStore struct {
	mu        sync.Mutex
	earned    map[string]map[string]time.Time // userID -> badgeID -> earnedAt
	listErr   error
	upsertErr error
	deleteErr error
}

func newFakeEarnedStore() *fakeEarnedStore {
	return &fakeEarnedStore{earned: map[string]map[string]time.Time{}}
}

func (f *fakeEarnedStore) ListEarned(_ context.Context, userID string) ([]Earned, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var earned []Earned
	for badgeID, at := range f.earned[userID] {
		earned = append(earned, Earned{BadgeID: badgeID, EarnedAt: at})
	}
	return earned, nil
}

func (f *fakeEarnedStore) UpsertEarned(_ context.Context, userID, badgeID string, earnedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if f.earned[userID] == nil {
		f.earned[userID] = map[string]time.Time{}
	}
	if _, ok := f.earned[userID][badgeID]; !ok {
		f.earned[userID][badgeID] = earnedAt
	}
	return nil
}

func (f *fakeEarnedStore) DeleteEarned(_ context.Context, userID, badgeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.earned[userID], badgeID)
	return nil
}

func (f *fakeEarnedStore) has(userID, badgeID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.earned[userID][badgeID]
	return ok
}

type fakePrestigeRepo struct {
	mu     sync.Mutex
	levels map[string]int
	getErr error
}

func newFakePrestigeRepo() *fakePrestigeRepo {
	return &fakePrestigeRepo{levels: map[string]int{}}
}

func (f *fakePrestigeRepo) Get(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return 0, f.getErr
	}
	if level, ok := f.levels[userID]; ok {
		return level, nil
	}
	return 1, nil
}

func (f *fakePrestigeRepo) setGetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getErr = err
}

func (f *fakePrestigeRepo) Set(_ context.Context, userID string, level int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels[userID] = level
	return nil
}

type fakeNotifier struct {
	mu            sync.Mutex
	notifications []Notification
}

func (f *fakeNotifier) Notify(_ context.Context, notification Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, notification)
	return nil
}

func (f *fakeNotifier) count(badgeID, kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, n := range f.notifications {
		if n.BadgeID == badgeID && n.Kind == kind {
			count++
		}
	}
	return count
}

func (f *fakeNotifier) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notifications)
}

type serviceFixture struct {
	service  *Service
	entries  *fakeEntriesRepo
	goals    *fakeGoalsRepo
	store    *fakeEarnedStore
	prestige *fakePrestigeRepo
	notifier *fakeNotifier
}

func newServiceFixture(cfg ServiceConfig) *serviceFixture {
	f := &serviceFixture{
		entries:  &fakeEntriesRepo{},
		goals:    &fakeGoalsRepo{},
		store:    newFakeEarnedStore(),
		prestige: newFakePrestigeRepo(),
		notifier: &fakeNotifier{},
	}
	f.service = NewService(
		f.entries, f.goals, f.store, f.prestige,
		f.notifier, metrics.NewTestManager(), cfg,
	)
	return f
}

func defaultTestConfig() ServiceConfig {
	return ServiceConfig{
		Revocable:      true,
		GracePeriod:    0,
		NotifyCooldown: time.Minute,
	}
}

func entryToday(count int) logs.Entry {
	return logs.Entry{Count: count, CreatedAt: time.Now()}
}

func TestService_reconciliationAdoptsRemoteSilently(t *testing.T) {
	f := newServiceFixture(defaultTestConfig())
	ctx := context.Background()

	// remote already knows first_pushup (earned on another device), and the
	// user's logs still qualify for it
	f.store.earned["user-1"] = map[string]time.Time{"first_pushup": time.Now().Add(-time.Hour)}
	f.entries.set([]logs.Entry{entryToday(1)})

	require.NoError(t, f.service.EvaluateUser(ctx, "user-1"))

	// adopted, still earned, and no notification emitted for it
	assert.True(t, f.store.has("user-1", "first_pushup"))
	assert.Equal(t, 0, f.notifier.count("first_pushup", NotificationKindAward))

	badges, err := f.service.Achievements(ctx, "user-1")
	require.NoError(t, err)
	for _, b := range badges {
		if b.ID == "first_pushup" {
			assert.True(t, b.Earned)
			require.NotNil(t, b.EarnedAt)
		}
	}
}

func TestService_revocationNotifiesExactlyOnce(t *testing.T) {
	f := newServiceFixture(defaultTestConfig())
	ctx := context.Background()

	f.entries.set([]logs.Entry{entryToday(100)})
	require.NoError(t, f.service.EvaluateUser(ctx, "user-1"))
	require.True(t, f.store.has("user-1", "hundred_club"))
	require.Equal(t, 1, f.notifier.count("hundred_club", NotificationKindAward))

	// logs deleted, total drops below 100
	f.entries.set([]logs.Entry{entryToday(60)})
	require.NoError(t, f.service.EvaluateUser(ctx, "user-1"))

	assert.False(t, f.store.has("user-1", "hundred_club"))
	assert.Equal(t, 1, f.notifier.count("hundred_club", NotificationKindRevoke))

	// a re-run with unchanged state stays converged, no duplicate revoke
	require.NoError(t, f.service.EvaluateUser(ctx, "user-1"))
	assert.Equal(t, 1, f.notifier.count("hundred_club", NotificationKindRevoke))
}

func TestService_endToEnd(t *testing.T) {
	f := newServiceFixture(defaultTestConfig())
	ctx := context.Background()

	// zero logs: nothing to award
	require.NoError(t, f.service.EvaluateUser(ctx, "user-1"))
	assert.Equal(t, 0, f.notifier.total())

	// log 50 today: goal (default 50) hit
	f.entries.set([]logs.Entry{entryToday(50)})
	require.NoError(t, f.service.EvaluateUser(ctx, "user-1"))
	assert.True(t, f.store.has("user-1", "daily_goal"))
	assert.True(t, f.store.has("user-1", "fifty_total"))
	assert.Equal(t, 1, f.notifier.count("daily_goal", NotificationKindAward))

	// log 50 more: hundred_club joins, daily_goal not re-awarded
	f.entries.set([]logs.Entry{entryToday(50), entryToday(50)})
	require.NoError(t, f.service.EvaluateUser(ctx, "user-1"))
	assert.True(t, f.store.has("user-1", "hundred_club"))
	assert.Equal(t, 1, f.notifier.count("hundred_club", NotificationKindAward))
	assert.Equal(t, 1, f.notifier.count("daily_goal", NotificationKindAward))

	// delete everything: both revoke, exactly once each
	f.entries.set(nil)
	require.NoError(t, f.service.EvaluateUser(ctx, "user-1"))
	assert.False(t, f.store.has("user-1", "daily_goal"))
	assert.False(t, f.store.has("user-1", "hundred_club"))
	assert.Equal(t, 1, f.notifier.count("daily_goal", NotificationKindRevoke))
	assert.Equal(t, 1, f.notifier.count("hundred_club", NotificationKindRevoke))
}

func TestService_awardsCelebrateRevokesDoNot(t *testing.T) {
	f := newServiceFixture(defaultTestConfig())
	ctx := context.Background()

	f.entries.set([]logs.Entry{entryToday(1)})
	require.NoError(t, f.service.EvaluateUser(ctx, "user-1"))
	f.entries.set(nil)
	require.NoError(t, f.service.EvaluateUser(ctx, "user-1"))

	for _, n := range f.notifier.notifications {
		assert.Equal(t, n.Kind == NotificationKindAward, n.Celebrate)
	}
}

func TestService_storeFailureFallsBackToLocalCache(t *testing.T) {
	f := newServiceFixture(defaultTestConfig())
	ctx := context.Background()

	// first pass succeeds and mirrors the earned set into the local cache
	f.entries.set([]logs.Entry{entryToday(60)})
	require.NoError(t, f.service.EvaluateUser(ctx, "user-1"))
	require.True(t, f.store.has("user-1", "fifty_total"))

	// store goes down; the pass still runs off the mirrored local set and
	// does not re-award (and thus not re-notify) anything
	f.store.listErr = errors.New("db down")
	f.store.upsertErr = errors.New("db down")
	_ = f.service.EvaluateUser(ctx, "user-1")
	assert.Equal(t, 1, f.notifier.count("fifty_total", NotificationKindAward))
}

func TestService_gracePeriodSuppressesNotifications(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.GracePeriod = time.Hour
	f := newServiceFixture(cfg)
	ctx := context.Background()

	f.entries.set([]logs.Entry{entryToday(50)})
	require.NoError(t, f.service.EvaluateUser(ctx, "user-1"))

	// badges are persisted, but nothing is announced during the grace window
	assert.True(t, f.store.has("user-1", "fifty_total"))
	assert.Equal(t, 0, f.notifier.total())
}

func TestService_prestigeAutoAdvance(t *testing.T) {
	f := newServiceFixture(defaultTestConfig())
	ctx := context.Background()

	f.entries.set([]logs.Entry{entryToday(1200)})
	require.NoError(t, f.service.EvaluateUser(ctx, "user-1"))

	level, err := f.prestige.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, level)

	// the follow-up pass after the advance evaluates the newly eligible rank
	assert.True(t, f.store.has("user-1", "thousand_total"))
	assert.Equal(t, 1, f.notifier.count("thousand_total", NotificationKindAward))
}

func TestService_prestigeReadFailureSkipsAutoAdvance(t *testing.T) {
	f := newServiceFixture(defaultTestConfig())
	ctx := context.Background()

	// user already at level 5, but the prestige read keeps failing
	require.NoError(t, f.prestige.Set(ctx, "user-1", 5))
	f.prestige.setGetErr(errors.New("prestige db down"))

	f.entries.set([]logs.Entry{entryToday(1200)})

	// the pass must terminate (no endless advance-and-rerun loop) and report
	// the read failure
	err := f.service.EvaluateUser(ctx, "user-1")
	require.Error(t, err)

	// the stored level is untouched: LevelFor(1200, MinLevel) would be 2,
	// writing it would demote the ratchet
	f.prestige.setGetErr(nil)
	level, err := f.prestige.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 5, level)

	// with the read healthy again the pass converges and the level holds
	require.NoError(t, f.service.EvaluateUser(ctx, "user-1"))
	level, err = f.prestige.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 5, level)
}

func TestService_passesAreSerializedPerUser(t *testing.T) {
	f := newServiceFixture(defaultTestConfig())

	// simulate a pass in flight
	require.True(t, f.service.tryAcquire("user-1"))

	// a second caller is coalesced, not run in parallel
	require.False(t, f.service.tryAcquire("user-1"))

	// another user is unaffected
	require.True(t, f.service.tryAcquire("user-2"))
	assert.False(t, f.service.release("user-2"))

	// the queued request turns into exactly one rerun
	assert.True(t, f.service.release("user-1"))
	assert.False(t, f.service.release("user-1"))
}

func TestService_notifyCooldownDeduplicates(t *testing.T) {
	f := newServiceFixture(defaultTestConfig())
	ctx := context.Background()

	badge := badgeByID(t, "first_pushup")
	f.service.notify(ctx, "user-1", badge, NotificationKindAward, false)
	f.service.notify(ctx, "user-1", badge, NotificationKindAward, false)

	assert.Equal(t, 1, f.notifier.count("first_pushup", NotificationKindAward))
}
