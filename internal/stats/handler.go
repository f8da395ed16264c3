package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/2beens/pushuppal/internal/auth"
	"github.com/2beens/pushuppal/internal/goals"
	"github.com/2beens/pushuppal/internal/logs"
	"github.com/2beens/pushuppal/internal/telemetry/tracing"
	"github.com/2beens/pushuppal/pkg"

	log "github.com/sirupsen/logrus"
)

type entriesRepo interface {
	ListAll(ctx context.Context, userID string) ([]logs.Entry, error)
}

type goalsRepo interface {
	History(ctx context.Context, userID string) ([]goals.Goal, error)
}

type StreakResponse struct {
	Longest int `json:"longest"`
	Current int `json:"current"`
}

type WeeklyResponse struct {
	WeeklyTotals map[string]int `json:"weeklyTotals"`
}

type HourlyResponse struct {
	SessionsPerHour map[int]int `json:"sessionsPerHour"`
}

type Handler struct {
	entriesRepo entriesRepo
	goalsRepo   goalsRepo
	now         func() time.Time
}

func NewHandler(entriesRepo entriesRepo, goalsRepo goalsRepo) *Handler {
	return &Handler{
		entriesRepo: entriesRepo,
		goalsRepo:   goalsRepo,
		now:         time.Now,
	}
}

func (handler *Handler) userEntries(ctx context.Context, w http.ResponseWriter) (string, []logs.Entry, bool) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return "", nil, false
	}

	entries, err := handler.entriesRepo.ListAll(ctx, userID)
	if err != nil {
		log.Errorf("failed to get entries for user [%s]: %s", userID, err)
		http.Error(w, "error, failed to get stats", http.StatusInternalServerError)
		return "", nil, false
	}

	return userID, entries, true
}

func (handler *Handler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.stats.get")
	defer span.End()

	userID, entries, ok := handler.userEntries(ctx, w)
	if !ok {
		return
	}

	goalHistory, err := handler.goalsRepo.History(ctx, userID)
	if err != nil {
		// fall back to the default goal for all days
		log.Errorf("failed to get goal history for user [%s]: %s", userID, err)
		goalHistory = nil
	}

	derived := Compute(entries, func(day string) int {
		return goals.EffectiveValue(goalHistory, day)
	})

	respJson, err := json.Marshal(derived)
	if err != nil {
		log.Errorf("failed to marshal stats: %s", err)
		http.Error(w, "error, failed to get stats", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) HandleGetStreak(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.stats.streak")
	defer span.End()

	_, entries, ok := handler.userEntries(ctx, w)
	if !ok {
		return
	}

	resp := StreakResponse{
		Longest: LongestStreak(entries),
		Current: CurrentStreak(entries, handler.now()),
	}

	respJson, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("failed to marshal streak: %s", err)
		http.Error(w, "error, failed to get streak", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) HandleGetWeekly(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.stats.weekly")
	defer span.End()

	_, entries, ok := handler.userEntries(ctx, w)
	if !ok {
		return
	}

	respJson, err := json.Marshal(WeeklyResponse{WeeklyTotals: WeeklyTotals(entries)})
	if err != nil {
		log.Errorf("failed to marshal weekly totals: %s", err)
		http.Error(w, "error, failed to get weekly totals", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) HandleGetHourly(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.stats.hourly")
	defer span.End()

	_, entries, ok := handler.userEntries(ctx, w)
	if !ok {
		return
	}

	respJson, err := json.Marshal(HourlyResponse{SessionsPerHour: SessionsPerHour(entries)})
	if err != nil {
		log.Errorf("failed to marshal hourly sessions: %s", err)
		http.Error(w, "error, failed to get hourly sessions", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}
