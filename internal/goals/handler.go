package goals

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/2beens/pushuppal/internal/auth"
	"github.com/2beens/pushuppal/internal/telemetry/tracing"
	"github.com/2beens/pushuppal/pkg"

	log "github.com/sirupsen/logrus"
)

type goalsRepo interface {
	Set(ctx context.Context, goal Goal) error
	History(ctx context.Context, userID string) ([]Goal, error)
}

type evalTrigger interface {
	Trigger(userID string)
}

type SetGoalRequest struct {
	Value     int    `json:"value"`
	StartDate string `json:"startDate,omitempty"` // YYYY-MM-DD, defaults to today
}

type CurrentGoalResponse struct {
	Value int    `json:"value"`
	Day   string `json:"day"`
}

type HistoryResponse struct {
	History []Goal `json:"history"`
}

type Handler struct {
	repo    goalsRepo
	trigger evalTrigger
	now     func() time.Time
}

func NewHandler(repo goalsRepo, trigger evalTrigger) *Handler {
	return &Handler{
		repo:    repo,
		trigger: trigger,
		now:     time.Now,
	}
}

func (handler *Handler) HandleSet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.goals.set")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	var req SetGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("set goal, unmarshal json params: %s", err)
		http.Error(w, "set goal failed", http.StatusBadRequest)
		return
	}

	if req.Value <= 0 {
		http.Error(w, "error, goal value must be positive", http.StatusBadRequest)
		return
	}

	startDate := req.StartDate
	if startDate == "" {
		startDate = handler.now().Local().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", startDate); err != nil {
		http.Error(w, "error, invalid start date", http.StatusBadRequest)
		return
	}

	goal := Goal{
		UserID:    userID,
		StartDate: startDate,
		Value:     req.Value,
		ChangedAt: handler.now(),
	}

	if err := handler.repo.Set(ctx, goal); err != nil {
		log.Errorf("failed to set goal for user [%s]: %s", userID, err)
		http.Error(w, "error, failed to set goal", http.StatusInternalServerError)
		return
	}

	// changing the goal can change which days count as goal hits
	handler.trigger.Trigger(userID)

	respJson, err := json.Marshal(goal)
	if err != nil {
		log.Errorf("failed to marshal goal: %s", err)
		http.Error(w, "error, failed to set goal", http.StatusInternalServerError)
		return
	}

	log.Debugf("goal set for user [%s]: %d from %s", userID, goal.Value, goal.StartDate)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusCreated)
}

func (handler *Handler) HandleGetCurrent(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.goals.current")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	history, err := handler.repo.History(ctx, userID)
	if err != nil {
		log.Errorf("failed to get goal history for user [%s]: %s", userID, err)
		http.Error(w, "error, failed to get current goal", http.StatusInternalServerError)
		return
	}

	day := r.URL.Query().Get("day")
	if day == "" {
		day = handler.now().Local().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", day); err != nil {
		http.Error(w, "error, invalid day", http.StatusBadRequest)
		return
	}

	resp := CurrentGoalResponse{
		Value: EffectiveValue(history, day),
		Day:   day,
	}

	respJson, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("failed to marshal current goal: %s", err)
		http.Error(w, "error, failed to get current goal", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.goals.history")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	history, err := handler.repo.History(ctx, userID)
	if err != nil {
		log.Errorf("failed to get goal history for user [%s]: %s", userID, err)
		http.Error(w, "error, failed to get goal history", http.StatusInternalServerError)
		return
	}

	if history == nil {
		history = []Goal{}
	}

	respJson, err := json.Marshal(HistoryResponse{History: Sorted(history)})
	if err != nil {
		log.Errorf("failed to marshal goal history: %s", err)
		http.Error(w, "error, failed to get goal history", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}
