package prestige

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/2beens/pushuppal/internal/auth"
	"github.com/2beens/pushuppal/internal/telemetry/tracing"
	"github.com/2beens/pushuppal/pkg"

	log "github.com/sirupsen/logrus"
)

type prestigeRepo interface {
	Get(ctx context.Context, userID string) (int, error)
	Set(ctx context.Context, userID string, level int) error
}

type evalTrigger interface {
	Trigger(userID string)
}

type LevelResponse struct {
	Level int `json:"level"`
}

type Handler struct {
	repo    prestigeRepo
	trigger evalTrigger
}

func NewHandler(repo prestigeRepo, trigger evalTrigger) *Handler {
	return &Handler{
		repo:    repo,
		trigger: trigger,
	}
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.prestige.get")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	level, err := handler.repo.Get(ctx, userID)
	if err != nil {
		log.Errorf("failed to get prestige for user [%s]: %s", userID, err)
		http.Error(w, "error, failed to get prestige", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(LevelResponse{Level: level})
	if err != nil {
		log.Errorf("failed to marshal prestige: %s", err)
		http.Error(w, "error, failed to get prestige", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) HandleIncrement(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.prestige.increment")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	level, err := handler.repo.Get(ctx, userID)
	if err != nil {
		log.Errorf("failed to get prestige for user [%s]: %s", userID, err)
		http.Error(w, "error, failed to increment prestige", http.StatusInternalServerError)
		return
	}

	newLevel := Increment(level)
	if newLevel != level {
		if err := handler.repo.Set(ctx, userID, newLevel); err != nil {
			log.Errorf("failed to set prestige for user [%s]: %s", userID, err)
			http.Error(w, "error, failed to increment prestige", http.StatusInternalServerError)
			return
		}
		// a higher prestige makes more badges eligible
		handler.trigger.Trigger(userID)
	}

	respJson, err := json.Marshal(LevelResponse{Level: newLevel})
	if err != nil {
		log.Errorf("failed to marshal prestige: %s", err)
		http.Error(w, "error, failed to increment prestige", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}
