package achievements

import (
	"encoding/json"
	"net/http"

	"github.com/2beens/pushuppal/internal/auth"
	"github.com/2beens/pushuppal/internal/telemetry/tracing"
	"github.com/2beens/pushuppal/pkg"

	log "github.com/sirupsen/logrus"
)

type ListResponse struct {
	Badges []UserBadge `json:"badges"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.achievements.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	badges, err := handler.service.Achievements(ctx, userID)
	if err != nil {
		log.Errorf("failed to get achievements for user [%s]: %s", userID, err)
		http.Error(w, "error, failed to get achievements", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(ListResponse{Badges: badges})
	if err != nil {
		log.Errorf("failed to marshal achievements: %s", err)
		http.Error(w, "error, failed to get achievements", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

// HandleEvaluate runs a synchronous evaluation pass and returns the refreshed
// badge list.
func (handler *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.achievements.evaluate")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if err := handler.service.EvaluateUser(ctx, userID); err != nil {
		// best-effort: reconciliation failures fall back internally, the list
		// below still reflects whatever state is available
		log.Errorf("evaluate achievements for user [%s]: %s", userID, err)
	}

	badges, err := handler.service.Achievements(ctx, userID)
	if err != nil {
		log.Errorf("failed to get achievements for user [%s]: %s", userID, err)
		http.Error(w, "error, failed to evaluate achievements", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(ListResponse{Badges: badges})
	if err != nil {
		log.Errorf("failed to marshal achievements: %s", err)
		http.Error(w, "error, failed to evaluate achievements", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}
