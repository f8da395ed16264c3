package logs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/2beens/pushuppal/internal/auth"
	"github.com/2beens/pushuppal/internal/telemetry/metrics"
	"github.com/2beens/pushuppal/internal/telemetry/tracing"
	"github.com/2beens/pushuppal/pkg"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=logs_mocks_test.go -package=logs_test

type entriesRepo interface {
	Add(ctx context.Context, entry Entry) (*Entry, error)
	ListAll(ctx context.Context, userID string) ([]Entry, error)
	Delete(ctx context.Context, userID, id string) error
	DeleteForDay(ctx context.Context, userID string, day time.Time) (int64, error)
	Clear(ctx context.Context, userID string) (int64, error)
}

// evalTrigger kicks the achievements pipeline after the log changes.
type evalTrigger interface {
	Trigger(userID string)
}

type AddEntryRequest struct {
	Count int    `json:"count"`
	Date  string `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
}

type AddEntryResponse struct {
	Entry
	CountToday int `json:"countToday"`
}

type ListResponse struct {
	Entries      []Entry `json:"entries"`
	TotalPushups int     `json:"totalPushups"`
}

type DeletedResponse struct {
	Deleted int64 `json:"deleted"`
}

type Handler struct {
	repo           entriesRepo
	trigger        evalTrigger
	metricsManager *metrics.Manager
	// ability to inject the clock (for unit testing around midnight)
	Now func() time.Time
}

func NewHandler(repo entriesRepo, trigger evalTrigger, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		trigger:        trigger,
		metricsManager: metricsManager,
		Now:            time.Now,
	}
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.logs.add")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req AddEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("new log entry, unmarshal json params: %s", err)
		http.Error(w, "add log entry failed", http.StatusBadRequest)
		return
	}

	if req.Count <= 0 {
		http.Error(w, "error, count must be positive", http.StatusBadRequest)
		return
	}

	createdAt, err := handler.entryTimestamp(req.Date)
	if err != nil {
		http.Error(w, "error, invalid date", http.StatusBadRequest)
		return
	}

	entry := Entry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Count:     req.Count,
		CreatedAt: createdAt,
	}

	addedEntry, err := handler.repo.Add(ctx, entry)
	if err != nil {
		log.Errorf("failed to add log entry for user [%s]: %s", userID, err)
		http.Error(w, "error, failed to add log entry", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterLogEntries.Inc()
	handler.metricsManager.CounterPushupsLogged.Add(float64(addedEntry.Count))

	countToday := 0
	allEntries, err := handler.repo.ListAll(ctx, userID)
	if err != nil {
		// just log the error, no need to return error to the client
		log.Errorf("failed to get entries for user [%s]: %s", userID, err)
	} else {
		today := handler.Now().Local().Format("2006-01-02")
		for _, e := range allEntries {
			if e.Day() == today {
				countToday += e.Count
			}
		}
	}

	handler.trigger.Trigger(userID)

	respJson, err := json.Marshal(AddEntryResponse{
		Entry:      *addedEntry,
		CountToday: countToday,
	})
	if err != nil {
		log.Errorf("failed to marshal added log entry: %s", err)
		http.Error(w, "error, failed to add log entry", http.StatusInternalServerError)
		return
	}

	log.Debugf("new log entry added: %s", respJson)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusCreated)
}

// entryTimestamp combines the selected day (if any) with the current time of day,
// so entries backfilled to a past date still keep a natural ordering within that day.
func (handler *Handler) entryTimestamp(date string) (time.Time, error) {
	now := handler.Now().Local()
	if date == "" {
		return now, nil
	}

	day, err := time.ParseInLocation("2006-01-02", date, now.Location())
	if err != nil {
		return time.Time{}, err
	}

	return time.Date(
		day.Year(), day.Month(), day.Day(),
		now.Hour(), now.Minute(), now.Second(), now.Nanosecond(),
		now.Location(),
	), nil
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.logs.list")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	entries, err := handler.repo.ListAll(ctx, userID)
	if err != nil {
		log.Errorf("failed to list log entries for user [%s]: %s", userID, err)
		http.Error(w, "error, failed to list log entries", http.StatusInternalServerError)
		return
	}

	totalPushups := 0
	for _, e := range entries {
		totalPushups += e.Count
	}

	if entries == nil {
		entries = []Entry{}
	}

	respJson, err := json.Marshal(ListResponse{
		Entries:      entries,
		TotalPushups: totalPushups,
	})
	if err != nil {
		log.Errorf("failed to marshal log entries: %s", err)
		http.Error(w, "error, failed to list log entries", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.logs.delete")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	id := vars["id"]
	if id == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			http.Error(w, "log entry not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete log entry [%s] for user [%s]: %s", id, userID, err)
		http.Error(w, "error, failed to delete log entry", http.StatusInternalServerError)
		return
	}

	handler.trigger.Trigger(userID)

	pkg.WriteTextResponseOK(w, "deleted:"+id)
}

func (handler *Handler) HandleDeleteDay(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.logs.deleteDay")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	dayStr := vars["day"]
	day, err := time.ParseInLocation("2006-01-02", dayStr, time.Local)
	if err != nil {
		http.Error(w, "error, invalid day", http.StatusBadRequest)
		return
	}

	deleted, err := handler.repo.DeleteForDay(ctx, userID, day)
	if err != nil {
		log.Errorf("failed to delete log entries for day [%s], user [%s]: %s", dayStr, userID, err)
		http.Error(w, "error, failed to delete log entries", http.StatusInternalServerError)
		return
	}

	handler.trigger.Trigger(userID)

	respJson, err := json.Marshal(DeletedResponse{Deleted: deleted})
	if err != nil {
		log.Errorf("failed to marshal delete day response: %s", err)
		http.Error(w, "error, failed to delete log entries", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.logs.clear")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	deleted, err := handler.repo.Clear(ctx, userID)
	if err != nil {
		log.Errorf("failed to clear log entries for user [%s]: %s", userID, err)
		http.Error(w, "error, failed to clear log entries", http.StatusInternalServerError)
		return
	}

	handler.trigger.Trigger(userID)

	respJson, err := json.Marshal(DeletedResponse{Deleted: deleted})
	if err != nil {
		log.Errorf("failed to marshal clear response: %s", err)
		http.Error(w, "error, failed to clear log entries", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}
