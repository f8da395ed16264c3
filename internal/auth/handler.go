package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/2beens/pushuppal/internal/telemetry/tracing"
	"github.com/2beens/pushuppal/pkg"

	log "github.com/sirupsen/logrus"
)

type usersRepo interface {
	Add(ctx context.Context, username, passwordHash string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Get(ctx context.Context, id string) (*User, error)
}

type sessions interface {
	Login(ctx context.Context, userID string, createdAt time.Time) (string, error)
	Logout(ctx context.Context, token string) error
}

// evalTrigger kicks the achievements pipeline on login, so badges earned on
// other devices get reconciled right away.
type evalTrigger interface {
	Trigger(userID string)
}

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

type SignupResponse struct {
	UserID string `json:"userId"`
}

type Handler struct {
	usersRepo usersRepo
	sessions  sessions
	trigger   evalTrigger
}

func NewHandler(usersRepo usersRepo, sessions sessions, trigger evalTrigger) *Handler {
	return &Handler{
		usersRepo: usersRepo,
		sessions:  sessions,
		trigger:   trigger,
	}
}

func (handler *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.signup")
	defer span.End()

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("signup, unmarshal json params: %s", err)
		http.Error(w, "signup failed", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		http.Error(w, "error, username or password empty", http.StatusBadRequest)
		return
	}

	passwordHash, err := pkg.HashPassword(req.Password)
	if err != nil {
		log.Errorf("signup, hash password: %s", err)
		http.Error(w, "signup failed", http.StatusInternalServerError)
		return
	}

	user, err := handler.usersRepo.Add(ctx, req.Username, passwordHash)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			http.Error(w, "username taken", http.StatusConflict)
			return
		}
		log.Errorf("signup, add user [%s]: %s", req.Username, err)
		http.Error(w, "signup failed", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(SignupResponse{UserID: user.ID})
	if err != nil {
		log.Errorf("signup, marshal response: %s", err)
		http.Error(w, "signup failed", http.StatusInternalServerError)
		return
	}

	log.Debugf("new user signed up: %s", user.Username)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusCreated)
}

func (handler *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.login")
	defer span.End()

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("login, unmarshal json params: %s", err)
		http.Error(w, "login failed", http.StatusBadRequest)
		return
	}

	user, err := handler.usersRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			http.Error(w, "no can do", http.StatusUnauthorized)
			return
		}
		log.Errorf("login, get user [%s]: %s", req.Username, err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	if !pkg.CheckPasswordHash(req.Password, user.PasswordHash) {
		log.Tracef("login, invalid password for user [%s]", req.Username)
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	token, err := handler.sessions.Login(ctx, user.ID, time.Now())
	if err != nil {
		log.Errorf("login, create session for user [%s]: %s", req.Username, err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	handler.trigger.Trigger(user.ID)

	respJson, err := json.Marshal(LoginResponse{Token: token, UserID: user.ID})
	if err != nil {
		log.Errorf("login, marshal response: %s", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) HandleWhoAmI(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.whoami")
	defer span.End()

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	user, err := handler.usersRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			http.Error(w, "no can do", http.StatusUnauthorized)
			return
		}
		log.Errorf("whoami, get user [%s]: %s", userID, err)
		http.Error(w, "whoami failed", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(user)
	if err != nil {
		log.Errorf("whoami, marshal response: %s", err)
		http.Error(w, "whoami failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.logout")
	defer span.End()

	token := r.Header.Get("X-PUSHUP-TOKEN")
	if token == "" {
		http.Error(w, "error, token empty", http.StatusBadRequest)
		return
	}

	if err := handler.sessions.Logout(ctx, token); err != nil {
		if errors.Is(err, ErrNotLoggedIn) {
			http.Error(w, "no can do", http.StatusUnauthorized)
			return
		}
		log.Errorf("logout: %s", err)
		http.Error(w, "logout failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, "logged-out")
}
