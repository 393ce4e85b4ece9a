package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/e8yes/webchat/internal/identity/entity"
)

// Users is the part of UserService the HTTP layer needs.
type Users interface {
	CreateBaselineUser(ctx context.Context, securityKey []byte) (*entity.User, error)
	GetUser(ctx context.Context, id int64) (*entity.User, error)
}

// maxRequestBody caps JSON request bodies; security keys are at most 72 bytes.
const maxRequestBody = 4 << 10

// Handler exposes HTTP endpoints for user operations.
type Handler struct {
	users  Users
	logger *zap.SugaredLogger
}

func NewHandler(users Users, logger *zap.SugaredLogger) *Handler {
	return &Handler{users: users, logger: logger}
}

// CreateUserRequest request body for the user creation endpoint.
type CreateUserRequest struct {
	SecurityKey string `json:"security_key"`
}

// UserView is the public projection of a user. It never carries the key hash.
type UserView struct {
	ID           int64     `json:"id,string"`
	Alias        *string   `json:"alias"`
	AvatarFileID *int64    `json:"avatar_file_id,string"`
	Emails       []string  `json:"emails"`
	CreatedAt    time.Time `json:"created_at"`
	ActiveLevel  int       `json:"active_level"`
	GroupNames   []string  `json:"group_names"`
}

func NewUserView(u *entity.User) UserView {
	return UserView{
		ID:           u.ID,
		Alias:        u.Alias,
		AvatarFileID: u.AvatarFileID,
		Emails:       u.Emails,
		CreatedAt:    u.CreatedAt,
		ActiveLevel:  u.ActiveLevel,
		GroupNames:   u.GroupNames,
	}
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid create user payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	u, err := h.users.CreateBaselineUser(r.Context(), []byte(req.SecurityKey))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSecurityKey):
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid security key"})
		case errors.Is(err, ErrResourceConflict):
			h.logger.Warnw("create user conflict", "err", err)
			h.writeJSON(w, http.StatusConflict, map[string]string{"error": "user already exists"})
		default:
			h.logger.Errorw("create user failed", "err", err)
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "create user failed"})
		}
		return
	}
	h.logger.Infow("user created", "user_id", u.ID)
	h.writeJSON(w, http.StatusCreated, NewUserView(u))
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return
	}
	u, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		h.logger.Errorw("get user failed", "user_id", id, "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "get user failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, NewUserView(u))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
