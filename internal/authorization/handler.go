package authorization

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/e8yes/webchat/internal/identity"
	"github.com/e8yes/webchat/internal/identity/entity"
)

// Authenticator is the part of identity.UserService token issuance needs.
type Authenticator interface {
	Authenticate(ctx context.Context, id int64, securityKey []byte) (*entity.User, error)
	Permissions(ctx context.Context, u *entity.User) ([]string, error)
}

// maxRequestBody caps JSON request bodies.
const maxRequestBody = 4 << 10

type Handler struct {
	svc    *Service
	users  Authenticator
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, users Authenticator, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, users: users, logger: logger}
}

// AuthorizeRequest exchanges a user's security key for an access token.
type AuthorizeRequest struct {
	UserID      string `json:"user_id"`
	SecurityKey string `json:"security_key"`
}

type AuthorizeResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (h *Handler) Authorize(w http.ResponseWriter, r *http.Request) {
	var req AuthorizeRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	id, err := strconv.ParseInt(req.UserID, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	u, err := h.users.Authenticate(r.Context(), id, []byte(req.SecurityKey))
	if err != nil {
		if errors.Is(err, identity.ErrBadCredentials) {
			h.logger.Debugw("authorize rejected", "user_id", id)
			writeError(w, http.StatusUnauthorized, "invalid_grant")
			return
		}
		h.logger.Errorw("authorize failed", "user_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	perms, err := h.users.Permissions(r.Context(), u)
	if err != nil {
		h.logger.Errorw("load permissions failed", "user_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	tok, err := h.svc.IssueToken(u, perms)
	if err != nil {
		h.logger.Errorw("issue token failed", "user_id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, AuthorizeResponse{
		AccessToken: tok,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.svc.TTL().Seconds()),
	})
}

func (h *Handler) JWKS(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.JWKS())
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
