package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	stderrors "errors"

	"chat-relay/domain/chat"
	"chat-relay/errors"
	"chat-relay/observability"
	"chat-relay/services"
)

// Handler serves the non-realtime surface: credential endpoints and the
// history read path. The read path always filters through the authenticated
// viewer so self-deleted and globally deleted messages never resurface.
type Handler struct {
	auth     services.IAuthService
	messages services.IMessageService
	groups   services.IGroupService
	stats    *observability.Stats
	log      *slog.Logger
}

func NewHandler(
	auth services.IAuthService,
	messages services.IMessageService,
	groups services.IGroupService,
	stats *observability.Stats,
	log *slog.Logger,
) *Handler {
	return &Handler{auth: auth, messages: messages, groups: groups, stats: stats, log: log}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", h.register)
	mux.HandleFunc("POST /api/auth/login", h.login)
	mux.HandleFunc("POST /api/auth/reset-password", h.resetPassword)
	mux.Handle("GET /api/auth/users", h.requireAuth(h.listUsers))
	mux.Handle("GET /api/messages/{user_id}/{other_user_id}", h.requireAuth(h.directHistory))
	mux.Handle("GET /api/groups/me", h.requireAuth(h.myGroups))
	mux.Handle("GET /api/groups/{group_id}/messages", h.requireAuth(h.groupHistory))
	mux.HandleFunc("GET /debug/stats", h.deliveryStats)
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Pin      string `json:"pin"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	userID, err := h.auth.Register(req.Username, req.Password, req.Pin)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user_id": userID})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, username, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"username":     username,
	})
}

type resetPasswordRequest struct {
	Username    string `json:"username"`
	Pin         string `json:"pin"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.auth.ResetPassword(req.Username, req.Pin, req.NewPassword); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request, _ string) {
	usernames, err := h.auth.Usernames()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if usernames == nil {
		usernames = []string{}
	}
	writeJSON(w, http.StatusOK, usernames)
}

// directHistory returns the conversation between the authenticated viewer and
// the other participant. The path keeps the historical two-segment shape; the
// first segment must be the viewer themselves.
func (h *Handler) directHistory(w http.ResponseWriter, r *http.Request, viewer string) {
	if chat.NormalizeIdentity(r.PathValue("user_id")) != viewer {
		writeError(w, http.StatusForbidden, "cannot read another user's messages")
		return
	}
	other := chat.NormalizeIdentity(r.PathValue("other_user_id"))
	messages, err := h.messages.HistoryBetween(viewer, other)
	if err != nil {
		h.log.Error("direct history failed", "viewer", viewer, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch messages")
		return
	}
	if messages == nil {
		messages = []chat.DirectMessage{}
	}
	writeJSON(w, http.StatusOK, messages)
}

func (h *Handler) myGroups(w http.ResponseWriter, r *http.Request, viewer string) {
	groups, err := h.groups.GroupsForMember(viewer)
	if err != nil {
		h.log.Error("group listing failed", "viewer", viewer, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch groups")
		return
	}
	if groups == nil {
		groups = []chat.Group{}
	}
	writeJSON(w, http.StatusOK, groups)
}

func (h *Handler) groupHistory(w http.ResponseWriter, r *http.Request, viewer string) {
	groupID := chat.NormalizeIdentity(r.PathValue("group_id"))
	messages, err := h.messages.GroupHistory(groupID, viewer)
	if err != nil {
		h.log.Error("group history failed", "group", groupID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch messages")
		return
	}
	if messages == nil {
		messages = []chat.GroupMessage{}
	}
	writeJSON(w, http.StatusOK, messages)
}

func (h *Handler) deliveryStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.Snapshot())
}

func statusFor(err error) int {
	switch {
	case stderrors.Is(err, errors.ErrInvalidArgument),
		stderrors.Is(err, errors.ErrInvalidPassword),
		stderrors.Is(err, errors.ErrUserAlreadyExists):
		return http.StatusBadRequest
	case stderrors.Is(err, errors.ErrInvalidPin):
		return http.StatusForbidden
	case stderrors.Is(err, errors.ErrUserNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, errors.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
