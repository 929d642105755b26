package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sandeepkv93/social-trust-core/internal/http/middleware"
	"github.com/sandeepkv93/social-trust-core/internal/http/response"
	"github.com/sandeepkv93/social-trust-core/internal/service"
)

type SessionManager interface {
	ListActiveSessions(ctx context.Context, userID, currentSessionID string) (service.ActiveSessions, error)
	SignOutSession(ctx context.Context, sessionID, userID string) error
	SignOutAllSessions(ctx context.Context, userID string) (int, error)
	SessionOwner(ctx context.Context, sessionID string) (string, error)
}

// UserHandler serves the caller's own sessions and account lifecycle.
type UserHandler struct {
	sessions SessionManager
	accounts AccountService
	logger   *slog.Logger
}

func NewUserHandler(sessions SessionManager, accounts AccountService, logger *slog.Logger) *UserHandler {
	return &UserHandler{sessions: sessions, accounts: accounts, logger: logger}
}

func (h *UserHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	sessions, err := h.sessions.ListActiveSessions(r.Context(), identity.UserID, identity.SessionID)
	if err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, sessions)
}

func (h *UserHandler) SignOutCurrent(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	if err := h.sessions.SignOutSession(r.Context(), identity.SessionID, identity.UserID); err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}
	response.NoContent(w, r)
}

// RevokeSession signs out one session by id. A session that exists but
// belongs to someone else is 403, a missing one 404.
func (h *UserHandler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	sessionID := chi.URLParam(r, "session_id")
	owner, err := h.sessions.SessionOwner(r.Context(), sessionID)
	if err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}
	if owner != identity.UserID {
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "session belongs to another user", nil)
		return
	}
	if err := h.sessions.SignOutSession(r.Context(), sessionID, identity.UserID); err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}
	response.NoContent(w, r)
}

func (h *UserHandler) SignOutAll(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	n, err := h.sessions.SignOutAllSessions(r.Context(), identity.UserID)
	if err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]int{"revoked_sessions": n})
}

func (h *UserHandler) RequestDeletion(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	if err := h.accounts.RequestAccountDeletion(r.Context(), identity.UserID); err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusAccepted, map[string]string{"status": "pending_deletion"})
}

func (h *UserHandler) identity(w http.ResponseWriter, r *http.Request) (service.Identity, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		WriteServiceError(w, r, h.logger, errors.New("identity missing from request context"))
	}
	return identity, ok
}
