package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sandeepkv93/social-trust-core/internal/domain"
	"github.com/sandeepkv93/social-trust-core/internal/observability"
	"github.com/sandeepkv93/social-trust-core/internal/repository"
)

// SessionView is the client-facing summary of one session.
type SessionView struct {
	ID         string          `json:"id"`
	DeviceName string          `json:"device_name"`
	Platform   domain.Platform `json:"platform"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ActiveSessions splits a user's sessions into the calling one and the rest.
type ActiveSessions struct {
	Current *SessionView  `json:"current"`
	Others  []SessionView `json:"others"`
}

// SessionService revokes sessions. Every revocation deletes the row and the
// cache entry; SignOutAllSessions joins the caller's transaction.
type SessionService struct {
	sessionRepo repository.SessionRepository
	tokens      *TokenService
	logger      *slog.Logger
}

func NewSessionService(sessionRepo repository.SessionRepository, tokens *TokenService, logger *slog.Logger) *SessionService {
	return &SessionService{sessionRepo: sessionRepo, tokens: tokens, logger: logger}
}

// SignOutSession fails with ErrSessionNotFound when the session does not
// exist or belongs to someone else, including on a repeated sign-out.
func (s *SessionService) SignOutSession(ctx context.Context, sessionID, userID string) error {
	deleted, err := s.sessionRepo.DeleteByIDForUser(ctx, userID, sessionID)
	if err != nil {
		observability.RecordSessionRevocation(ctx, "single", "error", 1)
		return fmt.Errorf("delete session: %w", err)
	}
	if !deleted {
		observability.RecordSessionRevocation(ctx, "single", "not_found", 1)
		return ErrSessionNotFound
	}
	s.invalidate(ctx, sessionID)
	observability.RecordSessionRevocation(ctx, "single", "success", 1)
	return nil
}

// SignOutAllSessions deletes every session of userID and returns how many
// were removed.
func (s *SessionService) SignOutAllSessions(ctx context.Context, userID string) (int, error) {
	ids, err := s.sessionRepo.DeleteByUserID(ctx, userID)
	if err != nil {
		observability.RecordSessionRevocation(ctx, "all", "error", 1)
		return 0, fmt.Errorf("delete user sessions: %w", err)
	}
	s.invalidate(ctx, ids...)
	observability.RecordSessionRevocation(ctx, "all", "success", len(ids))
	return len(ids), nil
}

// SessionOwner reports who owns sessionID, for callers that need to tell a
// missing session apart from someone else's.
func (s *SessionService) SessionOwner(ctx context.Context, sessionID string) (string, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return session.UserID, nil
}

func (s *SessionService) ListActiveSessions(ctx context.Context, userID, currentSessionID string) (ActiveSessions, error) {
	sessions, err := s.sessionRepo.ListByUserID(ctx, userID)
	if err != nil {
		return ActiveSessions{}, err
	}
	out := ActiveSessions{Others: make([]SessionView, 0, len(sessions))}
	for _, session := range sessions {
		view := SessionView{
			ID:         session.ID,
			DeviceName: session.DeviceName,
			Platform:   session.Platform,
			CreatedAt:  session.CreatedAt,
		}
		if session.ID == currentSessionID {
			out.Current = &view
			continue
		}
		out.Others = append(out.Others, view)
	}
	return out, nil
}

// invalidate drops cache entries right away and again once the deletion
// commits, then marks the sessions revoked. The revoked marker is what stops
// a cache fill racing the deletion from reviving the session.
func (s *SessionService) invalidate(ctx context.Context, sessionIDs ...string) {
	if len(sessionIDs) == 0 {
		return
	}
	s.tokens.InvalidateSessions(ctx, sessionIDs...)
	repository.AfterCommit(ctx, func(ctx context.Context) {
		if repository.InTransaction(ctx) {
			s.tokens.InvalidateSessions(ctx, sessionIDs...)
		}
		s.tokens.MarkSessionsRevoked(ctx, sessionIDs...)
	})
}
