package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sandeepkv93/social-trust-core/internal/domain"
	"github.com/sandeepkv93/social-trust-core/internal/repository"
)

type AccountService struct {
	tx       repository.Transactor
	userRepo repository.UserRepository
	tokens   *TokenService
	sessions *SessionService
	logger   *slog.Logger
}

func NewAccountService(tx repository.Transactor, userRepo repository.UserRepository, tokens *TokenService, sessions *SessionService, logger *slog.Logger) *AccountService {
	return &AccountService{tx: tx, userRepo: userRepo, tokens: tokens, sessions: sessions, logger: logger}
}

// CreateAnonymousAccount creates an anonymous user and its first session in
// one transaction.
func (s *AccountService) CreateAnonymousAccount(ctx context.Context, device domain.Device) (string, *domain.Session, error) {
	var (
		token   string
		session *domain.Session
	)
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		user := &domain.User{ID: uuid.NewString(), Status: domain.UserStatusAnonymous}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("create anonymous user: %w", err)
		}
		var err error
		token, session, err = s.tokens.IssueAuthToken(ctx, user.ID, device)
		return err
	})
	if err != nil {
		return "", nil, err
	}
	s.logger.InfoContext(ctx, "anonymous account created", "user_id", session.UserID, "platform", session.Platform)
	return token, session, nil
}

// RequestAccountDeletion marks the account for deletion and revokes every
// session atomically. Only active accounts can be deleted. The status change
// comes first so its row lock holds off sign-ins until the sessions are gone.
func (s *AccountService) RequestAccountDeletion(ctx context.Context, userID string) error {
	var revoked int
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		changed, err := s.userRepo.MarkPendingDeletion(ctx, userID)
		if err != nil {
			return fmt.Errorf("mark pending deletion: %w", err)
		}
		if !changed {
			return ErrAccountNotActive
		}
		revoked, err = s.sessions.SignOutAllSessions(ctx, userID)
		return err
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "account deletion requested", "user_id", userID, "revoked_sessions", revoked)
	return nil
}
