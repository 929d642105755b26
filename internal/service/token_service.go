package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sandeepkv93/social-trust-core/internal/domain"
	"github.com/sandeepkv93/social-trust-core/internal/observability"
	"github.com/sandeepkv93/social-trust-core/internal/repository"
	"github.com/sandeepkv93/social-trust-core/internal/security"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
)

// Identity is the verified owner of a request.
type Identity struct {
	UserID    string            `json:"user_id"`
	SessionID string            `json:"session_id"`
	Status    domain.UserStatus `json:"status"`
}

// TokenConfig holds the lifetimes of auth tokens, email tokens and cache entries.
type TokenConfig struct {
	AuthTTL  time.Duration
	EmailTTL time.Duration
	CacheTTL time.Duration
}

// TokenService is the only holder of signing keys. It mints and verifies auth
// tokens bound to sessions and stateless email-verification tokens.
type TokenService struct {
	jwtMgr      *security.JWTManager
	tx          repository.Transactor
	sessionRepo repository.SessionRepository
	userRepo    repository.UserRepository
	cache       SessionCacheStore
	revoked     RevokedSessionStore
	cfg         TokenConfig
	logger      *slog.Logger

	resolveGroup singleflight.Group
}

func NewTokenService(
	jwtMgr *security.JWTManager,
	tx repository.Transactor,
	sessionRepo repository.SessionRepository,
	userRepo repository.UserRepository,
	cache SessionCacheStore,
	revoked RevokedSessionStore,
	cfg TokenConfig,
	logger *slog.Logger,
) *TokenService {
	if cache == nil {
		cache = NewNoopSessionCacheStore()
	}
	if revoked == nil {
		revoked = NewNoopRevokedSessionStore()
	}
	return &TokenService{
		jwtMgr:      jwtMgr,
		tx:          tx,
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		cache:       cache,
		revoked:     revoked,
		cfg:         cfg,
		logger:      logger,
	}
}

// IssueAuthToken creates a session for userID and signs a token for it. The
// owner's status is read under a shared lock in the same transaction as the
// session insert, so a ban either sees the new session or the sign-in sees
// the ban. Accounts no access mode admits get no session. When ctx already
// carries a transaction the session joins it, and the cache is warmed only
// after that transaction commits.
func (s *TokenService) IssueAuthToken(ctx context.Context, userID string, device domain.Device) (string, *domain.Session, error) {
	device.ID = strings.TrimSpace(device.ID)
	device.Name = strings.TrimSpace(device.Name)
	if device.ID == "" || !device.Platform.Valid() {
		return "", nil, ErrInvalidDevice
	}
	var (
		token   string
		session *domain.Session
	)
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		status, err := s.userRepo.LockStatus(ctx, userID)
		if err != nil {
			return fmt.Errorf("load user status: %w", err)
		}
		if err := AccessAllowAnonymous.Permit(status); err != nil {
			return err
		}
		session = &domain.Session{
			ID:         uuid.NewString(),
			UserID:     userID,
			DeviceID:   device.ID,
			DeviceName: device.Name,
			Platform:   device.Platform,
			CreatedAt:  time.Now().UTC(),
		}
		if err := s.sessionRepo.Create(ctx, session); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		token, err = s.jwtMgr.SignAuthToken(session.ID, userID, string(status), s.cfg.AuthTTL)
		if err != nil {
			return fmt.Errorf("sign auth token: %w", err)
		}
		entry := CachedSession{UserID: userID, Status: status}
		repository.AfterCommit(ctx, func(ctx context.Context) {
			s.warmCache(ctx, session.ID, entry)
		})
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	observability.RecordTokenIssued(ctx, security.TokenTypeAuth)
	return token, session, nil
}

// RefreshAuthToken re-signs a token for an already verified identity.
func (s *TokenService) RefreshAuthToken(ctx context.Context, identity Identity) (string, error) {
	token, err := s.jwtMgr.SignAuthToken(identity.SessionID, identity.UserID, string(identity.Status), s.cfg.AuthTTL)
	if err != nil {
		return "", fmt.Errorf("sign auth token: %w", err)
	}
	observability.RecordTokenIssued(ctx, "refresh")
	return token, nil
}

// VerifyAuthToken resolves the token's session to its owner, cache first,
// cross-checks any identity embedded in the token and applies mode.
func (s *TokenService) VerifyAuthToken(ctx context.Context, raw string, mode AccessMode) (identity Identity, err error) {
	ctx, span := observability.StartSpan(ctx, "token.verify", attribute.String("access.mode", string(mode)))
	defer func() {
		observability.RecordTokenVerification(ctx, string(mode), verificationOutcome(err))
		observability.EndSpan(span, err)
	}()

	claims, err := s.jwtMgr.ParseAuthToken(raw)
	if err != nil {
		return Identity{}, err
	}
	owner, err := s.resolveSession(ctx, claims.SessionID)
	if err != nil {
		return Identity{}, err
	}
	if claims.UserID != "" && claims.UserID != owner.UserID {
		return Identity{}, ErrTokenUserMismatch
	}
	if claims.Status != "" && domain.UserStatus(claims.Status) != owner.Status {
		return Identity{}, ErrTokenUserMismatch
	}
	if err := mode.Permit(owner.Status); err != nil {
		return Identity{}, err
	}
	return Identity{UserID: owner.UserID, SessionID: claims.SessionID, Status: owner.Status}, nil
}

func (s *TokenService) IssueEmailVerificationToken(ctx context.Context, hashedEmail string, hashedCodes []string) (string, error) {
	token, err := s.jwtMgr.SignEmailVerificationToken(hashedEmail, hashedCodes, s.cfg.EmailTTL)
	if err != nil {
		return "", fmt.Errorf("sign email verification token: %w", err)
	}
	observability.RecordTokenIssued(ctx, security.TokenTypeEmailVerification)
	return token, nil
}

// VerifyEmailVerificationToken only decodes; comparing against a plaintext
// email or code is the caller's job.
func (s *TokenService) VerifyEmailVerificationToken(raw string) (string, []string, error) {
	claims, err := s.jwtMgr.ParseEmailVerificationToken(raw)
	if err != nil {
		return "", nil, err
	}
	return claims.EmailHash, claims.CodeHashes, nil
}

// InvalidateSessions drops cache entries. Failures are logged and swallowed;
// the entry TTL bounds how long a stale entry can survive.
func (s *TokenService) InvalidateSessions(ctx context.Context, sessionIDs ...string) {
	if len(sessionIDs) == 0 {
		return
	}
	if err := s.cache.Delete(ctx, sessionIDs...); err != nil {
		s.logger.WarnContext(ctx, "session cache invalidation failed", "sessions", len(sessionIDs), "error", err)
	}
}

// MarkSessionsRevoked records deleted sessions so verification rejects them
// ahead of any cached entry. Call only once the deletion has committed.
func (s *TokenService) MarkSessionsRevoked(ctx context.Context, sessionIDs ...string) {
	if len(sessionIDs) == 0 {
		return
	}
	if err := s.revoked.MarkRevoked(ctx, s.cfg.CacheTTL, sessionIDs...); err != nil {
		s.logger.WarnContext(ctx, "revoked session marker write failed", "sessions", len(sessionIDs), "error", err)
	}
}

func (s *TokenService) resolveSession(ctx context.Context, sessionID string) (CachedSession, error) {
	revoked, err := s.revoked.IsRevoked(ctx, sessionID)
	if err != nil {
		s.logger.WarnContext(ctx, "revoked session lookup failed", "error", err)
	}
	if revoked {
		observability.RecordSessionCacheLookup(ctx, "revoked")
		return CachedSession{}, ErrSessionNotFound
	}

	cached, ok, err := s.cache.Get(ctx, sessionID)
	switch {
	case err != nil:
		observability.RecordSessionCacheLookup(ctx, "error")
		s.logger.WarnContext(ctx, "session cache read failed, using store", "error", err)
	case ok && cached.Status.Valid():
		observability.RecordSessionCacheLookup(ctx, "hit")
		return cached, nil
	default:
		observability.RecordSessionCacheLookup(ctx, "miss")
	}

	// The lookup is shared by every caller waiting on sessionID, so one
	// caller's cancellation must not fail the others.
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.resolveGroup.Do(sessionID, func() (any, error) {
		ctx := shared
		owner, err := s.sessionRepo.ResolveOwner(ctx, sessionID)
		if errors.Is(err, repository.ErrSessionNotFound) {
			s.MarkSessionsRevoked(ctx, sessionID)
		}
		if err != nil {
			return nil, err
		}
		entry := CachedSession{UserID: owner.UserID, Status: owner.Status}
		s.warmCache(ctx, sessionID, entry)
		return entry, nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrSessionOwnerMissing) {
			observability.RecordIntegrityViolation(ctx, "session_owner_missing")
			s.logger.ErrorContext(ctx, "session references a missing user", "session_id", sessionID, "integrity_violation", true)
		}
		return CachedSession{}, err
	}
	return v.(CachedSession), nil
}

func (s *TokenService) warmCache(ctx context.Context, sessionID string, entry CachedSession) {
	if err := s.cache.Set(ctx, sessionID, entry, s.cfg.CacheTTL); err != nil {
		s.logger.WarnContext(ctx, "session cache write failed", "error", err)
	}
}

func verificationOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenInvalid):
		return "invalid"
	case errors.Is(err, ErrTokenUserMismatch):
		return "user_mismatch"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrSessionOwnerMissing):
		return "integrity_violation"
	case errors.Is(err, ErrAccountAnonymous), errors.Is(err, ErrAccountNotActive),
		errors.Is(err, ErrAccountNotAnonymous), errors.Is(err, ErrAccountNeitherActiveNorAnonymous):
		return "denied"
	default:
		return "error"
	}
}
