package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/sandeepkv93/social-trust-core/internal/observability"
	"github.com/sandeepkv93/social-trust-core/internal/security"
)

const verificationCodeDigits = 6

// VerificationService runs the chained email-code flow. Codes are never
// stored server side; each new token carries every code hash issued so far.
type VerificationService struct {
	tokens    *TokenService
	hasher    *security.SecretHasher
	mailer    Mailer
	whitelist []string
	codeTTL   time.Duration
	logger    *slog.Logger
}

func NewVerificationService(tokens *TokenService, hasher *security.SecretHasher, mailer Mailer, whitelistDomains []string, codeTTL time.Duration, logger *slog.Logger) *VerificationService {
	return &VerificationService{
		tokens:    tokens,
		hasher:    hasher,
		mailer:    mailer,
		whitelist: whitelistDomains,
		codeTTL:   codeTTL,
		logger:    logger,
	}
}

// RequestCode issues a fresh code for email. A still-valid previous token for
// the same email carries its codes forward; otherwise the flow restarts.
func (s *VerificationService) RequestCode(ctx context.Context, email, previousToken string) (string, error) {
	email = security.NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || emailDomain(email) == "" {
		return "", ErrInvalidEmail
	}

	var (
		emailHash  string
		codeHashes []string
	)
	if previousToken != "" {
		prevEmail, prevCodes, err := s.tokens.VerifyEmailVerificationToken(previousToken)
		switch {
		case err != nil:
			s.logger.DebugContext(ctx, "previous verification token ignored", "error", err)
		case s.hasher.Matches(prevEmail, email):
			emailHash = prevEmail
			codeHashes = slices.Clone(prevCodes)
		default:
			s.logger.DebugContext(ctx, "previous verification token was for another email")
		}
	}
	if emailHash == "" {
		h, err := s.hasher.Hash(email)
		if err != nil {
			return "", fmt.Errorf("hash email: %w", err)
		}
		emailHash = h
	}

	code, err := security.GenerateNumericCode(verificationCodeDigits)
	if err != nil {
		return "", err
	}
	codeHash, err := s.hasher.Hash(code)
	if err != nil {
		return "", fmt.Errorf("hash code: %w", err)
	}
	codeHashes = append(codeHashes, codeHash)

	token, err := s.tokens.IssueEmailVerificationToken(ctx, emailHash, codeHashes)
	if err != nil {
		return "", err
	}

	if s.whitelisted(email) {
		observability.RecordEmailCode(ctx, "whitelisted")
		s.logger.DebugContext(ctx, "verification mail skipped for whitelisted domain", "email_domain", emailDomain(email), "code", code)
		return token, nil
	}
	if err := s.mailer.SendVerificationCode(ctx, email, code, time.Now().UTC().Add(s.codeTTL)); err != nil {
		observability.RecordEmailCode(ctx, "send_failed")
		return "", fmt.Errorf("send verification code: %w", err)
	}
	observability.RecordEmailCode(ctx, "sent")
	return token, nil
}

// Verify accepts code if it matches any code issued in the token's flow.
func (s *VerificationService) Verify(ctx context.Context, token, email, code string) error {
	emailHash, codeHashes, err := s.tokens.VerifyEmailVerificationToken(token)
	if err != nil {
		observability.RecordEmailCode(ctx, "token_rejected")
		return err
	}
	if !s.hasher.Matches(emailHash, security.NormalizeEmail(email)) {
		observability.RecordEmailCode(ctx, "email_mismatch")
		return ErrVerificationEmailMismatch
	}
	code = strings.TrimSpace(code)
	for _, h := range codeHashes {
		if s.hasher.Matches(h, code) {
			observability.RecordEmailCode(ctx, "verified")
			return nil
		}
	}
	observability.RecordEmailCode(ctx, "invalid_code")
	return ErrInvalidVerificationCode
}

func (s *VerificationService) whitelisted(email string) bool {
	return slices.Contains(s.whitelist, emailDomain(email))
}
