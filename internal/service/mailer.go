package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Mailer delivers one-time codes. Delivery itself belongs to the mail
// service; implementations here only hand the message off.
type Mailer interface {
	SendVerificationCode(ctx context.Context, email, code string, expiresAt time.Time) error
}

// QueueMailer hands codes to the mail worker over the event publisher.
type QueueMailer struct {
	publisher EventPublisher
}

func NewQueueMailer(publisher EventPublisher) *QueueMailer {
	return &QueueMailer{publisher: publisher}
}

func (m *QueueMailer) SendVerificationCode(ctx context.Context, email, code string, expiresAt time.Time) error {
	return m.publisher.Publish(ctx, RoutingKeyVerificationCodeMail, VerificationCodeMail{
		Email:     email,
		Code:      code,
		ExpiresAt: expiresAt,
	})
}

// LogMailer is used when no broker is configured. It never logs the code.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer { return &LogMailer{logger: logger} }

func (m *LogMailer) SendVerificationCode(ctx context.Context, email, _ string, expiresAt time.Time) error {
	m.logger.InfoContext(ctx, "verification code mail dropped, no mail transport configured",
		"email_domain", emailDomain(email),
		"expires_at", expiresAt,
	)
	return nil
}

func emailDomain(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return ""
	}
	return email[at+1:]
}
