package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sandeepkv93/social-trust-core/internal/observability"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	RoutingKeyTargetBanned         = "moderation.target_banned"
	RoutingKeyVerificationCodeMail = "mail.verification_code"
)

// TargetBannedEvent is published after a ban transaction commits.
type TargetBannedEvent struct {
	TargetType      string    `json:"target_type"`
	TargetID        string    `json:"target_id"`
	Trigger         string    `json:"trigger"`
	ResolvedReports int64     `json:"resolved_reports"`
	RevokedSessions int       `json:"revoked_sessions"`
	BannedAt        time.Time `json:"banned_at"`
}

// VerificationCodeMail asks the mail worker to deliver a one-time code.
type VerificationCodeMail struct {
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

type NoopEventPublisher struct{}

func NewNoopEventPublisher() *NoopEventPublisher { return &NoopEventPublisher{} }

func (NoopEventPublisher) Publish(context.Context, string, any) error { return nil }

// AMQPEventPublisher publishes persistent JSON messages to a durable topic
// exchange. The channel is opened lazily and reopened after a broker drop.
type AMQPEventPublisher struct {
	url      string
	exchange string
	logger   *slog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPEventPublisher(url, exchange string, logger *slog.Logger) *AMQPEventPublisher {
	return &AMQPEventPublisher{url: url, exchange: exchange, logger: logger}
}

func (p *AMQPEventPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		observability.RecordEventPublish(ctx, routingKey, "error")
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channelLocked()
	if err != nil {
		observability.RecordEventPublish(ctx, routingKey, "error")
		return err
	}
	err = ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		p.resetLocked()
		observability.RecordEventPublish(ctx, routingKey, "error")
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	observability.RecordEventPublish(ctx, routingKey, "success")
	return nil
}

func (p *AMQPEventPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn, p.ch = nil, nil
	return err
}

func (p *AMQPEventPublisher) channelLocked() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.resetLocked()
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}
	p.conn, p.ch = conn, ch
	p.logger.Info("amqp publisher connected", "exchange", p.exchange)
	return ch, nil
}

func (p *AMQPEventPublisher) resetLocked() {
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}
