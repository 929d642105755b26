package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sandeepkv93/social-trust-core/internal/config"
	"github.com/sandeepkv93/social-trust-core/internal/domain"
	"github.com/sandeepkv93/social-trust-core/internal/observability"
	"github.com/sandeepkv93/social-trust-core/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const (
	TriggerSweep  = "sweep"
	TriggerInline = "inline"
	TriggerManual = "manual"
)

const (
	OutcomeBanned         = "banned"
	OutcomeAlreadyBanned  = "already_banned"
	OutcomeBelowThreshold = "below_threshold"
	OutcomeFailed         = "failed"
)

var ErrSweepInProgress = errors.New("ban sweep already in progress")

// BanResult describes what one ban decision did.
type BanResult struct {
	TargetType      domain.ReportTargetType `json:"target_type"`
	TargetID        string                  `json:"target_id"`
	Outcome         string                  `json:"outcome"`
	ResolvedReports int64                   `json:"resolved_reports"`
	RevokedSessions int                     `json:"revoked_sessions"`
	Err             error                   `json:"-"`
}

type SweepReport struct {
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Results    []BanResult `json:"results"`
}

func (r SweepReport) Count(outcome string) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

type BanEnforcerConfig struct {
	Thresholds config.Thresholds
	// Concurrency bounds how many targets are processed at once in a sweep.
	Concurrency int
}

// BanEnforcer turns report aggregates into bans. Every ban, its session
// revocation and the resolution of the contributing reports commit in one
// transaction, so a report is never counted toward two decisions.
type BanEnforcer struct {
	tx          repository.Transactor
	reportRepo  repository.ReportRepository
	contentRepo repository.ContentRepository
	userRepo    repository.UserRepository
	sessions    *SessionService
	publisher   EventPublisher
	cfg         BanEnforcerConfig
	logger      *slog.Logger

	sweepMu sync.Mutex
}

func NewBanEnforcer(
	tx repository.Transactor,
	reportRepo repository.ReportRepository,
	contentRepo repository.ContentRepository,
	userRepo repository.UserRepository,
	sessions *SessionService,
	publisher EventPublisher,
	cfg BanEnforcerConfig,
	logger *slog.Logger,
) *BanEnforcer {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 4
	}
	if publisher == nil {
		publisher = NewNoopEventPublisher()
	}
	return &BanEnforcer{
		tx:          tx,
		reportRepo:  reportRepo,
		contentRepo: contentRepo,
		userRepo:    userRepo,
		sessions:    sessions,
		publisher:   publisher,
		cfg:         cfg,
		logger:      logger,
	}
}

func (e *BanEnforcer) Threshold(targetType domain.ReportTargetType) int {
	switch targetType {
	case domain.ReportTargetPost:
		return e.cfg.Thresholds.Post
	case domain.ReportTargetComment:
		return e.cfg.Thresholds.Comment
	case domain.ReportTargetUser:
		return e.cfg.Thresholds.User
	}
	return 0
}

// Sweep bans every target whose active reports reached its threshold.
// Targets are processed concurrently; one failing target does not stop the
// others. Overlapping sweeps in one process are rejected.
func (e *BanEnforcer) Sweep(ctx context.Context) (report SweepReport, err error) {
	if !e.sweepMu.TryLock() {
		return SweepReport{}, ErrSweepInProgress
	}
	defer e.sweepMu.Unlock()

	ctx, span := observability.StartSpan(ctx, "moderation.sweep")
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		observability.RecordSweep(ctx, outcome)
		observability.EndSpan(span, err)
	}()

	report.StartedAt = time.Now().UTC()
	for _, targetType := range domain.ReportTargetTypes {
		targets, err := e.reportRepo.ListOverThreshold(ctx, targetType, e.Threshold(targetType))
		if err != nil {
			return report, fmt.Errorf("list %s targets over threshold: %w", targetType, err)
		}
		results := make([]BanResult, len(targets))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.cfg.Concurrency)
		for i, target := range targets {
			g.Go(func() error {
				results[i] = e.EnforceTarget(gctx, targetType, target.TargetID, TriggerSweep)
				return nil
			})
		}
		_ = g.Wait()
		report.Results = append(report.Results, results...)
	}
	report.FinishedAt = time.Now().UTC()

	e.logger.InfoContext(ctx, "ban sweep finished",
		"banned", report.Count(OutcomeBanned),
		"already_banned", report.Count(OutcomeAlreadyBanned),
		"below_threshold", report.Count(OutcomeBelowThreshold),
		"failed", report.Count(OutcomeFailed),
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)
	return report, nil
}

// EnforceTarget re-counts the target's active reports inside a transaction
// and, at or above threshold, bans it and resolves those reports.
func (e *BanEnforcer) EnforceTarget(ctx context.Context, targetType domain.ReportTargetType, targetID, trigger string) BanResult {
	ctx, span := observability.StartSpan(ctx, "moderation.enforce_target",
		attribute.String("target.type", string(targetType)),
		attribute.String("moderation.trigger", trigger),
	)
	result := BanResult{TargetType: targetType, TargetID: targetID}
	err := e.tx.Transaction(ctx, func(ctx context.Context) error {
		count, err := e.reportRepo.CountActiveByTarget(ctx, targetType, targetID)
		if err != nil {
			return fmt.Errorf("count active reports: %w", err)
		}
		if count < int64(e.Threshold(targetType)) {
			result.Outcome = OutcomeBelowThreshold
			return nil
		}
		return e.banAndResolve(ctx, &result, trigger)
	})
	observability.EndSpan(span, err)
	return e.finish(ctx, result, trigger, err)
}

// BanUser bans a user regardless of report volume. It shares the sweep's
// transactional path: status change, session revocation and report
// resolution land together.
func (e *BanEnforcer) BanUser(ctx context.Context, userID string) (BanResult, error) {
	result := BanResult{TargetType: domain.ReportTargetUser, TargetID: userID}
	err := e.tx.Transaction(ctx, func(ctx context.Context) error {
		if _, err := e.userRepo.GetStatus(ctx, userID); err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return ErrTargetNotFound
			}
			return err
		}
		return e.banAndResolve(ctx, &result, TriggerManual)
	})
	result = e.finish(ctx, result, TriggerManual, err)
	return result, result.Err
}

func (e *BanEnforcer) banAndResolve(ctx context.Context, result *BanResult, trigger string) error {
	var (
		changed bool
		err     error
	)
	switch result.TargetType {
	case domain.ReportTargetPost, domain.ReportTargetComment:
		changed, err = e.contentRepo.MarkBanned(ctx, result.TargetType, result.TargetID)
	case domain.ReportTargetUser:
		changed, result.RevokedSessions, err = e.banUser(ctx, result.TargetID)
	default:
		err = fmt.Errorf("unsupported target type %q", result.TargetType)
	}
	if err != nil {
		return fmt.Errorf("ban %s: %w", result.TargetType, err)
	}

	// Reports are resolved even when the target was already banned or is
	// gone, so they stop feeding later aggregates.
	if result.ResolvedReports, err = e.reportRepo.ResolveByTarget(ctx, result.TargetType, result.TargetID); err != nil {
		return fmt.Errorf("resolve reports: %w", err)
	}

	if !changed {
		result.Outcome = OutcomeAlreadyBanned
		return nil
	}
	result.Outcome = OutcomeBanned
	event := TargetBannedEvent{
		TargetType:      string(result.TargetType),
		TargetID:        result.TargetID,
		Trigger:         trigger,
		ResolvedReports: result.ResolvedReports,
		RevokedSessions: result.RevokedSessions,
		BannedAt:        time.Now().UTC(),
	}
	repository.AfterCommit(ctx, func(ctx context.Context) {
		if err := e.publisher.Publish(ctx, RoutingKeyTargetBanned, event); err != nil {
			e.logger.WarnContext(ctx, "ban event not published", "target_type", event.TargetType, "target_id", event.TargetID, "error", err)
		}
	})
	return nil
}

// banUser is the only place a user is banned. The status change and the
// revocation of every session always travel together in the caller's
// transaction.
func (e *BanEnforcer) banUser(ctx context.Context, userID string) (bool, int, error) {
	changed, err := e.userRepo.MarkBanned(ctx, userID)
	if err != nil {
		return false, 0, err
	}
	revoked, err := e.sessions.SignOutAllSessions(ctx, userID)
	if err != nil {
		return false, 0, err
	}
	return changed, revoked, nil
}

func (e *BanEnforcer) finish(ctx context.Context, result BanResult, trigger string, err error) BanResult {
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err
		e.logger.ErrorContext(ctx, "ban enforcement failed",
			"target_type", result.TargetType,
			"target_id", result.TargetID,
			"trigger", trigger,
			"error", err,
		)
	} else if result.Outcome == OutcomeBanned {
		e.logger.InfoContext(ctx, "target banned",
			"target_type", result.TargetType,
			"target_id", result.TargetID,
			"trigger", trigger,
			"resolved_reports", result.ResolvedReports,
			"revoked_sessions", result.RevokedSessions,
		)
	}
	observability.RecordBan(ctx, string(result.TargetType), trigger, result.Outcome)
	return result
}
