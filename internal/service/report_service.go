package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/sandeepkv93/social-trust-core/internal/config"
	"github.com/sandeepkv93/social-trust-core/internal/domain"
	"github.com/sandeepkv93/social-trust-core/internal/observability"
	"github.com/sandeepkv93/social-trust-core/internal/repository"
)

// ReportService is the report ledger. Reports are idempotent per
// (target, reporter); in inline mode every new report also runs the
// threshold check for its target.
type ReportService struct {
	reportRepo  repository.ReportRepository
	contentRepo repository.ContentRepository
	enforcer    *BanEnforcer
	mode        config.EnforcementMode
	logger      *slog.Logger
}

func NewReportService(reportRepo repository.ReportRepository, contentRepo repository.ContentRepository, enforcer *BanEnforcer, mode config.EnforcementMode, logger *slog.Logger) *ReportService {
	return &ReportService{
		reportRepo:  reportRepo,
		contentRepo: contentRepo,
		enforcer:    enforcer,
		mode:        mode,
		logger:      logger,
	}
}

// SubmitReport checks that the target exists and is not the reporter's own
// before recording it.
func (s *ReportService) SubmitReport(ctx context.Context, reporterID string, targetType domain.ReportTargetType, targetID string, reason domain.ReportReason) error {
	targetID = strings.TrimSpace(targetID)
	ownerID, err := s.contentRepo.OwnerOf(ctx, targetType, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrTargetNotFound) {
			observability.RecordReport(ctx, string(targetType), "target_not_found")
			return ErrTargetNotFound
		}
		return fmt.Errorf("load report target: %w", err)
	}
	if ownerID == reporterID {
		observability.RecordReport(ctx, string(targetType), "self_report")
		return ErrSelfReport
	}
	return s.CreateReport(ctx, targetType, targetID, reporterID, reason)
}

// CreateReport records a report. Reporting the same target twice is a no-op,
// not an error.
func (s *ReportService) CreateReport(ctx context.Context, targetType domain.ReportTargetType, targetID, reporterID string, reason domain.ReportReason) error {
	err := s.reportRepo.Create(ctx, &domain.Report{
		ID:         uuid.NewString(),
		TargetType: targetType,
		TargetID:   targetID,
		ReporterID: reporterID,
		Reason:     reason,
		Status:     domain.ReportStatusActive,
	})
	if errors.Is(err, repository.ErrDuplicateReport) {
		observability.RecordReport(ctx, string(targetType), "duplicate")
		return nil
	}
	if err != nil {
		observability.RecordReport(ctx, string(targetType), "error")
		return fmt.Errorf("create report: %w", err)
	}
	observability.RecordReport(ctx, string(targetType), "created")

	if s.mode == config.EnforcementInline {
		// The report is already committed; an enforcement failure is logged
		// by the enforcer and retried by the next report on this target.
		s.enforcer.EnforceTarget(ctx, targetType, targetID, TriggerInline)
	}
	return nil
}

// GetReportsCount returns the number of unresolved reports of targetType.
func (s *ReportService) GetReportsCount(ctx context.Context, targetType domain.ReportTargetType) (int64, error) {
	return s.reportRepo.CountActive(ctx, targetType)
}
