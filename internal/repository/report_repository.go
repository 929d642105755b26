package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepkv93/social-trust-core/internal/domain"
	"github.com/sandeepkv93/social-trust-core/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicateReport is returned when the reporter already reported the
// target. The ledger treats it as success.
var ErrDuplicateReport = errors.New("duplicate report")

// ThresholdTarget is one target whose active report count reached a threshold.
type ThresholdTarget struct {
	TargetID string
	Count    int64
}

type ReportRepository interface {
	Create(ctx context.Context, report *domain.Report) error
	CountActive(ctx context.Context, targetType domain.ReportTargetType) (int64, error)
	CountActiveByTarget(ctx context.Context, targetType domain.ReportTargetType, targetID string) (int64, error)
	ListOverThreshold(ctx context.Context, targetType domain.ReportTargetType, threshold int) ([]ThresholdTarget, error)
	ResolveByTarget(ctx context.Context, targetType domain.ReportTargetType, targetID string) (int64, error)
}

type GormReportRepository struct{ db *gorm.DB }

func NewReportRepository(db *gorm.DB) ReportRepository { return &GormReportRepository{db: db} }

func (r *GormReportRepository) Create(ctx context.Context, report *domain.Report) error {
	res := conn(ctx, r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "target_id"}, {Name: "reporter_id"}}, DoNothing: true}).
		Create(report)
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "report", "create", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(ctx, "report", "create", "duplicate")
		return ErrDuplicateReport
	}
	observability.RecordRepositoryOperation(ctx, "report", "create", "success")
	return nil
}

func (r *GormReportRepository) CountActive(ctx context.Context, targetType domain.ReportTargetType) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&domain.Report{}).
		Where("target_type = ? AND status = ?", targetType, domain.ReportStatusActive).
		Count(&count).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "report", "count_active", "error")
		return 0, err
	}
	observability.RecordRepositoryOperation(ctx, "report", "count_active", "success")
	return count, nil
}

func (r *GormReportRepository) CountActiveByTarget(ctx context.Context, targetType domain.ReportTargetType, targetID string) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&domain.Report{}).
		Where("target_type = ? AND target_id = ? AND status = ?", targetType, targetID, domain.ReportStatusActive).
		Count(&count).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "report", "count_active_by_target", "error")
		return 0, err
	}
	observability.RecordRepositoryOperation(ctx, "report", "count_active_by_target", "success")
	return count, nil
}

func (r *GormReportRepository) ListOverThreshold(ctx context.Context, targetType domain.ReportTargetType, threshold int) ([]ThresholdTarget, error) {
	var targets []ThresholdTarget
	err := conn(ctx, r.db).Model(&domain.Report{}).
		Select("target_id, COUNT(*) AS count").
		Where("target_type = ? AND status = ?", targetType, domain.ReportStatusActive).
		Group("target_id").
		Having("COUNT(*) >= ?", threshold).
		Order("target_id").
		Scan(&targets).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "report", "list_over_threshold", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "report", "list_over_threshold", "success")
	return targets, nil
}

// ResolveByTarget resolves every active report against the target and
// returns how many were resolved.
func (r *GormReportRepository) ResolveByTarget(ctx context.Context, targetType domain.ReportTargetType, targetID string) (int64, error) {
	now := time.Now().UTC()
	res := conn(ctx, r.db).Model(&domain.Report{}).
		Where("target_type = ? AND target_id = ? AND status = ?", targetType, targetID, domain.ReportStatusActive).
		Updates(map[string]any{"status": domain.ReportStatusResolved, "resolved_at": now, "updated_at": now})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "report", "resolve_by_target", "error")
		return 0, res.Error
	}
	observability.RecordRepositoryOperation(ctx, "report", "resolve_by_target", "success")
	return res.RowsAffected, nil
}
