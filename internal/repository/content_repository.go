package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandeepkv93/social-trust-core/internal/domain"
	"github.com/sandeepkv93/social-trust-core/internal/observability"

	"gorm.io/gorm"
)

var ErrTargetNotFound = errors.New("report target not found")

// ContentRepository reads and bans the reportable rows owned by the feed
// service. Users are handled by UserRepository.
type ContentRepository interface {
	// OwnerOf returns the user that owns a report target. For user targets
	// the owner is the user itself.
	OwnerOf(ctx context.Context, targetType domain.ReportTargetType, targetID string) (string, error)
	MarkBanned(ctx context.Context, targetType domain.ReportTargetType, targetID string) (bool, error)
}

type GormContentRepository struct{ db *gorm.DB }

func NewContentRepository(db *gorm.DB) ContentRepository { return &GormContentRepository{db: db} }

func (r *GormContentRepository) OwnerOf(ctx context.Context, targetType domain.ReportTargetType, targetID string) (string, error) {
	var model any
	switch targetType {
	case domain.ReportTargetPost:
		model = &domain.Post{}
	case domain.ReportTargetComment:
		model = &domain.Comment{}
	case domain.ReportTargetUser:
		var u domain.User
		err := conn(ctx, r.db).Select("id").
			Where("id = ? AND status NOT IN ?", targetID, []domain.UserStatus{domain.UserStatusDeleted, domain.UserStatusPendingDeletion}).
			First(&u).Error
		return r.ownerResult(ctx, u.ID, err)
	default:
		return "", fmt.Errorf("unsupported target type %q", targetType)
	}
	var owners []string
	err := conn(ctx, r.db).Model(model).
		Where("id = ? AND status <> ?", targetID, domain.ContentStatusDeleted).
		Limit(1).
		Pluck("user_id", &owners).Error
	if err == nil && len(owners) == 0 {
		err = gorm.ErrRecordNotFound
	}
	var ownerID string
	if len(owners) > 0 {
		ownerID = owners[0]
	}
	return r.ownerResult(ctx, ownerID, err)
}

func (r *GormContentRepository) ownerResult(ctx context.Context, ownerID string, err error) (string, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "content", "owner_of", "not_found")
			return "", ErrTargetNotFound
		}
		observability.RecordRepositoryOperation(ctx, "content", "owner_of", "error")
		return "", err
	}
	observability.RecordRepositoryOperation(ctx, "content", "owner_of", "success")
	return ownerID, nil
}

// MarkBanned bans an active post or comment. It reports false when the row
// is missing or no longer active.
func (r *GormContentRepository) MarkBanned(ctx context.Context, targetType domain.ReportTargetType, targetID string) (bool, error) {
	var model any
	switch targetType {
	case domain.ReportTargetPost:
		model = &domain.Post{}
	case domain.ReportTargetComment:
		model = &domain.Comment{}
	case domain.ReportTargetUser:
		return false, fmt.Errorf("users are banned through UserRepository")
	default:
		return false, fmt.Errorf("unsupported target type %q", targetType)
	}
	now := time.Now().UTC()
	res := conn(ctx, r.db).Model(model).
		Where("id = ? AND status = ?", targetID, domain.ContentStatusActive).
		Updates(map[string]any{"status": domain.ContentStatusBanned, "banned_at": now, "updated_at": now})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "content", "mark_banned", "error")
		return false, res.Error
	}
	observability.RecordRepositoryOperation(ctx, "content", "mark_banned", "success")
	return res.RowsAffected > 0, nil
}
