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

var ErrUserNotFound = errors.New("user not found")

// UserRepository is the account status store. It owns the status column and
// nothing else of the user profile.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetStatus(ctx context.Context, userID string) (domain.UserStatus, error)
	LockStatus(ctx context.Context, userID string) (domain.UserStatus, error)
	MarkBanned(ctx context.Context, userID string) (bool, error)
	MarkPendingDeletion(ctx context.Context, userID string) (bool, error)
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := conn(ctx, r.db).Create(user).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "user", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "user", "create", "success")
	return nil
}

func (r *GormUserRepository) GetStatus(ctx context.Context, userID string) (domain.UserStatus, error) {
	var u domain.User
	err := conn(ctx, r.db).Select("id", "status").Where("id = ?", userID).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "user", "get_status", "not_found")
			return "", ErrUserNotFound
		}
		observability.RecordRepositoryOperation(ctx, "user", "get_status", "error")
		return "", err
	}
	observability.RecordRepositoryOperation(ctx, "user", "get_status", "success")
	return u.Status, nil
}

// LockStatus reads the status under a shared row lock. Inside a transaction a
// concurrent ban or deletion waits for it to finish, and a pending one is
// read after it commits.
func (r *GormUserRepository) LockStatus(ctx context.Context, userID string) (domain.UserStatus, error) {
	var u domain.User
	err := conn(ctx, r.db).Clauses(clause.Locking{Strength: "SHARE"}).
		Select("id", "status").Where("id = ?", userID).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "user", "lock_status", "not_found")
			return "", ErrUserNotFound
		}
		observability.RecordRepositoryOperation(ctx, "user", "lock_status", "error")
		return "", err
	}
	observability.RecordRepositoryOperation(ctx, "user", "lock_status", "success")
	return u.Status, nil
}

// MarkBanned moves any live account to banned. It reports false when the
// user does not exist or is already banned or deleted.
func (r *GormUserRepository) MarkBanned(ctx context.Context, userID string) (bool, error) {
	now := time.Now().UTC()
	res := conn(ctx, r.db).Model(&domain.User{}).
		Where("id = ? AND status NOT IN ?", userID, []domain.UserStatus{domain.UserStatusBanned, domain.UserStatusDeleted}).
		Updates(map[string]any{"status": domain.UserStatusBanned, "banned_at": now, "updated_at": now})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "user", "mark_banned", "error")
		return false, res.Error
	}
	observability.RecordRepositoryOperation(ctx, "user", "mark_banned", "success")
	return res.RowsAffected > 0, nil
}

// MarkPendingDeletion only transitions active accounts.
func (r *GormUserRepository) MarkPendingDeletion(ctx context.Context, userID string) (bool, error) {
	now := time.Now().UTC()
	res := conn(ctx, r.db).Model(&domain.User{}).
		Where("id = ? AND status = ?", userID, domain.UserStatusActive).
		Updates(map[string]any{"status": domain.UserStatusPendingDeletion, "updated_at": now})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "user", "mark_pending_deletion", "error")
		return false, res.Error
	}
	observability.RecordRepositoryOperation(ctx, "user", "mark_pending_deletion", "success")
	return res.RowsAffected > 0, nil
}
