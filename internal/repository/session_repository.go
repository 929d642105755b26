package repository

import (
	"context"
	"errors"

	"github.com/sandeepkv93/social-trust-core/internal/domain"
	"github.com/sandeepkv93/social-trust-core/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionOwnerMissing means a session row references a user that does
	// not exist. It is a data-integrity violation, never an ordinary miss.
	ErrSessionOwnerMissing = errors.New("session owner missing")
)

// SessionOwner is the authoritative {userId, status} pair behind a session.
type SessionOwner struct {
	UserID string
	Status domain.UserStatus
}

type SessionRepository interface {
	Create(ctx context.Context, s *domain.Session) error
	FindByID(ctx context.Context, sessionID string) (*domain.Session, error)
	ResolveOwner(ctx context.Context, sessionID string) (SessionOwner, error)
	ListByUserID(ctx context.Context, userID string) ([]domain.Session, error)
	DeleteByIDForUser(ctx context.Context, userID, sessionID string) (bool, error)
	DeleteByUserID(ctx context.Context, userID string) ([]string, error)
}

type GormSessionRepository struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &GormSessionRepository{db: db} }

func (r *GormSessionRepository) Create(ctx context.Context, s *domain.Session) error {
	err := conn(ctx, r.db).Create(s).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "session", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "session", "create", "success")
	return nil
}

func (r *GormSessionRepository) FindByID(ctx context.Context, sessionID string) (*domain.Session, error) {
	var s domain.Session
	err := conn(ctx, r.db).Where("id = ?", sessionID).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "session", "find_by_id", "not_found")
			return nil, ErrSessionNotFound
		}
		observability.RecordRepositoryOperation(ctx, "session", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "session", "find_by_id", "success")
	return &s, nil
}

type sessionOwnerRow struct {
	UserID string
	Status *string
}

func (r *GormSessionRepository) ResolveOwner(ctx context.Context, sessionID string) (SessionOwner, error) {
	var row sessionOwnerRow
	res := conn(ctx, r.db).Table("sessions").
		Select("sessions.user_id AS user_id, users.status AS status").
		Joins("LEFT JOIN users ON users.id = sessions.user_id").
		Where("sessions.id = ?", sessionID).
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "session", "resolve_owner", "error")
		return SessionOwner{}, res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(ctx, "session", "resolve_owner", "not_found")
		return SessionOwner{}, ErrSessionNotFound
	}
	if row.Status == nil {
		observability.RecordRepositoryOperation(ctx, "session", "resolve_owner", "integrity_violation")
		return SessionOwner{UserID: row.UserID}, ErrSessionOwnerMissing
	}
	status, err := domain.ParseUserStatus(*row.Status)
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "session", "resolve_owner", "error")
		return SessionOwner{}, err
	}
	observability.RecordRepositoryOperation(ctx, "session", "resolve_owner", "success")
	return SessionOwner{UserID: row.UserID, Status: status}, nil
}

func (r *GormSessionRepository) ListByUserID(ctx context.Context, userID string) ([]domain.Session, error) {
	var sessions []domain.Session
	err := conn(ctx, r.db).Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&sessions).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "session", "list_by_user_id", "error")
		return sessions, err
	}
	observability.RecordRepositoryOperation(ctx, "session", "list_by_user_id", "success")
	return sessions, nil
}

// DeleteByIDForUser deletes the session only when userID owns it. It reports
// false, with no error, when there was nothing to delete.
func (r *GormSessionRepository) DeleteByIDForUser(ctx context.Context, userID, sessionID string) (bool, error) {
	res := conn(ctx, r.db).Where("id = ? AND user_id = ?", sessionID, userID).Delete(&domain.Session{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "session", "delete_by_id_for_user", "error")
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(ctx, "session", "delete_by_id_for_user", "not_found")
		return false, nil
	}
	observability.RecordRepositoryOperation(ctx, "session", "delete_by_id_for_user", "success")
	return true, nil
}

// DeleteByUserID deletes every session of userID and returns the ids that
// were removed, so callers can invalidate their cache entries. The ids come
// back from the delete itself, so a session committed concurrently is either
// deleted and returned or left alone.
func (r *GormSessionRepository) DeleteByUserID(ctx context.Context, userID string) ([]string, error) {
	var deleted []domain.Session
	err := conn(ctx, r.db).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}}}).
		Where("user_id = ?", userID).
		Delete(&deleted).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "session", "delete_by_user_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "session", "delete_by_user_id", "success")
	if len(deleted) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(deleted))
	for _, s := range deleted {
		ids = append(ids, s.ID)
	}
	return ids, nil
}
