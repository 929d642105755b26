package domain

import (
	"fmt"
	"time"
)

// UserStatus is the account trust state. Every consumer switches over the
// full set of values below; add a value only together with those switches.
type UserStatus string

const (
	UserStatusActive          UserStatus = "active"
	UserStatusAnonymous       UserStatus = "anonymous"
	UserStatusBanned          UserStatus = "banned"
	UserStatusPendingDeletion UserStatus = "pending_deletion"
	UserStatusDeleted         UserStatus = "deleted"
)

func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusActive, UserStatusAnonymous, UserStatusBanned, UserStatusPendingDeletion, UserStatusDeleted:
		return true
	}
	return false
}

func ParseUserStatus(raw string) (UserStatus, error) {
	s := UserStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown user status %q", raw)
	}
	return s, nil
}

// User carries only the columns the trust core reads or writes; profile
// fields live with the profile service.
type User struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	Status    UserStatus `gorm:"size:32;index;not null" json:"status"`
	BannedAt  *time.Time `json:"banned_at,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
