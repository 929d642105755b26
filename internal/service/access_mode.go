package service

import (
	"fmt"

	"github.com/sandeepkv93/social-trust-core/internal/domain"
)

// AccessMode decides which account statuses may use an endpoint.
type AccessMode string

const (
	AccessAuthenticated  AccessMode = "authenticated"
	AccessAnonymousOnly  AccessMode = "anonymous_only"
	AccessAllowAnonymous AccessMode = "allow_anonymous"
)

// Permit returns nil when status may use the mode. Each switch lists every
// UserStatus so a new status fails loudly instead of being let through.
func (m AccessMode) Permit(status domain.UserStatus) error {
	switch m {
	case AccessAuthenticated:
		switch status {
		case domain.UserStatusActive:
			return nil
		case domain.UserStatusAnonymous:
			return ErrAccountAnonymous
		case domain.UserStatusBanned, domain.UserStatusPendingDeletion, domain.UserStatusDeleted:
			return ErrAccountNotActive
		}
	case AccessAnonymousOnly:
		switch status {
		case domain.UserStatusAnonymous:
			return nil
		case domain.UserStatusActive, domain.UserStatusBanned, domain.UserStatusPendingDeletion, domain.UserStatusDeleted:
			return ErrAccountNotAnonymous
		}
	case AccessAllowAnonymous:
		switch status {
		case domain.UserStatusActive, domain.UserStatusAnonymous:
			return nil
		case domain.UserStatusBanned, domain.UserStatusPendingDeletion, domain.UserStatusDeleted:
			return ErrAccountNeitherActiveNorAnonymous
		}
	default:
		return fmt.Errorf("unknown access mode %q", m)
	}
	return fmt.Errorf("unhandled user status %q for access mode %q", status, m)
}
