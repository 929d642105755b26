package service

import (
	"errors"

	"github.com/sandeepkv93/social-trust-core/internal/repository"
	"github.com/sandeepkv93/social-trust-core/internal/security"
)

var (
	ErrTokenExpired      = security.ErrTokenExpired
	ErrTokenInvalid      = security.ErrTokenInvalid
	ErrTokenUserMismatch = errors.New("token identity does not match session")

	ErrSessionNotFound     = repository.ErrSessionNotFound
	ErrSessionOwnerMissing = repository.ErrSessionOwnerMissing

	ErrAccountNotActive                 = errors.New("account is not active")
	ErrAccountAnonymous                 = errors.New("anonymous accounts cannot perform this action")
	ErrAccountNotAnonymous              = errors.New("only anonymous accounts can perform this action")
	ErrAccountNeitherActiveNorAnonymous = errors.New("account is neither active nor anonymous")

	ErrTargetNotFound = repository.ErrTargetNotFound
	ErrSelfReport     = errors.New("cannot report yourself or your own content")

	ErrInvalidEmail              = errors.New("invalid email address")
	ErrInvalidVerificationCode   = errors.New("invalid verification code")
	ErrVerificationEmailMismatch = errors.New("verification token was issued for a different email")

	ErrInvalidDevice = errors.New("invalid device metadata")
)
