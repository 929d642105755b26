package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sandeepkv93/social-trust-core/internal/http/response"
	"github.com/sandeepkv93/social-trust-core/internal/service"
)

var errBadRequest = errors.New("bad request")

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// WriteServiceError maps service failures raised by handlers. Auth failures
// raised by the access middleware are mapped there instead.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, errBadRequest):
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, service.ErrInvalidDevice):
		response.Error(w, r, http.StatusBadRequest, "INVALID_DEVICE", "device id and a known platform are required", nil)
	case errors.Is(err, service.ErrInvalidEmail):
		response.Error(w, r, http.StatusBadRequest, "INVALID_EMAIL", "invalid email address", nil)
	case errors.Is(err, service.ErrSelfReport):
		response.Error(w, r, http.StatusBadRequest, "SELF_REPORT", "cannot report yourself or your own content", nil)
	case errors.Is(err, service.ErrTokenExpired):
		response.Error(w, r, http.StatusBadRequest, "VERIFICATION_TOKEN_EXPIRED", "verification token expired, request a new code", nil)
	case errors.Is(err, service.ErrTokenInvalid):
		response.Error(w, r, http.StatusBadRequest, "VERIFICATION_TOKEN_INVALID", "invalid verification token", nil)
	case errors.Is(err, service.ErrInvalidVerificationCode), errors.Is(err, service.ErrVerificationEmailMismatch):
		response.Error(w, r, http.StatusBadRequest, "INVALID_VERIFICATION_CODE", "invalid verification code", nil)
	case errors.Is(err, service.ErrSessionNotFound):
		response.Error(w, r, http.StatusNotFound, "SESSION_NOT_FOUND", "session not found", nil)
	case errors.Is(err, service.ErrTargetNotFound):
		response.Error(w, r, http.StatusNotFound, "TARGET_NOT_FOUND", "report target not found", nil)
	case errors.Is(err, service.ErrAccountNotActive):
		response.Error(w, r, http.StatusConflict, "ACCOUNT_NOT_ACTIVE", "account is not active", nil)
	case errors.Is(err, service.ErrSweepInProgress):
		response.Error(w, r, http.StatusConflict, "SWEEP_IN_PROGRESS", "a ban sweep is already running", nil)
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return invalidInput("invalid json body")
	}
	return nil
}
