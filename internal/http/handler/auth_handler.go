package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sandeepkv93/social-trust-core/internal/domain"
	"github.com/sandeepkv93/social-trust-core/internal/http/middleware"
	"github.com/sandeepkv93/social-trust-core/internal/http/response"
	"github.com/sandeepkv93/social-trust-core/internal/service"
)

type AccountService interface {
	CreateAnonymousAccount(ctx context.Context, device domain.Device) (string, *domain.Session, error)
	RequestAccountDeletion(ctx context.Context, userID string) error
}

type TokenRefresher interface {
	RefreshAuthToken(ctx context.Context, identity service.Identity) (string, error)
}

type EmailVerifier interface {
	RequestCode(ctx context.Context, email, previousToken string) (string, error)
	Verify(ctx context.Context, token, email, code string) error
}

type AuthHandler struct {
	accounts     AccountService
	tokens       TokenRefresher
	verification EmailVerifier
	logger       *slog.Logger
}

func NewAuthHandler(accounts AccountService, tokens TokenRefresher, verification EmailVerifier, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, tokens: tokens, verification: verification, logger: logger}
}

type deviceRequest struct {
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
	Platform   string `json:"platform"`
}

type authTokenResponse struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

func (h *AuthHandler) AnonymousAuth(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}
	token, session, err := h.accounts.CreateAnonymousAccount(r.Context(), domain.Device{
		ID:       req.DeviceID,
		Name:     req.DeviceName,
		Platform: domain.Platform(strings.ToLower(strings.TrimSpace(req.Platform))),
	})
	if err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusCreated, authTokenResponse{Token: token, SessionID: session.ID, UserID: session.UserID})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	token, err := h.tokens.RefreshAuthToken(r.Context(), identity)
	if err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, authTokenResponse{Token: token, SessionID: identity.SessionID})
}

type emailCodeRequest struct {
	Email             string `json:"email"`
	VerificationToken string `json:"verification_token"`
}

type verificationTokenResponse struct {
	VerificationToken string `json:"verification_token"`
}

func (h *AuthHandler) RequestEmailCode(w http.ResponseWriter, r *http.Request) {
	var req emailCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}
	token, err := h.verification.RequestCode(r.Context(), req.Email, req.VerificationToken)
	if err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, verificationTokenResponse{VerificationToken: token})
}

type verifyEmailCodeRequest struct {
	Email             string `json:"email"`
	Code              string `json:"code"`
	VerificationToken string `json:"verification_token"`
}

func (h *AuthHandler) VerifyEmailCode(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}
	if req.VerificationToken == "" || req.Code == "" {
		WriteServiceError(w, r, h.logger, invalidInput("verification_token and code are required"))
		return
	}
	if err := h.verification.Verify(r.Context(), req.VerificationToken, req.Email, req.Code); err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]bool{"verified": true})
}
