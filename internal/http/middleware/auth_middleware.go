package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sandeepkv93/social-trust-core/internal/http/response"
	"github.com/sandeepkv93/social-trust-core/internal/observability"
	"github.com/sandeepkv93/social-trust-core/internal/service"
)

type contextKey string

const (
	IdentityContextKey contextKey = "identity"

	AuthCookieName = "auth_token"
)

// TokenVerifier is satisfied by *service.TokenService.
type TokenVerifier interface {
	VerifyAuthToken(ctx context.Context, raw string, mode service.AccessMode) (service.Identity, error)
}

// RequireAccess rejects requests whose token does not resolve to a live
// session permitted by mode, and attaches the identity otherwise.
func RequireAccess(verifier TokenVerifier, mode service.AccessMode) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := tokenFromRequest(r)
			if raw == "" {
				observability.RecordTokenVerification(r.Context(), string(mode), "missing")
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth token", nil)
				return
			}
			identity, err := verifier.VerifyAuthToken(r.Context(), raw, mode)
			if err != nil {
				WriteAuthError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// OptionalAccess lets requests without a token through with no identity. A
// token that is present must belong to an anonymous account; that is how an
// anonymous session hands itself over to sign-up or sign-in.
func OptionalAccess(verifier TokenVerifier) func(http.Handler) http.Handler {
	required := RequireAccess(verifier, service.AccessAnonymousOnly)
	return func(next http.Handler) http.Handler {
		guarded := required(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenFromRequest(r) == "" {
				next.ServeHTTP(w, r)
				return
			}
			guarded.ServeHTTP(w, r)
		})
	}
}

func WithIdentity(ctx context.Context, identity service.Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}

func IdentityFromContext(ctx context.Context) (service.Identity, bool) {
	id, ok := ctx.Value(IdentityContextKey).(service.Identity)
	return id, ok
}

// WriteAuthError maps verification failures. Token problems are 401; a live
// session whose account may not use the endpoint is 403 with a code per
// reason, so clients can tell "sign up first" from "account blocked".
func WriteAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrTokenExpired):
		response.Error(w, r, http.StatusUnauthorized, "TOKEN_EXPIRED", "auth token expired", nil)
	case errors.Is(err, service.ErrTokenInvalid), errors.Is(err, service.ErrTokenUserMismatch):
		response.Error(w, r, http.StatusUnauthorized, "TOKEN_INVALID", "invalid auth token", nil)
	case errors.Is(err, service.ErrSessionNotFound):
		response.Error(w, r, http.StatusUnauthorized, "SESSION_NOT_FOUND", "session no longer exists", nil)
	case errors.Is(err, service.ErrAccountAnonymous):
		response.Error(w, r, http.StatusForbidden, "ACCOUNT_ANONYMOUS", "a full account is required", nil)
	case errors.Is(err, service.ErrAccountNotActive):
		response.Error(w, r, http.StatusForbidden, "ACCOUNT_NOT_ACTIVE", "account is not active", nil)
	case errors.Is(err, service.ErrAccountNotAnonymous):
		response.Error(w, r, http.StatusForbidden, "ACCOUNT_NOT_ANONYMOUS", "only anonymous accounts may call this endpoint", nil)
	case errors.Is(err, service.ErrAccountNeitherActiveNorAnonymous):
		response.Error(w, r, http.StatusForbidden, "ACCOUNT_NOT_ACTIVE_OR_ANONYMOUS", "account is not active", nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not verify auth token", nil)
	}
}

func tokenFromRequest(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		if raw := strings.TrimSpace(auth[7:]); raw != "" {
			return raw
		}
	}
	if c, err := r.Cookie(AuthCookieName); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}
