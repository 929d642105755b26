package middleware

import (
	"net/http"

	"github.com/sandeepkv93/social-trust-core/internal/http/response"
)

// RequireModerator admits identities whose user id is in moderatorIDs. It
// must run after RequireAccess.
func RequireModerator(moderatorIDs []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(moderatorIDs))
	for _, id := range moderatorIDs {
		allowed[id] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
				return
			}
			if _, ok := allowed[identity.UserID]; !ok {
				response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "moderator access required", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
