package router

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sandeepkv93/social-trust-core/internal/http/handler"
	"github.com/sandeepkv93/social-trust-core/internal/http/middleware"
	"github.com/sandeepkv93/social-trust-core/internal/http/response"
	"github.com/sandeepkv93/social-trust-core/internal/service"
)

// ReadinessCheck reports whether one dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	UserHandler       *handler.UserHandler
	ModerationHandler *handler.ModerationHandler
	Verifier          middleware.TokenVerifier
	ModeratorUserIDs  []string
	Readiness         map[string]ReadinessCheck
	Logger            *slog.Logger
	EnableOTelHTTP    bool
}

type checkResult struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

func NewRouter(dep Dependencies) http.Handler {
	logger := dep.Logger
	if logger == nil {
		logger = slog.Default()
	}
	authenticated := middleware.RequireAccess(dep.Verifier, service.AccessAuthenticated)
	allowAnonymous := middleware.RequireAccess(dep.Verifier, service.AccessAllowAnonymous)
	optional := middleware.OptionalAccess(dep.Verifier)
	moderator := middleware.RequireModerator(dep.ModeratorUserIDs)

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.StructuredRequestLogger(logger))

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ready, results := runReadiness(r.Context(), dep.Readiness)
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/anonymous", dep.AuthHandler.AnonymousAuth)
			r.With(optional).Post("/email-code", dep.AuthHandler.RequestEmailCode)
			r.With(optional).Post("/email-code/verify", dep.AuthHandler.VerifyEmailCode)
			r.With(allowAnonymous).Get("/refresh", dep.AuthHandler.Refresh)
		})

		r.Route("/me", func(r chi.Router) {
			r.With(authenticated).Delete("/", dep.UserHandler.RequestDeletion)
			r.With(allowAnonymous).Get("/sessions", dep.UserHandler.Sessions)
			r.With(allowAnonymous).Delete("/sessions/current", dep.UserHandler.SignOutCurrent)
			r.With(authenticated).Delete("/sessions", dep.UserHandler.SignOutAll)
			r.With(authenticated).Delete("/sessions/{session_id}", dep.UserHandler.RevokeSession)
		})

		r.With(authenticated).Post("/reports", dep.ModerationHandler.CreateReport)

		r.Route("/moderation", func(r chi.Router) {
			r.Use(authenticated, moderator)
			r.Get("/reports/count", dep.ModerationHandler.ReportsCount)
			r.Post("/users/{user_id}/ban", dep.ModerationHandler.BanUser)
			r.Post("/sweep", dep.ModerationHandler.Sweep)
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}

func runReadiness(ctx context.Context, checks map[string]ReadinessCheck) (bool, []checkResult) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	ready := true
	results := make([]checkResult, 0, len(names))
	for _, name := range names {
		res := checkResult{Name: name, Healthy: true}
		if err := checks[name](ctx); err != nil {
			ready = false
			res.Healthy = false
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return ready, results
}
