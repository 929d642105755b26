package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sandeepkv93/social-trust-core/internal/domain"
	"github.com/sandeepkv93/social-trust-core/internal/http/middleware"
	"github.com/sandeepkv93/social-trust-core/internal/http/response"
	"github.com/sandeepkv93/social-trust-core/internal/service"
)

type ReportLedger interface {
	SubmitReport(ctx context.Context, reporterID string, targetType domain.ReportTargetType, targetID string, reason domain.ReportReason) error
	GetReportsCount(ctx context.Context, targetType domain.ReportTargetType) (int64, error)
}

type BanEnforcer interface {
	BanUser(ctx context.Context, userID string) (service.BanResult, error)
	Sweep(ctx context.Context) (service.SweepReport, error)
}

type ModerationHandler struct {
	reports ReportLedger
	bans    BanEnforcer
	logger  *slog.Logger
}

func NewModerationHandler(reports ReportLedger, bans BanEnforcer, logger *slog.Logger) *ModerationHandler {
	return &ModerationHandler{reports: reports, bans: bans, logger: logger}
}

type createReportRequest struct {
	TargetType string `json:"target_type"`
	TargetID   string `json:"target_id"`
	Reason     string `json:"reason"`
}

// CreateReport accepts a report. Repeating a report is accepted the same way.
func (h *ModerationHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth context", nil)
		return
	}
	var req createReportRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}
	targetType, err := domain.ParseReportTargetType(strings.ToLower(req.TargetType))
	if err != nil {
		WriteServiceError(w, r, h.logger, invalidInput("unknown target_type %q", req.TargetType))
		return
	}
	reason, err := domain.ParseReportReason(strings.ToLower(req.Reason))
	if err != nil {
		WriteServiceError(w, r, h.logger, invalidInput("unknown reason %q", req.Reason))
		return
	}
	if strings.TrimSpace(req.TargetID) == "" {
		WriteServiceError(w, r, h.logger, invalidInput("target_id is required"))
		return
	}
	if err := h.reports.SubmitReport(r.Context(), identity.UserID, targetType, req.TargetID, reason); err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusAccepted, map[string]bool{"accepted": true})
}

func (h *ModerationHandler) ReportsCount(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("target_type")
	targetType, err := domain.ParseReportTargetType(strings.ToLower(raw))
	if err != nil {
		WriteServiceError(w, r, h.logger, invalidInput("unknown target_type %q", raw))
		return
	}
	n, err := h.reports.GetReportsCount(r.Context(), targetType)
	if err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"target_type": targetType, "active_reports": n})
}

func (h *ModerationHandler) BanUser(w http.ResponseWriter, r *http.Request) {
	result, err := h.bans.BanUser(r.Context(), chi.URLParam(r, "user_id"))
	if err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

type sweepResponse struct {
	Banned         int                 `json:"banned"`
	AlreadyBanned  int                 `json:"already_banned"`
	BelowThreshold int                 `json:"below_threshold"`
	Failed         int                 `json:"failed"`
	Report         service.SweepReport `json:"report"`
}

func (h *ModerationHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	report, err := h.bans.Sweep(r.Context())
	if err != nil {
		WriteServiceError(w, r, h.logger, err)
		return
	}
	response.JSON(w, r, http.StatusOK, sweepResponse{
		Banned:         report.Count(service.OutcomeBanned),
		AlreadyBanned:  report.Count(service.OutcomeAlreadyBanned),
		BelowThreshold: report.Count(service.OutcomeBelowThreshold),
		Failed:         report.Count(service.OutcomeFailed),
		Report:         report,
	})
}
