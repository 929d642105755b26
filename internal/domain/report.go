package domain

import (
	"fmt"
	"time"
)

type ReportTargetType string

const (
	ReportTargetPost    ReportTargetType = "post"
	ReportTargetComment ReportTargetType = "comment"
	ReportTargetUser    ReportTargetType = "user"
)

// ReportTargetTypes lists every target type in sweep order.
var ReportTargetTypes = []ReportTargetType{ReportTargetPost, ReportTargetComment, ReportTargetUser}

func ParseReportTargetType(raw string) (ReportTargetType, error) {
	t := ReportTargetType(raw)
	switch t {
	case ReportTargetPost, ReportTargetComment, ReportTargetUser:
		return t, nil
	}
	return "", fmt.Errorf("unknown report target type %q", raw)
}

type ReportReason string

const (
	ReportReasonSpam           ReportReason = "spam"
	ReportReasonMisleading     ReportReason = "misleading"
	ReportReasonHatefulContent ReportReason = "hateful_content"
	ReportReasonHarassment     ReportReason = "harassment"
	ReportReasonImpersonation  ReportReason = "impersonation"
	ReportReasonOther          ReportReason = "other"
)

func ParseReportReason(raw string) (ReportReason, error) {
	r := ReportReason(raw)
	switch r {
	case ReportReasonSpam, ReportReasonMisleading, ReportReasonHatefulContent,
		ReportReasonHarassment, ReportReasonImpersonation, ReportReasonOther:
		return r, nil
	}
	return "", fmt.Errorf("unknown report reason %q", raw)
}

type ReportStatus string

const (
	ReportStatusActive   ReportStatus = "active"
	ReportStatusResolved ReportStatus = "resolved"
)

// Report is unique per (target_id, reporter_id). Resolved reports are never
// counted again.
type Report struct {
	ID         string           `gorm:"primaryKey;size:36" json:"id"`
	TargetType ReportTargetType `gorm:"size:16;not null;index:idx_reports_type_status_target,priority:1" json:"target_type"`
	TargetID   string           `gorm:"size:36;not null;uniqueIndex:idx_reports_target_reporter,priority:1;index:idx_reports_type_status_target,priority:3" json:"target_id"`
	ReporterID string           `gorm:"size:36;not null;uniqueIndex:idx_reports_target_reporter,priority:2;index" json:"reporter_id"`
	Reason     ReportReason     `gorm:"size:32;not null" json:"reason"`
	Status     ReportStatus     `gorm:"size:16;not null;default:active;index:idx_reports_type_status_target,priority:2" json:"status"`
	ResolvedAt *time.Time       `json:"resolved_at,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}
