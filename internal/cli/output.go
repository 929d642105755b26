package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/sandeepkv93/social-trust-core/internal/service"
)

type ciResult struct {
	OK      bool     `json:"ok"`
	Command string   `json:"command"`
	Details []string `json:"details"`
	Error   string   `json:"error,omitempty"`
}

// printCIResult writes one JSON line and passes err through so the process
// still exits non-zero.
func printCIResult(w io.Writer, command string, details []string, err error) error {
	res := ciResult{OK: err == nil, Command: command, Details: details}
	if res.Details == nil {
		res.Details = []string{}
	}
	if err != nil {
		res.Error = err.Error()
	}
	if encErr := json.NewEncoder(w).Encode(res); encErr != nil {
		return encErr
	}
	return err
}

func sweepSummary(report service.SweepReport) []string {
	details := []string{fmt.Sprintf("banned=%d already_banned=%d below_threshold=%d failed=%d",
		report.Count(service.OutcomeBanned),
		report.Count(service.OutcomeAlreadyBanned),
		report.Count(service.OutcomeBelowThreshold),
		report.Count(service.OutcomeFailed),
	)}
	for _, res := range report.Results {
		details = append(details, resultLine(res))
	}
	return details
}

func banSummary(result service.BanResult) []string {
	if result.Outcome == "" {
		return nil
	}
	return []string{resultLine(result)}
}

func resultLine(res service.BanResult) string {
	line := fmt.Sprintf("%s %s outcome=%s resolved_reports=%d revoked_sessions=%d",
		res.TargetType, res.TargetID, res.Outcome, res.ResolvedReports, res.RevokedSessions)
	if res.Err != nil {
		line += " error=" + res.Err.Error()
	}
	return line
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func outcomeStyle(outcome string) lipgloss.Style {
	switch outcome {
	case service.OutcomeBanned:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case service.OutcomeFailed:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	default:
		return mutedStyle
	}
}

func renderSweepReport(report service.SweepReport) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Ban sweep"))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %s", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))))
	b.WriteString("\n\n")
	for _, outcome := range []string{service.OutcomeBanned, service.OutcomeAlreadyBanned, service.OutcomeBelowThreshold, service.OutcomeFailed} {
		b.WriteString(fmt.Sprintf("%-16s %s\n", outcome, outcomeStyle(outcome).Render(fmt.Sprint(report.Count(outcome)))))
	}
	if len(report.Results) == 0 {
		b.WriteString("\n" + mutedStyle.Render("no target reached its threshold"))
		return boxStyle.Render(b.String())
	}
	b.WriteString("\n" + headerStyle.Render(fmt.Sprintf("%-8s %-36s %-16s %8s %8s", "TYPE", "TARGET", "OUTCOME", "REPORTS", "SESSIONS")))
	for _, res := range report.Results {
		b.WriteString("\n" + fmt.Sprintf("%-8s %-36s %s %8d %8d",
			res.TargetType, res.TargetID,
			outcomeStyle(res.Outcome).Render(fmt.Sprintf("%-16s", res.Outcome)),
			res.ResolvedReports, res.RevokedSessions))
		if res.Err != nil {
			b.WriteString("\n  " + outcomeStyle(service.OutcomeFailed).Render(res.Err.Error()))
		}
	}
	return boxStyle.Render(b.String())
}

func renderBanResult(result service.BanResult) string {
	body := fmt.Sprintf("%s\n\n%-16s %s\n%-16s %d\n%-16s %d",
		titleStyle.Render("Ban "+result.TargetID),
		"outcome", outcomeStyle(result.Outcome).Render(result.Outcome),
		"resolved reports", result.ResolvedReports,
		"revoked sessions", result.RevokedSessions,
	)
	return boxStyle.Render(body)
}
