package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
	auditUseCase "github.com/allisson/fieldvault/internal/audit/usecase"
)

// RunVerifyAuditLogs recomputes the HMAC signature of every audit entry created in the
// range and reports entries that were altered after being written. An empty startDate
// verifies from the beginning of the trail and an empty endDate up to now.
//
// Requirements: Database must be migrated and the data keys must be unwrappable.
func RunVerifyAuditLogs(
	ctx context.Context,
	auditLogUseCase auditUseCase.AuditLogUseCase,
	logger *slog.Logger,
	writer io.Writer,
	startDate, endDate string,
	format string,
) error {
	var from, to *time.Time

	if startDate != "" {
		start, err := parseDate(startDate)
		if err != nil {
			return fmt.Errorf("invalid start date: %w", err)
		}
		from = &start
	}

	if endDate != "" {
		end, err := parseDate(endDate)
		if err != nil {
			return fmt.Errorf("invalid end date: %w", err)
		}
		to = &end
	}

	if from != nil && to != nil && !to.After(*from) {
		return fmt.Errorf("end date must be after start date")
	}

	logger.Info("verifying audit logs",
		slog.Any("start_date", from),
		slog.Any("end_date", to),
	)

	report, err := auditLogUseCase.VerifyBatch(ctx, from, to)
	if err != nil {
		return fmt.Errorf("failed to verify audit logs: %w", err)
	}

	if format == "json" {
		if err := outputVerifyJSON(writer, report); err != nil {
			return fmt.Errorf("failed to output JSON: %w", err)
		}
	} else {
		outputVerifyText(writer, report)
	}

	logger.Info("verification completed",
		slog.Int("total_checked", report.Total),
		slog.Int("valid", report.Valid),
		slog.Int("invalid", report.Invalid),
	)

	if report.Invalid > 0 {
		return fmt.Errorf("integrity check failed: %d invalid signature(s)", report.Invalid)
	}

	return nil
}

func formatBound(t *time.Time, open string) string {
	if t == nil {
		return open
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

// outputVerifyText outputs the verification result in human-readable text format.
func outputVerifyText(writer io.Writer, report *auditDomain.VerificationReport) {
	_, _ = fmt.Fprintf(writer, "Audit Log Integrity Verification\n")
	_, _ = fmt.Fprintf(writer, "=================================\n\n")
	_, _ = fmt.Fprintf(writer,
		"Time Range: %s to %s\n\n",
		formatBound(report.From, "beginning"),
		formatBound(report.To, "now"),
	)

	_, _ = fmt.Fprintf(writer, "Total Checked:  %d\n", report.Total)
	_, _ = fmt.Fprintf(writer, "Valid:          %d\n", report.Valid)
	_, _ = fmt.Fprintf(writer, "Invalid:        %d\n\n", report.Invalid)

	switch {
	case report.Invalid > 0:
		_, _ = fmt.Fprintf(writer, "WARNING: %d log(s) failed integrity check!\n\n", report.Invalid)
		_, _ = fmt.Fprintf(writer, "Invalid Log IDs:\n")
		for _, id := range report.InvalidIDs {
			_, _ = fmt.Fprintf(writer, "  - %s\n", id)
		}
		_, _ = fmt.Fprintf(writer, "\nStatus: FAILED\n")
	case report.Total == 0:
		_, _ = fmt.Fprintf(writer, "Status: No logs found in specified time range\n")
	default:
		_, _ = fmt.Fprintf(writer, "Status: PASSED\n")
	}
}

// outputVerifyJSON outputs the verification result in JSON format for machine consumption.
func outputVerifyJSON(writer io.Writer, report *auditDomain.VerificationReport) error {
	invalid := make([]string, 0, len(report.InvalidIDs))
	for _, id := range report.InvalidIDs {
		invalid = append(invalid, id.String())
	}

	return writeJSON(writer, map[string]any{
		"from":          report.From,
		"to":            report.To,
		"total_checked": report.Total,
		"valid_count":   report.Valid,
		"invalid_count": report.Invalid,
		"invalid_logs":  invalid,
		"passed":        report.Invalid == 0,
	})
}
