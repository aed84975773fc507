package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	complianceDomain "github.com/allisson/fieldvault/internal/compliance/domain"
	complianceUseCase "github.com/allisson/fieldvault/internal/compliance/usecase"
)

// RunSelfTest seals and opens a canary with the active data key. Returns an error when
// any check fails so the command can gate deployments.
func RunSelfTest(
	ctx context.Context,
	uc complianceUseCase.ComplianceUseCase,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	result := uc.SelfTest(ctx)

	if format == "json" {
		if err := writeJSON(writer, map[string]any{
			"algorithm":          result.Algorithm,
			"active_key_version": result.ActiveKeyVersion,
			"key_configured":     result.KeyConfigured,
			"key_valid":          result.KeyValid,
			"round_trip_passed":  result.RoundTripPassed,
			"passed":             result.Passed(),
		}); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(writer, "Encryption Self-Test\n")
		_, _ = fmt.Fprintf(writer, "====================\n\n")
		_, _ = fmt.Fprintf(writer, "Algorithm:          %s\n", result.Algorithm)
		_, _ = fmt.Fprintf(writer, "Active key version: %d\n", result.ActiveKeyVersion)
		_, _ = fmt.Fprintf(writer, "Key configured:     %s\n", checkMark(result.KeyConfigured))
		_, _ = fmt.Fprintf(writer, "Key valid:          %s\n", checkMark(result.KeyValid))
		_, _ = fmt.Fprintf(writer, "Round trip:         %s\n\n", checkMark(result.RoundTripPassed))
		_, _ = fmt.Fprintf(writer, "Status: %s\n", checkMark(result.Passed()))
	}

	if !result.Passed() {
		logger.Error("encryption self-test failed",
			slog.Bool("key_configured", result.KeyConfigured),
			slog.Bool("key_valid", result.KeyValid),
			slog.Bool("round_trip_passed", result.RoundTripPassed),
		)
		return fmt.Errorf("encryption self-test failed")
	}

	logger.Info("encryption self-test passed", slog.Int("active_key_version", int(result.ActiveKeyVersion)))
	return nil
}

// RunComplianceReport builds the system-wide compliance report, including audit
// signature verification. With outputDir set the JSON export is also written there.
func RunComplianceReport(
	ctx context.Context,
	uc complianceUseCase.ComplianceUseCase,
	logger *slog.Logger,
	writer io.Writer,
	format string,
	outputDir string,
) error {
	report, err := uc.Report(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to build compliance report: %w", err)
	}

	if format == "json" {
		if err := writeJSON(writer, report); err != nil {
			return err
		}
	} else {
		outputReportText(writer, report)
	}

	if outputDir != "" {
		data, filename, err := uc.ExportJSON(ctx, "")
		if err != nil {
			return fmt.Errorf("failed to export compliance report: %w", err)
		}
		path := filepath.Join(outputDir, filename)
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		logger.Info("compliance report exported", slog.String("path", path))
	}

	logger.Info("compliance report generated",
		slog.Bool("self_test_passed", report.SelfTest.Passed()),
		slog.Int("recommendations", len(report.Recommendations)),
	)
	return nil
}

func checkMark(ok bool) string {
	if ok {
		return "PASSED"
	}
	return "FAILED"
}

func outputReportText(writer io.Writer, report *complianceDomain.Report) {
	_, _ = fmt.Fprintf(writer, "Compliance Report\n")
	_, _ = fmt.Fprintf(writer, "=================\n\n")
	_, _ = fmt.Fprintf(writer, "Generated at:    %s\n", report.GeneratedAt.UTC().Format("2006-01-02 15:04:05"))
	_, _ = fmt.Fprintf(writer, "Registry:        v%d (%s)\n", report.RegistryVersion, report.RegistryFingerprint)
	_, _ = fmt.Fprintf(writer, "Self-test:       %s\n", checkMark(report.SelfTest.Passed()))
	if report.KeyAgeDays != nil {
		_, _ = fmt.Fprintf(writer, "Key age:         %d day(s)\n", *report.KeyAgeDays)
	} else {
		_, _ = fmt.Fprintf(writer, "Key age:         no data key\n")
	}
	_, _ = fmt.Fprintf(writer, "Clinical data:   %d client(s)\n\n", report.ClientsWithClinicalData)

	s := report.Summary
	_, _ = fmt.Fprintf(writer, "Audit (window %s)\n", s.Window)
	_, _ = fmt.Fprintf(writer, "  Total:         %d\n", s.Total)
	_, _ = fmt.Fprintf(writer, "  Last 24h:      %d\n", s.Last24h)
	_, _ = fmt.Fprintf(writer, "  Unauthorized:  %d (%d actor(s))\n", s.Unauthorized, s.UnauthorizedActors)
	_, _ = fmt.Fprintf(writer, "  Failed:        %d\n", s.Failed)
	if report.Signatures != nil {
		_, _ = fmt.Fprintf(writer, "  Signatures:    %d checked, %d invalid\n",
			report.Signatures.Checked, report.Signatures.Invalid)
	}

	_, _ = fmt.Fprintf(writer, "\nRecommendations:\n")
	for _, r := range report.Recommendations {
		_, _ = fmt.Fprintf(writer, "  [%s] %s: %s\n", r.Severity, r.Code, r.Message)
	}
}
