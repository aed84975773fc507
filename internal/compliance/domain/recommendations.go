package domain

import (
	"fmt"
	"sort"
	"time"
)

// Recommend derives the recommendations of a report. keyAge is nil when no key
// exists. The result is ordered by severity and never empty.
func Recommend(
	selfTest SelfTest,
	summary Summary,
	keyAge *time.Duration,
	signatures *SignatureCheck,
	thresholds Thresholds,
) []Recommendation {
	var recs []Recommendation
	add := func(severity Severity, code, message string) {
		recs = append(recs, Recommendation{Severity: severity, Code: code, Message: message})
	}

	switch {
	case !selfTest.KeyConfigured:
		add(SeverityCritical, "key_not_configured",
			"No data encryption key is loaded; sensitive fields cannot be sealed. Run create-key.")
	case !selfTest.KeyValid:
		add(SeverityCritical, "key_invalid",
			"The active data key failed to seal the canary value. Check the master key configuration.")
	case !selfTest.RoundTripPassed:
		add(SeverityCritical, "round_trip_failed",
			"The canary value did not survive a seal and open round trip.")
	}

	if signatures != nil && signatures.Invalid > 0 {
		add(SeverityCritical, "audit_signature_invalid",
			fmt.Sprintf("%d audit entries failed signature verification; the trail may have been altered.",
				signatures.Invalid))
	}

	if keyAge != nil && thresholds.KeyMaxAge > 0 && *keyAge > thresholds.KeyMaxAge {
		add(SeverityHigh, "key_rotation_due",
			fmt.Sprintf("The active data key is %d days old, above the %d day limit. Run rotate-key and rewrap-fields.",
				days(*keyAge), days(thresholds.KeyMaxAge)))
	}

	if summary.Unauthorized > thresholds.Unauthorized {
		add(SeverityHigh, "unauthorized_attempts",
			fmt.Sprintf("%d denied access attempts by %d actors in the last %s (threshold %d).",
				summary.Unauthorized, summary.UnauthorizedActors, summary.Window, thresholds.Unauthorized))
	}

	if summary.Failed > thresholds.Failed {
		add(SeverityMedium, "decryption_failures",
			fmt.Sprintf("%d records failed to decrypt in the last %s (threshold %d). Check for corrupted data or missing key versions.",
				summary.Failed, summary.Window, thresholds.Failed))
	}

	if summary.Total == 0 && selfTest.Passed() {
		add(SeverityLow, "no_audit_activity",
			fmt.Sprintf("No sensitive data access was recorded in the last %s.", summary.Window))
	}

	if len(recs) == 0 {
		add(SeverityInfo, "all_checks_passed", "All compliance checks passed.")
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Severity.Rank() < recs[j].Severity.Rank()
	})
	return recs
}

func days(d time.Duration) int {
	return int(d / (24 * time.Hour))
}
