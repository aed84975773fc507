// Package domain defines the compliance self-test, the audit summary and the report
// rendered for administrators and exported as JSON.
package domain

import (
	"time"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
)

// Severity ranks a recommendation.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Rank orders severities from most (0) to least urgent.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// SelfTest is the result of sealing and opening a canary value.
type SelfTest struct {
	Algorithm        string `json:"algorithm"`
	KeyConfigured    bool   `json:"key_configured"`
	KeyValid         bool   `json:"key_valid"`
	RoundTripPassed  bool   `json:"round_trip_passed"`
	ActiveKeyVersion uint16 `json:"active_key_version"`
}

// Passed reports whether every check succeeded.
func (s SelfTest) Passed() bool {
	return s.KeyConfigured && s.KeyValid && s.RoundTripPassed
}

// Summary aggregates the audit trail over a window.
type Summary struct {
	Window             string         `json:"window"`
	Since              time.Time      `json:"since"`
	Total              int            `json:"total"`
	ByAction           map[string]int `json:"by_action"`
	ByOutcome          map[string]int `json:"by_outcome"`
	Last24h            int            `json:"last_24h"`
	Unauthorized       int            `json:"unauthorized"`
	UnauthorizedActors int            `json:"unauthorized_actors"`
	Failed             int            `json:"failed"`
}

// NewSummary converts audit stats into a summary for window.
func NewSummary(window time.Duration, stats *auditDomain.Stats) Summary {
	s := Summary{
		Window:             window.String(),
		Since:              stats.Since,
		Total:              stats.Total,
		ByAction:           make(map[string]int, len(stats.ByAction)),
		ByOutcome:          make(map[string]int, len(stats.ByOutcome)),
		Last24h:            stats.Recent,
		Unauthorized:       stats.Unauthorized,
		UnauthorizedActors: stats.UnauthorizedActors,
		Failed:             stats.Failed,
	}
	for action, count := range stats.ByAction {
		s.ByAction[string(action)] = count
	}
	for outcome, count := range stats.ByOutcome {
		s.ByOutcome[string(outcome)] = count
	}
	return s
}

// SignatureCheck summarizes audit signature verification over the window.
type SignatureCheck struct {
	Checked int      `json:"checked"`
	Invalid int      `json:"invalid"`
	IDs     []string `json:"invalid_ids,omitempty"`
}

// Recommendation is one actionable finding.
type Recommendation struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

// Report is the compliance report.
type Report struct {
	GeneratedAt             time.Time        `json:"generated_at"`
	TenantID                string           `json:"tenant_id,omitempty"`
	RegistryVersion         int              `json:"registry_version"`
	RegistryFingerprint     string           `json:"registry_fingerprint"`
	EntityTypes             []string         `json:"entity_types"`
	SelfTest                SelfTest         `json:"self_test"`
	Summary                 Summary          `json:"summary"`
	ClientsWithClinicalData int              `json:"clients_with_clinical_data"`
	KeyAgeDays              *int             `json:"key_age_days"`
	Signatures              *SignatureCheck  `json:"signatures,omitempty"`
	Recommendations         []Recommendation `json:"recommendations"`
}

// Thresholds drive the recommendations. None of them are hard-coded.
type Thresholds struct {
	Window       time.Duration
	KeyMaxAge    time.Duration
	Unauthorized int
	Failed       int
}
