// Package domain defines the immutable, signed audit trail of sensitive field access.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Action is what the caller attempted on a record.
type Action string

// Outcome is how the attempt ended.
type Outcome string

const (
	ActionView         Action = "VIEW"
	ActionUpdate       Action = "UPDATE"
	ActionDelete       Action = "DELETE"
	ActionExport       Action = "EXPORT"
	ActionUnauthorized Action = "UNAUTHORIZED"
)

const (
	OutcomeAllowed Outcome = "ALLOWED"
	OutcomeDenied  Outcome = "DENIED"
	OutcomeFailed  Outcome = "FAILED"
)

// Actions lists every action in display order.
var Actions = []Action{ActionView, ActionUpdate, ActionDelete, ActionExport, ActionUnauthorized}

// Outcomes lists every outcome in display order.
var Outcomes = []Outcome{OutcomeAllowed, OutcomeDenied, OutcomeFailed}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	for _, known := range Outcomes {
		if o == known {
			return true
		}
	}
	return false
}

// AuditLog is one entry of the audit trail. Entries are inserted once and never
// updated or deleted by the application.
//
// Signature is an HMAC-SHA256 over the canonical form of every other field, keyed by
// a subkey derived from data key KeyVersion, so entries stay verifiable after a
// rotation.
type AuditLog struct {
	ID         uuid.UUID // UUIDv7
	ActorID    string    // empty when the caller could not be identified
	TenantID   string    // tenant owning the record
	EntityType string
	RecordID   string
	FieldName  *string // first failing field, or nil
	Action     Action
	Outcome    Outcome
	CallerIP   string
	Metadata   map[string]any
	Signature  []byte
	KeyVersion uint16
	CreatedAt  time.Time
}

// Filter narrows List queries. Zero values do not filter.
type Filter struct {
	From       *time.Time
	To         *time.Time
	ActorID    string
	TenantID   string
	EntityType string
	Action     Action
	Outcome    Outcome
}

// Stats aggregates the audit trail since a point in time.
type Stats struct {
	Since     time.Time
	Total     int
	ByAction  map[Action]int
	ByOutcome map[Outcome]int
	// Recent counts entries in the last 24 hours.
	Recent int
	// Unauthorized counts entries with outcome DENIED (including action UNAUTHORIZED).
	Unauthorized int
	// UnauthorizedActors counts distinct identified actors with a denied entry.
	UnauthorizedActors int
	// Failed counts entries with outcome FAILED.
	Failed int
}

// NewStats returns empty stats with every action and outcome present.
func NewStats(since time.Time) *Stats {
	s := &Stats{
		Since:     since,
		ByAction:  make(map[Action]int, len(Actions)),
		ByOutcome: make(map[Outcome]int, len(Outcomes)),
	}
	for _, a := range Actions {
		s.ByAction[a] = 0
	}
	for _, o := range Outcomes {
		s.ByOutcome[o] = 0
	}
	return s
}

// VerificationReport is the result of recomputing signatures over a time range.
type VerificationReport struct {
	From       *time.Time
	To         *time.Time
	Total      int
	Valid      int
	Invalid    int
	InvalidIDs []uuid.UUID
}
