// Package domain defines the records that flow through the encryption gateway and the
// per-record result of a batch decrypt.
package domain

import (
	"encoding/json"
	"strconv"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
)

// MaxIdentifierLength bounds record ids and owner values. It matches the width of the
// identifier columns of the audit trail.
const MaxIdentifierLength = 255

// Record is an untyped entity row as exchanged with CRUD handlers: column name to
// value. Sensitive values are strings (plaintext or serialized envelopes).
type Record map[string]any

// Clone returns a shallow copy of r. The gateway never mutates caller records.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Text renders the value of column as a string identifier. JSON numbers are rendered
// without exponent; missing and null values yield "".
func (r Record) Text(column string) string {
	switch v := r[column].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

// Result is the outcome of one record of a batch decrypt. Index is the position of
// the record in the request; Record is nil unless Outcome is ALLOWED or FAILED.
type Result struct {
	Index   int
	Record  Record
	Outcome auditDomain.Outcome
	Err     error
}
