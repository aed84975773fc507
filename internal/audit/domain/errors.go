package domain

import (
	"github.com/allisson/fieldvault/internal/errors"
)

// Audit errors.
var (
	// ErrAuditWriteFailure indicates an audit entry could not be persisted. Under the
	// fail-closed policy the originating data operation is aborted.
	ErrAuditWriteFailure = errors.Wrap(errors.ErrUnavailable, "audit write failed")

	// ErrSignatureInvalid indicates an entry's signature does not match its content.
	ErrSignatureInvalid = errors.New("audit log signature invalid")

	// ErrInvalidAction indicates an unknown action value.
	ErrInvalidAction = errors.Wrap(errors.ErrInvalidInput, "invalid action")
)
