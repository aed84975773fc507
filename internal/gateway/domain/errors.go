package domain

import (
	"github.com/allisson/fieldvault/internal/errors"
)

// Gateway errors.
var (
	// ErrNonStringValue indicates a sensitive field holds something other than a string.
	ErrNonStringValue = errors.Wrap(errors.ErrInvalidInput, "sensitive field value must be a string")

	// ErrUnsupportedAction indicates a decrypt action other than VIEW or EXPORT.
	ErrUnsupportedAction = errors.Wrap(errors.ErrInvalidInput, "unsupported action")

	// ErrUndeclaredField indicates a typed value exposes a field the registry does not
	// list as sensitive for its entity type.
	ErrUndeclaredField = errors.Wrap(errors.ErrInvalidInput, "field is not declared sensitive")

	// ErrRecordNotFound indicates no stored row has the requested id.
	ErrRecordNotFound = errors.Wrap(errors.ErrNotFound, "record not found")

	// ErrInvalidRecordID indicates a record id or owner that is empty where one is
	// required or longer than MaxIdentifierLength.
	ErrInvalidRecordID = errors.Wrap(errors.ErrInvalidInput, "invalid record identifier")

	// ErrBatchTimeout marks records left unresolved when a batch call timed out.
	ErrBatchTimeout = errors.New("batch decrypt timed out")
)
