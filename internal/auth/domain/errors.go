package domain

import (
	"github.com/allisson/fieldvault/internal/errors"
)

// Identity and access errors.
var (
	// ErrMissingToken indicates the request carries no bearer token.
	ErrMissingToken = errors.Wrap(errors.ErrUnauthorized, "missing bearer token")

	// ErrInvalidToken indicates the bearer token failed verification.
	ErrInvalidToken = errors.Wrap(errors.ErrUnauthorized, "invalid bearer token")

	// ErrAccessDenied indicates the actor may not read the record.
	ErrAccessDenied = errors.Wrap(errors.ErrForbidden, "access denied")

	// ErrTenantMismatch indicates the submitted record belongs to another tenant.
	ErrTenantMismatch = errors.Wrap(errors.ErrForbidden, "record belongs to another tenant")
)
