// Package validation holds the jellydator/validation rules shared by registry loading
// and the HTTP request DTOs.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/fieldvault/internal/errors"
)

// identifierPattern is a lower snake_case SQL identifier within the Postgres 63 byte limit.
var identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}$`)

// Identifier accepts entity types, tables and columns. Registry names are interpolated
// into SQL, so nothing outside lower snake_case passes.
var Identifier = validation.NewStringRuleWithError(
	identifierPattern.MatchString,
	validation.NewError("validation_identifier", "must be a lower snake_case identifier"),
)

// NoWhitespace rejects leading or trailing whitespace, which would silently miss
// exact-match filters such as actor_id.
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool { return s == strings.TrimSpace(s) },
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// WrapValidationError turns a validation failure into apperrors.ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}
