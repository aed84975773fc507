package validation

import (
	"errors"
	"strings"
	"testing"

	validation "github.com/jellydator/validation"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/fieldvault/internal/errors"
)

func TestRules(t *testing.T) {
	tests := []struct {
		name  string
		rule  validation.Rule
		input string
		valid bool
	}{
		{name: "identifier entity type", rule: Identifier, input: "session_notes", valid: true},
		{name: "identifier with digits", rule: Identifier, input: "address_line2", valid: true},
		{name: "identifier uppercase", rule: Identifier, input: "Clients"},
		{name: "identifier leading digit", rule: Identifier, input: "1clients"},
		{name: "identifier leading underscore", rule: Identifier, input: "_clients"},
		{name: "identifier injection", rule: Identifier, input: "clients; DROP TABLE clients"},
		{name: "identifier quoted", rule: Identifier, input: `"clients"`},
		{name: "identifier too long", rule: Identifier, input: strings.Repeat("a", 64)},
		{name: "identifier empty is skipped", rule: Identifier, input: "", valid: true},
		{name: "no whitespace plain", rule: NoWhitespace, input: "user-42", valid: true},
		{name: "no whitespace inner space", rule: NoWhitespace, input: "dr ana", valid: true},
		{name: "no whitespace leading", rule: NoWhitespace, input: " user-42"},
		{name: "no whitespace trailing newline", rule: NoWhitespace, input: "user-42\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate(tt.input)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestWrapValidationError(t *testing.T) {
	assert.NoError(t, WrapValidationError(nil))

	err := WrapValidationError(errors.New("entity_type: must be a lower snake_case identifier."))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "entity_type")
}
