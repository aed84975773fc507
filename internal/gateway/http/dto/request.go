// Package dto provides data transfer objects for the record encryption HTTP API.
package dto

import (
	validation "github.com/jellydator/validation"

	gatewayDomain "github.com/allisson/fieldvault/internal/gateway/domain"
)

// EncryptRequest carries the record to seal.
type EncryptRequest struct {
	Record map[string]any `json:"record"`
}

// Validate checks if the encrypt request is valid.
func (r *EncryptRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Record, validation.Required),
	)
}

// DecryptRequest names one stored record and the action the caller performs.
type DecryptRequest struct {
	ID     string `json:"id"`
	Action string `json:"action"`
}

// Validate checks if the decrypt request is valid.
func (r *DecryptRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ID, validation.Required, validation.Length(1, gatewayDomain.MaxIdentifierLength)),
		validation.Field(&r.Action, validation.In("", "VIEW", "EXPORT")),
	)
}

// DecryptBatchRequest names stored records opened in one call. Individual ids are
// checked per record so one bad id does not reject the others.
type DecryptBatchRequest struct {
	IDs    []string `json:"ids"`
	Action string   `json:"action"`
}

// Validate checks the request against the per-call record cap.
func (r *DecryptBatchRequest) Validate(maxRecords int) error {
	return validation.ValidateStruct(r,
		validation.Field(&r.IDs, validation.Required, validation.Length(1, maxRecords)),
		validation.Field(&r.Action, validation.In("", "VIEW", "EXPORT")),
	)
}
