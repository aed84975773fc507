package dto

import (
	apperrors "github.com/allisson/fieldvault/internal/errors"
	gatewayDomain "github.com/allisson/fieldvault/internal/gateway/domain"
)

// RecordResponse wraps a sealed record.
type RecordResponse struct {
	Record map[string]any `json:"record"`
}

// DecryptResponse wraps an opened record and its outcome. Fields that failed to open
// are null.
type DecryptResponse struct {
	Record  map[string]any `json:"record"`
	Outcome string         `json:"outcome"`
}

// BatchResultResponse is one element of a batch decrypt response.
type BatchResultResponse struct {
	Index   int            `json:"index"`
	Record  map[string]any `json:"record"`
	Outcome string         `json:"outcome"`
	Error   string         `json:"error,omitempty"`
}

// DecryptBatchResponse lists results in request order.
type DecryptBatchResponse struct {
	Results []BatchResultResponse `json:"results"`
}

// errorCode maps a per-record error to a stable string without internal details.
func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case apperrors.Is(err, gatewayDomain.ErrBatchTimeout):
		return "timeout"
	case apperrors.Is(err, apperrors.ErrForbidden):
		return "access_denied"
	case apperrors.Is(err, gatewayDomain.ErrRecordNotFound):
		return "not_found"
	case apperrors.Is(err, gatewayDomain.ErrInvalidRecordID):
		return "invalid_identifier"
	default:
		return "decryption_failed"
	}
}

// MapResultsToResponse converts batch results to the API response.
func MapResultsToResponse(results []gatewayDomain.Result) DecryptBatchResponse {
	out := make([]BatchResultResponse, 0, len(results))
	for _, result := range results {
		out = append(out, BatchResultResponse{
			Index:   result.Index,
			Record:  result.Record,
			Outcome: string(result.Outcome),
			Error:   errorCode(result.Err),
		})
	}
	return DecryptBatchResponse{Results: out}
}
