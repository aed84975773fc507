// Package dto provides the response shapes of the compliance endpoints.
package dto

import complianceDomain "github.com/allisson/fieldvault/internal/compliance/domain"

// SelfTestResponse is the self test result plus its overall verdict.
type SelfTestResponse struct {
	complianceDomain.SelfTest
	Passed bool `json:"passed"`
}

// MapSelfTestToResponse converts a self test result into an API response.
func MapSelfTestToResponse(result complianceDomain.SelfTest) SelfTestResponse {
	return SelfTestResponse{SelfTest: result, Passed: result.Passed()}
}
