// Package domain defines the caller identity consumed from the upstream authentication
// layer and the access decision taken before any plaintext is revealed.
package domain

// Actor is the resolved caller of a request. Identity is issued upstream; this system
// only verifies and consumes it.
type Actor struct {
	ID       string
	TenantID string
	IP       string
}

// HasTenant reports whether the actor is present and carries a tenant id.
func (a *Actor) HasTenant() bool {
	return a != nil && a.TenantID != ""
}

// Decision is the outcome of an access check.
type Decision bool

const (
	// Deny refuses access.
	Deny Decision = false
	// Allow grants access.
	Allow Decision = true
)

func (d Decision) String() string {
	if d {
		return "allow"
	}
	return "deny"
}
