// Package service implements the access guard and the verification of upstream
// identity tokens.
package service

import (
	authDomain "github.com/allisson/fieldvault/internal/auth/domain"
)

// Guard decides whether an actor may see the plaintext of a record.
type Guard interface {
	Authorize(actor *authDomain.Actor, ownerTenant string) authDomain.Decision
}

type tenantGuard struct{}

// NewGuard returns the tenant isolation guard: an actor may only read records owned by
// its own tenant.
func NewGuard() Guard {
	return tenantGuard{}
}

// Authorize allows only when the actor is present, has a tenant and that tenant owns
// the record. An empty owner is always denied.
func (tenantGuard) Authorize(actor *authDomain.Actor, ownerTenant string) authDomain.Decision {
	if !actor.HasTenant() || ownerTenant == "" {
		return authDomain.Deny
	}
	if actor.TenantID != ownerTenant {
		return authDomain.Deny
	}
	return authDomain.Allow
}
