package domain

// Sealable is implemented by typed entity structs so the set of fields eligible for
// sealing is fixed at compile time instead of discovered from map keys.
//
// SensitiveFields returns pointers into the struct; the gateway reads plaintext from
// and writes envelopes (or opened plaintext) back through them. Every returned name
// must be declared sensitive for EntityType in the registry.
type Sealable interface {
	EntityType() string
	Owner() (recordID, tenantID string)
	SensitiveFields() map[string]*string
}
