// Package service signs and verifies audit log entries.
package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
)

// SigningKeyInfo is the HKDF info string binding derived keys to audit signing.
const SigningKeyInfo = "audit-log-signing-v1"

// KeyDeriver derives purpose-bound subkeys from the versioned data keys.
// *cryptoService.Engine satisfies it.
type KeyDeriver interface {
	DeriveKey(version uint16, info string) ([]byte, error)
	ActiveKeyVersion() uint16
}

// AuditSigner signs entries with HMAC-SHA256 and verifies them later.
type AuditSigner interface {
	// Sign sets KeyVersion to the active data key version and computes Signature.
	Sign(entry *auditDomain.AuditLog) error

	// Verify recomputes the signature with the key version stored in the entry.
	// It returns ErrSignatureInvalid on mismatch.
	Verify(entry *auditDomain.AuditLog) error
}

type auditSigner struct {
	deriver KeyDeriver
	keys    sync.Map // uint16 -> []byte
}

// NewAuditSigner creates a signer whose keys are derived from deriver.
func NewAuditSigner(deriver KeyDeriver) AuditSigner {
	return &auditSigner{deriver: deriver}
}

func (a *auditSigner) signingKey(version uint16) ([]byte, error) {
	if key, ok := a.keys.Load(version); ok {
		return key.([]byte), nil
	}
	key, err := a.deriver.DeriveKey(version, SigningKeyInfo)
	if err != nil {
		return nil, err
	}
	actual, _ := a.keys.LoadOrStore(version, key)
	return actual.([]byte), nil
}

// canonicalize serializes every signed field as fixed-size or length-prefixed values.
func canonicalize(entry *auditDomain.AuditLog) ([]byte, error) {
	buf := make([]byte, 0, 512)

	buf = append(buf, entry.ID[:]...)
	buf = appendLengthPrefixed(buf, []byte(entry.ActorID))
	buf = appendLengthPrefixed(buf, []byte(entry.TenantID))
	buf = appendLengthPrefixed(buf, []byte(entry.EntityType))
	buf = appendLengthPrefixed(buf, []byte(entry.RecordID))

	if entry.FieldName != nil {
		buf = append(buf, 1)
		buf = appendLengthPrefixed(buf, []byte(*entry.FieldName))
	} else {
		buf = append(buf, 0)
	}

	buf = appendLengthPrefixed(buf, []byte(entry.Action))
	buf = appendLengthPrefixed(buf, []byte(entry.Outcome))
	buf = appendLengthPrefixed(buf, []byte(entry.CallerIP))

	if entry.Metadata != nil {
		metadata, err := json.Marshal(entry.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		buf = appendLengthPrefixed(buf, metadata)
	} else {
		buf = appendLengthPrefixed(buf, nil)
	}

	buf = binary.BigEndian.AppendUint16(buf, entry.KeyVersion)
	buf = binary.BigEndian.AppendUint64(buf, uint64(entry.CreatedAt.UnixNano()))

	return buf, nil
}

func appendLengthPrefixed(buf, data []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(data)))
	return append(buf, data...)
}

func (a *auditSigner) compute(entry *auditDomain.AuditLog) ([]byte, error) {
	key, err := a.signingKey(entry.KeyVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}

	canonical, err := canonicalize(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize audit log: %w", err)
	}

	mac := hmac.New(sha256.New, key)
	mac.Write(canonical)
	return mac.Sum(nil), nil
}

func (a *auditSigner) Sign(entry *auditDomain.AuditLog) error {
	entry.KeyVersion = a.deriver.ActiveKeyVersion()

	signature, err := a.compute(entry)
	if err != nil {
		return err
	}
	entry.Signature = signature
	return nil
}

func (a *auditSigner) Verify(entry *auditDomain.AuditLog) error {
	expected, err := a.compute(entry)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}

	if !hmac.Equal(entry.Signature, expected) {
		return auditDomain.ErrSignatureInvalid
	}
	return nil
}
