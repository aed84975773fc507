package domain

import (
	"fmt"
	"sort"
	"sync"
)

// Keyset is the append-only set of unwrapped data keys held in memory.
//
// The highest version is active and used for new envelopes. Versions are never
// removed while the process runs, so in-flight opens of older envelopes are not
// affected by a rotation.
type Keyset struct {
	mu     sync.RWMutex
	active uint16
	keys   map[uint16]*DataKey
}

// NewKeyset builds a keyset from unwrapped data keys in any order.
// An empty input yields ErrKeyUnavailable.
func NewKeyset(keys []*DataKey) (*Keyset, error) {
	if len(keys) == 0 {
		return nil, ErrKeyUnavailable
	}

	ks := &Keyset{keys: make(map[uint16]*DataKey, len(keys))}
	for _, k := range keys {
		if err := ks.validate(k); err != nil {
			ks.Close()
			return nil, err
		}
		if _, dup := ks.keys[k.Version]; dup {
			ks.Close()
			return nil, fmt.Errorf("%w: version %d appears twice", ErrKeyVersionConflict, k.Version)
		}
		ks.keys[k.Version] = k
		if k.Version > ks.active {
			ks.active = k.Version
		}
	}
	return ks, nil
}

func (ks *Keyset) validate(k *DataKey) error {
	if k == nil || k.Version == 0 {
		return fmt.Errorf("%w: version must be positive", ErrKeyVersionConflict)
	}
	if len(k.Key) != KeySize {
		return fmt.Errorf("%w: data key version %d", ErrInvalidKeySize, k.Version)
	}
	return nil
}

// Add appends a newer key version and makes it active.
func (ks *Keyset) Add(k *DataKey) error {
	if err := ks.validate(k); err != nil {
		return err
	}

	ks.mu.Lock()
	defer ks.mu.Unlock()

	if k.Version <= ks.active {
		return fmt.Errorf("%w: version %d is not newer than active version %d",
			ErrKeyVersionConflict, k.Version, ks.active)
	}
	ks.keys[k.Version] = k
	ks.active = k.Version
	return nil
}

// Active returns the active data key.
func (ks *Keyset) Active() (*DataKey, bool) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	k, ok := ks.keys[ks.active]
	return k, ok
}

// Get returns the data key for version.
func (ks *Keyset) Get(version uint16) (*DataKey, bool) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	k, ok := ks.keys[version]
	return k, ok
}

// ActiveVersion returns the version used for new envelopes, 0 when empty.
func (ks *Keyset) ActiveVersion() uint16 {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return ks.active
}

// Versions returns every loaded version in ascending order.
func (ks *Keyset) Versions() []uint16 {
	ks.mu.RLock()
	defer ks.mu.RUnlock()

	versions := make([]uint16, 0, len(ks.keys))
	for v := range ks.keys {
		versions = append(versions, v)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions
}

// Close zeroes every plaintext key and empties the keyset.
func (ks *Keyset) Close() {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	for _, k := range ks.keys {
		Zero(k.Key)
	}
	ks.keys = map[uint16]*DataKey{}
	ks.active = 0
}
