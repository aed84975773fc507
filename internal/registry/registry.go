// Package registry loads the sensitive field registry: the versioned mapping of
// entity type to the ordered list of fields stored as ciphertext envelopes.
//
// The registry is read-only after Load and safe for concurrent use.
package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/hengadev/errsx"
	"gopkg.in/yaml.v3"

	apperrors "github.com/allisson/fieldvault/internal/errors"
	"github.com/allisson/fieldvault/internal/validation"
)

var (
	// ErrInvalidRegistry indicates the registry document failed validation.
	ErrInvalidRegistry = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid sensitive field registry")

	// ErrUnknownEntityType is returned by operations that require a registered entity
	// type. The gateway never returns it: unknown types pass through there.
	ErrUnknownEntityType = apperrors.Wrap(apperrors.ErrInvalidInput, "unknown entity type")
)

// Entity describes where an entity type is stored and which of its fields are sensitive.
type Entity struct {
	EntityType   string   `yaml:"entity_type"`
	Table        string   `yaml:"table"`
	IDColumn     string   `yaml:"id_column"`
	TenantColumn string   `yaml:"tenant_column"`
	Fields       []string `yaml:"fields"`
}

type document struct {
	Version  int      `yaml:"version"`
	Entities []Entity `yaml:"entities"`
}

// Registry is an immutable lookup of sensitive fields per entity type.
type Registry struct {
	version     int
	fingerprint string
	order       []string
	entities    map[string]Entity
	fields      map[string]map[string]struct{}
}

// Load reads and parses the registry at path inside fsys.
func Load(fsys fs.FS, path string) (*Registry, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry %s: %w", path, err)
	}
	return Parse(data)
}

// LoadFile reads and parses a registry from the local filesystem.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator supplied path
	if err != nil {
		return nil, fmt.Errorf("failed to read registry %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML registry document and validates it. Every validation problem
// is reported in the returned error, not just the first one.
func Parse(data []byte) (*Registry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRegistry, err)
	}

	if err := validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRegistry, err)
	}

	r := &Registry{
		version:  doc.Version,
		order:    make([]string, 0, len(doc.Entities)),
		entities: make(map[string]Entity, len(doc.Entities)),
		fields:   make(map[string]map[string]struct{}, len(doc.Entities)),
	}

	for _, e := range doc.Entities {
		set := make(map[string]struct{}, len(e.Fields))
		for _, f := range e.Fields {
			set[f] = struct{}{}
		}
		e.Fields = append([]string(nil), e.Fields...)
		r.order = append(r.order, e.EntityType)
		r.entities[e.EntityType] = e
		r.fields[e.EntityType] = set
	}
	r.fingerprint = fingerprint(doc)

	return r, nil
}

func validate(doc document) error {
	errs := errsx.Map{}

	if doc.Version < 1 {
		errs.Set("version", fmt.Errorf("version must be at least 1, got %d", doc.Version))
	}
	if len(doc.Entities) == 0 {
		errs.Set("entities", "at least one entity type must be declared")
	}

	seenTypes := make(map[string]struct{}, len(doc.Entities))
	for i, e := range doc.Entities {
		key := fmt.Sprintf("entities[%d]", i)
		if e.EntityType != "" {
			key = e.EntityType
		}

		if e.EntityType == "" {
			errs.Set(key+".entity_type", "must not be empty")
		} else if _, dup := seenTypes[e.EntityType]; dup {
			errs.Set(key+".entity_type", "duplicate entity type")
		}
		seenTypes[e.EntityType] = struct{}{}

		identifiers := map[string]string{
			"entity_type":   e.EntityType,
			"table":         e.Table,
			"id_column":     e.IDColumn,
			"tenant_column": e.TenantColumn,
		}
		for name, value := range identifiers {
			if value == "" {
				if name != "entity_type" {
					errs.Set(key+"."+name, "must not be empty")
				}
				continue
			}
			if err := validation.Identifier.Validate(value); err != nil {
				errs.Set(key+"."+name, err)
			}
		}

		if len(e.Fields) == 0 {
			errs.Set(key+".fields", "at least one field must be declared")
		}
		seenFields := make(map[string]struct{}, len(e.Fields))
		for _, f := range e.Fields {
			if err := validation.Identifier.Validate(f); err != nil || f == "" {
				errs.Set(fmt.Sprintf("%s.fields.%s", key, f), "must be a lower snake_case identifier")
				continue
			}
			if _, dup := seenFields[f]; dup {
				errs.Set(fmt.Sprintf("%s.fields.%s", key, f), "duplicate field")
			}
			if f == e.IDColumn || f == e.TenantColumn {
				errs.Set(fmt.Sprintf("%s.fields.%s", key, f), "id and tenant columns cannot be sensitive")
			}
			seenFields[f] = struct{}{}
		}
	}

	return errs.AsError()
}

// fingerprint hashes a canonical rendering of the document so that processes can
// compare registries without comparing YAML formatting.
func fingerprint(doc document) string {
	entities := append([]Entity(nil), doc.Entities...)
	sort.Slice(entities, func(i, j int) bool { return entities[i].EntityType < entities[j].EntityType })

	var sb strings.Builder
	fmt.Fprintf(&sb, "v%d\n", doc.Version)
	for _, e := range entities {
		fmt.Fprintf(&sb, "%s|%s|%s|%s|%s\n",
			e.EntityType, e.Table, e.IDColumn, e.TenantColumn, strings.Join(e.Fields, ","))
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// IsSensitive reports whether field of entityType is stored encrypted.
func (r *Registry) IsSensitive(entityType, field string) bool {
	set, ok := r.fields[entityType]
	if !ok {
		return false
	}
	_, ok = set[field]
	return ok
}

// FieldsFor returns the ordered sensitive fields of entityType. Unknown entity types
// yield an empty slice.
func (r *Registry) FieldsFor(entityType string) []string {
	e, ok := r.entities[entityType]
	if !ok {
		return []string{}
	}
	return append([]string(nil), e.Fields...)
}

// Entity returns the storage descriptor of entityType.
func (r *Registry) Entity(entityType string) (Entity, bool) {
	e, ok := r.entities[entityType]
	if !ok {
		return Entity{}, false
	}
	e.Fields = append([]string(nil), e.Fields...)
	return e, true
}

// Known reports whether entityType is declared in the registry.
func (r *Registry) Known(entityType string) bool {
	_, ok := r.entities[entityType]
	return ok
}

// EntityTypes returns the declared entity types in document order.
func (r *Registry) EntityTypes() []string {
	return append([]string(nil), r.order...)
}

// Version returns the document version.
func (r *Registry) Version() int {
	return r.version
}

// Fingerprint returns the hex SHA-256 of the canonical registry form.
func (r *Registry) Fingerprint() string {
	return r.fingerprint
}
