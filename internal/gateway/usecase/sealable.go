package usecase

import (
	"context"
	"sort"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
	authDomain "github.com/allisson/fieldvault/internal/auth/domain"
	apperrors "github.com/allisson/fieldvault/internal/errors"
	gatewayDomain "github.com/allisson/fieldvault/internal/gateway/domain"
	"github.com/allisson/fieldvault/internal/registry"
)

// toRecord flattens a typed value into a record keyed by the registry columns. Every
// field the value exposes must be declared sensitive.
func (g *gatewayUseCase) toRecord(value gatewayDomain.Sealable) (
	registry.Entity,
	gatewayDomain.Record,
	map[string]*string,
	error,
) {
	entityType := value.EntityType()
	entity, ok := g.registry.Entity(entityType)
	if !ok {
		return registry.Entity{}, nil, nil, apperrors.Wrap(registry.ErrUnknownEntityType, entityType)
	}

	fields := value.SensitiveFields()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	recordID, tenantID := value.Owner()
	record := gatewayDomain.Record{
		entity.IDColumn:     recordID,
		entity.TenantColumn: tenantID,
	}
	for _, name := range names {
		if !g.registry.IsSensitive(entityType, name) {
			return registry.Entity{}, nil, nil, apperrors.Wrap(gatewayDomain.ErrUndeclaredField, entityType+"."+name)
		}
		if fields[name] != nil {
			record[name] = *fields[name]
		}
	}

	return entity, record, fields, nil
}

// writeBack copies record values into the value's fields. Non-string values (failed
// fields) clear the target.
func writeBack(record gatewayDomain.Record, fields map[string]*string) {
	for name, target := range fields {
		if target == nil {
			continue
		}
		s, _ := record[name].(string)
		*target = s
	}
}

func (g *gatewayUseCase) EncryptValue(ctx context.Context, value gatewayDomain.Sealable) error {
	entity, record, fields, err := g.toRecord(value)
	if err != nil {
		return err
	}

	sealed, err := g.Encrypt(ctx, entity.EntityType, record)
	if err != nil {
		return err
	}

	writeBack(sealed, fields)
	return nil
}

func (g *gatewayUseCase) DecryptValue(
	ctx context.Context,
	actor *authDomain.Actor,
	action auditDomain.Action,
	value gatewayDomain.Sealable,
) (auditDomain.Outcome, error) {
	entity, record, fields, err := g.toRecord(value)
	if err != nil {
		return "", err
	}

	opened, outcome, err := g.Decrypt(ctx, actor, action, entity.EntityType, record)
	if err != nil {
		return outcome, err
	}

	writeBack(opened, fields)
	return outcome, nil
}
