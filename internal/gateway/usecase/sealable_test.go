package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	apperrors "github.com/allisson/fieldvault/internal/errors"
	gatewayDomain "github.com/allisson/fieldvault/internal/gateway/domain"
	"github.com/allisson/fieldvault/internal/registry"
)

type anamnesis struct {
	ID             string
	UserID         string
	MotivoConsulta string
	Diagnostico    string
	CreatedAt      string
}

func (a *anamnesis) EntityType() string { return "anamneses" }

func (a *anamnesis) Owner() (string, string) { return a.ID, a.UserID }

func (a *anamnesis) SensitiveFields() map[string]*string {
	return map[string]*string{
		"motivo_consulta": &a.MotivoConsulta,
		"diagnostico":     &a.Diagnostico,
	}
}

// driftedAnamnesis exposes a field the registry does not declare.
type driftedAnamnesis struct {
	anamnesis
	Medicamentos string
}

func (d *driftedAnamnesis) SensitiveFields() map[string]*string {
	fields := d.anamnesis.SensitiveFields()
	fields["medicamentos"] = &d.Medicamentos
	return fields
}

func TestGatewayUseCase_TypedValues(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip through a typed value", func(t *testing.T) {
		f := newFixture(t, Options{})
		value := &anamnesis{
			ID:             "an-1",
			UserID:         "tenant-1",
			MotivoConsulta: "ansiedade generalizada",
			CreatedAt:      "2026-01-10",
		}

		require.NoError(t, f.gateway.EncryptValue(ctx, value))
		assert.True(t, cryptoDomain.IsEnvelope(value.MotivoConsulta))
		assert.Empty(t, value.Diagnostico)

		outcome, err := f.gateway.DecryptValue(ctx, actorT1, auditDomain.ActionView, value)
		require.NoError(t, err)
		assert.Equal(t, auditDomain.OutcomeAllowed, outcome)
		assert.Equal(t, "ansiedade generalizada", value.MotivoConsulta)

		entries := f.audit.written()
		require.Len(t, entries, 1)
		assert.Equal(t, "an-1", entries[0].RecordID)
	})

	t.Run("denied typed value is left sealed", func(t *testing.T) {
		f := newFixture(t, Options{})
		value := &anamnesis{ID: "an-2", UserID: "tenant-1", MotivoConsulta: "luto"}
		require.NoError(t, f.gateway.EncryptValue(ctx, value))
		sealed := value.MotivoConsulta

		outcome, err := f.gateway.DecryptValue(ctx, actorT2, auditDomain.ActionView, value)
		assert.Error(t, err)
		assert.Equal(t, auditDomain.OutcomeDenied, outcome)
		assert.Equal(t, sealed, value.MotivoConsulta)
	})

	t.Run("undeclared field is rejected", func(t *testing.T) {
		f := newFixture(t, Options{})
		value := &driftedAnamnesis{anamnesis: anamnesis{ID: "an-3", UserID: "tenant-1"}, Medicamentos: "x"}

		err := f.gateway.EncryptValue(ctx, value)
		assert.ErrorIs(t, err, gatewayDomain.ErrUndeclaredField)
		assert.Equal(t, "x", value.Medicamentos)
	})

	t.Run("unregistered entity type is rejected", func(t *testing.T) {
		f := newFixture(t, Options{})
		err := f.gateway.EncryptValue(ctx, unregistered{})
		assert.ErrorIs(t, err, registry.ErrUnknownEntityType)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

type unregistered struct{}

func (unregistered) EntityType() string                  { return "appointments" }
func (unregistered) Owner() (string, string)             { return "1", "tenant-1" }
func (unregistered) SensitiveFields() map[string]*string { return nil }
