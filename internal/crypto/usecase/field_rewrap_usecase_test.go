package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	cryptoService "github.com/allisson/fieldvault/internal/crypto/service"
	usecaseMocks "github.com/allisson/fieldvault/internal/crypto/usecase/mocks"
	databaseMocks "github.com/allisson/fieldvault/internal/database/mocks"
	"github.com/allisson/fieldvault/internal/registry"
)

const testRegistry = `
version: 1
entities:
  - entity_type: session_notes
    table: session_notes
    id_column: id
    tenant_column: user_id
    fields: [conteudo, humor]
`

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.Parse([]byte(testRegistry))
	require.NoError(t, err)
	return reg
}

func newDataKey(t *testing.T, version uint16) *cryptoDomain.DataKey {
	t.Helper()
	return &cryptoDomain.DataKey{Version: version, Algorithm: cryptoDomain.AESGCM, Key: newMasterKey(t, "k").Key}
}

func ptr(s string) *string { return &s }

func TestFieldRewrapUseCase_RewrapFields(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t)
	entity, _ := reg.Entity("session_notes")

	keyset, err := cryptoDomain.NewKeyset([]*cryptoDomain.DataKey{newDataKey(t, 1)})
	require.NoError(t, err)
	engine, err := cryptoService.NewEngine(keyset, cryptoService.NewAEADManager())
	require.NoError(t, err)

	oldEnvelope, err := engine.SealString("sessão inicial")
	require.NoError(t, err)
	require.NoError(t, engine.AddKey(newDataKey(t, 2)))
	currentEnvelope, err := engine.SealString("calmo")
	require.NoError(t, err)

	opensTo := func(want string) func(*string) bool {
		return func(v *string) bool {
			if v == nil {
				return false
			}
			env, err := cryptoDomain.ParseEnvelope(*v)
			if err != nil || env.KeyVersion != 2 {
				return false
			}
			got, err := engine.OpenString(*v)
			return err == nil && got == want
		}
	}

	t.Run("Success", func(t *testing.T) {
		mockTx := databaseMocks.NewMockTxManager(t)
		mockRepo := usecaseMocks.NewMockFieldRepository(t)

		page1 := []*cryptoDomain.SealedRow{
			{ID: "a", Fields: map[string]*string{"conteudo": ptr(oldEnvelope), "humor": nil}},
			{ID: "b", Fields: map[string]*string{"conteudo": ptr("legado"), "humor": ptr(currentEnvelope)}},
		}
		page2 := []*cryptoDomain.SealedRow{
			{ID: "c", Fields: map[string]*string{"conteudo": ptr("fv1:corrompido"), "humor": ptr("")}},
		}

		mockRepo.On("ListPage", ctx, entity, "", 2).Return(page1, nil).Once()
		mockRepo.On("ListPage", ctx, entity, "b", 2).Return(page2, nil).Once()
		mockTx.On("WithTx", ctx, mock.Anything).Return(nil).Twice()

		mockRepo.On("Update", ctx, entity, "a", mock.MatchedBy(func(values map[string]*string) bool {
			return len(values) == 1 && opensTo("sessão inicial")(values["conteudo"])
		})).Return(nil).Once()
		mockRepo.On("Update", ctx, entity, "b", mock.MatchedBy(func(values map[string]*string) bool {
			return len(values) == 1 && opensTo("legado")(values["conteudo"])
		})).Return(nil).Once()

		uc := NewFieldRewrapUseCase(mockTx, mockRepo, reg, engine)
		result, err := uc.RewrapFields(ctx, "session_notes", 2)

		require.NoError(t, err)
		assert.Equal(t, &cryptoDomain.RewrapResult{
			EntityType: "session_notes",
			Scanned:    3,
			Rewrapped:  1,
			Sealed:     1,
			Failed:     1,
		}, result)
	})

	t.Run("Error_UnknownEntityType", func(t *testing.T) {
		uc := NewFieldRewrapUseCase(
			databaseMocks.NewMockTxManager(t),
			usecaseMocks.NewMockFieldRepository(t),
			reg,
			engine,
		)
		_, err := uc.RewrapFields(ctx, "invoices", 10)
		assert.ErrorIs(t, err, registry.ErrUnknownEntityType)
	})

	t.Run("Error_UpdateRollsBackBatch", func(t *testing.T) {
		mockTx := databaseMocks.NewMockTxManager(t)
		mockRepo := usecaseMocks.NewMockFieldRepository(t)
		updateErr := errors.New("deadlock")

		page := []*cryptoDomain.SealedRow{
			{ID: "a", Fields: map[string]*string{"conteudo": ptr(oldEnvelope)}},
		}
		mockRepo.On("ListPage", ctx, entity, "", DefaultRewrapBatchSize).Return(page, nil).Once()
		mockTx.On("WithTx", ctx, mock.Anything).Return(nil).Once()
		mockRepo.On("Update", ctx, entity, "a", mock.Anything).Return(updateErr).Once()

		uc := NewFieldRewrapUseCase(mockTx, mockRepo, reg, engine)
		result, err := uc.RewrapFields(ctx, "session_notes", 0)

		assert.ErrorIs(t, err, updateErr)
		assert.Equal(t, 0, result.Rewrapped)
		assert.Equal(t, 0, result.Scanned)
	})
}
