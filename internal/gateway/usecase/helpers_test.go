package usecase

import (
	"context"
	"crypto/rand"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	auditDomain "github.com/allisson/fieldvault/internal/audit/domain"
	authDomain "github.com/allisson/fieldvault/internal/auth/domain"
	authService "github.com/allisson/fieldvault/internal/auth/service"
	cryptoDomain "github.com/allisson/fieldvault/internal/crypto/domain"
	cryptoService "github.com/allisson/fieldvault/internal/crypto/service"
	gatewayDomain "github.com/allisson/fieldvault/internal/gateway/domain"
	"github.com/allisson/fieldvault/internal/registry"
)

const testRegistry = `
version: 3
entities:
  - entity_type: clients
    table: clients
    id_column: id
    tenant_column: user_id
    fields: [cpf, observacoes]
  - entity_type: anamneses
    table: anamneses
    id_column: id
    tenant_column: user_id
    fields: [motivo_consulta, diagnostico]
`

var (
	actorT1 = &authDomain.Actor{ID: "therapist-a", TenantID: "tenant-1", IP: "10.0.0.1"}
	actorT2 = &authDomain.Actor{ID: "therapist-b", TenantID: "tenant-2", IP: "10.0.0.2"}
)

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.Parse([]byte(testRegistry))
	require.NoError(t, err)
	return reg
}

func newTestEngine(t *testing.T) *cryptoService.Engine {
	t.Helper()
	key := make([]byte, cryptoDomain.KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)

	keyset, err := cryptoDomain.NewKeyset([]*cryptoDomain.DataKey{
		{Version: 1, Algorithm: cryptoDomain.AESGCM, Key: key},
	})
	require.NoError(t, err)
	engine, err := cryptoService.NewEngine(keyset, cryptoService.NewAEADManager())
	require.NoError(t, err)
	return engine
}

// countingCipher counts OpenString calls and can slow them down.
type countingCipher struct {
	FieldCipher
	opens atomic.Int64
	delay time.Duration
}

func (c *countingCipher) OpenString(envelope string) (string, error) {
	c.opens.Add(1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	return c.FieldCipher.OpenString(envelope)
}

// recordingAuditLogger keeps written entries in memory and fails when err is set.
type recordingAuditLogger struct {
	mu      sync.Mutex
	entries []*auditDomain.AuditLog
	batches int
	err     error
}

func (r *recordingAuditLogger) Log(ctx context.Context, entry *auditDomain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *recordingAuditLogger) LogBatch(ctx context.Context, entries []*auditDomain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.batches++
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *recordingAuditLogger) written() []*auditDomain.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*auditDomain.AuditLog(nil), r.entries...)
}

// memoryStore serves stored rows from memory.
type memoryStore struct {
	rows    map[string]*cryptoDomain.SealedRow
	err     error
	lookups [][]string
}

func (m *memoryStore) FindByIDs(
	ctx context.Context,
	entity registry.Entity,
	ids []string,
) ([]*cryptoDomain.SealedRow, error) {
	m.lookups = append(m.lookups, ids)
	if m.err != nil {
		return nil, m.err
	}
	var found []*cryptoDomain.SealedRow
	for _, id := range ids {
		if row, ok := m.rows[id]; ok {
			found = append(found, row)
		}
	}
	return found, nil
}

func (m *memoryStore) put(id, owner string, fields map[string]*string) {
	if m.rows == nil {
		m.rows = map[string]*cryptoDomain.SealedRow{}
	}
	m.rows[id] = &cryptoDomain.SealedRow{ID: id, Owner: owner, Fields: fields}
}

func ptr(s string) *string {
	return &s
}

type fixture struct {
	engine  *cryptoService.Engine
	cipher  *countingCipher
	audit   *recordingAuditLogger
	store   *memoryStore
	gateway GatewayUseCase
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	engine := newTestEngine(t)
	cipher := &countingCipher{FieldCipher: engine}
	audit := &recordingAuditLogger{}
	store := &memoryStore{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &fixture{
		engine: engine,
		cipher: cipher,
		audit:  audit,
		store:  store,
		gateway: NewGatewayUseCase(
			newTestRegistry(t), cipher, store, authService.NewGuard(), audit, logger, opts,
		),
	}
}

func (f *fixture) seal(t *testing.T, plaintext string) string {
	t.Helper()
	envelope, err := f.engine.SealString(plaintext)
	require.NoError(t, err)
	return envelope
}

// tamper flips the last byte of the envelope's tag.
func tamper(t *testing.T, envelope string) string {
	t.Helper()
	env, err := cryptoDomain.ParseEnvelope(envelope)
	require.NoError(t, err)
	ct := append([]byte(nil), env.Ciphertext...)
	ct[len(ct)-1] ^= 0x01
	env.Ciphertext = ct
	return env.String()
}

func clientRecord(id, tenant string, cpf string) gatewayDomain.Record {
	return gatewayDomain.Record{"id": id, "user_id": tenant, "nome": "Maria", "cpf": cpf}
}
