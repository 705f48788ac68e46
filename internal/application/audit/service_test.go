package audit_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
	"github.com/jhoicas/stockledger/internal/infrastructure/memory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRepo struct{}

func (failingRepo) Create(context.Context, *entity.AuditLogEntry) error {
	return errors.New("disco lleno")
}

func (failingRepo) List(context.Context, repository.AuditLogFilter) ([]*entity.AuditLogEntry, error) {
	return nil, nil
}

func TestRecord_FalloSeRegistraSinPropagar(t *testing.T) {
	var buf bytes.Buffer
	svc := audit.NewService(failingRepo{}, zerolog.New(&buf))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NotPanics(t, func() {
		svc.Record(ctx, audit.Entry{
			Actor:       entity.Actor{UserID: "u-1", Role: entity.RoleAdmin, IP: "10.1.1.1"},
			Action:      entity.AuditUpdate,
			ModelName:   "PurchaseOrder",
			ObjectID:    "po-1",
			ObjectRepr:  "PO-00000001",
			Description: "Orden enviada",
			Changes:     map[string]string{"status_after": "SENT"},
		})
	})

	out := buf.String()
	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, "disco lleno")
	assert.Contains(t, out, "PO-00000001")
	assert.Contains(t, out, `"status_after":"SENT"`)
	assert.Contains(t, out, "10.1.1.1")
}

func TestRecord_PersisteCambiosComoJSON(t *testing.T) {
	store := memory.New(0)
	svc := audit.NewService(store.AuditLog(), zerolog.Nop())
	actor := entity.Actor{UserID: "u-1", Role: entity.RoleManager, UserAgent: "curl"}

	svc.Record(context.Background(), audit.Entry{
		Actor:     actor,
		Action:    entity.AuditCreate,
		ModelName: "Transaction",
		ObjectID:  "tx-1",
		Changes:   map[string]int64{"quantity_before": 0, "quantity_after": 5},
	})

	entries, err := svc.List(context.Background(), actor, repository.AuditLogFilter{ModelName: "Transaction"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.JSONEq(t, `{"quantity_before":0,"quantity_after":5}`, string(entries[0].Changes))
	assert.Equal(t, "curl", entries[0].UserAgent)
	assert.False(t, entries[0].Timestamp.IsZero())
}

func TestList_RequierePermiso(t *testing.T) {
	svc := audit.NewService(memory.New(0).AuditLog(), zerolog.Nop())
	_, err := svc.List(context.Background(), entity.Actor{Role: entity.RoleWarehouseStaff}, repository.AuditLogFilter{})
	assert.ErrorIs(t, err, domain.ErrPermission)
}
