package inventory_test

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/application/inventory"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	ledger "github.com/jhoicas/stockledger/internal/domain/inventory"
	"github.com/jhoicas/stockledger/internal/domain/repository"
	"github.com/jhoicas/stockledger/internal/infrastructure/export"
	"github.com/jhoicas/stockledger/internal/infrastructure/idgen"
	"github.com/jhoicas/stockledger/internal/infrastructure/memory"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	staff   = entity.Actor{UserID: "u-staff", Role: entity.RoleWarehouseStaff, IP: "10.0.0.7", UserAgent: "test"}
	manager = entity.Actor{UserID: "u-manager", Role: entity.RoleManager}
	viewer  = entity.Actor{UserID: "u-viewer", Role: entity.RoleViewer}
)

type fixture struct {
	store    *memory.Store
	recorder *inventory.RecordTransactionUseCase
	adjust   *inventory.AdjustStockUseCase
	transfer *inventory.TransferUseCase
	queries  *inventory.StockQueryUseCase
}

func newFixture(t *testing.T, policy ledger.NegativeStockPolicy) *fixture {
	t.Helper()
	store := memory.New(2 * time.Second)
	store.AddProduct(entity.Product{ID: "prod-1", SKU: "SKU-1", Name: "Tornillo", Cost: decimal.Zero, ReorderPoint: 2, Active: true})
	store.AddProduct(entity.Product{ID: "prod-off", SKU: "SKU-OFF", Name: "Descontinuado", Active: false})
	store.AddLocation(entity.Location{ID: "loc-a", Code: "A", Name: "Bodega A", Active: true})
	store.AddLocation(entity.Location{ID: "loc-b", Code: "B", Name: "Bodega B", Active: true})

	ids, err := idgen.New(1)
	require.NoError(t, err)
	auditor := audit.NewService(store.AuditLog(), zerolog.Nop())
	repos := store.Repositories()

	recorder := inventory.NewRecordTransactionUseCase(store, ids, auditor, policy, zerolog.Nop())
	return &fixture{
		store:    store,
		recorder: recorder,
		adjust:   inventory.NewAdjustStockUseCase(store, recorder, auditor),
		transfer: inventory.NewTransferUseCase(store, repos, recorder, ids, auditor, 3),
		queries:  inventory.NewStockQueryUseCase(repos, store, export.NewXLSXExporter(), auditor),
	}
}

func (f *fixture) level(t *testing.T, productID, locationID string) int64 {
	t.Helper()
	l, err := f.store.Repositories().Stock().Get(context.Background(), productID, locationID)
	require.NoError(t, err)
	return l.Quantity
}

func (f *fixture) auditEntries(t *testing.T) []*entity.AuditLogEntry {
	t.Helper()
	entries, err := f.store.AuditLog().List(context.Background(), repository.AuditLogFilter{})
	require.NoError(t, err)
	return entries
}

func purchase(q int64) inventory.RecordInput {
	return inventory.RecordInput{Type: entity.TransactionPurchase, ProductID: "prod-1", LocationID: "loc-a", Quantity: q}
}

func TestRecord_CompraYVenta(t *testing.T) {
	f := newFixture(t, ledger.RejectNegative)
	ctx := context.Background()

	rec, level, err := f.recorder.Record(ctx, staff, purchase(10))
	require.NoError(t, err)
	assert.Equal(t, int64(10), level.Quantity)
	assert.Equal(t, int64(0), rec.QuantityBefore)
	assert.Equal(t, int64(10), rec.QuantityAfter)
	assert.Equal(t, "u-staff", rec.CreatedBy)
	assert.NotZero(t, rec.Sequence)

	sale := inventory.RecordInput{Type: entity.TransactionSale, ProductID: "prod-1", LocationID: "loc-a", Quantity: 4}
	_, level, err = f.recorder.Record(ctx, staff, sale)
	require.NoError(t, err)
	assert.Equal(t, int64(6), level.Quantity)
	assert.Equal(t, int64(6), f.level(t, "prod-1", "loc-a"))

	history, err := f.queries.History(ctx, viewer, repository.TransactionFilter{ProductID: "prod-1"})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, entity.TransactionSale, history[0].Type, "más reciente primero")
	assert.Greater(t, history[0].Sequence, history[1].Sequence)
}

func TestRecord_VentaSinExistenciaSeRechaza(t *testing.T) {
	f := newFixture(t, ledger.RejectNegative)
	ctx := context.Background()
	_, _, err := f.recorder.Record(ctx, staff, purchase(2))
	require.NoError(t, err)

	_, _, err = f.recorder.Record(ctx, staff, inventory.RecordInput{Type: entity.TransactionSale, ProductID: "prod-1", LocationID: "loc-a", Quantity: 3})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(2), f.level(t, "prod-1", "loc-a"), "nada se escribe tras el rechazo")

	history, err := f.queries.History(ctx, staff, repository.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, history, 1, "sin transacción huérfana")
}

func TestRecord_Validaciones(t *testing.T) {
	f := newFixture(t, ledger.RejectNegative)
	ctx := context.Background()

	_, _, err := f.recorder.Record(ctx, viewer, purchase(1))
	assert.ErrorIs(t, err, domain.ErrPermission)

	_, _, err = f.recorder.Record(ctx, staff, purchase(0))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = f.recorder.Record(ctx, staff, inventory.RecordInput{Type: entity.TransactionTransfer, ProductID: "prod-1", LocationID: "loc-a", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = f.recorder.Record(ctx, staff, inventory.RecordInput{Type: entity.TransactionPurchase, ProductID: "nope", LocationID: "loc-a", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, _, err = f.recorder.Record(ctx, staff, inventory.RecordInput{Type: entity.TransactionPurchase, ProductID: "prod-off", LocationID: "loc-a", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrValidation)

	neg := decimal.NewFromInt(-1)
	in := purchase(1)
	in.UnitPrice = &neg
	_, _, err = f.recorder.Record(ctx, staff, in)
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Empty(t, f.auditEntries(t), "operaciones fallidas no se auditan")
}

func TestRecord_ConcurrenteSinPerdidaDeActualizacion(t *testing.T) {
	for i := 0; i < 20; i++ {
		f := newFixture(t, ledger.AllowNegative)
		ctx := context.Background()

		var wg sync.WaitGroup
		errs := make(chan error, 2)
		for _, in := range []inventory.RecordInput{
			purchase(10),
			{Type: entity.TransactionSale, ProductID: "prod-1", LocationID: "loc-a", Quantity: 3},
		} {
			wg.Add(1)
			go func(in inventory.RecordInput) {
				defer wg.Done()
				_, _, err := f.recorder.Record(ctx, staff, in)
				errs <- err
			}(in)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}
		assert.Equal(t, int64(7), f.level(t, "prod-1", "loc-a"))
	}
}

func TestRecord_ConcurrenteMuchasCompras(t *testing.T) {
	f := newFixture(t, ledger.RejectNegative)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := f.recorder.Record(ctx, staff, purchase(1))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), f.level(t, "prod-1", "loc-a"))

	history, err := f.queries.History(ctx, staff, repository.TransactionFilter{Limit: 500})
	require.NoError(t, err)
	require.Len(t, history, 50)
	seen := make(map[int64]bool)
	for _, tx := range history {
		assert.False(t, seen[tx.QuantityAfter], "cada transacción ve un estado distinto")
		seen[tx.QuantityAfter] = true
	}
}

func TestRecord_CostoPromedioPonderado(t *testing.T) {
	f := newFixture(t, ledger.RejectNegative)
	ctx := context.Background()

	p100 := decimal.NewFromInt(100)
	in := purchase(10)
	in.UnitPrice = &p100
	_, _, err := f.recorder.Record(ctx, staff, in)
	require.NoError(t, err)

	p200 := decimal.NewFromInt(200)
	in = purchase(10)
	in.UnitPrice = &p200
	_, _, err = f.recorder.Record(ctx, staff, in)
	require.NoError(t, err)

	p, err := f.store.Repositories().Products().GetByID(ctx, "prod-1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(150).Equal(p.Cost), "costo %s", p.Cost)
}

func TestRecord_CostoPromedioConsideraTodasLasUbicaciones(t *testing.T) {
	f := newFixture(t, ledger.RejectNegative)
	ctx := context.Background()

	p10 := decimal.NewFromInt(10)
	in := purchase(100)
	in.UnitPrice = &p10
	_, _, err := f.recorder.Record(ctx, staff, in)
	require.NoError(t, err)

	p20 := decimal.NewFromInt(20)
	in = purchase(10)
	in.LocationID = "loc-b"
	in.UnitPrice = &p20
	_, _, err = f.recorder.Record(ctx, staff, in)
	require.NoError(t, err)

	// (100*10 + 10*20) / 110
	p, err := f.store.Repositories().Products().GetByID(ctx, "prod-1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("10.9091").Equal(p.Cost), "costo %s", p.Cost)

	// Una venta en otra ubicación reduce la base de ponderación.
	_, _, err = f.recorder.Record(ctx, staff, inventory.RecordInput{Type: entity.TransactionSale, ProductID: "prod-1", LocationID: "loc-a", Quantity: 60})
	require.NoError(t, err)
	p30 := decimal.NewFromInt(30)
	in = purchase(50)
	in.LocationID = "loc-b"
	in.UnitPrice = &p30
	_, _, err = f.recorder.Record(ctx, staff, in)
	require.NoError(t, err)

	// (50*10.9091 + 50*30) / 100
	p, err = f.store.Repositories().Products().GetByID(ctx, "prod-1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("20.4546").Equal(p.Cost), "costo %s", p.Cost)
}

func TestRecord_EntradaQueDesbordaNoEscribeNada(t *testing.T) {
	f := newFixture(t, ledger.RejectNegative)
	ctx := context.Background()

	_, _, err := f.recorder.Record(ctx, staff, purchase(math.MaxInt64))
	require.NoError(t, err)

	_, _, err = f.recorder.Record(ctx, staff, purchase(1))
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, _, err = f.recorder.Record(ctx, staff, inventory.RecordInput{Type: entity.TransactionReturnIn, ProductID: "prod-1", LocationID: "loc-a", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Equal(t, int64(math.MaxInt64), f.level(t, "prod-1", "loc-a"))
	history, err := f.queries.History(ctx, staff, repository.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestRecord_AlertasSeAbrenUnaVez(t *testing.T) {
	f := newFixture(t, ledger.RejectNegative)
	ctx := context.Background()

	_, _, err := f.recorder.Record(ctx, staff, purchase(2)) // 2 <= punto de reorden
	require.NoError(t, err)
	_, _, err = f.recorder.Record(ctx, staff, inventory.RecordInput{Type: entity.TransactionSale, ProductID: "prod-1", LocationID: "loc-a", Quantity: 1})
	require.NoError(t, err)

	alerts, err := f.queries.OpenAlerts(ctx, staff, 0, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, entity.AlertLowStock, alerts[0].Type)

	_, _, err = f.recorder.Record(ctx, staff, inventory.RecordInput{Type: entity.TransactionDamage, ProductID: "prod-1", LocationID: "loc-a", Quantity: 1})
	require.NoError(t, err)
	alerts, err = f.queries.OpenAlerts(ctx, staff, 0, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, entity.AlertOutOfStock, alerts[0].Type)

	resolved, err := f.queries.ResolveAlert(ctx, staff, alerts[0].ID)
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	_, err = f.queries.ResolveAlert(ctx, staff, alerts[0].ID)
	assert.ErrorIs(t, err, domain.ErrValidation)

	alerts, err = f.queries.OpenAlerts(ctx, staff, 0, 0)
	require.NoError(t, err)
	assert.Len(t, alerts, 1)
}

func TestRecord_UnaEntradaDeAuditoriaPorOperacion(t *testing.T) {
	f := newFixture(t, ledger.RejectNegative)
	rec, _, err := f.recorder.Record(context.Background(), staff, purchase(5))
	require.NoError(t, err)

	entries := f.auditEntries(t)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "u-staff", e.ActorID)
	assert.Equal(t, entity.AuditCreate, e.Action)
	assert.Equal(t, "Transaction", e.ModelName)
	assert.Equal(t, rec.ID, e.ObjectID)
	assert.Equal(t, "10.0.0.7", e.IPAddress)
	assert.JSONEq(t, `{"quantity_before":0,"quantity_after":5}`, string(e.Changes))
}

func TestQueries_Disponibilidad(t *testing.T) {
	f := newFixture(t, ledger.RejectNegative)
	ctx := context.Background()
	_, _, err := f.recorder.Record(ctx, staff, purchase(7))
	require.NoError(t, err)
	_, _, err = f.recorder.Record(ctx, staff, inventory.RecordInput{Type: entity.TransactionPurchase, ProductID: "prod-1", LocationID: "loc-b", Quantity: 3})
	require.NoError(t, err)

	total, err := f.queries.ProductAvailability(ctx, viewer, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), total.Available())

	lvl, err := f.queries.Level(ctx, viewer, "prod-1", "loc-b")
	require.NoError(t, err)
	assert.Equal(t, int64(3), lvl.Available())

	empty, err := f.queries.Level(ctx, viewer, "prod-1", "loc-x")
	require.NoError(t, err)
	assert.Zero(t, empty.Quantity, "clave sin transacciones vale cero")

	_, err = f.queries.ProductAvailability(ctx, viewer, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQueries_HistorialPorRangoYTipo(t *testing.T) {
	f := newFixture(t, ledger.RejectNegative)
	ctx := context.Background()
	_, _, err := f.recorder.Record(ctx, staff, purchase(4))
	require.NoError(t, err)
	_, _, err = f.recorder.Record(ctx, staff, inventory.RecordInput{Type: entity.TransactionReturnOut, ProductID: "prod-1", LocationID: "loc-a", Quantity: 1})
	require.NoError(t, err)

	got, err := f.queries.History(ctx, viewer, repository.TransactionFilter{Type: entity.TransactionReturnOut})
	require.NoError(t, err)
	require.Len(t, got, 1)

	future := time.Now().Add(time.Hour)
	got, err = f.queries.History(ctx, viewer, repository.TransactionFilter{From: &future})
	require.NoError(t, err)
	assert.Empty(t, got)

	past := time.Now().Add(-time.Hour)
	_, err = f.queries.History(ctx, viewer, repository.TransactionFilter{From: &future, To: &past})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
