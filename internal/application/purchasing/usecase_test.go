package purchasing_test

import (
	"bytes"
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/application/inventory"
	"github.com/jhoicas/stockledger/internal/application/purchasing"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	ledger "github.com/jhoicas/stockledger/internal/domain/inventory"
	"github.com/jhoicas/stockledger/internal/domain/repository"
	"github.com/jhoicas/stockledger/internal/infrastructure/idgen"
	"github.com/jhoicas/stockledger/internal/infrastructure/memory"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	buyer   = entity.Actor{UserID: "u-manager", Role: entity.RoleManager}
	staff   = entity.Actor{UserID: "u-staff", Role: entity.RoleWarehouseStaff}
	viewer  = entity.Actor{UserID: "u-viewer", Role: entity.RoleViewer}
	creator = entity.Actor{UserID: "u-admin", Role: entity.RoleAdmin}
)

// scriptedIDs devuelve primero los números fijados y luego delega en el generador real.
type scriptedIDs struct {
	mu      sync.Mutex
	numbers []string
	inner   *idgen.Generator
}

func (s *scriptedIDs) NextSequence() int64 { return s.inner.NextSequence() }

func (s *scriptedIDs) Number(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.numbers) > 0 {
		n := s.numbers[0]
		s.numbers = s.numbers[1:]
		return n
	}
	return s.inner.Number(prefix)
}

type fixture struct {
	store  *memory.Store
	orders *purchasing.PurchaseOrderUseCase
	ids    *scriptedIDs
	logBuf *bytes.Buffer
}

func newFixture(t *testing.T, policy purchasing.OverReceiptPolicy, numbers ...string) *fixture {
	t.Helper()
	store := memory.New(2 * time.Second)
	store.AddProduct(entity.Product{ID: "prod-a", SKU: "A", Name: "Producto A", Active: true})
	store.AddProduct(entity.Product{ID: "prod-b", SKU: "B", Name: "Producto B", Active: true})
	store.AddLocation(entity.Location{ID: "loc-1", Code: "L1", Name: "Bodega principal", Active: true})
	store.AddSupplier(entity.Supplier{ID: "sup-1", Name: "Proveedor Uno", Active: true})

	gen, err := idgen.New(1)
	require.NoError(t, err)
	ids := &scriptedIDs{numbers: numbers, inner: gen}

	var buf bytes.Buffer
	log := zerolog.New(&buf)
	auditor := audit.NewService(store.AuditLog(), zerolog.Nop())
	recorder := inventory.NewRecordTransactionUseCase(store, ids, auditor, ledger.RejectNegative, zerolog.Nop())
	orders := purchasing.NewPurchaseOrderUseCase(store, store.Repositories(), recorder, ids, auditor,
		purchasing.Options{NumberRetries: 3, OverReceipt: policy}, log)
	return &fixture{store: store, orders: orders, ids: ids, logBuf: &buf}
}

func (f *fixture) createAB(t *testing.T) *entity.PurchaseOrder {
	t.Helper()
	po, err := f.orders.Create(context.Background(), buyer, purchasing.CreateInput{
		SupplierID: "sup-1",
		LocationID: "loc-1",
		Items: []purchasing.ItemInput{
			{ProductID: "prod-a", Quantity: 10, UnitPrice: decimal.NewFromInt(5)},
			{ProductID: "prod-b", Quantity: 5, UnitPrice: decimal.NewFromInt(8)},
		},
	})
	require.NoError(t, err)
	return po
}

func (f *fixture) transactions(t *testing.T) []*entity.Transaction {
	t.Helper()
	txs, err := f.store.Repositories().Transactions().List(context.Background(), repository.TransactionFilter{})
	require.NoError(t, err)
	return txs
}

func (f *fixture) level(t *testing.T, productID string) int64 {
	t.Helper()
	l, err := f.store.Repositories().Stock().Get(context.Background(), productID, "loc-1")
	require.NoError(t, err)
	return l.Quantity
}

func (f *fixture) audits(t *testing.T, model string) []*entity.AuditLogEntry {
	t.Helper()
	entries, err := f.store.AuditLog().List(context.Background(), repository.AuditLogFilter{ModelName: model})
	require.NoError(t, err)
	return entries
}

func itemFor(po *entity.PurchaseOrder, productID string) string {
	for _, it := range po.Items {
		if it.ProductID == productID {
			return it.ID
		}
	}
	return ""
}

func TestCreate_NumeroGeneradoYBorrador(t *testing.T) {
	f := newFixture(t, purchasing.OverReceiptWarn)
	po := f.createAB(t)

	assert.Equal(t, entity.POStatusDraft, po.Status)
	assert.Regexp(t, `^PO-[0-9A-F]{8}$`, po.Number)
	assert.True(t, po.TotalCost().Equal(decimal.NewFromInt(90)))
	assert.Len(t, f.audits(t, "PurchaseOrder"), 1)
}

func TestCreate_Validaciones(t *testing.T) {
	f := newFixture(t, purchasing.OverReceiptWarn)
	ctx := context.Background()

	_, err := f.orders.Create(ctx, buyer, purchasing.CreateInput{SupplierID: "sup-1", LocationID: "loc-1"})
	assert.ErrorIs(t, err, domain.ErrValidation, "sin ítems")

	_, err = f.orders.Create(ctx, buyer, purchasing.CreateInput{
		SupplierID: "sup-1", LocationID: "loc-1",
		Items: []purchasing.ItemInput{{ProductID: "prod-a", Quantity: 0, UnitPrice: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrValidation, "cantidad cero")

	_, err = f.orders.Create(ctx, buyer, purchasing.CreateInput{
		SupplierID: "sup-x", LocationID: "loc-1",
		Items: []purchasing.ItemInput{{ProductID: "prod-a", Quantity: 1, UnitPrice: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.orders.Create(ctx, staff, purchasing.CreateInput{})
	assert.ErrorIs(t, err, domain.ErrPermission)
}

func TestCreate_ColisionDeNumeroGeneradoSeReintenta(t *testing.T) {
	f := newFixture(t, purchasing.OverReceiptWarn, "PO-00000001", "PO-00000001", "PO-00000002")
	first := f.createAB(t)
	assert.Equal(t, "PO-00000001", first.Number)

	second := f.createAB(t)
	assert.Equal(t, "PO-00000002", second.Number, "el segundo número generado colisiona y se reintenta")
}

func TestCreate_NumeroDelUsuarioDuplicadoEsConflicto(t *testing.T) {
	f := newFixture(t, purchasing.OverReceiptWarn)
	ctx := context.Background()
	in := purchasing.CreateInput{
		Number: "PO-MANUAL", SupplierID: "sup-1", LocationID: "loc-1",
		Items: []purchasing.ItemInput{{ProductID: "prod-a", Quantity: 1, UnitPrice: decimal.NewFromInt(1)}},
	}
	_, err := f.orders.Create(ctx, buyer, in)
	require.NoError(t, err)

	_, err = f.orders.Create(ctx, buyer, in)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestSend_DobleEnvioSeRechaza(t *testing.T) {
	f := newFixture(t, purchasing.OverReceiptWarn)
	ctx := context.Background()
	po := f.createAB(t)

	sent, err := f.orders.Send(ctx, buyer, po.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusSent, sent.Status)

	_, err = f.orders.Send(ctx, buyer, po.ID)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, f.transactions(t), "enviar no toca el libro")

	updates := 0
	for _, e := range f.audits(t, "PurchaseOrder") {
		if e.Action == entity.AuditUpdate {
			updates++
		}
	}
	assert.Equal(t, 1, updates, "solo el envío exitoso se audita")
}

func TestCancel_EstadosTerminalesSeRechazan(t *testing.T) {
	f := newFixture(t, purchasing.OverReceiptWarn)
	ctx := context.Background()

	cancelled := f.createAB(t)
	_, err := f.orders.Cancel(ctx, creator, cancelled.ID)
	require.NoError(t, err)
	_, err = f.orders.Cancel(ctx, creator, cancelled.ID)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.orders.Receive(ctx, staff, cancelled.ID, purchasing.ReceiveInput{
		Lines: []purchasing.ReceiveLine{{ItemID: itemFor(cancelled, "prod-a"), Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrValidation, "no se recibe una orden cancelada")

	received := f.createAB(t)
	_, err = f.orders.Receive(ctx, staff, received.ID, purchasing.ReceiveInput{Lines: []purchasing.ReceiveLine{
		{ItemID: itemFor(received, "prod-a"), Quantity: 10},
		{ItemID: itemFor(received, "prod-b"), Quantity: 5},
	}})
	require.NoError(t, err)
	_, err = f.orders.Cancel(ctx, creator, received.ID)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.orders.Cancel(ctx, staff, received.ID)
	assert.ErrorIs(t, err, domain.ErrPermission)
}

func TestUpdate_SoloEnBorradorOEnviada(t *testing.T) {
	f := newFixture(t, purchasing.OverReceiptWarn)
	ctx := context.Background()
	po := f.createAB(t)

	notes := "entregar en muelle 2"
	updated, err := f.orders.Update(ctx, buyer, po.ID, purchasing.UpdateInput{
		Notes: &notes,
		Items: []purchasing.ItemInput{{ProductID: "prod-b", Quantity: 3, UnitPrice: decimal.NewFromInt(2)}},
	})
	require.NoError(t, err)
	assert.Equal(t, notes, updated.Notes)
	require.Len(t, updated.Items, 1)

	detail, err := f.orders.Get(ctx, buyer, po.ID)
	require.NoError(t, err)
	require.Len(t, detail.Order.Items, 1)
	assert.Equal(t, int64(3), detail.Order.Items[0].Quantity)

	_, err = f.orders.Cancel(ctx, creator, po.ID)
	require.NoError(t, err)
	_, err = f.orders.Update(ctx, buyer, po.ID, purchasing.UpdateInput{Notes: &notes})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReceive_ParcialLuegoCompleta(t *testing.T) {
	f := newFixture(t, purchasing.OverReceiptWarn)
	ctx := context.Background()
	po := f.createAB(t)
	_, err := f.orders.Send(ctx, buyer, po.ID)
	require.NoError(t, err)
	a, b := itemFor(po, "prod-a"), itemFor(po, "prod-b")

	res, err := f.orders.Receive(ctx, staff, po.ID, purchasing.ReceiveInput{Lines: []purchasing.ReceiveLine{
		{ItemID: a, Quantity: 10},
		{ItemID: b, Quantity: 2},
	}})
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusPartial, res.Order.Status)
	assert.Nil(t, res.Order.ActualDelivery)
	assert.Regexp(t, `^GR-[0-9A-F]{8}$`, res.Receipt.Number)
	require.Len(t, res.Transactions, 2)
	for _, tx := range res.Transactions {
		assert.Equal(t, entity.TransactionPurchase, tx.Type)
		assert.Equal(t, res.Receipt.Number, tx.Reference)
	}
	assert.Equal(t, int64(10), f.level(t, "prod-a"))
	assert.Equal(t, int64(2), f.level(t, "prod-b"))

	res, err = f.orders.Receive(ctx, staff, po.ID, purchasing.ReceiveInput{Lines: []purchasing.ReceiveLine{
		{ItemID: b, Quantity: 3},
	}})
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusReceived, res.Order.Status)
	require.NotNil(t, res.Order.ActualDelivery)
	assert.Equal(t, int64(5), f.level(t, "prod-b"))

	detail, err := f.orders.Get(ctx, buyer, po.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Receipts, 2)
	assert.Len(t, f.audits(t, "GoodsReceipt"), 2, "una entrada por recepción")
}

func TestReceive_ItemAjenoNoEscribeNada(t *testing.T) {
	f := newFixture(t, purchasing.OverReceiptWarn)
	ctx := context.Background()
	po := f.createAB(t)
	other := f.createAB(t)

	_, err := f.orders.Receive(ctx, staff, po.ID, purchasing.ReceiveInput{Lines: []purchasing.ReceiveLine{
		{ItemID: itemFor(po, "prod-a"), Quantity: 4},
		{ItemID: itemFor(other, "prod-b"), Quantity: 1},
	}})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, f.transactions(t))
	assert.Equal(t, int64(0), f.level(t, "prod-a"))

	detail, err := f.orders.Get(ctx, buyer, po.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusDraft, detail.Order.Status)
	assert.Empty(t, detail.Receipts)
}

func TestReceive_LineasInvalidas(t *testing.T) {
	f := newFixture(t, purchasing.OverReceiptWarn)
	ctx := context.Background()
	po := f.createAB(t)
	a := itemFor(po, "prod-a")

	cases := map[string][]purchasing.ReceiveLine{
		"vacía":      nil,
		"solo ceros": {{ItemID: a, Quantity: 0}},
		"negativa":   {{ItemID: a, Quantity: -1}},
		"duplicada":  {{ItemID: a, Quantity: 1}, {ItemID: a, Quantity: 1}},
	}
	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.orders.Receive(ctx, staff, po.ID, purchasing.ReceiveInput{Lines: lines})
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
	_, err := f.orders.Receive(ctx, viewer, po.ID, purchasing.ReceiveInput{Lines: []purchasing.ReceiveLine{{ItemID: a, Quantity: 1}}})
	assert.ErrorIs(t, err, domain.ErrPermission)
	assert.Empty(t, f.transactions(t))
}

func TestReceive_PoliticasDeSobreRecepcion(t *testing.T) {
	ctx := context.Background()

	t.Run("reject", func(t *testing.T) {
		f := newFixture(t, purchasing.OverReceiptReject)
		po := f.createAB(t)
		_, err := f.orders.Receive(ctx, staff, po.ID, purchasing.ReceiveInput{Lines: []purchasing.ReceiveLine{
			{ItemID: itemFor(po, "prod-a"), Quantity: 11},
		}})
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.Empty(t, f.transactions(t))
	})

	t.Run("warn", func(t *testing.T) {
		f := newFixture(t, purchasing.OverReceiptWarn)
		po := f.createAB(t)
		res, err := f.orders.Receive(ctx, staff, po.ID, purchasing.ReceiveInput{Lines: []purchasing.ReceiveLine{
			{ItemID: itemFor(po, "prod-a"), Quantity: 12},
		}})
		require.NoError(t, err)
		require.Len(t, res.Receipt.Items, 1)
		assert.True(t, res.Receipt.Items[0].OverReceived)
		assert.Equal(t, int64(12), f.level(t, "prod-a"))
		assert.Contains(t, f.logBuf.String(), "recepción supera la cantidad pedida")
		entries := f.audits(t, "GoodsReceipt")
		require.Len(t, entries, 1)
		assert.Contains(t, entries[0].Description, "sobre-recepción")
	})

	t.Run("allow", func(t *testing.T) {
		f := newFixture(t, purchasing.OverReceiptAllow)
		po := f.createAB(t)
		res, err := f.orders.Receive(ctx, staff, po.ID, purchasing.ReceiveInput{Lines: []purchasing.ReceiveLine{
			{ItemID: itemFor(po, "prod-a"), Quantity: 12},
		}})
		require.NoError(t, err)
		assert.True(t, res.Receipt.Items[0].OverReceived)
		assert.Empty(t, f.logBuf.String())
	})
}

func TestReceive_CantidadQueDesbordaSeRechaza(t *testing.T) {
	f := newFixture(t, purchasing.OverReceiptWarn)
	ctx := context.Background()
	po := f.createAB(t)
	a := itemFor(po, "prod-a")

	_, err := f.orders.Receive(ctx, staff, po.ID, purchasing.ReceiveInput{Lines: []purchasing.ReceiveLine{{ItemID: a, Quantity: math.MaxInt64}}})
	require.NoError(t, err)

	_, err = f.orders.Receive(ctx, staff, po.ID, purchasing.ReceiveInput{Lines: []purchasing.ReceiveLine{{ItemID: a, Quantity: 1}}})
	assert.ErrorIs(t, err, domain.ErrValidation)

	detail, err := f.orders.Get(ctx, buyer, po.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), detail.Order.Item(a).ReceivedQuantity)
	assert.Len(t, detail.Receipts, 1)
	assert.Len(t, f.transactions(t), 1)
	assert.Equal(t, int64(math.MaxInt64), f.level(t, "prod-a"))
}

func TestGet_QuienRecibeVeLasLineas(t *testing.T) {
	f := newFixture(t, purchasing.OverReceiptWarn)
	ctx := context.Background()
	po := f.createAB(t)

	detail, err := f.orders.Get(ctx, staff, po.ID)
	require.NoError(t, err)
	require.Len(t, detail.Order.Items, 2)

	listed, err := f.orders.List(ctx, staff, repository.PurchaseOrderFilter{})
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	_, err = f.orders.Receive(ctx, staff, po.ID, purchasing.ReceiveInput{Lines: []purchasing.ReceiveLine{
		{ItemID: itemFor(detail.Order, "prod-b"), Quantity: 2},
	}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.level(t, "prod-b"))

	_, err = f.orders.Get(ctx, viewer, po.ID)
	assert.ErrorIs(t, err, domain.ErrPermission)
	_, err = f.orders.List(ctx, viewer, repository.PurchaseOrderFilter{})
	assert.ErrorIs(t, err, domain.ErrPermission)
}

func TestReceive_ConcurrentesConvergen(t *testing.T) {
	f := newFixture(t, purchasing.OverReceiptWarn)
	ctx := context.Background()
	po := f.createAB(t)
	a, b := itemFor(po, "prod-a"), itemFor(po, "prod-b")

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.orders.Receive(ctx, staff, po.ID, purchasing.ReceiveInput{Lines: []purchasing.ReceiveLine{
				{ItemID: a, Quantity: 2},
				{ItemID: b, Quantity: 1},
			}})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	detail, err := f.orders.Get(ctx, buyer, po.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusReceived, detail.Order.Status)
	assert.Equal(t, int64(10), detail.Order.Item(a).ReceivedQuantity)
	assert.Equal(t, int64(5), detail.Order.Item(b).ReceivedQuantity)
	assert.Len(t, detail.Receipts, 5)
	assert.Equal(t, int64(10), f.level(t, "prod-a"))
	assert.Len(t, f.transactions(t), 10)
}

func TestReceipt_BuscaPorOrden(t *testing.T) {
	f := newFixture(t, purchasing.OverReceiptWarn)
	ctx := context.Background()
	po := f.createAB(t)
	res, err := f.orders.Receive(ctx, creator, po.ID, purchasing.ReceiveInput{Lines: []purchasing.ReceiveLine{
		{ItemID: itemFor(po, "prod-a"), Quantity: 1},
	}})
	require.NoError(t, err)

	_, r, err := f.orders.Receipt(ctx, buyer, po.ID, res.Receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Receipt.Number, r.Number)

	_, _, err = f.orders.Receipt(ctx, buyer, po.ID, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
