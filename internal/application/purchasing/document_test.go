package purchasing_test

import (
	"context"
	"testing"

	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/application/purchasing"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureGenerator struct {
	doc *purchasing.ReceiptDocument
}

func (g *captureGenerator) GenerateReceiptPDF(_ context.Context, doc *purchasing.ReceiptDocument) ([]byte, error) {
	g.doc = doc
	return []byte("%PDF-1.3 stub"), nil
}

func TestReceiptDocument_GeneratePDF(t *testing.T) {
	f := newFixture(t, purchasing.OverReceiptWarn)
	ctx := context.Background()
	po := f.createAB(t)
	res, err := f.orders.Receive(ctx, staff, po.ID, purchasing.ReceiveInput{Lines: []purchasing.ReceiveLine{
		{ItemID: itemFor(po, "prod-a"), Quantity: 3},
	}})
	require.NoError(t, err)

	gen := &captureGenerator{}
	docs := purchasing.NewReceiptDocumentUseCase(f.orders, f.store.Repositories(), gen,
		audit.NewService(f.store.AuditLog(), zerolog.Nop()))

	out, number, err := docs.GeneratePDF(ctx, buyer, po.ID, res.Receipt.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Receipt.Number, number)
	assert.NotEmpty(t, out)
	require.NotNil(t, gen.doc)
	assert.Equal(t, "Proveedor Uno", gen.doc.Supplier.Name)
	assert.Equal(t, "L1", gen.doc.Location.Code)
	assert.Equal(t, "A", gen.doc.Products["prod-a"].SKU)

	var exports int
	for _, e := range f.audits(t, "GoodsReceipt") {
		if e.Action == entity.AuditExport {
			exports++
		}
	}
	assert.Equal(t, 1, exports)

	_, _, err = docs.GeneratePDF(ctx, viewer, po.ID, res.Receipt.ID)
	assert.ErrorIs(t, err, domain.ErrPermission)
}
