package pdf_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/jhoicas/stockledger/internal/application/purchasing"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/infrastructure/pdf"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReceiptPDF(t *testing.T) {
	po := &entity.PurchaseOrder{
		Number: "PO-12345678",
		Status: entity.POStatusPartial,
		Items: []*entity.PurchaseOrderItem{
			{ID: "it-1", ProductID: "p-1", Quantity: 10, UnitPrice: decimal.NewFromInt(4), ReceivedQuantity: 4},
		},
	}
	doc := &purchasing.ReceiptDocument{
		Order: po,
		Receipt: &entity.GoodsReceipt{
			Number:       "GR-ABCDEF12",
			ReceivedDate: time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC),
			Items: []*entity.GoodsReceiptItem{
				{PurchaseOrderItemID: "it-1", ProductID: "p-1", QuantityReceived: 4},
			},
		},
		Supplier: &entity.Supplier{Name: "Ferretería Central"},
		Location: &entity.Location{Code: "A", Name: "Bodega A"},
		Products: map[string]*entity.Product{"p-1": {SKU: "TOR-01", Name: "Tornillo"}},
	}

	out, err := pdf.NewMarotoReceiptGenerator().GenerateReceiptPDF(context.Background(), doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "la salida debe ser un PDF")
}
