package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/infrastructure/export"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestXLSXExporter_WriteTransactions(t *testing.T) {
	price := decimal.RequireFromString("12.5")
	txs := []*entity.Transaction{
		{Sequence: 2, Type: entity.TransactionSale, ProductID: "p", LocationID: "l", Quantity: 3, QuantityBefore: 10, QuantityAfter: 7, CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
		{Sequence: 1, Type: entity.TransactionPurchase, ProductID: "p", LocationID: "l", Quantity: 10, QuantityAfter: 10, UnitPrice: &price, Reference: "GR-ABCDEF12"},
	}

	var buf bytes.Buffer
	exp := export.NewXLSXExporter()
	require.NoError(t, exp.WriteTransactions(&buf, txs))
	assert.Equal(t, "xlsx", exp.FileExtension())

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Transacciones")
	require.NoError(t, err)
	require.Len(t, rows, 3, "encabezado + 2 filas")
	assert.Equal(t, "Secuencia", rows[0][0])
	assert.Equal(t, "SALE", rows[1][2])
	assert.Equal(t, "2026-01-02 15:04:05"[:10], rows[1][1][:10])
	assert.Equal(t, "7", rows[1][8])
	assert.Equal(t, "12.50", rows[2][9])
	assert.Equal(t, "GR-ABCDEF12", rows[2][10])
}
