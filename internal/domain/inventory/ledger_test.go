package inventory_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/inventory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freshLevel() *entity.StockLevel {
	return &entity.StockLevel{ProductID: "p", LocationID: "l"}
}

func tx(t entity.TransactionType, q int64) *entity.Transaction {
	return &entity.Transaction{Type: t, ProductID: "p", LocationID: "l", Quantity: q}
}

func TestApplyTransaction_SumaDeDeltas(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	types := []entity.TransactionType{
		entity.TransactionPurchase, entity.TransactionReturnIn,
		entity.TransactionSale, entity.TransactionReturnOut, entity.TransactionDamage,
	}

	for round := 0; round < 50; round++ {
		level := freshLevel()
		var want int64
		for i := 0; i < 30; i++ {
			tr := tx(types[rng.Intn(len(types))], int64(rng.Intn(20)+1))
			require.NoError(t, inventory.ApplyTransaction(level, tr, inventory.AllowNegative))

			switch tr.Type {
			case entity.TransactionPurchase, entity.TransactionReturnIn:
				want += tr.Quantity
			default:
				want -= tr.Quantity
			}
			assert.Equal(t, tr.QuantityAfter, level.Quantity)
		}
		assert.Equal(t, want, level.Quantity, "ronda %d", round)
	}
}

func TestApplyTransaction_AjusteEsAbsoluto(t *testing.T) {
	for _, prior := range []int64{0, 3, 250, -4} {
		level := freshLevel()
		level.Quantity = prior
		tr := tx(entity.TransactionAdjust, 17)
		require.NoError(t, inventory.ApplyTransaction(level, tr, inventory.RejectNegative))
		assert.Equal(t, int64(17), level.Quantity)
		assert.Equal(t, prior, tr.QuantityBefore)
	}

	level := freshLevel()
	level.Quantity = 9
	require.NoError(t, inventory.ApplyTransaction(level, tx(entity.TransactionAdjust, 0), inventory.RejectNegative))
	assert.Zero(t, level.Quantity, "ajuste a cero es válido")
}

func TestApplyTransaction_RechazaSinDisponible(t *testing.T) {
	level := freshLevel()
	level.Quantity = 5
	level.ReservedQuantity = 2

	err := inventory.ApplyTransaction(level, tx(entity.TransactionSale, 4), inventory.RejectNegative)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, int64(5), level.Quantity, "sin cambios tras el rechazo")

	require.NoError(t, inventory.ApplyTransaction(level, tx(entity.TransactionSale, 3), inventory.RejectNegative))
	assert.Equal(t, int64(2), level.Quantity)
}

func TestApplyTransaction_PermiteNegativo(t *testing.T) {
	level := freshLevel()
	require.NoError(t, inventory.ApplyTransaction(level, tx(entity.TransactionDamage, 3), inventory.AllowNegative))
	assert.Equal(t, int64(-3), level.Quantity)
}

func TestApplyTransaction_EntradaQueDesbordaSeRechaza(t *testing.T) {
	for _, typ := range []entity.TransactionType{entity.TransactionPurchase, entity.TransactionReturnIn} {
		level := freshLevel()
		require.NoError(t, inventory.ApplyTransaction(level, tx(typ, math.MaxInt64), inventory.RejectNegative))

		in := tx(typ, 1)
		err := inventory.ApplyTransaction(level, in, inventory.RejectNegative)
		assert.ErrorIs(t, err, domain.ErrValidation, "tipo %s", typ)
		assert.Equal(t, int64(math.MaxInt64), level.Quantity, "sin cambios tras el rechazo")
		assert.Zero(t, in.QuantityAfter)
	}

	level := freshLevel()
	level.Quantity = math.MaxInt64 - 1
	credit := tx(entity.TransactionTransfer, 2)
	credit.Direction = entity.DirectionIn
	assert.ErrorIs(t, inventory.ApplyTransaction(level, credit, inventory.AllowNegative), domain.ErrValidation)
}

func TestAddQuantity(t *testing.T) {
	got, err := inventory.AddQuantity(40, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)

	got, err = inventory.AddQuantity(math.MaxInt64-1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), got)

	_, err = inventory.AddQuantity(math.MaxInt64, 1)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestApplyTransaction_CantidadInvalida(t *testing.T) {
	level := freshLevel()
	assert.ErrorIs(t, inventory.ApplyTransaction(level, tx(entity.TransactionPurchase, 0), inventory.AllowNegative), domain.ErrValidation)
	assert.ErrorIs(t, inventory.ApplyTransaction(level, tx(entity.TransactionAdjust, -1), inventory.AllowNegative), domain.ErrValidation)
}

func TestApplyTransaction_Transferencia(t *testing.T) {
	level := freshLevel()
	level.Quantity = 10

	bare := tx(entity.TransactionTransfer, 4)
	assert.ErrorIs(t, inventory.ApplyTransaction(level, bare, inventory.RejectNegative), domain.ErrValidation)
	assert.Equal(t, int64(10), level.Quantity)

	out := tx(entity.TransactionTransfer, 4)
	out.Direction = entity.DirectionOut
	require.NoError(t, inventory.ApplyTransaction(level, out, inventory.RejectNegative))
	assert.Equal(t, int64(6), level.Quantity)

	in := tx(entity.TransactionTransfer, 4)
	in.Direction = entity.DirectionIn
	require.NoError(t, inventory.ApplyTransaction(level, in, inventory.RejectNegative))
	assert.Equal(t, int64(10), level.Quantity)
}

func TestApplyTransaction_ClaveDistinta(t *testing.T) {
	tr := tx(entity.TransactionPurchase, 1)
	tr.LocationID = "otra"
	assert.ErrorIs(t, inventory.ApplyTransaction(freshLevel(), tr, inventory.AllowNegative), domain.ErrValidation)
}

func TestAlertFor(t *testing.T) {
	typ, ok := inventory.AlertFor(0, 5)
	assert.True(t, ok)
	assert.Equal(t, entity.AlertOutOfStock, typ)

	typ, ok = inventory.AlertFor(5, 5)
	assert.True(t, ok)
	assert.Equal(t, entity.AlertLowStock, typ)

	_, ok = inventory.AlertFor(6, 5)
	assert.False(t, ok)
}

func TestCostCalculator(t *testing.T) {
	// 10 unidades a 100 + 10 unidades a 200 = 150
	got := inventory.CostCalculator(10, decimal.NewFromInt(100), 10, decimal.NewFromInt(200))
	assert.True(t, decimal.NewFromInt(150).Equal(got), "got %s", got)

	// Sin existencia previa toma el costo de entrada
	got = inventory.CostCalculator(0, decimal.Zero, 4, decimal.RequireFromString("2.5"))
	assert.True(t, decimal.RequireFromString("2.5").Equal(got), "got %s", got)

	// Existencia negativa cuenta como cero
	got = inventory.CostCalculator(-3, decimal.NewFromInt(80), 2, decimal.NewFromInt(10))
	assert.True(t, decimal.NewFromInt(10).Equal(got), "got %s", got)
}
