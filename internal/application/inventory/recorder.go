// Package inventory contiene los casos de uso del libro de existencias: registro de transacciones,
// ajustes, transferencias y consultas.
package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/access"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/inventory"
	"github.com/jhoicas/stockledger/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// RecordInput entrada para registrar una transacción.
// Direction solo se usa desde transferencias.
type RecordInput struct {
	Type       entity.TransactionType
	ProductID  string
	LocationID string
	Quantity   int64
	Direction  entity.TransferDirection
	UnitPrice  *decimal.Decimal
	Reference  string
	Notes      string
}

// RecordTransactionUseCase valida y agrega transacciones inmutables, aplicándolas al libro de
// existencias en la misma unidad de trabajo.
type RecordTransactionUseCase struct {
	txRunner TxRunner
	ids      IDGenerator
	audit    audit.Recorder
	policy   inventory.NegativeStockPolicy
	log      zerolog.Logger
	now      func() time.Time
}

// NewRecordTransactionUseCase construye el caso de uso.
func NewRecordTransactionUseCase(
	txRunner TxRunner,
	ids IDGenerator,
	auditor audit.Recorder,
	policy inventory.NegativeStockPolicy,
	log zerolog.Logger,
) *RecordTransactionUseCase {
	return &RecordTransactionUseCase{
		txRunner: txRunner,
		ids:      ids,
		audit:    auditor,
		policy:   policy,
		log:      log,
		now:      time.Now,
	}
}

// Record registra una transacción manual. Las transferencias se registran con TransferUseCase.
func (uc *RecordTransactionUseCase) Record(ctx context.Context, actor entity.Actor, in RecordInput) (*entity.Transaction, *entity.StockLevel, error) {
	if err := access.Require(actor.Role, access.RecordTransactions); err != nil {
		return nil, nil, err
	}
	if in.Type == entity.TransactionTransfer {
		return nil, nil, domain.Validationf("las transferencias se registran como transferencia entre ubicaciones")
	}
	in.Direction = entity.DirectionNone

	var (
		rec   *entity.Transaction
		level *entity.StockLevel
	)
	err := uc.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		var err error
		rec, level, err = uc.RecordInTx(ctx, uow, actor.UserID, in)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	uc.audit.Record(ctx, audit.Entry{
		Actor:       actor,
		Action:      entity.AuditCreate,
		ModelName:   "Transaction",
		ObjectID:    rec.ID,
		ObjectRepr:  fmt.Sprintf("%s %d", rec.Type, rec.Quantity),
		Description: fmt.Sprintf("Transacción %s de %d unidades en %s", rec.Type, rec.Quantity, rec.LocationID),
		Changes:     map[string]int64{"quantity_before": rec.QuantityBefore, "quantity_after": rec.QuantityAfter},
	})
	return rec, level, nil
}

// RecordInTx registra la transacción usando los repositorios de la unidad de trabajo del llamador:
// bloquea la existencia, aplica la regla del libro, inserta la transacción, guarda la existencia,
// actualiza el costo promedio en compras con precio y evalúa alertas.
func (uc *RecordTransactionUseCase) RecordInTx(ctx context.Context, uow repository.UnitOfWork, actorID string, in RecordInput) (*entity.Transaction, *entity.StockLevel, error) {
	if in.ProductID == "" || in.LocationID == "" {
		return nil, nil, domain.Validationf("producto y ubicación son obligatorios")
	}
	if in.UnitPrice != nil && in.UnitPrice.IsNegative() {
		return nil, nil, domain.Validationf("el precio unitario no puede ser negativo")
	}

	product, err := uow.Products().GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, nil, err
	}
	if product == nil {
		return nil, nil, domain.NotFoundf("producto %s", in.ProductID)
	}
	if !product.Active {
		return nil, nil, domain.Validationf("el producto %s está inactivo", product.SKU)
	}
	location, err := uow.Locations().GetByID(ctx, in.LocationID)
	if err != nil {
		return nil, nil, err
	}
	if location == nil {
		return nil, nil, domain.NotFoundf("ubicación %s", in.LocationID)
	}
	if !location.Active {
		return nil, nil, domain.Validationf("la ubicación %s está inactiva", location.Code)
	}

	now := uc.now().UTC()
	rec := &entity.Transaction{
		ID:         uuid.New().String(),
		Type:       in.Type,
		ProductID:  in.ProductID,
		LocationID: in.LocationID,
		Quantity:   in.Quantity,
		Direction:  in.Direction,
		UnitPrice:  in.UnitPrice,
		Reference:  in.Reference,
		Notes:      in.Notes,
		CreatedBy:  actorID,
		CreatedAt:  now,
	}
	if err := rec.ValidateQuantity(); err != nil {
		return nil, nil, err
	}

	level, err := uow.Stock().GetForUpdate(ctx, in.ProductID, in.LocationID)
	if err != nil {
		return nil, nil, err
	}
	if err := inventory.ApplyTransaction(level, rec, uc.policy); err != nil {
		return nil, nil, err
	}
	level.UpdatedAt = now
	// La secuencia se asigna con la fila ya bloqueada: el orden por clave coincide con el de aplicación.
	rec.Sequence = uc.ids.NextSequence()

	if err := uow.Transactions().Create(ctx, rec); err != nil {
		return nil, nil, err
	}
	if err := uow.Stock().Save(ctx, level); err != nil {
		return nil, nil, err
	}

	if rec.Type == entity.TransactionPurchase && rec.UnitPrice != nil {
		if err := uc.updateCost(ctx, uow, rec); err != nil {
			return nil, nil, err
		}
	}
	if err := uc.evaluateAlerts(ctx, uow, product, level, now); err != nil {
		return nil, nil, err
	}
	return rec, level, nil
}

// updateCost recalcula el costo promedio ponderado del producto con la existencia total previa a la compra.
func (uc *RecordTransactionUseCase) updateCost(ctx context.Context, uow repository.UnitOfWork, rec *entity.Transaction) error {
	product, err := uow.Products().GetForUpdate(ctx, rec.ProductID)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.NotFoundf("producto %s", rec.ProductID)
	}
	// El costo es del producto: se pondera con la existencia de todas las ubicaciones. La suma ya
	// incluye esta compra porque la existencia se guardó antes en la misma unidad de trabajo.
	sum, err := uow.Stock().SumByProduct(ctx, rec.ProductID)
	if err != nil {
		return err
	}
	cost := inventory.CostCalculator(sum.Quantity-rec.Quantity, product.Cost, rec.Quantity, *rec.UnitPrice)
	return uow.Products().UpdateCost(ctx, rec.ProductID, cost)
}

// evaluateAlerts abre la alerta correspondiente si no hay una abierta del mismo tipo.
func (uc *RecordTransactionUseCase) evaluateAlerts(ctx context.Context, uow repository.UnitOfWork, product *entity.Product, level *entity.StockLevel, now time.Time) error {
	typ, ok := inventory.AlertFor(level.Quantity, product.ReorderPoint)
	if !ok {
		return nil
	}
	open, err := uow.Alerts().FindOpen(ctx, level.ProductID, level.LocationID, typ)
	if err != nil {
		return err
	}
	if open != nil {
		return nil
	}
	alert := &entity.StockAlert{
		ID:         uuid.New().String(),
		ProductID:  level.ProductID,
		LocationID: level.LocationID,
		Type:       typ,
		Quantity:   level.Quantity,
		CreatedAt:  now,
	}
	if err := uow.Alerts().Create(ctx, alert); err != nil {
		return err
	}
	uc.log.Debug().
		Str("product_id", level.ProductID).
		Str("location_id", level.LocationID).
		Str("alert", string(typ)).
		Int64("quantity", level.Quantity).
		Msg("alerta de existencias abierta")
	return nil
}
