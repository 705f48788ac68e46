package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/access"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/inventory"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

// AdjustMode modo de ajuste de existencias.
type AdjustMode string

const (
	AdjustSet      AdjustMode = "set"
	AdjustAdd      AdjustMode = "add"
	AdjustSubtract AdjustMode = "subtract"
)

// ParseAdjustMode valida el modo recibido.
func ParseAdjustMode(s string) (AdjustMode, error) {
	switch m := AdjustMode(strings.ToLower(strings.TrimSpace(s))); m {
	case AdjustSet, AdjustAdd, AdjustSubtract:
		return m, nil
	}
	return "", domain.Validationf("modo de ajuste desconocido %q (set|add|subtract)", s)
}

// AdjustInput entrada de un ajuste manual.
type AdjustInput struct {
	Mode       AdjustMode
	ProductID  string
	LocationID string
	Quantity   int64
	Notes      string
}

// AdjustStockUseCase traduce ajustes manuales a transacciones del libro:
// set → ADJUSTMENT(q), add → ADJUSTMENT(actual + q) calculado bajo bloqueo, subtract → DAMAGE(q).
type AdjustStockUseCase struct {
	txRunner TxRunner
	recorder *RecordTransactionUseCase
	audit    audit.Recorder
}

// NewAdjustStockUseCase construye el caso de uso.
func NewAdjustStockUseCase(txRunner TxRunner, recorder *RecordTransactionUseCase, auditor audit.Recorder) *AdjustStockUseCase {
	return &AdjustStockUseCase{txRunner: txRunner, recorder: recorder, audit: auditor}
}

// Adjust aplica el ajuste y devuelve la transacción generada y la existencia resultante.
func (uc *AdjustStockUseCase) Adjust(ctx context.Context, actor entity.Actor, in AdjustInput) (*entity.Transaction, *entity.StockLevel, error) {
	if err := access.Require(actor.Role, access.AdjustStock); err != nil {
		return nil, nil, err
	}
	switch in.Mode {
	case AdjustSet:
		if in.Quantity < 0 {
			return nil, nil, domain.Validationf("la cantidad del ajuste no puede ser negativa")
		}
	case AdjustAdd, AdjustSubtract:
		if in.Quantity <= 0 {
			return nil, nil, domain.Validationf("la cantidad debe ser mayor que cero")
		}
	default:
		return nil, nil, domain.Validationf("modo de ajuste desconocido %q", in.Mode)
	}

	var (
		rec   *entity.Transaction
		level *entity.StockLevel
	)
	err := uc.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		record := RecordInput{
			ProductID:  in.ProductID,
			LocationID: in.LocationID,
			Reference:  "AJUSTE-" + strings.ToUpper(string(in.Mode)),
			Notes:      in.Notes,
		}
		switch in.Mode {
		case AdjustSet:
			record.Type, record.Quantity = entity.TransactionAdjust, in.Quantity
		case AdjustSubtract:
			record.Type, record.Quantity = entity.TransactionDamage, in.Quantity
		case AdjustAdd:
			current, err := uow.Stock().GetForUpdate(ctx, in.ProductID, in.LocationID)
			if err != nil {
				return err
			}
			target, err := inventory.AddQuantity(current.Quantity, in.Quantity)
			if err != nil {
				return err
			}
			record.Type, record.Quantity = entity.TransactionAdjust, target
		}
		var err error
		rec, level, err = uc.recorder.RecordInTx(ctx, uow, actor.UserID, record)
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
		Description: fmt.Sprintf("Ajuste de existencia (%s %d): %d → %d", in.Mode, in.Quantity, rec.QuantityBefore, rec.QuantityAfter),
		Changes:     map[string]any{"mode": in.Mode, "quantity_before": rec.QuantityBefore, "quantity_after": rec.QuantityAfter},
	})
	return rec, level, nil
}
