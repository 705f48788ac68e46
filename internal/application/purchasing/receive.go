package purchasing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/application/inventory"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/access"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	ledger "github.com/jhoicas/stockledger/internal/domain/inventory"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

// ReceiveLine cantidad recibida de una línea de la orden. Cantidad 0 se ignora.
type ReceiveLine struct {
	ItemID   string
	Quantity int64
}

// ReceiveInput encabezado y líneas de una recepción. Number vacío = autogenerado.
type ReceiveInput struct {
	Number       string
	ReceivedDate time.Time
	Notes        string
	Lines        []ReceiveLine
}

// ReceiveResult estado de la orden tras la recepción y lo generado por ella.
type ReceiveResult struct {
	Order        *entity.PurchaseOrder
	Receipt      *entity.GoodsReceipt
	Transactions []*entity.Transaction
}

// Receive procesa una recepción completa o no procesa nada: crea la recepción, incrementa lo recibido
// por ítem, registra una compra por línea positiva y recalcula el estado de la orden.
func (uc *PurchaseOrderUseCase) Receive(ctx context.Context, actor entity.Actor, poID string, in ReceiveInput) (*ReceiveResult, error) {
	if err := access.Require(actor.Role, access.ReceiveGoods); err != nil {
		return nil, err
	}
	if err := validateLines(in.Lines); err != nil {
		return nil, err
	}

	number := strings.TrimSpace(in.Number)
	generated := number == ""
	attempts := 1
	if generated {
		attempts = uc.opts.NumberRetries
	}

	var res *ReceiveResult
	err := inventory.RetryOnConflict(attempts, func() error {
		if generated {
			number = uc.ids.Number("GR")
		}
		return uc.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
			var err error
			res, err = uc.receiveInTx(ctx, uow, actor, poID, number, in)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	var over []string
	for _, it := range res.Receipt.Items {
		if it.OverReceived {
			over = append(over, it.PurchaseOrderItemID)
		}
	}
	desc := fmt.Sprintf("Recepción %s de la orden %s (estado %s)", res.Receipt.Number, res.Order.Number, res.Order.Status)
	if len(over) > 0 && uc.opts.OverReceipt == OverReceiptWarn {
		desc += fmt.Sprintf("; sobre-recepción en %d ítem(s)", len(over))
		uc.log.Warn().
			Str("purchase_order", res.Order.Number).
			Str("receipt", res.Receipt.Number).
			Strs("items", over).
			Msg("recepción supera la cantidad pedida")
	}
	uc.audit.Record(ctx, audit.Entry{
		Actor:       actor,
		Action:      entity.AuditCreate,
		ModelName:   "GoodsReceipt",
		ObjectID:    res.Receipt.ID,
		ObjectRepr:  res.Receipt.Number,
		Description: desc,
	})
	return res, nil
}

func (uc *PurchaseOrderUseCase) receiveInTx(
	ctx context.Context,
	uow repository.UnitOfWork,
	actor entity.Actor,
	poID, number string,
	in ReceiveInput,
) (*ReceiveResult, error) {
	po, err := loadForUpdate(ctx, uow, poID)
	if err != nil {
		return nil, err
	}
	if err := po.EnsureReceivable(); err != nil {
		return nil, err
	}

	// Todas las líneas se validan antes de tocar el libro.
	keys := make([]inventory.LevelKey, 0, len(in.Lines))
	for _, l := range in.Lines {
		item := po.Item(l.ItemID)
		if item == nil {
			return nil, domain.Validationf("el ítem %s no pertenece a la orden %s", l.ItemID, po.Number)
		}
		if l.Quantity == 0 {
			continue
		}
		total, err := ledger.AddQuantity(item.ReceivedQuantity, l.Quantity)
		if err != nil {
			return nil, err
		}
		if uc.opts.OverReceipt == OverReceiptReject && total > item.Quantity {
			return nil, domain.Validationf("el ítem %s excede la cantidad pendiente (%d)", l.ItemID, item.PendingQuantity())
		}
		keys = append(keys, inventory.LevelKey{ProductID: item.ProductID, LocationID: po.LocationID})
	}
	if err := inventory.LockLevels(ctx, uow, keys...); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	receivedDate := in.ReceivedDate
	if receivedDate.IsZero() {
		receivedDate = now
	}
	receipt := &entity.GoodsReceipt{
		ID:              uuid.New().String(),
		Number:          number,
		PurchaseOrderID: po.ID,
		ReceivedDate:    receivedDate,
		ReceivedBy:      actor.UserID,
		Notes:           in.Notes,
		CreatedAt:       now,
	}
	res := &ReceiveResult{Order: po, Receipt: receipt}

	for _, l := range in.Lines {
		if l.Quantity == 0 {
			continue
		}
		item := po.Item(l.ItemID)
		over := item.ReceivedQuantity+l.Quantity > item.Quantity
		item.ReceivedQuantity += l.Quantity

		receipt.Items = append(receipt.Items, &entity.GoodsReceiptItem{
			ID:                  uuid.New().String(),
			GoodsReceiptID:      receipt.ID,
			PurchaseOrderItemID: item.ID,
			ProductID:           item.ProductID,
			QuantityReceived:    l.Quantity,
			OverReceived:        over,
		})

		price := item.UnitPrice
		rec, _, err := uc.recorder.RecordInTx(ctx, uow, actor.UserID, inventory.RecordInput{
			Type:       entity.TransactionPurchase,
			ProductID:  item.ProductID,
			LocationID: po.LocationID,
			Quantity:   l.Quantity,
			UnitPrice:  &price,
			Reference:  receipt.Number,
			Notes:      "Recepción de OC " + po.Number,
		})
		if err != nil {
			return nil, err
		}
		res.Transactions = append(res.Transactions, rec)

		if err := uow.PurchaseOrders().UpdateItemReceived(ctx, item); err != nil {
			return nil, err
		}
	}

	if err := uow.Receipts().Create(ctx, receipt); err != nil {
		return nil, err
	}
	po.RecomputeStatus(now)
	if err := uow.PurchaseOrders().Update(ctx, po); err != nil {
		return nil, err
	}
	return res, nil
}

func validateLines(lines []ReceiveLine) error {
	if len(lines) == 0 {
		return domain.Validationf("la recepción no tiene líneas")
	}
	seen := make(map[string]struct{}, len(lines))
	positive := false
	for _, l := range lines {
		if l.ItemID == "" {
			return domain.Validationf("cada línea requiere el ítem de la orden")
		}
		if _, dup := seen[l.ItemID]; dup {
			return domain.Validationf("el ítem %s aparece más de una vez", l.ItemID)
		}
		seen[l.ItemID] = struct{}{}
		if l.Quantity < 0 {
			return domain.Validationf("la cantidad recibida no puede ser negativa")
		}
		if l.Quantity > 0 {
			positive = true
		}
	}
	if !positive {
		return domain.Validationf("la recepción requiere al menos una línea con cantidad positiva")
	}
	return nil
}
