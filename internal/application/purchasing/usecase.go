// Package purchasing implementa el flujo de órdenes de compra y su recepción de mercancía.
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
	"github.com/jhoicas/stockledger/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// OverReceiptPolicy qué hacer cuando una recepción supera la cantidad pedida.
type OverReceiptPolicy string

const (
	OverReceiptAllow  OverReceiptPolicy = "allow"
	OverReceiptWarn   OverReceiptPolicy = "warn"
	OverReceiptReject OverReceiptPolicy = "reject"
)

// ParseOverReceiptPolicy valida el valor de configuración.
func ParseOverReceiptPolicy(s string) (OverReceiptPolicy, error) {
	switch p := OverReceiptPolicy(strings.ToLower(s)); p {
	case OverReceiptAllow, OverReceiptWarn, OverReceiptReject:
		return p, nil
	case "":
		return OverReceiptWarn, nil
	}
	return "", domain.Validationf("política de sobre-recepción desconocida %q", s)
}

// Options parámetros del flujo.
type Options struct {
	NumberRetries int
	OverReceipt   OverReceiptPolicy
}

// ItemInput línea pedida.
type ItemInput struct {
	ProductID string
	Quantity  int64
	UnitPrice decimal.Decimal
}

// CreateInput datos para crear una orden. Number vacío = autogenerado.
type CreateInput struct {
	Number           string
	SupplierID       string
	LocationID       string
	OrderDate        time.Time
	ExpectedDelivery *time.Time
	Notes            string
	Items            []ItemInput
}

// UpdateInput campos editables; nil deja el valor actual. Items no nil reemplaza todas las líneas.
type UpdateInput struct {
	SupplierID       *string
	LocationID       *string
	ExpectedDelivery *time.Time
	Notes            *string
	Items            []ItemInput
}

// OrderDetail orden con sus recepciones.
type OrderDetail struct {
	Order    *entity.PurchaseOrder
	Receipts []*entity.GoodsReceipt
}

// PurchaseOrderUseCase gestiona el ciclo DRAFT → SENT → PARTIAL/RECEIVED y CANCELLED.
type PurchaseOrderUseCase struct {
	txRunner inventory.TxRunner
	repos    repository.UnitOfWork
	recorder *inventory.RecordTransactionUseCase
	ids      inventory.IDGenerator
	audit    audit.Recorder
	opts     Options
	log      zerolog.Logger
	now      func() time.Time
}

// NewPurchaseOrderUseCase construye el caso de uso.
func NewPurchaseOrderUseCase(
	txRunner inventory.TxRunner,
	repos repository.UnitOfWork,
	recorder *inventory.RecordTransactionUseCase,
	ids inventory.IDGenerator,
	auditor audit.Recorder,
	opts Options,
	log zerolog.Logger,
) *PurchaseOrderUseCase {
	if opts.NumberRetries < 1 {
		opts.NumberRetries = 1
	}
	if opts.OverReceipt == "" {
		opts.OverReceipt = OverReceiptWarn
	}
	return &PurchaseOrderUseCase{
		txRunner: txRunner,
		repos:    repos,
		recorder: recorder,
		ids:      ids,
		audit:    auditor,
		opts:     opts,
		log:      log,
		now:      time.Now,
	}
}

// Create registra la orden en borrador. Un número generado se reintenta ante colisión; un número
// suministrado por el usuario que ya existe devuelve domain.ErrConflict.
func (uc *PurchaseOrderUseCase) Create(ctx context.Context, actor entity.Actor, in CreateInput) (*entity.PurchaseOrder, error) {
	if err := access.Require(actor.Role, access.CreatePurchaseOrders); err != nil {
		return nil, err
	}
	if in.SupplierID == "" || in.LocationID == "" {
		return nil, domain.Validationf("proveedor y ubicación son obligatorios")
	}
	items, err := uc.buildItems(ctx, in.Items)
	if err != nil {
		return nil, err
	}
	if err := uc.checkHeader(ctx, in.SupplierID, in.LocationID); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	orderDate := in.OrderDate
	if orderDate.IsZero() {
		orderDate = now
	}
	po := &entity.PurchaseOrder{
		ID:               uuid.New().String(),
		Number:           strings.TrimSpace(in.Number),
		SupplierID:       in.SupplierID,
		LocationID:       in.LocationID,
		Status:           entity.POStatusDraft,
		OrderDate:        orderDate,
		ExpectedDelivery: in.ExpectedDelivery,
		Notes:            in.Notes,
		CreatedBy:        actor.UserID,
		CreatedAt:        now,
		UpdatedAt:        now,
		Items:            items,
	}
	for _, it := range po.Items {
		it.PurchaseOrderID = po.ID
	}

	generated := po.Number == ""
	attempts := 1
	if generated {
		attempts = uc.opts.NumberRetries
	}
	err = inventory.RetryOnConflict(attempts, func() error {
		if generated {
			po.Number = uc.ids.Number("PO")
		}
		return uc.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
			return uow.PurchaseOrders().Create(ctx, po)
		})
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Record(ctx, audit.Entry{
		Actor:       actor,
		Action:      entity.AuditCreate,
		ModelName:   "PurchaseOrder",
		ObjectID:    po.ID,
		ObjectRepr:  po.Number,
		Description: fmt.Sprintf("Orden de compra %s creada con %d ítems", po.Number, len(po.Items)),
	})
	return po, nil
}

// Update edita encabezado y/o ítems mientras la orden está en DRAFT o SENT.
func (uc *PurchaseOrderUseCase) Update(ctx context.Context, actor entity.Actor, id string, in UpdateInput) (*entity.PurchaseOrder, error) {
	if err := access.Require(actor.Role, access.EditPurchaseOrders); err != nil {
		return nil, err
	}
	var items []*entity.PurchaseOrderItem
	if in.Items != nil {
		var err error
		if items, err = uc.buildItems(ctx, in.Items); err != nil {
			return nil, err
		}
	}

	var po *entity.PurchaseOrder
	err := uc.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		var err error
		if po, err = loadForUpdate(ctx, uow, id); err != nil {
			return err
		}
		if err := po.EnsureEditable(); err != nil {
			return err
		}
		supplierID, locationID := po.SupplierID, po.LocationID
		if in.SupplierID != nil {
			supplierID = *in.SupplierID
		}
		if in.LocationID != nil {
			locationID = *in.LocationID
		}
		if supplierID != po.SupplierID || locationID != po.LocationID {
			if err := uc.checkHeader(ctx, supplierID, locationID); err != nil {
				return err
			}
		}
		po.SupplierID, po.LocationID = supplierID, locationID
		if in.ExpectedDelivery != nil {
			po.ExpectedDelivery = in.ExpectedDelivery
		}
		if in.Notes != nil {
			po.Notes = *in.Notes
		}
		if items != nil {
			for _, it := range po.Items {
				if it.ReceivedQuantity > 0 {
					return domain.Validationf("no se pueden reemplazar ítems con cantidades recibidas")
				}
			}
			for _, it := range items {
				it.PurchaseOrderID = po.ID
			}
			if err := uow.PurchaseOrders().ReplaceItems(ctx, po.ID, items); err != nil {
				return err
			}
			po.Items = items
		}
		po.UpdatedAt = uc.now().UTC()
		return uow.PurchaseOrders().Update(ctx, po)
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Record(ctx, audit.Entry{
		Actor:       actor,
		Action:      entity.AuditUpdate,
		ModelName:   "PurchaseOrder",
		ObjectID:    po.ID,
		ObjectRepr:  po.Number,
		Description: fmt.Sprintf("Orden de compra %s actualizada", po.Number),
	})
	return po, nil
}

// Send DRAFT → SENT.
func (uc *PurchaseOrderUseCase) Send(ctx context.Context, actor entity.Actor, id string) (*entity.PurchaseOrder, error) {
	if err := access.Require(actor.Role, access.ApprovePurchaseOrders); err != nil {
		return nil, err
	}
	return uc.transition(ctx, actor, id, "enviada al proveedor", (*entity.PurchaseOrder).Send)
}

// Cancel {DRAFT, SENT} → CANCELLED.
func (uc *PurchaseOrderUseCase) Cancel(ctx context.Context, actor entity.Actor, id string) (*entity.PurchaseOrder, error) {
	if err := access.Require(actor.Role, access.DeletePurchaseOrders); err != nil {
		return nil, err
	}
	return uc.transition(ctx, actor, id, "cancelada", (*entity.PurchaseOrder).Cancel)
}

func (uc *PurchaseOrderUseCase) transition(
	ctx context.Context,
	actor entity.Actor,
	id, verb string,
	apply func(po *entity.PurchaseOrder, now time.Time) error,
) (*entity.PurchaseOrder, error) {
	var (
		po   *entity.PurchaseOrder
		prev entity.PurchaseOrderStatus
	)
	err := uc.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		var err error
		if po, err = loadForUpdate(ctx, uow, id); err != nil {
			return err
		}
		prev = po.Status
		if err := apply(po, uc.now().UTC()); err != nil {
			return err
		}
		return uow.PurchaseOrders().Update(ctx, po)
	})
	if err != nil {
		return nil, err
	}

	uc.audit.Record(ctx, audit.Entry{
		Actor:       actor,
		Action:      entity.AuditUpdate,
		ModelName:   "PurchaseOrder",
		ObjectID:    po.ID,
		ObjectRepr:  po.Number,
		Description: fmt.Sprintf("Orden de compra %s %s", po.Number, verb),
		Changes:     map[string]string{"status_before": string(prev), "status_after": string(po.Status)},
	})
	return po, nil
}

// readCapabilities quien recibe mercancía necesita ver las líneas de la orden para recibirla.
var readCapabilities = []access.Capability{access.ViewReports, access.ReceiveGoods}

// Get devuelve la orden con ítems y recepciones.
func (uc *PurchaseOrderUseCase) Get(ctx context.Context, actor entity.Actor, id string) (*OrderDetail, error) {
	if err := access.RequireAny(actor.Role, readCapabilities...); err != nil {
		return nil, err
	}
	po, err := uc.repos.PurchaseOrders().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, domain.NotFoundf("orden de compra %s", id)
	}
	receipts, err := uc.repos.Receipts().ListByPurchaseOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return &OrderDetail{Order: po, Receipts: receipts}, nil
}

// List lista órdenes por estado y/o proveedor.
func (uc *PurchaseOrderUseCase) List(ctx context.Context, actor entity.Actor, filter repository.PurchaseOrderFilter) ([]*entity.PurchaseOrder, error) {
	if err := access.RequireAny(actor.Role, readCapabilities...); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return uc.repos.PurchaseOrders().List(ctx, filter)
}

// Receipt devuelve una recepción de la orden indicada.
func (uc *PurchaseOrderUseCase) Receipt(ctx context.Context, actor entity.Actor, poID, receiptID string) (*entity.PurchaseOrder, *entity.GoodsReceipt, error) {
	detail, err := uc.Get(ctx, actor, poID)
	if err != nil {
		return nil, nil, err
	}
	for _, r := range detail.Receipts {
		if r.ID == receiptID {
			return detail.Order, r, nil
		}
	}
	return nil, nil, domain.NotFoundf("recepción %s", receiptID)
}

func (uc *PurchaseOrderUseCase) buildItems(ctx context.Context, in []ItemInput) ([]*entity.PurchaseOrderItem, error) {
	if len(in) == 0 {
		return nil, domain.Validationf("la orden requiere al menos un ítem")
	}
	items := make([]*entity.PurchaseOrderItem, 0, len(in))
	for i, line := range in {
		it := &entity.PurchaseOrderItem{
			ID:        uuid.New().String(),
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		}
		if err := it.Validate(); err != nil {
			return nil, fmt.Errorf("ítem %d: %w", i+1, err)
		}
		p, err := uc.repos.Products().GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, domain.NotFoundf("producto %s", line.ProductID)
		}
		items = append(items, it)
	}
	return items, nil
}

func (uc *PurchaseOrderUseCase) checkHeader(ctx context.Context, supplierID, locationID string) error {
	s, err := uc.repos.Suppliers().GetByID(ctx, supplierID)
	if err != nil {
		return err
	}
	if s == nil {
		return domain.NotFoundf("proveedor %s", supplierID)
	}
	loc, err := uc.repos.Locations().GetByID(ctx, locationID)
	if err != nil {
		return err
	}
	if loc == nil {
		return domain.NotFoundf("ubicación %s", locationID)
	}
	return nil
}

func loadForUpdate(ctx context.Context, uow repository.UnitOfWork, id string) (*entity.PurchaseOrder, error) {
	po, err := uow.PurchaseOrders().GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, domain.NotFoundf("orden de compra %s", id)
	}
	return po, nil
}
