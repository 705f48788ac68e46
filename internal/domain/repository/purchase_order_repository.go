package repository

import (
	"context"

	"github.com/jhoicas/stockledger/internal/domain/entity"
)

// PurchaseOrderRepository persiste órdenes de compra junto con sus ítems.
// Create devuelve domain.ErrConflict si el número ya existe.
type PurchaseOrderRepository interface {
	Create(ctx context.Context, po *entity.PurchaseOrder) error
	GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	// Update guarda encabezado y estado.
	Update(ctx context.Context, po *entity.PurchaseOrder) error
	ReplaceItems(ctx context.Context, poID string, items []*entity.PurchaseOrderItem) error
	UpdateItemReceived(ctx context.Context, item *entity.PurchaseOrderItem) error
	List(ctx context.Context, filter PurchaseOrderFilter) ([]*entity.PurchaseOrder, error)
}

// PurchaseOrderFilter filtros opcionales para listar órdenes.
type PurchaseOrderFilter struct {
	Status     entity.PurchaseOrderStatus
	SupplierID string
	Limit      int
	Offset     int
}

// GoodsReceiptRepository persiste recepciones con sus ítems.
// Create devuelve domain.ErrConflict si el número ya existe.
type GoodsReceiptRepository interface {
	Create(ctx context.Context, receipt *entity.GoodsReceipt) error
	GetByID(ctx context.Context, id string) (*entity.GoodsReceipt, error)
	ListByPurchaseOrder(ctx context.Context, poID string) ([]*entity.GoodsReceipt, error)
}
