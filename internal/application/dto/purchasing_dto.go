package dto

import (
	"time"

	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// PurchaseOrderItemRequest línea pedida.
type PurchaseOrderItemRequest struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  int64           `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreatePurchaseOrderRequest body para POST /api/purchase-orders. po_number vacío = autogenerado.
type CreatePurchaseOrderRequest struct {
	Number           string                     `json:"po_number" validate:"max=50"`
	SupplierID       string                     `json:"supplier_id" validate:"required"`
	LocationID       string                     `json:"location_id" validate:"required"`
	OrderDate        *time.Time                 `json:"order_date,omitempty"`
	ExpectedDelivery *time.Time                 `json:"expected_delivery,omitempty"`
	Notes            string                     `json:"notes" validate:"max=2000"`
	Items            []PurchaseOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// UpdatePurchaseOrderRequest body para PUT /api/purchase-orders/:id. Campos ausentes no cambian.
type UpdatePurchaseOrderRequest struct {
	SupplierID       *string                    `json:"supplier_id,omitempty"`
	LocationID       *string                    `json:"location_id,omitempty"`
	ExpectedDelivery *time.Time                 `json:"expected_delivery,omitempty"`
	Notes            *string                    `json:"notes,omitempty"`
	Items            []PurchaseOrderItemRequest `json:"items,omitempty" validate:"omitempty,min=1,dive"`
}

// ReceiveLineRequest cantidad recibida de un ítem.
type ReceiveLineRequest struct {
	ItemID   string `json:"item_id" validate:"required"`
	Quantity int64  `json:"quantity" validate:"min=0"`
}

// ReceiveGoodsRequest body para POST /api/purchase-orders/:id/receipts.
type ReceiveGoodsRequest struct {
	Number       string               `json:"receipt_number" validate:"max=50"`
	ReceivedDate *time.Time           `json:"received_date,omitempty"`
	Notes        string               `json:"notes" validate:"max=2000"`
	Lines        []ReceiveLineRequest `json:"items" validate:"required,min=1,dive"`
}

// PurchaseOrderItemResponse línea de la orden.
type PurchaseOrderItemResponse struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	Quantity         int64           `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	ReceivedQuantity int64           `json:"received_quantity"`
	PendingQuantity  int64           `json:"pending_quantity"`
	TotalCost        decimal.Decimal `json:"total_cost"`
}

// PurchaseOrderResponse orden de compra con ítems y, en el detalle, sus recepciones.
type PurchaseOrderResponse struct {
	ID               string                      `json:"id"`
	Number           string                      `json:"po_number"`
	SupplierID       string                      `json:"supplier_id"`
	LocationID       string                      `json:"location_id"`
	Status           string                      `json:"status"`
	OrderDate        time.Time                   `json:"order_date"`
	ExpectedDelivery *time.Time                  `json:"expected_delivery,omitempty"`
	ActualDelivery   *time.Time                  `json:"actual_delivery,omitempty"`
	Notes            string                      `json:"notes,omitempty"`
	CreatedBy        string                      `json:"created_by"`
	TotalCost        decimal.Decimal             `json:"total_cost"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
	Items            []PurchaseOrderItemResponse `json:"items"`
	Receipts         []GoodsReceiptResponse      `json:"receipts,omitempty"`
}

// GoodsReceiptItemResponse línea recibida.
type GoodsReceiptItemResponse struct {
	ID                  string `json:"id"`
	PurchaseOrderItemID string `json:"po_item_id"`
	ProductID           string `json:"product_id"`
	QuantityReceived    int64  `json:"quantity_received"`
	OverReceived        bool   `json:"over_received"`
}

// GoodsReceiptResponse recepción de mercancía.
type GoodsReceiptResponse struct {
	ID           string                     `json:"id"`
	Number       string                     `json:"receipt_number"`
	ReceivedDate time.Time                  `json:"received_date"`
	ReceivedBy   string                     `json:"received_by"`
	Notes        string                     `json:"notes,omitempty"`
	Items        []GoodsReceiptItemResponse `json:"items"`
}

// ReceiveGoodsResponse resultado de una recepción.
type ReceiveGoodsResponse struct {
	Order        PurchaseOrderResponse `json:"purchase_order"`
	Receipt      GoodsReceiptResponse  `json:"receipt"`
	Transactions []TransactionResponse `json:"transactions"`
}

// FromPurchaseOrder mapea la orden (sin recepciones).
func FromPurchaseOrder(po *entity.PurchaseOrder) PurchaseOrderResponse {
	items := make([]PurchaseOrderItemResponse, 0, len(po.Items))
	for _, it := range po.Items {
		items = append(items, PurchaseOrderItemResponse{
			ID:               it.ID,
			ProductID:        it.ProductID,
			Quantity:         it.Quantity,
			UnitPrice:        it.UnitPrice,
			ReceivedQuantity: it.ReceivedQuantity,
			PendingQuantity:  it.PendingQuantity(),
			TotalCost:        it.TotalCost(),
		})
	}
	return PurchaseOrderResponse{
		ID:               po.ID,
		Number:           po.Number,
		SupplierID:       po.SupplierID,
		LocationID:       po.LocationID,
		Status:           string(po.Status),
		OrderDate:        po.OrderDate,
		ExpectedDelivery: po.ExpectedDelivery,
		ActualDelivery:   po.ActualDelivery,
		Notes:            po.Notes,
		CreatedBy:        po.CreatedBy,
		TotalCost:        po.TotalCost(),
		CreatedAt:        po.CreatedAt,
		UpdatedAt:        po.UpdatedAt,
		Items:            items,
	}
}

// FromGoodsReceipt mapea la recepción.
func FromGoodsReceipt(r *entity.GoodsReceipt) GoodsReceiptResponse {
	items := make([]GoodsReceiptItemResponse, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, GoodsReceiptItemResponse{
			ID:                  it.ID,
			PurchaseOrderItemID: it.PurchaseOrderItemID,
			ProductID:           it.ProductID,
			QuantityReceived:    it.QuantityReceived,
			OverReceived:        it.OverReceived,
		})
	}
	return GoodsReceiptResponse{
		ID:           r.ID,
		Number:       r.Number,
		ReceivedDate: r.ReceivedDate,
		ReceivedBy:   r.ReceivedBy,
		Notes:        r.Notes,
		Items:        items,
	}
}
