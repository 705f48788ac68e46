package entity

import "time"

// GoodsReceipt registra mercancía recibida contra una orden de compra, posiblemente parcial.
type GoodsReceipt struct {
	ID              string
	Number          string
	PurchaseOrderID string
	ReceivedDate    time.Time
	ReceivedBy      string
	Notes           string
	CreatedAt       time.Time
	Items           []*GoodsReceiptItem
}

// GoodsReceiptItem cantidad recibida (> 0) de una línea de la orden.
type GoodsReceiptItem struct {
	ID                  string
	GoodsReceiptID      string
	PurchaseOrderItemID string
	ProductID           string
	QuantityReceived    int64
	OverReceived        bool
}
