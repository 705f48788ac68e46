package dto

import (
	"time"

	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// RecordTransactionRequest body para POST /api/transactions.
type RecordTransactionRequest struct {
	Type       string           `json:"type" validate:"required,oneof=PURCHASE SALE ADJUSTMENT RETURN_IN RETURN_OUT DAMAGE"`
	ProductID  string           `json:"product_id" validate:"required"`
	LocationID string           `json:"location_id" validate:"required"`
	Quantity   int64            `json:"quantity"`
	UnitPrice  *decimal.Decimal `json:"unit_price,omitempty"`
	Reference  string           `json:"reference" validate:"max=100"`
	Notes      string           `json:"notes" validate:"max=1000"`
}

// AdjustStockRequest body para POST /api/stock/adjustments.
type AdjustStockRequest struct {
	ProductID  string `json:"product_id" validate:"required"`
	LocationID string `json:"location_id" validate:"required"`
	Mode       string `json:"mode" validate:"required,oneof=set add subtract"`
	Quantity   int64  `json:"quantity" validate:"min=0"`
	Reason     string `json:"reason" validate:"max=1000"`
}

// CreateTransferRequest body para POST /api/transfers.
type CreateTransferRequest struct {
	ProductID      string `json:"product_id" validate:"required"`
	FromLocationID string `json:"from_location_id" validate:"required"`
	ToLocationID   string `json:"to_location_id" validate:"required,nefield=FromLocationID"`
	Quantity       int64  `json:"quantity" validate:"gt=0"`
	Notes          string `json:"notes" validate:"max=1000"`
}

// TransactionResponse una transacción del libro.
type TransactionResponse struct {
	ID             string           `json:"id"`
	Sequence       int64            `json:"sequence"`
	Type           string           `json:"type"`
	ProductID      string           `json:"product_id"`
	LocationID     string           `json:"location_id"`
	Quantity       int64            `json:"quantity"`
	Direction      string           `json:"direction,omitempty"`
	UnitPrice      *decimal.Decimal `json:"unit_price,omitempty"`
	Reference      string           `json:"reference,omitempty"`
	Notes          string           `json:"notes,omitempty"`
	CreatedBy      string           `json:"created_by"`
	QuantityBefore int64            `json:"quantity_before"`
	QuantityAfter  int64            `json:"quantity_after"`
	CreatedAt      time.Time        `json:"created_at"`
}

// StockLevelResponse existencia de un producto en una ubicación.
type StockLevelResponse struct {
	ProductID        string    `json:"product_id"`
	LocationID       string    `json:"location_id"`
	Quantity         int64     `json:"quantity"`
	ReservedQuantity int64     `json:"reserved_quantity"`
	Available        int64     `json:"available_quantity"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ProductAvailabilityResponse totales de un producto en todas las ubicaciones.
type ProductAvailabilityResponse struct {
	ProductID        string `json:"product_id"`
	Quantity         int64  `json:"quantity"`
	ReservedQuantity int64  `json:"reserved_quantity"`
	Available        int64  `json:"available_quantity"`
}

// RecordTransactionResponse transacción registrada y existencia resultante.
type RecordTransactionResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Level       StockLevelResponse  `json:"stock_level"`
}

// TransferResponse estado de una transferencia.
type TransferResponse struct {
	ID             string     `json:"id"`
	Number         string     `json:"transfer_number"`
	ProductID      string     `json:"product_id"`
	FromLocationID string     `json:"from_location_id"`
	ToLocationID   string     `json:"to_location_id"`
	Quantity       int64      `json:"quantity"`
	Status         string     `json:"status"`
	Notes          string     `json:"notes,omitempty"`
	InitiatedBy    string     `json:"initiated_by"`
	ReceivedBy     string     `json:"received_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// AlertResponse alerta de existencias.
type AlertResponse struct {
	ID         string     `json:"id"`
	ProductID  string     `json:"product_id"`
	LocationID string     `json:"location_id"`
	Type       string     `json:"alert_type"`
	Quantity   int64      `json:"quantity"`
	Resolved   bool       `json:"is_resolved"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// FromTransaction mapea la entidad a su respuesta.
func FromTransaction(t *entity.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:             t.ID,
		Sequence:       t.Sequence,
		Type:           string(t.Type),
		ProductID:      t.ProductID,
		LocationID:     t.LocationID,
		Quantity:       t.Quantity,
		Direction:      string(t.Direction),
		UnitPrice:      t.UnitPrice,
		Reference:      t.Reference,
		Notes:          t.Notes,
		CreatedBy:      t.CreatedBy,
		QuantityBefore: t.QuantityBefore,
		QuantityAfter:  t.QuantityAfter,
		CreatedAt:      t.CreatedAt,
	}
}

// FromTransactions mapea una lista.
func FromTransactions(txs []*entity.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, FromTransaction(t))
	}
	return out
}

// FromStockLevel mapea la entidad a su respuesta.
func FromStockLevel(l *entity.StockLevel) StockLevelResponse {
	return StockLevelResponse{
		ProductID:        l.ProductID,
		LocationID:       l.LocationID,
		Quantity:         l.Quantity,
		ReservedQuantity: l.ReservedQuantity,
		Available:        l.Available(),
		UpdatedAt:        l.UpdatedAt,
	}
}

// FromTransfer mapea la entidad a su respuesta.
func FromTransfer(t *entity.StockTransfer) TransferResponse {
	return TransferResponse{
		ID:             t.ID,
		Number:         t.Number,
		ProductID:      t.ProductID,
		FromLocationID: t.FromLocationID,
		ToLocationID:   t.ToLocationID,
		Quantity:       t.Quantity,
		Status:         string(t.Status),
		Notes:          t.Notes,
		InitiatedBy:    t.InitiatedBy,
		ReceivedBy:     t.ReceivedBy,
		CreatedAt:      t.CreatedAt,
		CompletedAt:    t.CompletedAt,
	}
}

// FromAlert mapea la entidad a su respuesta.
func FromAlert(a *entity.StockAlert) AlertResponse {
	return AlertResponse{
		ID:         a.ID,
		ProductID:  a.ProductID,
		LocationID: a.LocationID,
		Type:       string(a.Type),
		Quantity:   a.Quantity,
		Resolved:   a.Resolved,
		CreatedAt:  a.CreatedAt,
		ResolvedAt: a.ResolvedAt,
	}
}
