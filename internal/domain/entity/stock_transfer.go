package entity

import (
	"fmt"
	"time"

	"github.com/jhoicas/stockledger/internal/domain"
)

// TransferStatus estado de una transferencia entre ubicaciones.
type TransferStatus string

const (
	TransferPending   TransferStatus = "PENDING"
	TransferInTransit TransferStatus = "IN_TRANSIT"
	TransferCompleted TransferStatus = "COMPLETED"
	TransferCancelled TransferStatus = "CANCELLED"
)

// StockTransfer mueve cantidad de un producto entre dos ubicaciones.
// Al completarse genera dos transacciones TRANSFER (salida y entrada) en la misma unidad de trabajo.
type StockTransfer struct {
	ID             string
	Number         string
	ProductID      string
	FromLocationID string
	ToLocationID   string
	Quantity       int64
	Status         TransferStatus
	Notes          string
	InitiatedBy    string
	ReceivedBy     string
	CreatedAt      time.Time
	CompletedAt    *time.Time
}

func (t *StockTransfer) open() bool {
	return t.Status == TransferPending || t.Status == TransferInTransit
}

// Dispatch PENDING → IN_TRANSIT.
func (t *StockTransfer) Dispatch() error {
	if t.Status != TransferPending {
		return fmt.Errorf("%w: solo se pueden despachar transferencias pendientes", domain.ErrValidation)
	}
	t.Status = TransferInTransit
	return nil
}

// Complete {PENDING, IN_TRANSIT} → COMPLETED.
func (t *StockTransfer) Complete(receivedBy string, now time.Time) error {
	if !t.open() {
		return fmt.Errorf("%w: la transferencia ya está %s", domain.ErrValidation, t.Status)
	}
	t.Status = TransferCompleted
	t.ReceivedBy = receivedBy
	t.CompletedAt = &now
	return nil
}

// Cancel {PENDING, IN_TRANSIT} → CANCELLED.
func (t *StockTransfer) Cancel() error {
	if !t.open() {
		return fmt.Errorf("%w: la transferencia ya está %s", domain.ErrValidation, t.Status)
	}
	t.Status = TransferCancelled
	return nil
}
