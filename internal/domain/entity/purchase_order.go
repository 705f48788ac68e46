package entity

import (
	"fmt"
	"time"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus estado del ciclo de vida de una orden de compra.
type PurchaseOrderStatus string

const (
	POStatusDraft     PurchaseOrderStatus = "DRAFT"
	POStatusSent      PurchaseOrderStatus = "SENT"
	POStatusPartial   PurchaseOrderStatus = "PARTIAL"
	POStatusReceived  PurchaseOrderStatus = "RECEIVED"
	POStatusCancelled PurchaseOrderStatus = "CANCELLED"
)

// ParsePurchaseOrderStatus valida un estado recibido como filtro.
func ParsePurchaseOrderStatus(s string) (PurchaseOrderStatus, error) {
	switch st := PurchaseOrderStatus(s); st {
	case POStatusDraft, POStatusSent, POStatusPartial, POStatusReceived, POStatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("%w: estado de orden desconocido %q", domain.ErrValidation, s)
}

// PurchaseOrder es dueña de sus ítems y recepciones.
type PurchaseOrder struct {
	ID               string
	Number           string
	SupplierID       string
	LocationID       string
	Status           PurchaseOrderStatus
	OrderDate        time.Time
	ExpectedDelivery *time.Time
	ActualDelivery   *time.Time // solo al completar la recepción
	Notes            string
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Items            []*PurchaseOrderItem
}

// PurchaseOrderItem línea de la orden. ReceivedQuantity nunca decrece y puede superar Quantity.
type PurchaseOrderItem struct {
	ID               string
	PurchaseOrderID  string
	ProductID        string
	Quantity         int64
	UnitPrice        decimal.Decimal
	ReceivedQuantity int64
}

// PendingQuantity cantidad pedida aún no recibida; negativa si hubo sobre-recepción.
func (i *PurchaseOrderItem) PendingQuantity() int64 {
	return i.Quantity - i.ReceivedQuantity
}

// TotalCost cantidad × precio unitario.
func (i *PurchaseOrderItem) TotalCost() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}

// Validate comprueba cantidad >= 1 y precio >= 0.
func (i *PurchaseOrderItem) Validate() error {
	if i.ProductID == "" {
		return fmt.Errorf("%w: el ítem requiere producto", domain.ErrValidation)
	}
	if i.Quantity < 1 {
		return fmt.Errorf("%w: la cantidad del ítem debe ser al menos 1", domain.ErrValidation)
	}
	if i.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: el precio unitario no puede ser negativo", domain.ErrValidation)
	}
	return nil
}

// TotalCost suma el costo de todos los ítems.
func (po *PurchaseOrder) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, it := range po.Items {
		total = total.Add(it.TotalCost())
	}
	return total
}

// Item busca una línea de esta orden por id.
func (po *PurchaseOrder) Item(id string) *PurchaseOrderItem {
	for _, it := range po.Items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// CanEdit indica si el encabezado y los ítems aún se pueden modificar.
func (po *PurchaseOrder) CanEdit() bool {
	return po.Status == POStatusDraft || po.Status == POStatusSent
}

// EnsureEditable rechaza la edición fuera de DRAFT/SENT.
func (po *PurchaseOrder) EnsureEditable() error {
	if !po.CanEdit() {
		return fmt.Errorf("%w: solo se pueden editar órdenes en borrador o enviadas (estado %s)", domain.ErrValidation, po.Status)
	}
	return nil
}

// Send DRAFT → SENT.
func (po *PurchaseOrder) Send(now time.Time) error {
	if po.Status != POStatusDraft {
		return fmt.Errorf("%w: solo se pueden enviar órdenes en borrador", domain.ErrValidation)
	}
	po.Status = POStatusSent
	po.UpdatedAt = now
	return nil
}

// Cancel {DRAFT, SENT} → CANCELLED.
func (po *PurchaseOrder) Cancel(now time.Time) error {
	if !po.CanEdit() {
		return fmt.Errorf("%w: solo se pueden cancelar órdenes en borrador o enviadas (estado %s)", domain.ErrValidation, po.Status)
	}
	po.Status = POStatusCancelled
	po.UpdatedAt = now
	return nil
}

// EnsureReceivable rechaza recepciones sobre órdenes canceladas.
func (po *PurchaseOrder) EnsureReceivable() error {
	if po.Status == POStatusCancelled {
		return fmt.Errorf("%w: no se puede recibir una orden cancelada", domain.ErrValidation)
	}
	return nil
}

// RecomputeStatus deriva el estado solo del estado actual de los ítems, de modo que recepciones
// parciales repetidas convergen. Devuelve true si el estado cambió.
func (po *PurchaseOrder) RecomputeStatus(now time.Time) bool {
	if po.Status == POStatusCancelled || len(po.Items) == 0 {
		return false
	}
	all, some := true, false
	for _, it := range po.Items {
		if it.ReceivedQuantity < it.Quantity {
			all = false
		}
		if it.ReceivedQuantity > 0 {
			some = true
		}
	}
	prev := po.Status
	switch {
	case all:
		po.Status = POStatusReceived
		if po.ActualDelivery == nil {
			t := now
			po.ActualDelivery = &t
		}
	case some:
		po.Status = POStatusPartial
	}
	if po.Status != prev {
		po.UpdatedAt = now
		return true
	}
	return false
}
