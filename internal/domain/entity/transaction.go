package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/shopspring/decimal"
)

// TransactionType tipo de transacción de inventario.
type TransactionType string

const (
	TransactionPurchase  TransactionType = "PURCHASE"
	TransactionSale      TransactionType = "SALE"
	TransactionAdjust    TransactionType = "ADJUSTMENT"
	TransactionReturnIn  TransactionType = "RETURN_IN"
	TransactionReturnOut TransactionType = "RETURN_OUT"
	TransactionTransfer  TransactionType = "TRANSFER"
	TransactionDamage    TransactionType = "DAMAGE"
)

var transactionTypes = []TransactionType{
	TransactionPurchase, TransactionSale, TransactionAdjust, TransactionReturnIn,
	TransactionReturnOut, TransactionTransfer, TransactionDamage,
}

// ParseTransactionType valida el tipo recibido desde la capa de entrada.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range transactionTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: tipo de transacción desconocido %q", domain.ErrValidation, s)
}

// TransferDirection indica el lado de una transferencia: salida en origen, entrada en destino.
type TransferDirection string

const (
	DirectionNone TransferDirection = ""
	DirectionOut  TransferDirection = "OUT"
	DirectionIn   TransferDirection = "IN"
)

// Transaction es el registro inmutable de un cambio de cantidad.
// Sequence da el orden total de inserción; QuantityBefore/After son la foto del libro al aplicarla.
type Transaction struct {
	ID             string
	Sequence       int64
	Type           TransactionType
	ProductID      string
	LocationID     string
	Quantity       int64
	Direction      TransferDirection
	UnitPrice      *decimal.Decimal
	Reference      string
	Notes          string
	CreatedBy      string // vacío si no hay actor
	QuantityBefore int64
	QuantityAfter  int64
	CreatedAt      time.Time
}

// ValidateQuantity aplica la regla de cantidad por tipo: ADJUSTMENT >= 0, el resto > 0.
func (t *Transaction) ValidateQuantity() error {
	if t.Type == TransactionAdjust {
		if t.Quantity < 0 {
			return fmt.Errorf("%w: el ajuste requiere cantidad >= 0", domain.ErrValidation)
		}
		return nil
	}
	if t.Quantity <= 0 {
		return fmt.Errorf("%w: la cantidad debe ser mayor que cero", domain.ErrValidation)
	}
	return nil
}
