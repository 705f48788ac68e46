// Package inventory contiene las reglas puras del libro de existencias.
package inventory

import (
	"fmt"
	"math"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
)

// NegativeStockPolicy decide si una salida puede dejar la existencia por debajo de lo disponible.
type NegativeStockPolicy string

const (
	RejectNegative NegativeStockPolicy = "reject"
	AllowNegative  NegativeStockPolicy = "allow"
)

// ParseNegativeStockPolicy valida el valor de configuración.
func ParseNegativeStockPolicy(s string) (NegativeStockPolicy, error) {
	switch p := NegativeStockPolicy(s); p {
	case RejectNegative, AllowNegative:
		return p, nil
	case "":
		return RejectNegative, nil
	}
	return "", fmt.Errorf("%w: política de stock negativo desconocida %q", domain.ErrValidation, s)
}

// Delta devuelve el cambio con signo que produce la transacción, o ok=false si es un ajuste absoluto.
func Delta(tx *entity.Transaction) (delta int64, ok bool, err error) {
	switch tx.Type {
	case entity.TransactionPurchase, entity.TransactionReturnIn:
		return tx.Quantity, true, nil
	case entity.TransactionSale, entity.TransactionReturnOut, entity.TransactionDamage:
		return -tx.Quantity, true, nil
	case entity.TransactionAdjust:
		return 0, false, nil
	case entity.TransactionTransfer:
		switch tx.Direction {
		case entity.DirectionOut:
			return -tx.Quantity, true, nil
		case entity.DirectionIn:
			return tx.Quantity, true, nil
		}
		return 0, false, fmt.Errorf("%w: una transferencia requiere dirección OUT o IN", domain.ErrValidation)
	}
	return 0, false, fmt.Errorf("%w: tipo de transacción desconocido %q", domain.ErrValidation, tx.Type)
}

// ApplyTransaction aplica la transacción sobre la existencia (ya bloqueada por el llamador) y
// registra en la transacción la cantidad antes y después. Si devuelve error no modifica nada.
func ApplyTransaction(level *entity.StockLevel, tx *entity.Transaction, policy NegativeStockPolicy) error {
	if level.ProductID != tx.ProductID || level.LocationID != tx.LocationID {
		return fmt.Errorf("%w: la transacción no corresponde a la existencia", domain.ErrValidation)
	}
	if err := tx.ValidateQuantity(); err != nil {
		return err
	}
	delta, relative, err := Delta(tx)
	if err != nil {
		return err
	}

	before := level.Quantity
	after := tx.Quantity
	if relative {
		if delta > 0 && before > math.MaxInt64-delta {
			return fmt.Errorf("%w: la existencia %d no admite %d unidades más", domain.ErrValidation, before, delta)
		}
		after = before + delta
		if delta < 0 && policy != AllowNegative && -delta > level.Available() {
			return fmt.Errorf("%w: disponible %d, solicitado %d", domain.ErrInsufficientStock, level.Available(), -delta)
		}
	}

	level.Quantity = after
	tx.QuantityBefore = before
	tx.QuantityAfter = after
	return nil
}

// AddQuantity suma dos cantidades no negativas y rechaza el desbordamiento de int64.
func AddQuantity(a, b int64) (int64, error) {
	if b > 0 && a > math.MaxInt64-b {
		return 0, fmt.Errorf("%w: la cantidad %d no admite %d unidades más", domain.ErrValidation, a, b)
	}
	return a + b, nil
}

// AlertFor devuelve la alerta que corresponde a la cantidad frente al punto de reorden, si alguna.
func AlertFor(quantity, reorderPoint int64) (entity.AlertType, bool) {
	switch {
	case quantity <= 0:
		return entity.AlertOutOfStock, true
	case quantity <= reorderPoint:
		return entity.AlertLowStock, true
	}
	return "", false
}
