package entity

import "time"

// AlertType tipo de alerta de existencias.
type AlertType string

const (
	AlertLowStock   AlertType = "LOW_STOCK"
	AlertOutOfStock AlertType = "OUT_OF_STOCK"
)

// StockAlert se abre cuando una existencia cruza el punto de reorden. A lo sumo una abierta por
// (producto, ubicación, tipo).
type StockAlert struct {
	ID         string
	ProductID  string
	LocationID string
	Type       AlertType
	Quantity   int64 // existencia al momento de abrirla
	Resolved   bool
	CreatedAt  time.Time
	ResolvedAt *time.Time
}
