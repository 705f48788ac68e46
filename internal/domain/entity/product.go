package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product es dato de referencia: el servicio solo lo consulta y actualiza su costo promedio.
// Cost es promedio ponderado calculado desde las entradas de compra.
type Product struct {
	ID              string
	SKU             string
	Name            string
	Cost            decimal.Decimal
	ReorderPoint    int64
	ReorderQuantity int64
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Location es una bodega o ubicación física de inventario.
type Location struct {
	ID        string
	Code      string
	Name      string
	Active    bool
	CreatedAt time.Time
}

// Supplier es un proveedor al que se emiten órdenes de compra.
type Supplier struct {
	ID        string
	Name      string
	Active    bool
	CreatedAt time.Time
}
