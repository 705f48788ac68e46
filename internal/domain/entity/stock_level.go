package entity

import "time"

// StockLevel es la existencia de un producto en una ubicación. Solo la modifica el libro de existencias.
type StockLevel struct {
	ProductID        string
	LocationID       string
	Quantity         int64
	ReservedQuantity int64
	UpdatedAt        time.Time
}

// Available devuelve la cantidad disponible (existencia menos reservado).
func (s *StockLevel) Available() int64 {
	return s.Quantity - s.ReservedQuantity
}

// ProductStock agrega las existencias de un producto en todas sus ubicaciones.
type ProductStock struct {
	ProductID        string
	Quantity         int64
	ReservedQuantity int64
}

// Available devuelve la cantidad disponible agregada.
func (p ProductStock) Available() int64 {
	return p.Quantity - p.ReservedQuantity
}
