package dto

import (
	"time"

	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto. El costo inicia en 0 y lo mueven las compras.
type CreateProductRequest struct {
	SKU             string `json:"sku" validate:"required,max=64"`
	Name            string `json:"name" validate:"required,max=200"`
	ReorderPoint    int64  `json:"reorder_point" validate:"min=0"`
	ReorderQuantity int64  `json:"reorder_quantity" validate:"min=0"`
}

// UpdateProductRequest campos opcionales; nil = sin cambio.
type UpdateProductRequest struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	ReorderPoint    *int64  `json:"reorder_point,omitempty" validate:"omitempty,min=0"`
	ReorderQuantity *int64  `json:"reorder_quantity,omitempty" validate:"omitempty,min=0"`
	Active          *bool   `json:"active,omitempty"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID              string          `json:"id"`
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	Cost            decimal.Decimal `json:"cost"`
	ReorderPoint    int64           `json:"reorder_point"`
	ReorderQuantity int64           `json:"reorder_quantity"`
	Active          bool            `json:"active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ProductListResponse listado paginado.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// CreateLocationRequest entrada para crear una ubicación.
type CreateLocationRequest struct {
	Code string `json:"code" validate:"required,max=32"`
	Name string `json:"name" validate:"required,max=200"`
}

// LocationResponse salida de una ubicación.
type LocationResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateSupplierRequest entrada para crear un proveedor.
type CreateSupplierRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// SupplierResponse salida de un proveedor.
type SupplierResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func FromProduct(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:              p.ID,
		SKU:             p.SKU,
		Name:            p.Name,
		Cost:            p.Cost,
		ReorderPoint:    p.ReorderPoint,
		ReorderQuantity: p.ReorderQuantity,
		Active:          p.Active,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func FromLocation(l *entity.Location) LocationResponse {
	return LocationResponse{ID: l.ID, Code: l.Code, Name: l.Name, Active: l.Active, CreatedAt: l.CreatedAt}
}

func FromSupplier(s *entity.Supplier) SupplierResponse {
	return SupplierResponse{ID: s.ID, Name: s.Name, Active: s.Active, CreatedAt: s.CreatedAt}
}
