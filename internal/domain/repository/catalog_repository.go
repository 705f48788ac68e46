package repository

import (
	"context"

	"github.com/jhoicas/stockledger/internal/domain/entity"
)

// CatalogRepository altas y listados de datos de referencia. Las lecturas puntuales dentro de una
// unidad de trabajo van por ProductRepository, LocationRepository y SupplierRepository.
type CatalogRepository interface {
	CreateProduct(ctx context.Context, p *entity.Product) error
	// UpdateProduct guarda nombre, punto de reorden y estado; nunca el costo.
	UpdateProduct(ctx context.Context, p *entity.Product) error
	ListProducts(ctx context.Context, filter CatalogFilter) ([]*entity.Product, error)
	CreateLocation(ctx context.Context, l *entity.Location) error
	ListLocations(ctx context.Context, filter CatalogFilter) ([]*entity.Location, error)
	CreateSupplier(ctx context.Context, s *entity.Supplier) error
	ListSuppliers(ctx context.Context, filter CatalogFilter) ([]*entity.Supplier, error)
}

// CatalogFilter Search compara sin mayúsculas contra nombre y código (SKU o código de ubicación).
type CatalogFilter struct {
	Search     string
	ActiveOnly bool
	Limit      int
	Offset     int
}
