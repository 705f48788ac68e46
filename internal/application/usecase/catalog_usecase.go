package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/access"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// CatalogUseCase altas y consultas de productos, ubicaciones y proveedores.
// Costo y existencias no se editan aquí: se mueven con transacciones.
type CatalogUseCase struct {
	catalog repository.CatalogRepository
	repos   repository.UnitOfWork
	audit   audit.Recorder
	now     func() time.Time
}

// NewCatalogUseCase construye el caso de uso.
func NewCatalogUseCase(catalog repository.CatalogRepository, repos repository.UnitOfWork, auditor audit.Recorder) *CatalogUseCase {
	return &CatalogUseCase{catalog: catalog, repos: repos, audit: auditor, now: time.Now}
}

// CreateProduct crea un producto activo. Cost inicia en 0.
func (uc *CatalogUseCase) CreateProduct(ctx context.Context, actor entity.Actor, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if err := access.Require(actor.Role, access.CreateProducts); err != nil {
		return nil, err
	}
	sku := strings.TrimSpace(in.SKU)
	name := strings.TrimSpace(in.Name)
	if sku == "" || name == "" {
		return nil, domain.Validationf("SKU y nombre son obligatorios")
	}
	if in.ReorderPoint < 0 || in.ReorderQuantity < 0 {
		return nil, domain.Validationf("el punto y la cantidad de reorden no pueden ser negativos")
	}
	now := uc.now().UTC()
	product := &entity.Product{
		ID:              uuid.New().String(),
		SKU:             sku,
		Name:            name,
		Cost:            decimal.Zero,
		ReorderPoint:    in.ReorderPoint,
		ReorderQuantity: in.ReorderQuantity,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.catalog.CreateProduct(ctx, product); err != nil {
		return nil, err
	}
	uc.audit.Record(ctx, audit.Entry{
		Actor:       actor,
		Action:      entity.AuditCreate,
		ModelName:   "Product",
		ObjectID:    product.ID,
		ObjectRepr:  product.SKU,
		Description: fmt.Sprintf("Producto %s creado", product.SKU),
	})
	out := dto.FromProduct(product)
	return &out, nil
}

// GetProduct obtiene un producto por ID.
func (uc *CatalogUseCase) GetProduct(ctx context.Context, actor entity.Actor, id string) (*dto.ProductResponse, error) {
	if err := access.Require(actor.Role, access.ViewProducts); err != nil {
		return nil, err
	}
	product, err := uc.repos.Products().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
	}
	out := dto.FromProduct(product)
	return &out, nil
}

// UpdateProduct actualiza un producto. No permite modificar Cost (se maneja vía compras).
func (uc *CatalogUseCase) UpdateProduct(ctx context.Context, actor entity.Actor, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if err := access.Require(actor.Role, access.EditProducts); err != nil {
		return nil, err
	}
	product, err := uc.repos.Products().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: producto %s", domain.ErrNotFound, id)
	}
	before := map[string]any{"name": product.Name, "reorder_point": product.ReorderPoint, "reorder_quantity": product.ReorderQuantity, "active": product.Active}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.Validationf("el nombre no puede quedar vacío")
		}
		product.Name = name
	}
	if in.ReorderPoint != nil {
		if *in.ReorderPoint < 0 {
			return nil, domain.Validationf("el punto de reorden no puede ser negativo")
		}
		product.ReorderPoint = *in.ReorderPoint
	}
	if in.ReorderQuantity != nil {
		if *in.ReorderQuantity < 0 {
			return nil, domain.Validationf("la cantidad de reorden no puede ser negativa")
		}
		product.ReorderQuantity = *in.ReorderQuantity
	}
	if in.Active != nil {
		product.Active = *in.Active
	}
	product.UpdatedAt = uc.now().UTC()
	if err := uc.catalog.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}
	uc.audit.Record(ctx, audit.Entry{
		Actor:       actor,
		Action:      entity.AuditUpdate,
		ModelName:   "Product",
		ObjectID:    product.ID,
		ObjectRepr:  product.SKU,
		Description: fmt.Sprintf("Producto %s actualizado", product.SKU),
		Changes: map[string]any{
			"before": before,
			"after":  map[string]any{"name": product.Name, "reorder_point": product.ReorderPoint, "reorder_quantity": product.ReorderQuantity, "active": product.Active},
		},
	})
	out := dto.FromProduct(product)
	return &out, nil
}

// ListProducts lista productos con paginación.
func (uc *CatalogUseCase) ListProducts(ctx context.Context, actor entity.Actor, search string, activeOnly bool, page dto.PageRequest) (*dto.ProductListResponse, error) {
	if err := access.Require(actor.Role, access.ViewProducts); err != nil {
		return nil, err
	}
	page.DefaultPage()
	list, err := uc.catalog.ListProducts(ctx, repository.CatalogFilter{
		Search: strings.TrimSpace(search), ActiveOnly: activeOnly, Limit: page.Limit, Offset: page.Offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, dto.FromProduct(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// CreateLocation crea una ubicación activa.
func (uc *CatalogUseCase) CreateLocation(ctx context.Context, actor entity.Actor, in dto.CreateLocationRequest) (*dto.LocationResponse, error) {
	if err := access.Require(actor.Role, access.ManageLocations); err != nil {
		return nil, err
	}
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	name := strings.TrimSpace(in.Name)
	if code == "" || name == "" {
		return nil, domain.Validationf("código y nombre son obligatorios")
	}
	location := &entity.Location{
		ID:        uuid.New().String(),
		Code:      code,
		Name:      name,
		Active:    true,
		CreatedAt: uc.now().UTC(),
	}
	if err := uc.catalog.CreateLocation(ctx, location); err != nil {
		return nil, err
	}
	uc.audit.Record(ctx, audit.Entry{
		Actor:       actor,
		Action:      entity.AuditCreate,
		ModelName:   "Location",
		ObjectID:    location.ID,
		ObjectRepr:  location.Code,
		Description: fmt.Sprintf("Ubicación %s creada", location.Code),
	})
	out := dto.FromLocation(location)
	return &out, nil
}

// ListLocations lista ubicaciones. Visible para quien puede ver existencias.
func (uc *CatalogUseCase) ListLocations(ctx context.Context, actor entity.Actor, search string, page dto.PageRequest) ([]dto.LocationResponse, error) {
	if err := access.Require(actor.Role, access.ViewStock); err != nil {
		return nil, err
	}
	page.DefaultPage()
	list, err := uc.catalog.ListLocations(ctx, repository.CatalogFilter{Search: strings.TrimSpace(search), Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		return nil, err
	}
	out := make([]dto.LocationResponse, 0, len(list))
	for _, l := range list {
		out = append(out, dto.FromLocation(l))
	}
	return out, nil
}

// CreateSupplier crea un proveedor activo.
func (uc *CatalogUseCase) CreateSupplier(ctx context.Context, actor entity.Actor, in dto.CreateSupplierRequest) (*dto.SupplierResponse, error) {
	if err := access.Require(actor.Role, access.CreateSuppliers); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Validationf("el nombre del proveedor es obligatorio")
	}
	supplier := &entity.Supplier{ID: uuid.New().String(), Name: name, Active: true, CreatedAt: uc.now().UTC()}
	if err := uc.catalog.CreateSupplier(ctx, supplier); err != nil {
		return nil, err
	}
	uc.audit.Record(ctx, audit.Entry{
		Actor:       actor,
		Action:      entity.AuditCreate,
		ModelName:   "Supplier",
		ObjectID:    supplier.ID,
		ObjectRepr:  supplier.Name,
		Description: fmt.Sprintf("Proveedor %s creado", supplier.Name),
	})
	out := dto.FromSupplier(supplier)
	return &out, nil
}

// ListSuppliers lista proveedores.
func (uc *CatalogUseCase) ListSuppliers(ctx context.Context, actor entity.Actor, search string, page dto.PageRequest) ([]dto.SupplierResponse, error) {
	if err := access.Require(actor.Role, access.ViewSuppliers); err != nil {
		return nil, err
	}
	page.DefaultPage()
	list, err := uc.catalog.ListSuppliers(ctx, repository.CatalogFilter{Search: strings.TrimSpace(search), Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		return nil, err
	}
	out := make([]dto.SupplierResponse, 0, len(list))
	for _, s := range list {
		out = append(out, dto.FromSupplier(s))
	}
	return out, nil
}
