package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

var _ repository.CatalogRepository = (*CatalogRepo)(nil)

// CatalogRepo altas y listados de productos, ubicaciones y proveedores.
type CatalogRepo struct {
	q Querier
}

// NewCatalogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCatalogRepository(q Querier) *CatalogRepo {
	return &CatalogRepo{q: q}
}

func catalogConds(f repository.CatalogFilter, searchExpr string) *conds {
	c := &conds{}
	if f.Search != "" {
		c.add(searchExpr, "%"+f.Search+"%")
	}
	if f.ActiveOnly {
		c.add("active = $%d", true)
	}
	return c
}

// CreateProduct inserta un producto. SKU duplicado → domain.ErrConflict.
func (r *CatalogRepo) CreateProduct(ctx context.Context, p *entity.Product) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO products (id, sku, name, cost, reorder_point, reorder_quantity, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.SKU, p.Name, p.Cost, p.ReorderPoint, p.ReorderQuantity, p.Active, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return mapError("create product "+p.SKU, err)
	}
	return nil
}

// UpdateProduct actualiza los campos editables; el costo solo cambia con compras.
func (r *CatalogRepo) UpdateProduct(ctx context.Context, p *entity.Product) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE products SET name = $2, reorder_point = $3, reorder_quantity = $4, active = $5, updated_at = $6
		WHERE id = $1`,
		p.ID, p.Name, p.ReorderPoint, p.ReorderQuantity, p.Active, p.UpdatedAt,
	)
	if err != nil {
		return mapError("update product", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: producto %s", domain.ErrNotFound, p.ID)
	}
	return nil
}

// ListProducts lista productos por SKU.
func (r *CatalogRepo) ListProducts(ctx context.Context, f repository.CatalogFilter) ([]*entity.Product, error) {
	c := catalogConds(f, "(name ILIKE $%[1]d OR sku ILIKE $%[1]d)")
	sql := `SELECT ` + productColumns + ` FROM products` + c.where() + ` ORDER BY sku`
	sql += c.page(f.Limit, f.Offset)
	rows, err := r.q.Query(ctx, sql, c.args...)
	if err != nil {
		return nil, mapError("list products", err)
	}
	defer rows.Close()
	var out []*entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Cost, &p.ReorderPoint, &p.ReorderQuantity, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// CreateLocation inserta una ubicación. Código duplicado → domain.ErrConflict.
func (r *CatalogRepo) CreateLocation(ctx context.Context, l *entity.Location) error {
	_, err := r.q.Exec(ctx, `INSERT INTO locations (id, code, name, active, created_at) VALUES ($1, $2, $3, $4, $5)`,
		l.ID, l.Code, l.Name, l.Active, l.CreatedAt)
	if err != nil {
		return mapError("create location "+l.Code, err)
	}
	return nil
}

// ListLocations lista ubicaciones por código.
func (r *CatalogRepo) ListLocations(ctx context.Context, f repository.CatalogFilter) ([]*entity.Location, error) {
	c := catalogConds(f, "(name ILIKE $%[1]d OR code ILIKE $%[1]d)")
	sql := `SELECT id, code, name, active, created_at FROM locations` + c.where() + ` ORDER BY code`
	sql += c.page(f.Limit, f.Offset)
	rows, err := r.q.Query(ctx, sql, c.args...)
	if err != nil {
		return nil, mapError("list locations", err)
	}
	defer rows.Close()
	var out []*entity.Location
	for rows.Next() {
		var l entity.Location
		if err := rows.Scan(&l.ID, &l.Code, &l.Name, &l.Active, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

// CreateSupplier inserta un proveedor.
func (r *CatalogRepo) CreateSupplier(ctx context.Context, s *entity.Supplier) error {
	_, err := r.q.Exec(ctx, `INSERT INTO suppliers (id, name, active, created_at) VALUES ($1, $2, $3, $4)`,
		s.ID, s.Name, s.Active, s.CreatedAt)
	if err != nil {
		return mapError("create supplier", err)
	}
	return nil
}

// ListSuppliers lista proveedores por nombre.
func (r *CatalogRepo) ListSuppliers(ctx context.Context, f repository.CatalogFilter) ([]*entity.Supplier, error) {
	c := catalogConds(f, "name ILIKE $%d")
	sql := `SELECT id, name, active, created_at FROM suppliers` + c.where() + ` ORDER BY name`
	sql += c.page(f.Limit, f.Offset)
	rows, err := r.q.Query(ctx, sql, c.args...)
	if err != nil {
		return nil, mapError("list suppliers", err)
	}
	defer rows.Close()
	var out []*entity.Supplier
	for rows.Next() {
		var s entity.Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.Active, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan supplier: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
