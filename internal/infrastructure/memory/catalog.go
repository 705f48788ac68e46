package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

// Catalog repositorio de datos de referencia sobre el store.
func (s *Store) Catalog() repository.CatalogRepository { return catalogRepo{s} }

type catalogRepo struct{ s *Store }

func matches(f repository.CatalogFilter, active bool, fields ...string) bool {
	if f.ActiveOnly && !active {
		return false
	}
	if f.Search == "" {
		return true
	}
	needle := strings.ToLower(f.Search)
	for _, v := range fields {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

func (r catalogRepo) CreateProduct(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.products {
		if strings.EqualFold(existing.SKU, p.SKU) {
			return fmt.Errorf("%w: el SKU %s ya existe", domain.ErrConflict, p.SKU)
		}
	}
	r.s.products[p.ID] = *p
	return nil
}

func (r catalogRepo) UpdateProduct(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.products[p.ID]
	if !ok {
		return fmt.Errorf("%w: producto %s", domain.ErrNotFound, p.ID)
	}
	current.Name = p.Name
	current.ReorderPoint = p.ReorderPoint
	current.ReorderQuantity = p.ReorderQuantity
	current.Active = p.Active
	current.UpdatedAt = p.UpdatedAt
	r.s.products[p.ID] = current
	return nil
}

func (r catalogRepo) ListProducts(_ context.Context, f repository.CatalogFilter) ([]*entity.Product, error) {
	r.s.mu.RLock()
	out := make([]*entity.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		if matches(f, p.Active, p.Name, p.SKU) {
			out = append(out, &p)
		}
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return paginate(out, f.Limit, f.Offset), nil
}

func (r catalogRepo) CreateLocation(_ context.Context, l *entity.Location) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.locations {
		if strings.EqualFold(existing.Code, l.Code) {
			return fmt.Errorf("%w: la ubicación %s ya existe", domain.ErrConflict, l.Code)
		}
	}
	r.s.locations[l.ID] = *l
	return nil
}

func (r catalogRepo) ListLocations(_ context.Context, f repository.CatalogFilter) ([]*entity.Location, error) {
	r.s.mu.RLock()
	out := make([]*entity.Location, 0, len(r.s.locations))
	for _, l := range r.s.locations {
		if matches(f, l.Active, l.Name, l.Code) {
			out = append(out, &l)
		}
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return paginate(out, f.Limit, f.Offset), nil
}

func (r catalogRepo) CreateSupplier(_ context.Context, sp *entity.Supplier) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.suppliers[sp.ID] = *sp
	return nil
}

func (r catalogRepo) ListSuppliers(_ context.Context, f repository.CatalogFilter) ([]*entity.Supplier, error) {
	r.s.mu.RLock()
	out := make([]*entity.Supplier, 0, len(r.s.suppliers))
	for _, sp := range r.s.suppliers {
		if matches(f, sp.Active, sp.Name) {
			out = append(out, &sp)
		}
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, f.Limit, f.Offset), nil
}
