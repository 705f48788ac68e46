package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

var _ repository.StockLevelRepository = (*StockLevelRepo)(nil)

// StockLevelRepo implementación de StockLevelRepository sobre PostgreSQL (usable con pool o tx).
type StockLevelRepo struct {
	q Querier
}

// NewStockLevelRepository construye el adaptador de existencias. Pasar pool o tx (Querier).
func NewStockLevelRepository(q Querier) *StockLevelRepo {
	return &StockLevelRepo{q: q}
}

const stockColumns = `product_id, location_id, quantity, reserved_quantity, updated_at`

func scanLevel(row pgx.Row, l *entity.StockLevel) error {
	return row.Scan(&l.ProductID, &l.LocationID, &l.Quantity, &l.ReservedQuantity, &l.UpdatedAt)
}

// Get obtiene la existencia de un producto en una ubicación; cero si la fila no existe.
func (r *StockLevelRepo) Get(ctx context.Context, productID, locationID string) (*entity.StockLevel, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_levels WHERE product_id = $1 AND location_id = $2`
	var l entity.StockLevel
	if err := scanLevel(r.q.QueryRow(ctx, query, productID, locationID), &l); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockLevel{ProductID: productID, LocationID: locationID}, nil
		}
		return nil, fmt.Errorf("get stock level: %w", err)
	}
	return &l, nil
}

// GetForUpdate crea la fila en cero si falta y la bloquea (SELECT FOR UPDATE) hasta el fin de la tx.
func (r *StockLevelRepo) GetForUpdate(ctx context.Context, productID, locationID string) (*entity.StockLevel, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_levels (product_id, location_id, quantity, reserved_quantity, updated_at)
		VALUES ($1, $2, 0, 0, now())
		ON CONFLICT (product_id, location_id) DO NOTHING`, productID, locationID)
	if err != nil {
		return nil, mapError("ensure stock level", err)
	}
	query := `SELECT ` + stockColumns + ` FROM stock_levels WHERE product_id = $1 AND location_id = $2 FOR UPDATE`
	var l entity.StockLevel
	if err := scanLevel(r.q.QueryRow(ctx, query, productID, locationID), &l); err != nil {
		return nil, mapError("lock stock level", err)
	}
	return &l, nil
}

// Save persiste cantidad y reserva (por producto y ubicación).
func (r *StockLevelRepo) Save(ctx context.Context, level *entity.StockLevel) error {
	query := `
		INSERT INTO stock_levels (product_id, location_id, quantity, reserved_quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (product_id, location_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, reserved_quantity = EXCLUDED.reserved_quantity,
		              updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query, level.ProductID, level.LocationID, level.Quantity, level.ReservedQuantity, level.UpdatedAt)
	if err != nil {
		return mapError("save stock level", err)
	}
	return nil
}

// List lista existencias filtrando por producto y/o ubicación.
func (r *StockLevelRepo) List(ctx context.Context, f repository.StockLevelFilter) ([]*entity.StockLevel, error) {
	var c conds
	if f.ProductID != "" {
		c.add("product_id = $%d", f.ProductID)
	}
	if f.LocationID != "" {
		c.add("location_id = $%d", f.LocationID)
	}
	query := `SELECT ` + stockColumns + ` FROM stock_levels` + c.where() +
		` ORDER BY product_id, location_id` + c.page(f.Limit, f.Offset)
	rows, err := r.q.Query(ctx, query, c.args...)
	if err != nil {
		return nil, fmt.Errorf("list stock levels: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockLevel
	for rows.Next() {
		var l entity.StockLevel
		if err := scanLevel(rows, &l); err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// SumByProduct totaliza cantidad y reserva de un producto en todas las ubicaciones.
func (r *StockLevelRepo) SumByProduct(ctx context.Context, productID string) (entity.ProductStock, error) {
	s := entity.ProductStock{ProductID: productID}
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0), COALESCE(SUM(reserved_quantity), 0)
		FROM stock_levels WHERE product_id = $1`, productID).Scan(&s.Quantity, &s.ReservedQuantity)
	if err != nil {
		return s, fmt.Errorf("sum stock by product: %w", err)
	}
	return s, nil
}
