package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

// TransactionRepo historial inmutable de transacciones (solo INSERT y SELECT).
type TransactionRepo struct {
	q Querier
}

// NewTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransactionRepository(q Querier) *TransactionRepo {
	return &TransactionRepo{q: q}
}

const transactionColumns = `id, sequence, type, product_id, location_id, quantity, direction, unit_price,
	reference, notes, COALESCE(created_by, ''), quantity_before, quantity_after, created_at`

func scanTransaction(row pgx.Row, t *entity.Transaction) error {
	return row.Scan(&t.ID, &t.Sequence, &t.Type, &t.ProductID, &t.LocationID, &t.Quantity, &t.Direction,
		&t.UnitPrice, &t.Reference, &t.Notes, &t.CreatedBy, &t.QuantityBefore, &t.QuantityAfter, &t.CreatedAt)
}

// Create inserta la transacción.
func (r *TransactionRepo) Create(ctx context.Context, t *entity.Transaction) error {
	query := `
		INSERT INTO inventory_transactions (id, sequence, type, product_id, location_id, quantity, direction, unit_price,
			reference, notes, created_by, quantity_before, quantity_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.Sequence, t.Type, t.ProductID, t.LocationID, t.Quantity, t.Direction, t.UnitPrice,
		t.Reference, t.Notes, t.CreatedBy, t.QuantityBefore, t.QuantityAfter, t.CreatedAt,
	)
	if err != nil {
		return mapError("insert transaction", err)
	}
	return nil
}

// GetByID obtiene una transacción; nil si no existe.
func (r *TransactionRepo) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	var t entity.Transaction
	err := scanTransaction(r.q.QueryRow(ctx, `SELECT `+transactionColumns+` FROM inventory_transactions WHERE id = $1`, id), &t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return &t, nil
}

// List historial filtrado, más reciente primero.
func (r *TransactionRepo) List(ctx context.Context, f repository.TransactionFilter) ([]*entity.Transaction, error) {
	var c conds
	if f.ProductID != "" {
		c.add("product_id = $%d", f.ProductID)
	}
	if f.LocationID != "" {
		c.add("location_id = $%d", f.LocationID)
	}
	if f.Type != "" {
		c.add("type = $%d", f.Type)
	}
	if f.Reference != "" {
		c.add("reference = $%d", f.Reference)
	}
	if f.From != nil {
		c.add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		c.add("created_at < $%d", *f.To)
	}
	query := `SELECT ` + transactionColumns + ` FROM inventory_transactions` + c.where() +
		` ORDER BY sequence DESC` + c.page(f.Limit, f.Offset)
	rows, err := r.q.Query(ctx, query, c.args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	var list []*entity.Transaction
	for rows.Next() {
		var t entity.Transaction
		if err := scanTransaction(rows, &t); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}
