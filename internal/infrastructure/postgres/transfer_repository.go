package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

var (
	_ repository.StockTransferRepository = (*StockTransferRepo)(nil)
	_ repository.StockAlertRepository    = (*StockAlertRepo)(nil)
)

// StockTransferRepo transferencias entre ubicaciones.
type StockTransferRepo struct {
	q Querier
}

// NewStockTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockTransferRepository(q Querier) *StockTransferRepo {
	return &StockTransferRepo{q: q}
}

const transferColumns = `id, transfer_number, product_id, from_location_id, to_location_id, quantity, status, notes,
	initiated_by, COALESCE(received_by, ''), created_at, completed_at`

func (r *StockTransferRepo) get(ctx context.Context, id, suffix string) (*entity.StockTransfer, error) {
	var t entity.StockTransfer
	err := r.q.QueryRow(ctx, `SELECT `+transferColumns+` FROM stock_transfers WHERE id = $1`+suffix, id).Scan(
		&t.ID, &t.Number, &t.ProductID, &t.FromLocationID, &t.ToLocationID, &t.Quantity, &t.Status, &t.Notes,
		&t.InitiatedBy, &t.ReceivedBy, &t.CreatedAt, &t.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get stock transfer", err)
	}
	return &t, nil
}

// Create inserta la transferencia. Número duplicado → domain.ErrConflict.
func (r *StockTransferRepo) Create(ctx context.Context, t *entity.StockTransfer) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_transfers (id, transfer_number, product_id, from_location_id, to_location_id, quantity, status,
			notes, initiated_by, received_by, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, $12)`,
		t.ID, t.Number, t.ProductID, t.FromLocationID, t.ToLocationID, t.Quantity, t.Status,
		t.Notes, t.InitiatedBy, t.ReceivedBy, t.CreatedAt, t.CompletedAt)
	if err != nil {
		return mapError("insert stock transfer "+t.Number, err)
	}
	return nil
}

// GetByID obtiene la transferencia; nil si no existe.
func (r *StockTransferRepo) GetByID(ctx context.Context, id string) (*entity.StockTransfer, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate obtiene y bloquea la transferencia.
func (r *StockTransferRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockTransfer, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

// Update guarda estado, receptor y fecha de cierre.
func (r *StockTransferRepo) Update(ctx context.Context, t *entity.StockTransfer) error {
	_, err := r.q.Exec(ctx, `
		UPDATE stock_transfers SET status = $2, received_by = NULLIF($3, ''), completed_at = $4 WHERE id = $1`,
		t.ID, t.Status, t.ReceivedBy, t.CompletedAt)
	if err != nil {
		return mapError("update stock transfer", err)
	}
	return nil
}

// StockAlertRepo alertas de existencias.
type StockAlertRepo struct {
	q Querier
}

// NewStockAlertRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockAlertRepository(q Querier) *StockAlertRepo {
	return &StockAlertRepo{q: q}
}

const alertColumns = `id, product_id, location_id, alert_type, quantity, is_resolved, created_at, resolved_at`

func scanAlert(row pgx.Row, a *entity.StockAlert) error {
	return row.Scan(&a.ID, &a.ProductID, &a.LocationID, &a.Type, &a.Quantity, &a.Resolved, &a.CreatedAt, &a.ResolvedAt)
}

// FindOpen devuelve la alerta abierta del tipo para la clave, o nil.
func (r *StockAlertRepo) FindOpen(ctx context.Context, productID, locationID string, typ entity.AlertType) (*entity.StockAlert, error) {
	var a entity.StockAlert
	err := scanAlert(r.q.QueryRow(ctx, `SELECT `+alertColumns+` FROM stock_alerts
		WHERE product_id = $1 AND location_id = $2 AND alert_type = $3 AND NOT is_resolved`,
		productID, locationID, typ), &a)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find open alert: %w", err)
	}
	return &a, nil
}

// Create inserta la alerta; el índice parcial impide dos abiertas para la misma clave y tipo.
func (r *StockAlertRepo) Create(ctx context.Context, a *entity.StockAlert) error {
	_, err := r.q.Exec(ctx, `INSERT INTO stock_alerts (`+alertColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.ProductID, a.LocationID, a.Type, a.Quantity, a.Resolved, a.CreatedAt, a.ResolvedAt)
	if err != nil {
		return mapError("insert stock alert", err)
	}
	return nil
}

// GetByID obtiene la alerta; nil si no existe.
func (r *StockAlertRepo) GetByID(ctx context.Context, id string) (*entity.StockAlert, error) {
	var a entity.StockAlert
	if err := scanAlert(r.q.QueryRow(ctx, `SELECT `+alertColumns+` FROM stock_alerts WHERE id = $1`, id), &a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock alert: %w", err)
	}
	return &a, nil
}

// Resolve marca la alerta como resuelta.
func (r *StockAlertRepo) Resolve(ctx context.Context, id string, at time.Time) error {
	_, err := r.q.Exec(ctx, `UPDATE stock_alerts SET is_resolved = TRUE, resolved_at = $2 WHERE id = $1 AND NOT is_resolved`, id, at)
	if err != nil {
		return mapError("resolve stock alert", err)
	}
	return nil
}

// ListOpen alertas abiertas, más recientes primero.
func (r *StockAlertRepo) ListOpen(ctx context.Context, limit, offset int) ([]*entity.StockAlert, error) {
	var c conds
	query := `SELECT ` + alertColumns + ` FROM stock_alerts WHERE NOT is_resolved ORDER BY created_at DESC` +
		c.page(limit, offset)
	rows, err := r.q.Query(ctx, query, c.args...)
	if err != nil {
		return nil, fmt.Errorf("list open alerts: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockAlert
	for rows.Next() {
		var a entity.StockAlert
		if err := scanAlert(rows, &a); err != nil {
			return nil, fmt.Errorf("scan stock alert: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}
