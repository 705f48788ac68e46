package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
)

var (
	_ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)
	_ repository.GoodsReceiptRepository  = (*GoodsReceiptRepo)(nil)
)

// PurchaseOrderRepo órdenes de compra con sus ítems.
type PurchaseOrderRepo struct {
	q Querier
}

// NewPurchaseOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

const orderColumns = `id, po_number, supplier_id, location_id, status, order_date, expected_delivery,
	actual_delivery, notes, created_by, created_at, updated_at`

func scanOrder(row pgx.Row, po *entity.PurchaseOrder) error {
	return row.Scan(&po.ID, &po.Number, &po.SupplierID, &po.LocationID, &po.Status, &po.OrderDate,
		&po.ExpectedDelivery, &po.ActualDelivery, &po.Notes, &po.CreatedBy, &po.CreatedAt, &po.UpdatedAt)
}

// Create inserta encabezado e ítems. Número duplicado → domain.ErrConflict.
func (r *PurchaseOrderRepo) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	query := `
		INSERT INTO purchase_orders (id, po_number, supplier_id, location_id, status, order_date, expected_delivery,
			actual_delivery, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		po.ID, po.Number, po.SupplierID, po.LocationID, po.Status, po.OrderDate, po.ExpectedDelivery,
		po.ActualDelivery, po.Notes, po.CreatedBy, po.CreatedAt, po.UpdatedAt,
	)
	if err != nil {
		return mapError("insert purchase order "+po.Number, err)
	}
	return r.insertItems(ctx, po.ID, po.Items)
}

func (r *PurchaseOrderRepo) insertItems(ctx context.Context, poID string, items []*entity.PurchaseOrderItem) error {
	query := `
		INSERT INTO purchase_order_items (id, purchase_order_id, position, product_id, quantity, unit_price, received_quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for i, it := range items {
		if _, err := r.q.Exec(ctx, query, it.ID, poID, i, it.ProductID, it.Quantity, it.UnitPrice, it.ReceivedQuantity); err != nil {
			return mapError("insert purchase order item", err)
		}
	}
	return nil
}

func (r *PurchaseOrderRepo) get(ctx context.Context, id, suffix string) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	err := scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM purchase_orders WHERE id = $1`+suffix, id), &po)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get purchase order", err)
	}
	if po.Items, err = r.items(ctx, po.ID); err != nil {
		return nil, err
	}
	return &po, nil
}

// GetByID obtiene la orden con ítems; nil si no existe.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.get(ctx, id, "")
}

// GetForUpdate bloquea el encabezado: serializa recepciones y transiciones de una misma orden.
func (r *PurchaseOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *PurchaseOrderRepo) items(ctx context.Context, poID string) ([]*entity.PurchaseOrderItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, purchase_order_id, product_id, quantity, unit_price, received_quantity
		FROM purchase_order_items WHERE purchase_order_id = $1 ORDER BY position`, poID)
	if err != nil {
		return nil, fmt.Errorf("list purchase order items: %w", err)
	}
	defer rows.Close()
	var list []*entity.PurchaseOrderItem
	for rows.Next() {
		var it entity.PurchaseOrderItem
		if err := rows.Scan(&it.ID, &it.PurchaseOrderID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.ReceivedQuantity); err != nil {
			return nil, fmt.Errorf("scan purchase order item: %w", err)
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}

// Update guarda encabezado y estado (los ítems tienen sus propios métodos).
func (r *PurchaseOrderRepo) Update(ctx context.Context, po *entity.PurchaseOrder) error {
	query := `
		UPDATE purchase_orders SET supplier_id = $2, location_id = $3, status = $4, expected_delivery = $5,
			actual_delivery = $6, notes = $7, updated_at = $8
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query, po.ID, po.SupplierID, po.LocationID, po.Status, po.ExpectedDelivery,
		po.ActualDelivery, po.Notes, po.UpdatedAt)
	if err != nil {
		return mapError("update purchase order", err)
	}
	return nil
}

// ReplaceItems reemplaza todas las líneas de la orden.
func (r *PurchaseOrderRepo) ReplaceItems(ctx context.Context, poID string, items []*entity.PurchaseOrderItem) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM purchase_order_items WHERE purchase_order_id = $1`, poID); err != nil {
		return mapError("delete purchase order items", err)
	}
	return r.insertItems(ctx, poID, items)
}

// UpdateItemReceived persiste la cantidad recibida acumulada de un ítem.
func (r *PurchaseOrderRepo) UpdateItemReceived(ctx context.Context, item *entity.PurchaseOrderItem) error {
	_, err := r.q.Exec(ctx, `UPDATE purchase_order_items SET received_quantity = $2 WHERE id = $1`,
		item.ID, item.ReceivedQuantity)
	if err != nil {
		return mapError("update received quantity", err)
	}
	return nil
}

// List lista órdenes (más recientes primero) con sus ítems.
func (r *PurchaseOrderRepo) List(ctx context.Context, f repository.PurchaseOrderFilter) ([]*entity.PurchaseOrder, error) {
	var c conds
	if f.Status != "" {
		c.add("status = $%d", f.Status)
	}
	if f.SupplierID != "" {
		c.add("supplier_id = $%d", f.SupplierID)
	}
	query := `SELECT ` + orderColumns + ` FROM purchase_orders` + c.where() +
		` ORDER BY created_at DESC, po_number` + c.page(f.Limit, f.Offset)
	rows, err := r.q.Query(ctx, query, c.args...)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	var list []*entity.PurchaseOrder
	for rows.Next() {
		var po entity.PurchaseOrder
		if err := scanOrder(rows, &po); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan purchase order: %w", err)
		}
		list = append(list, &po)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Los ítems se leen después de cerrar rows: una tx no admite dos consultas abiertas.
	for _, po := range list {
		if po.Items, err = r.items(ctx, po.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// GoodsReceiptRepo recepciones de mercancía con sus ítems.
type GoodsReceiptRepo struct {
	q Querier
}

// NewGoodsReceiptRepository construye el adaptador. Pasar pool o tx (Querier).
func NewGoodsReceiptRepository(q Querier) *GoodsReceiptRepo {
	return &GoodsReceiptRepo{q: q}
}

const receiptColumns = `id, receipt_number, purchase_order_id, received_date, received_by, notes, created_at`

func scanReceipt(row pgx.Row, gr *entity.GoodsReceipt) error {
	return row.Scan(&gr.ID, &gr.Number, &gr.PurchaseOrderID, &gr.ReceivedDate, &gr.ReceivedBy, &gr.Notes, &gr.CreatedAt)
}

// Create inserta la recepción y sus ítems. Número duplicado → domain.ErrConflict.
func (r *GoodsReceiptRepo) Create(ctx context.Context, gr *entity.GoodsReceipt) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO goods_receipts (`+receiptColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		gr.ID, gr.Number, gr.PurchaseOrderID, gr.ReceivedDate, gr.ReceivedBy, gr.Notes, gr.CreatedAt)
	if err != nil {
		return mapError("insert goods receipt "+gr.Number, err)
	}
	for i, it := range gr.Items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO goods_receipt_items (id, goods_receipt_id, position, po_item_id, product_id, quantity_received, over_received)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			it.ID, gr.ID, i, it.PurchaseOrderItemID, it.ProductID, it.QuantityReceived, it.OverReceived)
		if err != nil {
			return mapError("insert goods receipt item", err)
		}
	}
	return nil
}

// GetByID obtiene la recepción con ítems; nil si no existe.
func (r *GoodsReceiptRepo) GetByID(ctx context.Context, id string) (*entity.GoodsReceipt, error) {
	var gr entity.GoodsReceipt
	err := scanReceipt(r.q.QueryRow(ctx, `SELECT `+receiptColumns+` FROM goods_receipts WHERE id = $1`, id), &gr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get goods receipt: %w", err)
	}
	if gr.Items, err = r.items(ctx, gr.ID); err != nil {
		return nil, err
	}
	return &gr, nil
}

// ListByPurchaseOrder recepciones de una orden en orden de registro.
func (r *GoodsReceiptRepo) ListByPurchaseOrder(ctx context.Context, poID string) ([]*entity.GoodsReceipt, error) {
	rows, err := r.q.Query(ctx, `SELECT `+receiptColumns+` FROM goods_receipts
		WHERE purchase_order_id = $1 ORDER BY created_at, receipt_number`, poID)
	if err != nil {
		return nil, fmt.Errorf("list goods receipts: %w", err)
	}
	var list []*entity.GoodsReceipt
	for rows.Next() {
		var gr entity.GoodsReceipt
		if err := scanReceipt(rows, &gr); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan goods receipt: %w", err)
		}
		list = append(list, &gr)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, gr := range list {
		if gr.Items, err = r.items(ctx, gr.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (r *GoodsReceiptRepo) items(ctx context.Context, receiptID string) ([]*entity.GoodsReceiptItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, goods_receipt_id, po_item_id, product_id, quantity_received, over_received
		FROM goods_receipt_items WHERE goods_receipt_id = $1 ORDER BY position`, receiptID)
	if err != nil {
		return nil, fmt.Errorf("list goods receipt items: %w", err)
	}
	defer rows.Close()
	var list []*entity.GoodsReceiptItem
	for rows.Next() {
		var it entity.GoodsReceiptItem
		if err := rows.Scan(&it.ID, &it.GoodsReceiptID, &it.PurchaseOrderItemID, &it.ProductID,
			&it.QuantityReceived, &it.OverReceived); err != nil {
			return nil, fmt.Errorf("scan goods receipt item: %w", err)
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}
