package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

type costUpdate struct {
	cost decimal.Decimal
	at   time.Time
}

// unitOfWork escrituras preparadas y bloqueos tomados. Las lecturas ven primero lo preparado.
// En modo auto cada escritura se confirma al instante y no se toman bloqueos.
type unitOfWork struct {
	s    *Store
	auto bool

	held []string

	levels       map[levelKey]entity.StockLevel
	txs          []entity.Transaction
	orders       map[string]*entity.PurchaseOrder
	newOrders    map[string]bool
	receipts     []*entity.GoodsReceipt
	transfers    map[string]entity.StockTransfer
	newTransfers map[string]bool
	alerts       map[string]entity.StockAlert
	costs        map[string]costUpdate
}

var _ repository.UnitOfWork = (*unitOfWork)(nil)

func newUnitOfWork(s *Store, auto bool) *unitOfWork {
	u := &unitOfWork{s: s, auto: auto}
	u.reset()
	return u
}

func (u *unitOfWork) reset() {
	u.levels = make(map[levelKey]entity.StockLevel)
	u.txs = nil
	u.orders = make(map[string]*entity.PurchaseOrder)
	u.newOrders = make(map[string]bool)
	u.receipts = nil
	u.transfers = make(map[string]entity.StockTransfer)
	u.newTransfers = make(map[string]bool)
	u.alerts = make(map[string]entity.StockAlert)
	u.costs = make(map[string]costUpdate)
}

// written confirma de inmediato en modo auto.
func (u *unitOfWork) written() error {
	if !u.auto {
		return nil
	}
	err := u.s.commit(u)
	u.reset()
	return err
}

func (u *unitOfWork) lock(ctx context.Context, key string) error {
	if u.auto {
		return nil
	}
	for _, h := range u.held {
		if h == key {
			return nil
		}
	}
	if err := u.s.locks.acquire(ctx, key, u.s.lockTimeout); err != nil {
		return err
	}
	u.held = append(u.held, key)
	return nil
}

func (u *unitOfWork) release() {
	for i := len(u.held) - 1; i >= 0; i-- {
		u.s.locks.release(u.held[i])
	}
	u.held = nil
}

func (u *unitOfWork) Stock() repository.StockLevelRepository             { return stockRepo{u} }
func (u *unitOfWork) Transactions() repository.TransactionRepository     { return transactionRepo{u} }
func (u *unitOfWork) PurchaseOrders() repository.PurchaseOrderRepository { return orderRepo{u} }
func (u *unitOfWork) Receipts() repository.GoodsReceiptRepository        { return receiptRepo{u} }
func (u *unitOfWork) Transfers() repository.StockTransferRepository      { return transferRepo{u} }
func (u *unitOfWork) Alerts() repository.StockAlertRepository            { return alertRepo{u} }
func (u *unitOfWork) Products() repository.ProductRepository             { return productRepo{u} }
func (u *unitOfWork) Locations() repository.LocationRepository           { return locationRepo{u} }
func (u *unitOfWork) Suppliers() repository.SupplierRepository           { return supplierRepo{u} }

// ── Existencias ──────────────────────────────────────────────────────────────

type stockRepo struct{ u *unitOfWork }

func (r stockRepo) current(productID, locationID string) entity.StockLevel {
	k := levelKey{productID, locationID}
	if l, ok := r.u.levels[k]; ok {
		return l
	}
	r.u.s.mu.RLock()
	defer r.u.s.mu.RUnlock()
	if l, ok := r.u.s.levels[k]; ok {
		return l
	}
	return entity.StockLevel{ProductID: productID, LocationID: locationID}
}

func (r stockRepo) Get(_ context.Context, productID, locationID string) (*entity.StockLevel, error) {
	l := r.current(productID, locationID)
	return &l, nil
}

func (r stockRepo) GetForUpdate(ctx context.Context, productID, locationID string) (*entity.StockLevel, error) {
	if err := r.u.lock(ctx, "stock:"+productID+":"+locationID); err != nil {
		return nil, err
	}
	l := r.current(productID, locationID)
	return &l, nil
}

func (r stockRepo) Save(_ context.Context, level *entity.StockLevel) error {
	if level.ReservedQuantity < 0 {
		return fmt.Errorf("%w: cantidad reservada negativa", domain.ErrValidation)
	}
	r.u.levels[levelKey{level.ProductID, level.LocationID}] = *level
	return r.u.written()
}

func (r stockRepo) all() []entity.StockLevel {
	merged := make(map[levelKey]entity.StockLevel)
	r.u.s.mu.RLock()
	for k, l := range r.u.s.levels {
		merged[k] = l
	}
	r.u.s.mu.RUnlock()
	for k, l := range r.u.levels {
		merged[k] = l
	}
	out := make([]entity.StockLevel, 0, len(merged))
	for _, l := range merged {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].LocationID < out[j].LocationID
	})
	return out
}

func (r stockRepo) List(_ context.Context, f repository.StockLevelFilter) ([]*entity.StockLevel, error) {
	var out []*entity.StockLevel
	for _, l := range r.all() {
		if f.ProductID != "" && l.ProductID != f.ProductID {
			continue
		}
		if f.LocationID != "" && l.LocationID != f.LocationID {
			continue
		}
		out = append(out, &l)
	}
	return paginate(out, f.Limit, f.Offset), nil
}

func (r stockRepo) SumByProduct(_ context.Context, productID string) (entity.ProductStock, error) {
	sum := entity.ProductStock{ProductID: productID}
	for _, l := range r.all() {
		if l.ProductID == productID {
			sum.Quantity += l.Quantity
			sum.ReservedQuantity += l.ReservedQuantity
		}
	}
	return sum, nil
}

// ── Transacciones ────────────────────────────────────────────────────────────

type transactionRepo struct{ u *unitOfWork }

func (r transactionRepo) Create(_ context.Context, tx *entity.Transaction) error {
	r.u.txs = append(r.u.txs, cloneTransaction(*tx))
	return r.u.written()
}

func (r transactionRepo) all() []entity.Transaction {
	r.u.s.mu.RLock()
	out := make([]entity.Transaction, 0, len(r.u.s.txs)+len(r.u.txs))
	out = append(out, r.u.s.txs...)
	r.u.s.mu.RUnlock()
	return append(out, r.u.txs...)
}

func (r transactionRepo) GetByID(_ context.Context, id string) (*entity.Transaction, error) {
	for _, t := range r.all() {
		if t.ID == id {
			c := cloneTransaction(t)
			return &c, nil
		}
	}
	return nil, nil
}

func (r transactionRepo) List(_ context.Context, f repository.TransactionFilter) ([]*entity.Transaction, error) {
	all := r.all()
	sort.Slice(all, func(i, j int) bool { return all[i].Sequence > all[j].Sequence })
	var out []*entity.Transaction
	for _, t := range all {
		switch {
		case f.ProductID != "" && t.ProductID != f.ProductID,
			f.LocationID != "" && t.LocationID != f.LocationID,
			f.Type != "" && t.Type != f.Type,
			f.Reference != "" && t.Reference != f.Reference,
			f.From != nil && t.CreatedAt.Before(*f.From),
			f.To != nil && !t.CreatedAt.Before(*f.To):
			continue
		}
		c := cloneTransaction(t)
		out = append(out, &c)
	}
	return paginate(out, f.Limit, f.Offset), nil
}

// ── Órdenes de compra y recepciones ──────────────────────────────────────────

type orderRepo struct{ u *unitOfWork }

func (r orderRepo) find(id string) *entity.PurchaseOrder {
	if o, ok := r.u.orders[id]; ok {
		return cloneOrder(o)
	}
	r.u.s.mu.RLock()
	defer r.u.s.mu.RUnlock()
	if o, ok := r.u.s.orders[id]; ok {
		return cloneOrder(o)
	}
	return nil
}

func (r orderRepo) Create(_ context.Context, po *entity.PurchaseOrder) error {
	r.u.s.mu.RLock()
	_, exists := r.u.s.orders[po.ID]
	r.u.s.mu.RUnlock()
	if exists {
		return fmt.Errorf("%w: la orden %s ya existe", domain.ErrConflict, po.ID)
	}
	r.u.orders[po.ID] = cloneOrder(po)
	r.u.newOrders[po.ID] = true
	return r.u.written()
}

func (r orderRepo) GetByID(_ context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.find(id), nil
}

func (r orderRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	if err := r.u.lock(ctx, "po:"+id); err != nil {
		return nil, err
	}
	return r.find(id), nil
}

func (r orderRepo) Update(_ context.Context, po *entity.PurchaseOrder) error {
	current := r.find(po.ID)
	if current == nil {
		return domain.NotFoundf("orden de compra %s", po.ID)
	}
	next := cloneOrder(po)
	next.Items = current.Items
	r.u.orders[po.ID] = next
	return r.u.written()
}

func (r orderRepo) ReplaceItems(_ context.Context, poID string, items []*entity.PurchaseOrderItem) error {
	current := r.find(poID)
	if current == nil {
		return domain.NotFoundf("orden de compra %s", poID)
	}
	current.Items = cloneItems(items)
	r.u.orders[poID] = current
	return r.u.written()
}

func (r orderRepo) UpdateItemReceived(_ context.Context, item *entity.PurchaseOrderItem) error {
	current := r.find(item.PurchaseOrderID)
	if current == nil {
		return domain.NotFoundf("orden de compra %s", item.PurchaseOrderID)
	}
	it := current.Item(item.ID)
	if it == nil {
		return domain.NotFoundf("ítem %s", item.ID)
	}
	if item.ReceivedQuantity < it.ReceivedQuantity {
		return domain.Validationf("la cantidad recibida no puede disminuir")
	}
	it.ReceivedQuantity = item.ReceivedQuantity
	r.u.orders[current.ID] = current
	return r.u.written()
}

func (r orderRepo) List(_ context.Context, f repository.PurchaseOrderFilter) ([]*entity.PurchaseOrder, error) {
	merged := make(map[string]*entity.PurchaseOrder)
	r.u.s.mu.RLock()
	for id, o := range r.u.s.orders {
		merged[id] = cloneOrder(o)
	}
	r.u.s.mu.RUnlock()
	for id, o := range r.u.orders {
		merged[id] = cloneOrder(o)
	}
	var out []*entity.PurchaseOrder
	for _, o := range merged {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.SupplierID != "" && o.SupplierID != f.SupplierID {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, f.Limit, f.Offset), nil
}

type receiptRepo struct{ u *unitOfWork }

func (r receiptRepo) Create(_ context.Context, receipt *entity.GoodsReceipt) error {
	r.u.receipts = append(r.u.receipts, cloneReceipt(receipt))
	return r.u.written()
}

func (r receiptRepo) all() []*entity.GoodsReceipt {
	r.u.s.mu.RLock()
	out := make([]*entity.GoodsReceipt, 0, len(r.u.s.receipts)+len(r.u.receipts))
	for _, rc := range r.u.s.receipts {
		out = append(out, cloneReceipt(rc))
	}
	r.u.s.mu.RUnlock()
	for _, rc := range r.u.receipts {
		out = append(out, cloneReceipt(rc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r receiptRepo) GetByID(_ context.Context, id string) (*entity.GoodsReceipt, error) {
	for _, rc := range r.all() {
		if rc.ID == id {
			return rc, nil
		}
	}
	return nil, nil
}

func (r receiptRepo) ListByPurchaseOrder(_ context.Context, poID string) ([]*entity.GoodsReceipt, error) {
	var out []*entity.GoodsReceipt
	for _, rc := range r.all() {
		if rc.PurchaseOrderID == poID {
			out = append(out, rc)
		}
	}
	return out, nil
}

// ── Transferencias y alertas ─────────────────────────────────────────────────

type transferRepo struct{ u *unitOfWork }

func (r transferRepo) find(id string) *entity.StockTransfer {
	if t, ok := r.u.transfers[id]; ok {
		return &t
	}
	r.u.s.mu.RLock()
	defer r.u.s.mu.RUnlock()
	if t, ok := r.u.s.transfers[id]; ok {
		return &t
	}
	return nil
}

func (r transferRepo) Create(_ context.Context, t *entity.StockTransfer) error {
	r.u.transfers[t.ID] = *t
	r.u.newTransfers[t.ID] = true
	return r.u.written()
}

func (r transferRepo) GetByID(_ context.Context, id string) (*entity.StockTransfer, error) {
	return r.find(id), nil
}

func (r transferRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockTransfer, error) {
	if err := r.u.lock(ctx, "transfer:"+id); err != nil {
		return nil, err
	}
	return r.find(id), nil
}

func (r transferRepo) Update(_ context.Context, t *entity.StockTransfer) error {
	if r.find(t.ID) == nil {
		return domain.NotFoundf("transferencia %s", t.ID)
	}
	r.u.transfers[t.ID] = *t
	return r.u.written()
}

type alertRepo struct{ u *unitOfWork }

func (r alertRepo) all() []entity.StockAlert {
	merged := make(map[string]entity.StockAlert)
	r.u.s.mu.RLock()
	for id, a := range r.u.s.alerts {
		merged[id] = a
	}
	r.u.s.mu.RUnlock()
	for id, a := range r.u.alerts {
		merged[id] = a
	}
	out := make([]entity.StockAlert, 0, len(merged))
	for _, a := range merged {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r alertRepo) FindOpen(_ context.Context, productID, locationID string, typ entity.AlertType) (*entity.StockAlert, error) {
	for _, a := range r.all() {
		if !a.Resolved && a.ProductID == productID && a.LocationID == locationID && a.Type == typ {
			return &a, nil
		}
	}
	return nil, nil
}

func (r alertRepo) Create(_ context.Context, a *entity.StockAlert) error {
	r.u.alerts[a.ID] = *a
	return r.u.written()
}

func (r alertRepo) GetByID(_ context.Context, id string) (*entity.StockAlert, error) {
	for _, a := range r.all() {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, nil
}

func (r alertRepo) Resolve(ctx context.Context, id string, at time.Time) error {
	a, _ := r.GetByID(ctx, id)
	if a == nil {
		return domain.NotFoundf("alerta %s", id)
	}
	a.Resolved = true
	a.ResolvedAt = &at
	r.u.alerts[id] = *a
	return r.u.written()
}

func (r alertRepo) ListOpen(_ context.Context, limit, offset int) ([]*entity.StockAlert, error) {
	var out []*entity.StockAlert
	for _, a := range r.all() {
		if !a.Resolved {
			out = append(out, &a)
		}
	}
	return paginate(out, limit, offset), nil
}

// ── Datos de referencia ──────────────────────────────────────────────────────

type productRepo struct{ u *unitOfWork }

func (r productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.u.s.mu.RLock()
	p, ok := r.u.s.products[id]
	r.u.s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if c, staged := r.u.costs[id]; staged {
		p.Cost = c.cost
		p.UpdatedAt = c.at
	}
	return &p, nil
}

func (r productRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	if err := r.u.lock(ctx, "product:"+id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r productRepo) UpdateCost(_ context.Context, productID string, cost decimal.Decimal) error {
	r.u.costs[productID] = costUpdate{cost: cost, at: time.Now().UTC()}
	return r.u.written()
}

type locationRepo struct{ u *unitOfWork }

func (r locationRepo) GetByID(_ context.Context, id string) (*entity.Location, error) {
	r.u.s.mu.RLock()
	defer r.u.s.mu.RUnlock()
	if l, ok := r.u.s.locations[id]; ok {
		return &l, nil
	}
	return nil, nil
}

type supplierRepo struct{ u *unitOfWork }

func (r supplierRepo) GetByID(_ context.Context, id string) (*entity.Supplier, error) {
	r.u.s.mu.RLock()
	defer r.u.s.mu.RUnlock()
	if s, ok := r.u.s.suppliers[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
