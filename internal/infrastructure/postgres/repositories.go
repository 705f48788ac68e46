package postgres

import "github.com/jhoicas/stockledger/internal/domain/repository"

var _ repository.UnitOfWork = (*Repositories)(nil)

// Repositories agrupa los adaptadores sobre un mismo Querier: la tx dentro de TxRunner.Run,
// o el pool para lecturas.
type Repositories struct {
	q Querier
}

// NewRepositories construye la unidad de trabajo sobre q.
func NewRepositories(q Querier) *Repositories {
	return &Repositories{q: q}
}

func (r *Repositories) Stock() repository.StockLevelRepository { return NewStockLevelRepository(r.q) }
func (r *Repositories) Transactions() repository.TransactionRepository {
	return NewTransactionRepository(r.q)
}
func (r *Repositories) PurchaseOrders() repository.PurchaseOrderRepository {
	return NewPurchaseOrderRepository(r.q)
}
func (r *Repositories) Receipts() repository.GoodsReceiptRepository {
	return NewGoodsReceiptRepository(r.q)
}
func (r *Repositories) Transfers() repository.StockTransferRepository {
	return NewStockTransferRepository(r.q)
}
func (r *Repositories) Alerts() repository.StockAlertRepository { return NewStockAlertRepository(r.q) }
func (r *Repositories) Products() repository.ProductRepository  { return NewProductRepository(r.q) }
func (r *Repositories) Locations() repository.LocationRepository {
	return NewLocationRepository(r.q)
}
func (r *Repositories) Suppliers() repository.SupplierRepository {
	return NewSupplierRepository(r.q)
}
