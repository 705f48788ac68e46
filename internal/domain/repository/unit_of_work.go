package repository

// UnitOfWork agrupa los repositorios atados a una misma transacción de base de datos.
// Fuera de TxRunner.Run se usa una instancia atada al pool para lecturas.
type UnitOfWork interface {
	Stock() StockLevelRepository
	Transactions() TransactionRepository
	PurchaseOrders() PurchaseOrderRepository
	Receipts() GoodsReceiptRepository
	Transfers() StockTransferRepository
	Alerts() StockAlertRepository
	Products() ProductRepository
	Locations() LocationRepository
	Suppliers() SupplierRepository
}
