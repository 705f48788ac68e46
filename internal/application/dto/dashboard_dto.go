package dto

import "github.com/shopspring/decimal"

// ValuedProduct existencia total de un producto valorizada a costo promedio.
type ValuedProduct struct {
	ProductID string          `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	Value     decimal.Decimal `json:"value"`
}

// StockSummaryResponse resumen del tablero de inventario.
type StockSummaryResponse struct {
	ActiveProducts    int             `json:"active_products"`
	TotalUnits        int64           `json:"total_units"`
	ReservedUnits     int64           `json:"reserved_units"`
	InventoryValue    decimal.Decimal `json:"inventory_value"`
	LowStockAlerts    int             `json:"low_stock_alerts"`
	OutOfStockAlerts  int             `json:"out_of_stock_alerts"`
	PendingOrders     int             `json:"pending_orders"`
	PendingUnits      int64           `json:"pending_units"`
	TodayTransactions int             `json:"today_transactions"`
	TopValued         []ValuedProduct `json:"top_valued"`
	DateLabel         string          `json:"date_label"`
}
