// Package analytics contiene los reportes de existencias y el resumen del tablero.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/domain/access"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

const dashboardTopProducts = 5 // productos con mayor valor en el widget del tablero

// DashboardUseCase genera el resumen de existencias, alertas y compras pendientes.
//
// Solo lectura: consulta los repositorios fuera de una unidad de trabajo, por lo que las cifras
// son una foto aproximada si hay escrituras concurrentes.
type DashboardUseCase struct {
	repos   repository.UnitOfWork
	catalog repository.CatalogRepository
	now     func() time.Time
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(repos repository.UnitOfWork, catalog repository.CatalogRepository) *DashboardUseCase {
	return &DashboardUseCase{repos: repos, catalog: catalog, now: time.Now}
}

// GetSummary construye el StockSummaryResponse.
//
// Cuatro consultas en paralelo:
//  1. existencias + productos → unidades y valorización a costo promedio
//  2. alertas abiertas        → bajo stock / sin stock
//  3. órdenes SENT y PARTIAL  → unidades por recibir
//  4. transacciones de hoy
func (uc *DashboardUseCase) GetSummary(ctx context.Context, actor entity.Actor) (*dto.StockSummaryResponse, error) {
	if err := access.Require(actor.Role, access.ViewReports); err != nil {
		return nil, err
	}
	now := uc.now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	type valuationResult struct {
		out dto.StockSummaryResponse
		err error
	}
	type alertsResult struct {
		low, out int
		err      error
	}
	type ordersResult struct {
		count int
		units int64
		err   error
	}
	type countResult struct {
		n   int
		err error
	}

	valuationCh := make(chan valuationResult, 1)
	alertsCh := make(chan alertsResult, 1)
	ordersCh := make(chan ordersResult, 1)
	todayCh := make(chan countResult, 1)

	go func() {
		out, err := uc.valuation(ctx)
		valuationCh <- valuationResult{out, err}
	}()
	go func() {
		alerts, err := uc.repos.Alerts().ListOpen(ctx, 0, 0)
		var r alertsResult
		r.err = err
		for _, a := range alerts {
			if a.Type == entity.AlertOutOfStock {
				r.out++
			} else {
				r.low++
			}
		}
		alertsCh <- r
	}()
	go func() {
		var r ordersResult
		for _, status := range []entity.PurchaseOrderStatus{entity.POStatusSent, entity.POStatusPartial} {
			orders, err := uc.repos.PurchaseOrders().List(ctx, repository.PurchaseOrderFilter{Status: status})
			if err != nil {
				r.err = err
				break
			}
			r.count += len(orders)
			for _, po := range orders {
				for _, it := range po.Items {
					r.units += it.PendingQuantity()
				}
			}
		}
		ordersCh <- r
	}()
	go func() {
		txs, err := uc.repos.Transactions().List(ctx, repository.TransactionFilter{From: &todayStart})
		todayCh <- countResult{len(txs), err}
	}()

	valuation := <-valuationCh
	alerts := <-alertsCh
	orders := <-ordersCh
	today := <-todayCh

	if valuation.err != nil {
		return nil, fmt.Errorf("dashboard: valorización: %w", valuation.err)
	}
	if alerts.err != nil {
		return nil, fmt.Errorf("dashboard: alertas: %w", alerts.err)
	}
	if orders.err != nil {
		return nil, fmt.Errorf("dashboard: órdenes pendientes: %w", orders.err)
	}
	if today.err != nil {
		return nil, fmt.Errorf("dashboard: transacciones de hoy: %w", today.err)
	}

	out := valuation.out
	out.LowStockAlerts = alerts.low
	out.OutOfStockAlerts = alerts.out
	out.PendingOrders = orders.count
	out.PendingUnits = orders.units
	out.TodayTransactions = today.n
	out.DateLabel = monthLabel(now)
	return &out, nil
}

// valuation suma unidades y valor (cantidad × costo promedio) por producto.
func (uc *DashboardUseCase) valuation(ctx context.Context) (dto.StockSummaryResponse, error) {
	var out dto.StockSummaryResponse
	products, err := uc.catalog.ListProducts(ctx, repository.CatalogFilter{})
	if err != nil {
		return out, err
	}
	levels, err := uc.repos.Stock().List(ctx, repository.StockLevelFilter{})
	if err != nil {
		return out, err
	}

	byID := make(map[string]*dto.ValuedProduct, len(products))
	costs := make(map[string]decimal.Decimal, len(products))
	for _, p := range products {
		if p.Active {
			out.ActiveProducts++
		}
		byID[p.ID] = &dto.ValuedProduct{ProductID: p.ID, SKU: p.SKU, Name: p.Name, Value: decimal.Zero}
		costs[p.ID] = p.Cost
	}
	out.InventoryValue = decimal.Zero
	for _, l := range levels {
		out.TotalUnits += l.Quantity
		out.ReservedUnits += l.ReservedQuantity
		vp, ok := byID[l.ProductID]
		if !ok {
			continue
		}
		value := costs[l.ProductID].Mul(decimal.NewFromInt(l.Quantity))
		vp.Quantity += l.Quantity
		vp.Value = vp.Value.Add(value)
		out.InventoryValue = out.InventoryValue.Add(value)
	}

	ranked := make([]dto.ValuedProduct, 0, len(byID))
	for _, vp := range byID {
		if vp.Quantity != 0 {
			ranked = append(ranked, *vp)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if c := ranked[i].Value.Cmp(ranked[j].Value); c != 0 {
			return c > 0
		}
		return ranked[i].SKU < ranked[j].SKU
	})
	if len(ranked) > dashboardTopProducts {
		ranked = ranked[:dashboardTopProducts]
	}
	for i := range ranked {
		ranked[i].Value = ranked[i].Value.Round(2)
	}
	out.TopValued = ranked
	out.InventoryValue = out.InventoryValue.Round(2)
	return out, nil
}

// monthLabel devuelve una etiqueta legible del mes, ej: "Febrero 2026".
func monthLabel(t time.Time) string {
	months := [...]string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	}
	return fmt.Sprintf("%s %d", months[t.Month()-1], t.Year())
}
