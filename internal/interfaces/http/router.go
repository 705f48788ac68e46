package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stockledger/internal/application/analytics"
	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/application/auth"
	"github.com/jhoicas/stockledger/internal/application/inventory"
	"github.com/jhoicas/stockledger/internal/application/purchasing"
	"github.com/jhoicas/stockledger/internal/application/usecase"
	"github.com/jhoicas/stockledger/internal/domain/access"
	"github.com/rs/zerolog"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.AuthUseCase
	Catalog   *usecase.CatalogUseCase
	Recorder  *inventory.RecordTransactionUseCase
	Adjust    *inventory.AdjustStockUseCase
	Transfer  *inventory.TransferUseCase
	Queries   *inventory.StockQueryUseCase
	Orders    *purchasing.PurchaseOrderUseCase
	Documents *purchasing.ReceiptDocumentUseCase
	Dashboard *analytics.DashboardUseCase
	Audit     *audit.Service
	JWTSecret string
	Log       zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	need := func(capability access.Capability) fiber.Handler {
		return RequireCapability(capability, deps.Audit)
	}

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC, deps.Log)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret), ActiveUser(deps.AuthUC, deps.Log))

	protected.Get("/me/capabilities", authHandler.Capabilities)
	users := protected.Group("/users", need(access.ManageUsers))
	users.Post("/", authHandler.CreateUser)
	users.Put("/:id/role", authHandler.UpdateRole)

	// Catálogo
	catalog := NewCatalogHandler(deps.Catalog, deps.Log)
	products := protected.Group("/products")
	products.Post("/", need(access.CreateProducts), catalog.CreateProduct)
	products.Get("/", need(access.ViewProducts), catalog.ListProducts)
	products.Get("/:id", need(access.ViewProducts), catalog.GetProduct)
	products.Put("/:id", need(access.EditProducts), catalog.UpdateProduct)
	protected.Post("/locations", need(access.ManageLocations), catalog.CreateLocation)
	protected.Get("/locations", need(access.ViewStock), catalog.ListLocations)
	protected.Post("/suppliers", need(access.CreateSuppliers), catalog.CreateSupplier)
	protected.Get("/suppliers", need(access.ViewSuppliers), catalog.ListSuppliers)

	// Existencias y alertas
	inv := NewInventoryHandler(deps.Recorder, deps.Adjust, deps.Queries, deps.Log)
	stock := protected.Group("/stock")
	stock.Get("/levels", need(access.ViewStock), inv.ListLevels)
	stock.Get("/products/:id/available", need(access.ViewStock), inv.Availability)
	stock.Post("/adjustments", need(access.AdjustStock), inv.Adjust)
	stock.Get("/alerts", need(access.ViewStock), inv.ListAlerts)
	stock.Post("/alerts/:id/resolve", need(access.AdjustStock), inv.ResolveAlert)

	// Libro de transacciones
	txs := protected.Group("/transactions")
	txs.Post("/", need(access.RecordTransactions), inv.RecordTransaction)
	txs.Get("/", need(access.ViewTransactions), inv.ListTransactions)
	txs.Get("/export", need(access.ExportReports), inv.ExportTransactions)

	// Transferencias
	tr := NewTransferHandler(deps.Transfer, deps.Log)
	transfers := protected.Group("/transfers")
	transfers.Post("/", need(access.AdjustStock), tr.Create)
	transfers.Get("/:id", need(access.ViewStock), tr.Get)
	transfers.Post("/:id/dispatch", need(access.AdjustStock), tr.Dispatch)
	transfers.Post("/:id/complete", need(access.AdjustStock), tr.Complete)
	transfers.Post("/:id/cancel", need(access.AdjustStock), tr.Cancel)

	// Órdenes de compra
	po := NewPurchaseOrderHandler(deps.Orders, deps.Documents, deps.Log)
	readOrders := RequireAnyCapability(deps.Audit, access.ViewReports, access.ReceiveGoods)
	orders := protected.Group("/purchase-orders")
	orders.Post("/", need(access.CreatePurchaseOrders), po.Create)
	orders.Get("/", readOrders, po.List)
	orders.Get("/:id", readOrders, po.Get)
	orders.Put("/:id", need(access.EditPurchaseOrders), po.Update)
	orders.Post("/:id/send", need(access.ApprovePurchaseOrders), po.Send)
	orders.Post("/:id/cancel", need(access.DeletePurchaseOrders), po.Cancel)
	orders.Post("/:id/receipts", need(access.ReceiveGoods), po.Receive)
	orders.Get("/:id/receipts/:receiptID/pdf", readOrders, po.ReceiptPDF)

	// Reportes
	reports := NewReportHandler(deps.Dashboard, deps.Log)
	protected.Get("/reports/summary", need(access.ViewReports), reports.Summary)

	// Auditoría
	auditHandler := NewAuditHandler(deps.Audit, deps.Log)
	protected.Get("/audit-log", need(access.ViewAuditLog), auditHandler.List)
}
