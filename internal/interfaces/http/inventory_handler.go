package http

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/application/inventory"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
	"github.com/rs/zerolog"
)

// InventoryHandler maneja existencias, transacciones, ajustes y alertas (protegido).
type InventoryHandler struct {
	recorder *inventory.RecordTransactionUseCase
	adjust   *inventory.AdjustStockUseCase
	queries  *inventory.StockQueryUseCase
	log      zerolog.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	recorder *inventory.RecordTransactionUseCase,
	adjust *inventory.AdjustStockUseCase,
	queries *inventory.StockQueryUseCase,
	log zerolog.Logger,
) *InventoryHandler {
	return &InventoryHandler{recorder: recorder, adjust: adjust, queries: queries, log: log}
}

// RecordTransaction godoc
// @Summary      Registrar transacción de inventario
// @Description  Agrega una transacción inmutable y aplica su efecto a la existencia en la misma operación.
// @Tags         transactions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordTransactionRequest  true  "type, product_id, location_id, quantity"
// @Success      201   {object}  dto.RecordTransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transactions [post]
func (h *InventoryHandler) RecordTransaction(c *fiber.Ctx) error {
	var in dto.RecordTransactionRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	typ, err := entity.ParseTransactionType(in.Type)
	if err != nil {
		return writeError(c, h.log, err)
	}
	rec, level, err := h.recorder.Record(c.UserContext(), ActorFrom(c), inventory.RecordInput{
		Type:       typ,
		ProductID:  in.ProductID,
		LocationID: in.LocationID,
		Quantity:   in.Quantity,
		UnitPrice:  in.UnitPrice,
		Reference:  in.Reference,
		Notes:      in.Notes,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.RecordTransactionResponse{
		Transaction: dto.FromTransaction(rec),
		Level:       dto.FromStockLevel(level),
	})
}

// ListTransactions godoc
// @Summary      Historial de transacciones
// @Tags         transactions
// @Security     Bearer
// @Produce      json
// @Param        product_id   query  string  false  "Producto"
// @Param        location_id  query  string  false  "Ubicación"
// @Param        type         query  string  false  "Tipo de transacción"
// @Param        reference    query  string  false  "Referencia"
// @Param        from         query  string  false  "Desde (RFC3339 o YYYY-MM-DD)"
// @Param        to           query  string  false  "Hasta (RFC3339 o YYYY-MM-DD)"
// @Param        limit        query  int     false  "Límite"
// @Param        offset       query  int     false  "Desplazamiento"
// @Success      200  {array}   dto.TransactionResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/transactions [get]
func (h *InventoryHandler) ListTransactions(c *fiber.Ctx) error {
	filter, err := transactionFilter(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	txs, err := h.queries.History(c.UserContext(), ActorFrom(c), filter)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromTransactions(txs))
}

// ExportTransactions godoc
// @Summary      Exportar historial a Excel
// @Tags         transactions
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        product_id   query  string  false  "Producto"
// @Param        location_id  query  string  false  "Ubicación"
// @Param        from         query  string  false  "Desde"
// @Param        to           query  string  false  "Hasta"
// @Success      200  {file}    file
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/transactions/export [get]
func (h *InventoryHandler) ExportTransactions(c *fiber.Ctx) error {
	filter, err := transactionFilter(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var buf bytes.Buffer
	if err := h.queries.Export(c.UserContext(), ActorFrom(c), filter, &buf); err != nil {
		return writeError(c, h.log, err)
	}
	exporter := h.queries.Exporter()
	name := fmt.Sprintf("transactions_%s.%s", time.Now().UTC().Format("20060102_150405"), exporter.FileExtension())
	c.Set(fiber.HeaderContentType, exporter.ContentType())
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Send(buf.Bytes())
}

// ListLevels godoc
// @Summary      Existencias por producto y ubicación
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id   query  string  false  "Producto"
// @Param        location_id  query  string  false  "Ubicación"
// @Param        limit        query  int     false  "Límite"
// @Param        offset       query  int     false  "Desplazamiento"
// @Success      200  {array}   dto.StockLevelResponse
// @Router       /api/stock/levels [get]
func (h *InventoryHandler) ListLevels(c *fiber.Ctx) error {
	filter := repository.StockLevelFilter{
		ProductID:  c.Query("product_id"),
		LocationID: c.Query("location_id"),
	}
	filter.Limit, filter.Offset = pageParams(c)
	levels, err := h.queries.Levels(c.UserContext(), ActorFrom(c), filter)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.StockLevelResponse, 0, len(levels))
	for _, l := range levels {
		out = append(out, dto.FromStockLevel(l))
	}
	return c.JSON(out)
}

// Availability godoc
// @Summary      Disponible total de un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductAvailabilityResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/products/{id}/available [get]
func (h *InventoryHandler) Availability(c *fiber.Ctx) error {
	stock, err := h.queries.ProductAvailability(c.UserContext(), ActorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ProductAvailabilityResponse{
		ProductID:        stock.ProductID,
		Quantity:         stock.Quantity,
		ReservedQuantity: stock.ReservedQuantity,
		Available:        stock.Available(),
	})
}

// Adjust godoc
// @Summary      Ajuste manual de existencias
// @Description  set fija la cantidad, add suma, subtract registra una baja por daño.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "product_id, location_id, mode, quantity"
// @Success      201   {object}  dto.RecordTransactionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/adjustments [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	mode, err := inventory.ParseAdjustMode(in.Mode)
	if err != nil {
		return writeError(c, h.log, err)
	}
	rec, level, err := h.adjust.Adjust(c.UserContext(), ActorFrom(c), inventory.AdjustInput{
		Mode:       mode,
		ProductID:  in.ProductID,
		LocationID: in.LocationID,
		Quantity:   in.Quantity,
		Notes:      in.Reason,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.RecordTransactionResponse{
		Transaction: dto.FromTransaction(rec),
		Level:       dto.FromStockLevel(level),
	})
}

// ListAlerts godoc
// @Summary      Alertas abiertas
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"
// @Param        offset  query  int  false  "Desplazamiento"
// @Success      200  {array}   dto.AlertResponse
// @Router       /api/stock/alerts [get]
func (h *InventoryHandler) ListAlerts(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	alerts, err := h.queries.OpenAlerts(c.UserContext(), ActorFrom(c), limit, offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.AlertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, dto.FromAlert(a))
	}
	return c.JSON(out)
}

// ResolveAlert godoc
// @Summary      Resolver alerta
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la alerta"
// @Success      200  {object}  dto.AlertResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/alerts/{id}/resolve [post]
func (h *InventoryHandler) ResolveAlert(c *fiber.Ctx) error {
	alert, err := h.queries.ResolveAlert(c.UserContext(), ActorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromAlert(alert))
}
