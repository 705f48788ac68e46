package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/application/purchasing"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
	"github.com/rs/zerolog"
)

// PurchaseOrderHandler maneja órdenes de compra y sus recepciones (protegido).
type PurchaseOrderHandler struct {
	orders    *purchasing.PurchaseOrderUseCase
	documents *purchasing.ReceiptDocumentUseCase
	log       zerolog.Logger
}

// NewPurchaseOrderHandler construye el handler.
func NewPurchaseOrderHandler(orders *purchasing.PurchaseOrderUseCase, documents *purchasing.ReceiptDocumentUseCase, log zerolog.Logger) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orders: orders, documents: documents, log: log}
}

// Create godoc
// @Summary      Crear orden de compra (DRAFT)
// @Tags         purchase-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePurchaseOrderRequest  true  "supplier_id, location_id, items"
// @Success      201   {object}  dto.PurchaseOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/purchase-orders [post]
func (h *PurchaseOrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePurchaseOrderRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	input := purchasing.CreateInput{
		Number:           in.Number,
		SupplierID:       in.SupplierID,
		LocationID:       in.LocationID,
		ExpectedDelivery: in.ExpectedDelivery,
		Notes:            in.Notes,
		Items:            itemInputs(in.Items),
	}
	if in.OrderDate != nil {
		input.OrderDate = *in.OrderDate
	}
	po, err := h.orders.Create(c.UserContext(), ActorFrom(c), input)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromPurchaseOrder(po))
}

// List godoc
// @Summary      Listar órdenes de compra
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        status       query  string  false  "DRAFT, SENT, PARTIAL, RECEIVED, CANCELLED"
// @Param        supplier_id  query  string  false  "Proveedor"
// @Param        limit        query  int     false  "Límite"
// @Param        offset       query  int     false  "Desplazamiento"
// @Success      200  {array}   dto.PurchaseOrderResponse
// @Router       /api/purchase-orders [get]
func (h *PurchaseOrderHandler) List(c *fiber.Ctx) error {
	filter := repository.PurchaseOrderFilter{SupplierID: c.Query("supplier_id")}
	filter.Limit, filter.Offset = pageParams(c)
	if raw := c.Query("status"); raw != "" {
		status, err := entity.ParsePurchaseOrderStatus(raw)
		if err != nil {
			return writeError(c, h.log, err)
		}
		filter.Status = status
	}
	orders, err := h.orders.List(c.UserContext(), ActorFrom(c), filter)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.PurchaseOrderResponse, 0, len(orders))
	for _, po := range orders {
		out = append(out, dto.FromPurchaseOrder(po))
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener orden de compra con sus recepciones
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.PurchaseOrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id} [get]
func (h *PurchaseOrderHandler) Get(c *fiber.Ctx) error {
	detail, err := h.orders.Get(c.UserContext(), ActorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := dto.FromPurchaseOrder(detail.Order)
	for _, r := range detail.Receipts {
		out.Receipts = append(out.Receipts, dto.FromGoodsReceipt(r))
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Editar orden en DRAFT
// @Tags         purchase-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                          true  "ID de la orden"
// @Param        body  body  dto.UpdatePurchaseOrderRequest  true  "campos a modificar"
// @Success      200   {object}  dto.PurchaseOrderResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id} [put]
func (h *PurchaseOrderHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdatePurchaseOrderRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	po, err := h.orders.Update(c.UserContext(), ActorFrom(c), c.Params("id"), purchasing.UpdateInput{
		SupplierID:       in.SupplierID,
		LocationID:       in.LocationID,
		ExpectedDelivery: in.ExpectedDelivery,
		Notes:            in.Notes,
		Items:            itemInputs(in.Items),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromPurchaseOrder(po))
}

// Send godoc
// @Summary      Enviar orden al proveedor (DRAFT → SENT)
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.PurchaseOrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/send [post]
func (h *PurchaseOrderHandler) Send(c *fiber.Ctx) error {
	po, err := h.orders.Send(c.UserContext(), ActorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromPurchaseOrder(po))
}

// Cancel godoc
// @Summary      Cancelar orden
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.PurchaseOrderResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/cancel [post]
func (h *PurchaseOrderHandler) Cancel(c *fiber.Ctx) error {
	po, err := h.orders.Cancel(c.UserContext(), ActorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromPurchaseOrder(po))
}

// Receive godoc
// @Summary      Registrar recepción de mercancía
// @Description  Todo o nada: crea la recepción, suma lo recibido y registra una compra por línea.
// @Tags         purchase-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID de la orden"
// @Param        body  body  dto.ReceiveGoodsRequest  true  "items"
// @Success      201   {object}  dto.ReceiveGoodsResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/receipts [post]
func (h *PurchaseOrderHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveGoodsRequest
	if err := parseBody(c, &in); err != nil {
		return writeError(c, h.log, err)
	}
	input := purchasing.ReceiveInput{Number: in.Number, Notes: in.Notes}
	if in.ReceivedDate != nil {
		input.ReceivedDate = *in.ReceivedDate
	}
	for _, l := range in.Lines {
		input.Lines = append(input.Lines, purchasing.ReceiveLine{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	res, err := h.orders.Receive(c.UserContext(), ActorFrom(c), c.Params("id"), input)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ReceiveGoodsResponse{
		Order:        dto.FromPurchaseOrder(res.Order),
		Receipt:      dto.FromGoodsReceipt(res.Receipt),
		Transactions: dto.FromTransactions(res.Transactions),
	})
}

// ReceiptPDF godoc
// @Summary      Comprobante de recepción en PDF
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      application/pdf
// @Param        id         path  string  true  "ID de la orden"
// @Param        receiptID  path  string  true  "ID de la recepción"
// @Success      200  {file}    file
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/receipts/{receiptID}/pdf [get]
func (h *PurchaseOrderHandler) ReceiptPDF(c *fiber.Ctx) error {
	body, number, err := h.documents.GeneratePDF(c.UserContext(), ActorFrom(c), c.Params("id"), c.Params("receiptID"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", number+".pdf"))
	return c.Send(body)
}

func itemInputs(in []dto.PurchaseOrderItemRequest) []purchasing.ItemInput {
	if in == nil {
		return nil
	}
	out := make([]purchasing.ItemInput, 0, len(in))
	for _, it := range in {
		out = append(out, purchasing.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}
	return out
}
