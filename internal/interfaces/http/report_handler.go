package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stockledger/internal/application/analytics"
	"github.com/rs/zerolog"
)

// ReportHandler expone el resumen del tablero.
type ReportHandler struct {
	dashboard *analytics.DashboardUseCase
	log       zerolog.Logger
}

// NewReportHandler construye el handler.
func NewReportHandler(dashboard *analytics.DashboardUseCase, log zerolog.Logger) *ReportHandler {
	return &ReportHandler{dashboard: dashboard, log: log}
}

// Summary godoc
// @Summary      Resumen de inventario
// @Description  Unidades, valorización a costo promedio, alertas abiertas, compras pendientes y movimientos del día.
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StockSummaryResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/reports/summary [get]
func (h *ReportHandler) Summary(c *fiber.Ctx) error {
	out, err := h.dashboard.GetSummary(c.UserContext(), ActorFrom(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
