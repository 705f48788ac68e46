package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stockledger/internal/application/audit"
	"github.com/jhoicas/stockledger/internal/application/dto"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
	"github.com/rs/zerolog"
)

// AuditHandler expone la bitácora de auditoría (solo lectura).
type AuditHandler struct {
	svc *audit.Service
	log zerolog.Logger
}

// NewAuditHandler construye el handler.
func NewAuditHandler(svc *audit.Service, log zerolog.Logger) *AuditHandler {
	return &AuditHandler{svc: svc, log: log}
}

// List godoc
// @Summary      Bitácora de auditoría
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        actor_id    query  string  false  "Usuario"
// @Param        model_name  query  string  false  "Modelo"
// @Param        object_id   query  string  false  "Objeto"
// @Param        action      query  string  false  "CREATE, UPDATE, DELETE, VIEW, LOGIN, LOGOUT, EXPORT, IMPORT"
// @Param        limit       query  int     false  "Límite"
// @Param        offset      query  int     false  "Desplazamiento"
// @Success      200  {array}   dto.AuditLogResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/audit-log [get]
func (h *AuditHandler) List(c *fiber.Ctx) error {
	filter := repository.AuditLogFilter{
		ActorID:   c.Query("actor_id"),
		ModelName: c.Query("model_name"),
		ObjectID:  c.Query("object_id"),
		Action:    entity.AuditAction(strings.ToUpper(c.Query("action"))),
	}
	filter.Limit, filter.Offset = pageParams(c)
	entries, err := h.svc.List(c.UserContext(), ActorFrom(c), filter)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.AuditLogResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.FromAuditLogEntry(e))
	}
	return c.JSON(out)
}
