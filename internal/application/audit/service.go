// Package audit registra la bitácora de acciones. Nunca bloquea ni revierte la operación auditada.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stockledger/internal/domain/access"
	"github.com/jhoicas/stockledger/internal/domain/entity"
	"github.com/jhoicas/stockledger/internal/domain/repository"
	"github.com/rs/zerolog"
)

// Entry datos de una acción a auditar. Changes se serializa a JSON si no es nil.
type Entry struct {
	Actor       entity.Actor
	Action      entity.AuditAction
	ModelName   string
	ObjectID    string
	ObjectRepr  string
	Description string
	Changes     any
}

// Recorder puerto que consumen los casos de uso.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

var _ Recorder = (*Service)(nil)

// Service persiste entradas de auditoría y las lista.
type Service struct {
	repo repository.AuditLogRepository
	log  zerolog.Logger
	now  func() time.Time
}

// NewService construye el servicio de auditoría.
func NewService(repo repository.AuditLogRepository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

// Record escribe la entrada. Se llama después del commit; un fallo se registra con severidad
// error y todos los campos de la entrada, y no se propaga al llamador.
func (s *Service) Record(ctx context.Context, e Entry) {
	entry := &entity.AuditLogEntry{
		ID:          uuid.New().String(),
		ActorID:     e.Actor.UserID,
		Action:      e.Action,
		ModelName:   e.ModelName,
		ObjectID:    e.ObjectID,
		ObjectRepr:  e.ObjectRepr,
		Description: e.Description,
		IPAddress:   e.Actor.IP,
		UserAgent:   e.Actor.UserAgent,
		Timestamp:   s.now().UTC(),
	}
	if e.Changes != nil {
		raw, err := json.Marshal(e.Changes)
		if err != nil {
			s.log.Warn().Err(err).Str("model", e.ModelName).Str("object_id", e.ObjectID).
				Msg("audit: cambios no serializables, se omiten")
		} else {
			entry.Changes = raw
		}
	}

	// La operación ya se confirmó: una cancelación del request no debe perder la entrada.
	if err := s.repo.Create(context.WithoutCancel(ctx), entry); err != nil {
		s.log.Error().Err(err).
			Str("audit_id", entry.ID).
			Str("actor_id", entry.ActorID).
			Str("action", string(entry.Action)).
			Str("model", entry.ModelName).
			Str("object_id", entry.ObjectID).
			Str("object_repr", entry.ObjectRepr).
			Str("description", entry.Description).
			RawJSON("changes", nonEmptyJSON(entry.Changes)).
			Str("ip", entry.IPAddress).
			Str("user_agent", entry.UserAgent).
			Time("timestamp", entry.Timestamp).
			Msg("audit: no se pudo registrar la entrada")
	}
}

// List devuelve entradas de auditoría; requiere ViewAuditLog.
func (s *Service) List(ctx context.Context, actor entity.Actor, filter repository.AuditLogFilter) ([]*entity.AuditLogEntry, error) {
	if err := access.Require(actor.Role, access.ViewAuditLog); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}

func nonEmptyJSON(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return []byte("null")
	}
	return raw
}
