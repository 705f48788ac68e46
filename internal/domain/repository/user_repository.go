package repository

import (
	"context"

	"github.com/jhoicas/stockledger/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	UpdateRole(ctx context.Context, id string, role entity.Role) error
}

// AuditLogRepository solo agrega entradas; no existe Update.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *entity.AuditLogEntry) error
	List(ctx context.Context, filter AuditLogFilter) ([]*entity.AuditLogEntry, error)
}

// AuditLogFilter filtros del listado de auditoría.
type AuditLogFilter struct {
	ActorID   string
	ModelName string
	ObjectID  string
	Action    entity.AuditAction
	Limit     int
	Offset    int
}
