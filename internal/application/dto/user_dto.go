package dto

import (
	"time"

	"github.com/jhoicas/stockledger/internal/domain/entity"
)

// CreateUserRequest entrada para crear un usuario (password en texto, se hashea en use case).
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"omitempty,max=200"`
	Role     string `json:"role" validate:"required,oneof=ADMIN MANAGER WAREHOUSE_STAFF VIEWER"`
}

// UpdateRoleRequest body para PUT /api/users/:id/role.
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=ADMIN MANAGER WAREHOUSE_STAFF VIEWER"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LoginRequest entrada para login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse salida con token JWT.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// CapabilitiesResponse capacidades efectivas del rol autenticado.
type CapabilitiesResponse struct {
	UserID       string   `json:"user_id"`
	Role         string   `json:"role"`
	Capabilities []string `json:"capabilities"`
}

// AuditLogResponse una entrada de la bitácora.
type AuditLogResponse struct {
	ID          string    `json:"id"`
	ActorID     string    `json:"actor_id,omitempty"`
	Action      string    `json:"action"`
	ModelName   string    `json:"model_name"`
	ObjectID    string    `json:"object_id,omitempty"`
	ObjectRepr  string    `json:"object_repr,omitempty"`
	Description string    `json:"description,omitempty"`
	Changes     any       `json:"changes,omitempty"`
	IPAddress   string    `json:"ip_address,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// FromAuditLogEntry mapea una entrada de la bitácora.
func FromAuditLogEntry(e *entity.AuditLogEntry) AuditLogResponse {
	out := AuditLogResponse{
		ID:          e.ID,
		ActorID:     e.ActorID,
		Action:      string(e.Action),
		ModelName:   e.ModelName,
		ObjectID:    e.ObjectID,
		ObjectRepr:  e.ObjectRepr,
		Description: e.Description,
		IPAddress:   e.IPAddress,
		UserAgent:   e.UserAgent,
		Timestamp:   e.Timestamp,
	}
	if len(e.Changes) > 0 {
		out.Changes = e.Changes
	}
	return out
}
