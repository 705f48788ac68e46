package entity

import (
	"encoding/json"
	"time"
)

// AuditAction tipo de acción auditada.
type AuditAction string

const (
	AuditCreate AuditAction = "CREATE"
	AuditUpdate AuditAction = "UPDATE"
	AuditDelete AuditAction = "DELETE"
	AuditView   AuditAction = "VIEW"
	AuditLogin  AuditAction = "LOGIN"
	AuditLogout AuditAction = "LOGOUT"
	AuditExport AuditAction = "EXPORT"
	AuditImport AuditAction = "IMPORT"
)

// AuditLogEntry es inmutable; solo se agrega.
type AuditLogEntry struct {
	ID          string
	ActorID     string // vacío para acciones anónimas (login fallido)
	Action      AuditAction
	ModelName   string
	ObjectID    string
	ObjectRepr  string
	Description string
	Changes     json.RawMessage
	IPAddress   string
	UserAgent   string
	Timestamp   time.Time
}
