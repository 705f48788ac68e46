package entity

import (
	"fmt"
	"strings"

	"github.com/jhoicas/stockledger/internal/domain"
)

// Role es el rol de un usuario; conjunto cerrado.
type Role string

const (
	RoleAdmin          Role = "ADMIN"
	RoleManager        Role = "MANAGER"
	RoleWarehouseStaff Role = "WAREHOUSE_STAFF"
	RoleViewer         Role = "VIEWER"
)

// Roles lista los roles válidos en orden de privilegio descendente.
var Roles = []Role{RoleAdmin, RoleManager, RoleWarehouseStaff, RoleViewer}

// ParseRole normaliza y valida un rol. Un rol desconocido es un error, nunca VIEWER implícito.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Roles {
		if r == known {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: rol desconocido %q", domain.ErrValidation, s)
}

// Actor es el usuario autenticado que ejecuta una operación, más los datos del cliente para auditoría.
type Actor struct {
	UserID    string
	Role      Role
	IP        string
	UserAgent string
}
