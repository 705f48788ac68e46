// Package access es la compuerta de permisos: una función pura de (rol, capacidad).
package access

import (
	"fmt"
	"strings"

	"github.com/jhoicas/stockledger/internal/domain"
	"github.com/jhoicas/stockledger/internal/domain/entity"
)

// Capability es el conjunto cerrado de permisos. Agregar uno obliga a declarar sus roles en la tabla.
type Capability int

const (
	CreateProducts Capability = iota
	EditProducts
	DeleteProducts
	ViewProducts
	CreatePurchaseOrders
	EditPurchaseOrders
	ApprovePurchaseOrders
	DeletePurchaseOrders
	ReceiveGoods
	RecordTransactions
	AdjustStock
	ViewTransactions
	ViewStock
	ViewSuppliers
	CreateSuppliers
	EditSuppliers
	DeleteSuppliers
	ManageLocations
	ViewReports
	ExportReports
	ManageUsers
	ViewAuditLog

	capabilityCount
)

var names = [capabilityCount]string{
	CreateProducts:        "create_products",
	EditProducts:          "edit_products",
	DeleteProducts:        "delete_products",
	ViewProducts:          "view_products",
	CreatePurchaseOrders:  "create_purchase_orders",
	EditPurchaseOrders:    "edit_purchase_orders",
	ApprovePurchaseOrders: "approve_purchase_orders",
	DeletePurchaseOrders:  "delete_purchase_orders",
	ReceiveGoods:          "receive_goods",
	RecordTransactions:    "record_transactions",
	AdjustStock:           "adjust_stock",
	ViewTransactions:      "view_transactions",
	ViewStock:             "view_stock",
	ViewSuppliers:         "view_suppliers",
	CreateSuppliers:       "create_suppliers",
	EditSuppliers:         "edit_suppliers",
	DeleteSuppliers:       "delete_suppliers",
	ManageLocations:       "manage_locations",
	ViewReports:           "view_reports",
	ExportReports:         "export_reports",
	ManageUsers:           "manage_users",
	ViewAuditLog:          "view_audit_log",
}

type roleSet uint8

const (
	admin roleSet = 1 << iota
	manager
	staff
	viewer

	managers   = admin | manager
	operations = admin | manager | staff
	everyone   = admin | manager | staff | viewer
)

var table = [capabilityCount]roleSet{
	CreateProducts:        managers,
	EditProducts:          managers,
	DeleteProducts:        admin,
	ViewProducts:          everyone,
	CreatePurchaseOrders:  managers,
	EditPurchaseOrders:    managers,
	ApprovePurchaseOrders: managers,
	DeletePurchaseOrders:  admin,
	ReceiveGoods:          operations,
	RecordTransactions:    operations,
	AdjustStock:           operations,
	ViewTransactions:      everyone,
	ViewStock:             everyone,
	ViewSuppliers:         everyone,
	CreateSuppliers:       managers,
	EditSuppliers:         managers,
	DeleteSuppliers:       admin,
	ManageLocations:       managers,
	ViewReports:           managers,
	ExportReports:         managers,
	ManageUsers:           admin,
	ViewAuditLog:          managers,
}

func bit(r entity.Role) roleSet {
	switch r {
	case entity.RoleAdmin:
		return admin
	case entity.RoleManager:
		return manager
	case entity.RoleWarehouseStaff:
		return staff
	case entity.RoleViewer:
		return viewer
	}
	return 0
}

func (c Capability) valid() bool {
	return c >= 0 && c < capabilityCount
}

// String devuelve el nombre estable de la capacidad.
func (c Capability) String() string {
	if !c.valid() {
		return fmt.Sprintf("Capability(%d)", int(c))
	}
	return names[c]
}

// Allowed indica si el rol tiene la capacidad. Una capacidad fuera de rango es un error de
// programación y provoca panic. Un rol desconocido no tiene ninguna capacidad.
func Allowed(role entity.Role, c Capability) bool {
	if !c.valid() {
		panic(fmt.Sprintf("access: capacidad desconocida %d", int(c)))
	}
	return table[c]&bit(role) != 0
}

// Require devuelve domain.ErrPermission envuelto si el rol no tiene la capacidad.
func Require(role entity.Role, c Capability) error {
	if !Allowed(role, c) {
		return fmt.Errorf("%w: el rol %s no tiene permiso %s", domain.ErrPermission, role, c)
	}
	return nil
}

// AllowedAny indica si el rol tiene al menos una de las capacidades.
func AllowedAny(role entity.Role, caps ...Capability) bool {
	for _, c := range caps {
		if Allowed(role, c) {
			return true
		}
	}
	return false
}

// RequireAny es Require para un conjunto de capacidades alternativas.
func RequireAny(role entity.Role, caps ...Capability) error {
	if !AllowedAny(role, caps...) {
		return fmt.Errorf("%w: el rol %s no tiene ninguno de los permisos %s", domain.ErrPermission, role, joinNames(caps))
	}
	return nil
}

func joinNames(caps []Capability) string {
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = c.String()
	}
	return strings.Join(names, "|")
}

// CapabilitiesFor lista las capacidades del rol en orden de declaración.
func CapabilitiesFor(role entity.Role) []Capability {
	out := make([]Capability, 0, capabilityCount)
	for c := Capability(0); c < capabilityCount; c++ {
		if Allowed(role, c) {
			out = append(out, c)
		}
	}
	return out
}

// All devuelve todas las capacidades definidas.
func All() []Capability {
	out := make([]Capability, capabilityCount)
	for i := range out {
		out[i] = Capability(i)
	}
	return out
}
