// Package access maps role names to the till areas they may use.
package access

import "strings"

type Area string

const (
	AreaCashier   Area = "cashier"
	AreaProducts  Area = "products"
	AreaSuppliers Area = "suppliers"
	AreaEmployees Area = "employees"
	AreaSettings  Area = "settings"
	AreaReports   Area = "reports"
)

const (
	RoleAdmin      = "Administrador"
	RoleManager    = "Gerente"
	RoleSeller     = "Vendedor"
	RoleStockClerk = "Estoquista"
	RoleSupervisor = "Supervisor"
)

var matrix = map[Area][]string{
	AreaCashier:   {RoleAdmin, RoleManager, RoleSupervisor, RoleSeller},
	AreaProducts:  {RoleAdmin, RoleManager, RoleSupervisor, RoleStockClerk},
	AreaSuppliers: {RoleManager, RoleStockClerk, RoleSupervisor, RoleAdmin},
	AreaEmployees: {RoleAdmin, RoleManager},
	AreaSettings:  {RoleAdmin},
	AreaReports:   {RoleAdmin, RoleManager, RoleSupervisor},
}

// Allowed reports whether roleName may use area. Role names are matched
// without regard to case; custom roles get no area until added here.
func Allowed(roleName string, area Area) bool {
	roleName = strings.TrimSpace(roleName)
	if roleName == "" {
		return false
	}
	for _, allow := range matrix[area] {
		if strings.EqualFold(allow, roleName) {
			return true
		}
	}
	return false
}

// Areas lists every area roleName may use, in a stable order.
func Areas(roleName string) []Area {
	out := make([]Area, 0, len(matrix))
	for _, area := range []Area{AreaCashier, AreaProducts, AreaSuppliers, AreaEmployees, AreaSettings, AreaReports} {
		if Allowed(roleName, area) {
			out = append(out, area)
		}
	}
	return out
}
