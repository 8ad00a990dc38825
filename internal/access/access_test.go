package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowed(t *testing.T) {
	tests := []struct {
		role string
		area Area
		want bool
	}{
		{RoleSeller, AreaCashier, true},
		{RoleSeller, AreaProducts, false},
		{RoleStockClerk, AreaCashier, false},
		{RoleStockClerk, AreaSuppliers, true},
		{RoleManager, AreaEmployees, true},
		{RoleSupervisor, AreaEmployees, false},
		{RoleManager, AreaSettings, false},
		{RoleAdmin, AreaSettings, true},
		{"gerente", AreaReports, true},
		{"Caixa Noturno", AreaCashier, false},
		{"", AreaCashier, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Allowed(tt.role, tt.area), "%s/%s", tt.role, tt.area)
	}
}

func TestAreas(t *testing.T) {
	assert.Equal(t, []Area{AreaCashier, AreaProducts, AreaSuppliers, AreaEmployees, AreaSettings, AreaReports}, Areas(RoleAdmin))
	assert.Equal(t, []Area{AreaCashier}, Areas(RoleSeller))
	assert.Empty(t, Areas("Visitante"))
}
