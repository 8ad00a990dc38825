package service

import (
	"github.com/shopspring/decimal"

	"pdvcaixa/internal/domain"
	"pdvcaixa/internal/xid"
)

const defaultAdminPassword = "2026"

// DefaultSnapshot builds the catalog and staff a fresh till starts with.
// An empty adminPassword seeds ADM-001 with the default password.
func DefaultSnapshot(adminPassword string) (domain.Snapshot, error) {
	if adminPassword == "" {
		adminPassword = defaultAdminPassword
	}
	adminHash, err := hashPassword(adminPassword)
	if err != nil {
		return domain.Snapshot{}, err
	}

	roles := []domain.Role{
		{ID: xid.New("role"), Name: "Administrador", Prefix: "ADM"},
		{ID: xid.New("role"), Name: "Gerente", Prefix: "G"},
		{ID: xid.New("role"), Name: "Vendedor", Prefix: "V"},
		{ID: xid.New("role"), Name: "Estoquista", Prefix: "E"},
		{ID: xid.New("role"), Name: "Supervisor", Prefix: "S"},
	}

	supplier := domain.Supplier{
		ID:            xid.New("sup"),
		Cod:           "FOR-001",
		Name:          "Hortifruti Central",
		ContactPerson: "Marcos",
		Phone:         "(11) 4002-8922",
	}

	products := []domain.Product{
		{ID: xid.New("prod"), Cod: "7891000315507", Name: "Café Expresso", Price: decimal.RequireFromString("5.00"), Stock: decimal.NewFromInt(100), Unit: domain.UnitPiece},
		{ID: xid.New("prod"), Cod: "PROD-0001", Name: "Pão de Queijo", Price: decimal.RequireFromString("3.50"), Stock: decimal.NewFromInt(50), Unit: domain.UnitPiece},
		{ID: xid.New("prod"), Cod: "PROD-0002", Name: "Bolo de Fubá", Price: decimal.RequireFromString("7.00"), Stock: decimal.NewFromInt(30), Unit: domain.UnitPiece},
		{ID: xid.New("prod"), Cod: "PROD-0003", Name: "Banana Prata", Price: decimal.RequireFromString("6.99"), Stock: decimal.RequireFromString("25.500"), Unit: domain.UnitKilogram, SupplierID: supplier.ID},
	}

	employees := []domain.Employee{
		{ID: xid.New("emp"), Cod: "ADM-001", Name: "Administrador", RoleID: roles[0].ID, Password: adminHash},
		{ID: xid.New("emp"), Cod: "G-001", Name: "Gerente", RoleID: roles[1].ID},
	}

	return domain.Snapshot{
		Products:            products,
		Transactions:        []domain.Transaction{},
		Employees:           employees,
		Suppliers:           []domain.Supplier{supplier},
		Roles:               roles,
		CashRegisterHistory: []domain.CashRegisterSession{},
		Theme:               domain.DefaultTheme(),
	}, nil
}
