package domain

import "github.com/shopspring/decimal"

// Snapshot is the durable part of the till state. The cart, the logged in
// operator, the open register and the last transaction are kept out of it
// so every restart starts with a fresh login.
type Snapshot struct {
	Products            []Product             `json:"products"`
	Transactions        []Transaction         `json:"transactions"`
	Employees           []Employee            `json:"employees"`
	Suppliers           []Supplier            `json:"suppliers"`
	Roles               []Role                `json:"roles"`
	CashRegisterHistory []CashRegisterSession `json:"cashRegisterHistory"`
	Theme               ThemeSettings         `json:"theme"`
}

// PersistedFields lists the snapshot keys written to storage.
var PersistedFields = []string{
	"products",
	"transactions",
	"employees",
	"suppliers",
	"roles",
	"cashRegisterHistory",
	"theme",
}

// TransientFields lists state that never leaves the process.
var TransientFields = []string{
	"cart",
	"currentUser",
	"currentCashRegister",
	"lastTransaction",
}

// ComputeTotal applies a manual discount and addition to a cart subtotal.
// The result never goes below zero.
func ComputeTotal(subtotal, discount, addition decimal.Decimal) decimal.Decimal {
	total := subtotal.Sub(discount).Add(addition)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// ChangeDue returns what must be handed back for a cash payment, or zero when
// the amount received does not cover the total.
func ChangeDue(total, received decimal.Decimal) decimal.Decimal {
	if received.LessThan(total) {
		return decimal.Zero
	}
	return received.Sub(total)
}

func CartSubtotal(items []CartItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return subtotal
}
