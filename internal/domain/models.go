package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "Dinheiro"
	PaymentCard PaymentMethod = "Cartão"
	PaymentPIX  PaymentMethod = "PIX"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentPIX:
		return true
	}
	return false
}

type RegisterStatus string

const (
	RegisterOpen   RegisterStatus = "aberto"
	RegisterClosed RegisterStatus = "fechado"
)

type Product struct {
	ID         string          `json:"id"`
	Cod        string          `json:"cod"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Stock      decimal.Decimal `json:"stock"`
	Unit       Unit            `json:"unit"`
	SupplierID string          `json:"supplierId,omitempty"`
}

// CartItem is a copy of the product taken when it entered the cart. Later
// catalog edits never reach it.
type CartItem struct {
	Product
	Quantity decimal.Decimal `json:"quantity"`
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(i.Quantity)
}

type Transaction struct {
	ID                    string           `json:"id"`
	Items                 []CartItem       `json:"items"`
	Total                 decimal.Decimal  `json:"total"`
	PaymentMethod         PaymentMethod    `json:"paymentMethod"`
	Date                  time.Time        `json:"date"`
	Operator              string           `json:"operator"`
	OperatorCod           string           `json:"operatorCod,omitempty"`
	CashRegisterSessionID string           `json:"cashRegisterSessionId,omitempty"`
	PaymentReference      string           `json:"paymentReference,omitempty"`
	AmountReceived        *decimal.Decimal `json:"amountReceived,omitempty"`
	Change                *decimal.Decimal `json:"change,omitempty"`
}

func (t Transaction) ItemCount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range t.Items {
		total = total.Add(item.Quantity)
	}
	return total
}

type CashRegisterSession struct {
	ID             string           `json:"id"`
	OpeningTime    time.Time        `json:"openingTime"`
	ClosingTime    *time.Time       `json:"closingTime,omitempty"`
	OpeningBalance decimal.Decimal  `json:"openingBalance"`
	ClosingBalance *decimal.Decimal `json:"closingBalance,omitempty"`
	OperatorID     string           `json:"operatorId"`
	OperatorName   string           `json:"operatorName"`
	Status         RegisterStatus   `json:"status"`
	Transactions   []Transaction    `json:"transactions"`
}

// CashTotal sums the totals of cash transactions recorded in the session.
func (s CashRegisterSession) CashTotal() decimal.Decimal {
	total := decimal.Zero
	for _, tx := range s.Transactions {
		if tx.PaymentMethod == PaymentCash {
			total = total.Add(tx.Total)
		}
	}
	return total
}

type Role struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Prefix string `json:"prefix"`
}

type Employee struct {
	ID            string           `json:"id"`
	Cod           string           `json:"cod"`
	Name          string           `json:"name"`
	RoleID        string           `json:"roleId"`
	Password      string           `json:"password,omitempty"`
	CPF           string           `json:"cpf,omitempty"`
	RG            string           `json:"rg,omitempty"`
	Phone         string           `json:"phone,omitempty"`
	Address       string           `json:"address,omitempty"`
	AdmissionDate string           `json:"admissionDate,omitempty"`
	Salary        *decimal.Decimal `json:"salary,omitempty"`
}

func (e Employee) Passwordless() bool {
	return e.Password == ""
}

type Supplier struct {
	ID            string `json:"id"`
	Cod           string `json:"cod"`
	Name          string `json:"name"`
	ContactPerson string `json:"contactPerson,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	Address       string `json:"address,omitempty"`
}

// CurrentUser is the operator at the till. SessionID changes on every
// login, even when the same employee logs in again.
type CurrentUser struct {
	EmployeeID string `json:"id"`
	Cod        string `json:"cod"`
	Name       string `json:"name"`
	RoleID     string `json:"roleId"`
	RoleName   string `json:"roleName"`
	SessionID  string `json:"-"`
}

type HSLColor struct {
	H int `json:"h"`
	S int `json:"s"`
	L int `json:"l"`
}

type FontFamily string

const (
	FontInter       FontFamily = "font-inter"
	FontSpaceMono   FontFamily = "font-space-mono"
	FontRobotoMono  FontFamily = "font-roboto-mono"
	FontInconsolata FontFamily = "font-inconsolata"
)

func (f FontFamily) Valid() bool {
	switch f {
	case FontInter, FontSpaceMono, FontRobotoMono, FontInconsolata:
		return true
	}
	return false
}

type ThemeSettings struct {
	PrimaryColor HSLColor   `json:"primaryColor"`
	FontFamily   FontFamily `json:"fontFamily"`
}

func DefaultTheme() ThemeSettings {
	return ThemeSettings{
		PrimaryColor: HSLColor{H: 262, S: 83, L: 58},
		FontFamily:   FontInter,
	}
}
