package service

import "errors"

// Rejections leave the till state untouched. Callers translate them into
// operator-facing messages.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicateCode      = errors.New("code already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("no operator logged in")
	ErrEmployeeActive     = errors.New("employee is logged in")
	ErrRoleInUse          = errors.New("role is assigned to employees")
	ErrRegisterOpen       = errors.New("cash register already open")
	ErrRegisterClosed     = errors.New("cash register is closed")
	ErrOutOfStock         = errors.New("insufficient stock")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidPayment     = errors.New("unsupported payment method")
)
