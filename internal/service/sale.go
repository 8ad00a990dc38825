package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"pdvcaixa/internal/domain"
	"pdvcaixa/internal/xid"
)

// FinalizeRequest is the caller's view of the payment. Total already includes
// any manual discount or addition and is recorded exactly as given. When
// Adjustment is set, Total is ignored and derived from the cart being sold.
type FinalizeRequest struct {
	PaymentMethod    domain.PaymentMethod
	Total            decimal.Decimal
	Adjustment       *Adjustment
	PaymentReference string
	AmountReceived   *decimal.Decimal
}

// Adjustment is a manual discount and addition applied to the cart subtotal.
type Adjustment struct {
	Discount decimal.Decimal
	Addition decimal.Decimal
}

// FinalizeSale turns the cart into a transaction. It requires a non-empty
// cart, a logged in operator and an open register. On success stock is
// decremented, the transaction heads the ledger and ends the session list,
// and the cart is emptied, all in one step.
func (s *Service) FinalizeSale(ctx context.Context, req FinalizeRequest) (domain.Transaction, error) {
	if !req.PaymentMethod.Valid() {
		return domain.Transaction{}, ErrInvalidPayment
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.state.cart) == 0 {
		return domain.Transaction{}, ErrEmptyCart
	}
	if s.state.currentUser == nil {
		return domain.Transaction{}, ErrNotAuthenticated
	}
	if s.state.register == nil {
		return domain.Transaction{}, ErrRegisterClosed
	}

	// Catalog edits made while the cart was open may have lowered stock.
	productIdx := make([]int, len(s.state.cart))
	for i, item := range s.state.cart {
		productIdx[i] = s.productIndexLocked(item.ID)
		if productIdx[i] >= 0 && item.Quantity.GreaterThan(s.state.Products[productIdx[i]].Stock) {
			return domain.Transaction{}, ErrOutOfStock
		}
	}

	total := req.Total
	if req.Adjustment != nil {
		total = domain.ComputeTotal(domain.CartSubtotal(s.state.cart), req.Adjustment.Discount, req.Adjustment.Addition)
	}

	tx := domain.Transaction{
		ID:                    xid.New("tx"),
		Items:                 cloneCart(s.state.cart),
		Total:                 total,
		PaymentMethod:         req.PaymentMethod,
		Date:                  s.timestamp(),
		Operator:              s.state.currentUser.Name,
		OperatorCod:           s.state.currentUser.Cod,
		CashRegisterSessionID: s.state.register.ID,
		PaymentReference:      strings.TrimSpace(req.PaymentReference),
	}
	if req.AmountReceived != nil {
		received := *req.AmountReceived
		tx.AmountReceived = &received
		if req.PaymentMethod == domain.PaymentCash {
			change := domain.ChangeDue(total, received)
			tx.Change = &change
		}
	}

	for i, item := range s.state.cart {
		if productIdx[i] < 0 {
			continue
		}
		p := &s.state.Products[productIdx[i]]
		p.Stock = p.Stock.Sub(item.Quantity)
	}

	ledger := make([]domain.Transaction, 0, len(s.state.Transactions)+1)
	ledger = append(ledger, tx)
	s.state.Transactions = append(ledger, s.state.Transactions...)
	s.state.register.Transactions = append(s.state.register.Transactions, tx)
	s.state.cart = nil
	last := cloneTransaction(tx)
	s.state.lastTransaction = &last

	s.persistLocked(ctx, "sale")
	s.log.Infow("sale finalized",
		"transaction_id", tx.ID,
		"session_id", tx.CashRegisterSessionID,
		"operator", tx.OperatorCod,
		"payment_method", string(tx.PaymentMethod),
		"total", tx.Total.StringFixed(2),
		"items", len(tx.Items))

	return cloneTransaction(tx), nil
}

// LastTransaction is the most recent sale finalized by this process. It is
// not persisted.
func (s *Service) LastTransaction() (domain.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.lastTransaction == nil {
		return domain.Transaction{}, false
	}
	return cloneTransaction(*s.state.lastTransaction), true
}

// Transactions returns the ledger, newest first.
func (s *Service) Transactions() []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTransactions(s.state.Transactions)
}

func (s *Service) Transaction(id string) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, tx := range s.state.Transactions {
		if tx.ID == id {
			return cloneTransaction(tx), nil
		}
	}
	return domain.Transaction{}, ErrNotFound
}
