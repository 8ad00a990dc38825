package service

import (
	"slices"

	"github.com/shopspring/decimal"

	"pdvcaixa/internal/domain"
)

// Cart returns the in-progress sale lines in insertion order.
func (s *Service) Cart() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneCart(s.state.cart)
}

func (s *Service) CartSubtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CartSubtotal(s.state.cart)
}

// AddToCart adds qty of a product, rounded by the product unit. A product
// already in the cart has its line incremented. The cart never holds more
// than the product's current stock; stock itself is only touched when the
// sale is finalized.
func (s *Service) AddToCart(productID string, qty decimal.Decimal) (domain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.productIndexLocked(productID)
	if idx < 0 {
		return domain.CartItem{}, ErrNotFound
	}
	product := s.state.Products[idx]
	if !product.Stock.IsPositive() {
		return domain.CartItem{}, ErrOutOfStock
	}

	q := product.Unit.Measure().Normalize(qty)
	if !q.IsPositive() {
		return domain.CartItem{}, ErrInvalidQuantity
	}

	line := s.cartIndexLocked(productID)
	if line >= 0 {
		total := s.state.cart[line].Quantity.Add(q)
		if total.GreaterThan(product.Stock) {
			return domain.CartItem{}, ErrOutOfStock
		}
		s.state.cart[line].Quantity = total
		return s.state.cart[line], nil
	}

	if q.GreaterThan(product.Stock) {
		return domain.CartItem{}, ErrOutOfStock
	}
	item := domain.CartItem{Product: product, Quantity: q}
	s.state.cart = append(s.state.cart, item)
	return item, nil
}

func (s *Service) RemoveFromCart(productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeFromCartLocked(productID)
}

func (s *Service) removeFromCartLocked(productID string) error {
	line := s.cartIndexLocked(productID)
	if line < 0 {
		return ErrNotFound
	}
	s.state.cart = slices.Delete(s.state.cart, line, line+1)
	return nil
}

// UpdateCartItemQuantity sets a line to qty after unit rounding. A result of
// zero or less removes the line; more than the current stock is rejected and
// the old quantity kept. A removed line is reported with a zero quantity.
func (s *Service) UpdateCartItemQuantity(productID string, qty decimal.Decimal) (domain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := s.cartIndexLocked(productID)
	if line < 0 {
		return domain.CartItem{}, ErrNotFound
	}
	item := s.state.cart[line]

	q := item.Unit.Measure().Normalize(qty)
	if !q.IsPositive() {
		_ = s.removeFromCartLocked(productID)
		item.Quantity = decimal.Zero
		return item, nil
	}

	idx := s.productIndexLocked(productID)
	if idx < 0 {
		return domain.CartItem{}, ErrNotFound
	}
	if q.GreaterThan(s.state.Products[idx].Stock) {
		return domain.CartItem{}, ErrOutOfStock
	}

	s.state.cart[line].Quantity = q
	return s.state.cart[line], nil
}

func (s *Service) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.cart = nil
}

func (s *Service) cartIndexLocked(productID string) int {
	return slices.IndexFunc(s.state.cart, func(i domain.CartItem) bool { return i.ID == productID })
}
