package service

import (
	"context"

	"github.com/shopspring/decimal"

	"pdvcaixa/internal/domain"
	"pdvcaixa/internal/xid"
)

// OpenRegister starts a cash register session for the logged in operator.
// Only one session may be open at a time.
func (s *Service) OpenRegister(ctx context.Context, openingBalance decimal.Decimal) (domain.CashRegisterSession, error) {
	if openingBalance.IsNegative() {
		return domain.CashRegisterSession{}, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.currentUser == nil {
		return domain.CashRegisterSession{}, ErrNotAuthenticated
	}
	if s.state.register != nil {
		return domain.CashRegisterSession{}, ErrRegisterOpen
	}

	session := domain.CashRegisterSession{
		ID:             xid.New("cr"),
		OpeningTime:    s.timestamp(),
		OpeningBalance: openingBalance,
		OperatorID:     s.state.currentUser.EmployeeID,
		OperatorName:   s.state.currentUser.Name,
		Status:         domain.RegisterOpen,
		Transactions:   []domain.Transaction{},
	}
	s.state.register = &session
	s.log.Infow("register opened",
		"session_id", session.ID,
		"operator", session.OperatorName,
		"opening_balance", openingBalance.StringFixed(2))

	return cloneSession(session), nil
}

// CloseRegister closes the open session. The closing balance is the opening
// float plus every cash sale of the session. The closed session goes to the
// front of the history.
func (s *Service) CloseRegister(ctx context.Context) (domain.CashRegisterSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.register == nil {
		return domain.CashRegisterSession{}, ErrRegisterClosed
	}

	closed := *s.state.register
	closedAt := s.timestamp()
	balance := closed.OpeningBalance.Add(closed.CashTotal())
	closed.ClosingTime = &closedAt
	closed.ClosingBalance = &balance
	closed.Status = domain.RegisterClosed

	history := make([]domain.CashRegisterSession, 0, len(s.state.CashRegisterHistory)+1)
	history = append(history, closed)
	s.state.CashRegisterHistory = append(history, s.state.CashRegisterHistory...)
	s.state.register = nil

	s.persistLocked(ctx, "register_close")
	s.log.Infow("register closed",
		"session_id", closed.ID,
		"transactions", len(closed.Transactions),
		"closing_balance", balance.StringFixed(2))

	return cloneSession(closed), nil
}

func (s *Service) CurrentRegister() (domain.CashRegisterSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.register == nil {
		return domain.CashRegisterSession{}, false
	}
	return cloneSession(*s.state.register), true
}

// RegisterHistory lists closed sessions, most recently closed first.
func (s *Service) RegisterHistory() []domain.CashRegisterSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.CashRegisterSession, len(s.state.CashRegisterHistory))
	for i, session := range s.state.CashRegisterHistory {
		out[i] = cloneSession(session)
	}
	return out
}
