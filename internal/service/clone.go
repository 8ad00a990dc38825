package service

import (
	"slices"

	"pdvcaixa/internal/domain"
)

func cloneCart(items []domain.CartItem) []domain.CartItem {
	return slices.Clone(items)
}

func cloneTransaction(tx domain.Transaction) domain.Transaction {
	out := tx
	out.Items = slices.Clone(tx.Items)
	if tx.AmountReceived != nil {
		v := *tx.AmountReceived
		out.AmountReceived = &v
	}
	if tx.Change != nil {
		v := *tx.Change
		out.Change = &v
	}
	return out
}

func cloneTransactions(txs []domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, len(txs))
	for i, tx := range txs {
		out[i] = cloneTransaction(tx)
	}
	return out
}

func cloneSession(session domain.CashRegisterSession) domain.CashRegisterSession {
	out := session
	out.Transactions = cloneTransactions(session.Transactions)
	if session.ClosingTime != nil {
		v := *session.ClosingTime
		out.ClosingTime = &v
	}
	if session.ClosingBalance != nil {
		v := *session.ClosingBalance
		out.ClosingBalance = &v
	}
	return out
}

func cloneSnapshot(snapshot domain.Snapshot) domain.Snapshot {
	out := domain.Snapshot{
		Products:     slices.Clone(snapshot.Products),
		Transactions: cloneTransactions(snapshot.Transactions),
		Employees:    slices.Clone(snapshot.Employees),
		Suppliers:    slices.Clone(snapshot.Suppliers),
		Roles:        slices.Clone(snapshot.Roles),
		Theme:        snapshot.Theme,
	}
	out.CashRegisterHistory = make([]domain.CashRegisterSession, len(snapshot.CashRegisterHistory))
	for i, session := range snapshot.CashRegisterHistory {
		out.CashRegisterHistory[i] = cloneSession(session)
	}
	return out
}
