package service

import (
	"time"

	"github.com/shopspring/decimal"

	"pdvcaixa/internal/domain"
)

type SessionReport struct {
	SessionID        string                `json:"sessionId"`
	OperatorName     string                `json:"operatorName"`
	Status           domain.RegisterStatus `json:"status"`
	OpeningTime      time.Time             `json:"openingTime"`
	ClosingTime      *time.Time            `json:"closingTime,omitempty"`
	TransactionCount int                   `json:"transactionCount"`
	OpeningBalance   decimal.Decimal       `json:"openingBalance"`
	CashTotal        decimal.Decimal       `json:"cashTotal"`
	CardTotal        decimal.Decimal       `json:"cardTotal"`
	PIXTotal         decimal.Decimal       `json:"pixTotal"`
	GrossTotal       decimal.Decimal       `json:"grossTotal"`
	ExpectedCash     decimal.Decimal       `json:"expectedCash"`
	ClosingBalance   *decimal.Decimal      `json:"closingBalance,omitempty"`
}

// BuildSessionReport totals a session per payment method. ExpectedCash is
// what the drawer should hold: the opening float plus cash sales.
func BuildSessionReport(session domain.CashRegisterSession) SessionReport {
	report := SessionReport{
		SessionID:        session.ID,
		OperatorName:     session.OperatorName,
		Status:           session.Status,
		OpeningTime:      session.OpeningTime,
		ClosingTime:      session.ClosingTime,
		TransactionCount: len(session.Transactions),
		OpeningBalance:   session.OpeningBalance,
		CashTotal:        decimal.Zero,
		CardTotal:        decimal.Zero,
		PIXTotal:         decimal.Zero,
		ClosingBalance:   session.ClosingBalance,
	}
	for _, tx := range session.Transactions {
		switch tx.PaymentMethod {
		case domain.PaymentCash:
			report.CashTotal = report.CashTotal.Add(tx.Total)
		case domain.PaymentCard:
			report.CardTotal = report.CardTotal.Add(tx.Total)
		case domain.PaymentPIX:
			report.PIXTotal = report.PIXTotal.Add(tx.Total)
		}
	}
	report.GrossTotal = report.CashTotal.Add(report.CardTotal).Add(report.PIXTotal)
	report.ExpectedCash = session.OpeningBalance.Add(report.CashTotal)
	return report
}

// SessionReports reports the open session, if any, followed by the closed
// history.
func (s *Service) SessionReports() []SessionReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SessionReport, 0, len(s.state.CashRegisterHistory)+1)
	if s.state.register != nil {
		out = append(out, BuildSessionReport(*s.state.register))
	}
	for _, session := range s.state.CashRegisterHistory {
		out = append(out, BuildSessionReport(session))
	}
	return out
}

// HistoryFilter narrows the ledger. To is inclusive of the whole day it
// falls on; an empty Method matches every payment method.
type HistoryFilter struct {
	From   *time.Time
	To     *time.Time
	Method domain.PaymentMethod
}

func (f HistoryFilter) match(tx domain.Transaction) bool {
	if f.Method != "" && tx.PaymentMethod != f.Method {
		return false
	}
	if f.From != nil && tx.Date.Before(*f.From) {
		return false
	}
	if f.To != nil {
		end := time.Date(f.To.Year(), f.To.Month(), f.To.Day(), 0, 0, 0, 0, f.To.Location()).AddDate(0, 0, 1)
		if !tx.Date.Before(end) {
			return false
		}
	}
	return true
}

// SalesHistory returns matching ledger entries, newest first.
func (s *Service) SalesHistory(filter HistoryFilter) []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Transaction, 0, len(s.state.Transactions))
	for _, tx := range s.state.Transactions {
		if filter.match(tx) {
			out = append(out, cloneTransaction(tx))
		}
	}
	return out
}

type DailySales struct {
	Day   string          `json:"day"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// DailySales buckets ledger totals per UTC day for the last days days,
// oldest first. Days without sales are present with a zero total.
func (s *Service) DailySales(days int) []DailySales {
	if days < 1 {
		days = 7
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.timestamp()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	first := today.AddDate(0, 0, -(days - 1))

	out := make([]DailySales, days)
	index := make(map[string]int, days)
	for i := range out {
		day := first.AddDate(0, 0, i).Format("2006-01-02")
		out[i] = DailySales{Day: day, Total: decimal.Zero}
		index[day] = i
	}
	for _, tx := range s.state.Transactions {
		i, ok := index[tx.Date.UTC().Format("2006-01-02")]
		if !ok {
			continue
		}
		out[i].Total = out[i].Total.Add(tx.Total)
		out[i].Count++
	}
	return out
}
