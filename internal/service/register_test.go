package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdvcaixa/internal/domain"
)

func TestOpenRegisterRequiresOperator(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.OpenRegister(context.Background(), dec("100"))
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, open := svc.CurrentRegister()
	assert.False(t, open)
}

func TestOnlyOneSessionOpen(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	loginAdmin(t, svc)

	first := openRegister(t, svc, "300.00")
	assert.Equal(t, domain.RegisterOpen, first.Status)
	assert.Equal(t, "Administrador", first.OperatorName)

	_, err := svc.OpenRegister(ctx, dec("10"))
	assert.ErrorIs(t, err, ErrRegisterOpen)

	current, ok := svc.CurrentRegister()
	require.True(t, ok)
	assert.Equal(t, first.ID, current.ID)
	requireDecimal(t, "300", current.OpeningBalance)
}

func TestCloseRegisterWithoutSession(t *testing.T) {
	svc, _ := newTestService(t)
	loginAdmin(t, svc)

	_, err := svc.CloseRegister(context.Background())
	assert.ErrorIs(t, err, ErrRegisterClosed)
	assert.Empty(t, svc.RegisterHistory())
}

func TestOpenRegisterRejectsNegativeFloat(t *testing.T) {
	svc, _ := newTestService(t)
	loginAdmin(t, svc)

	_, err := svc.OpenRegister(context.Background(), dec("-1"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCloseRegisterCountsOnlyCash(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	opened := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return opened }

	loginAdmin(t, svc)
	openRegister(t, svc, "200")
	cafe := productByCod(t, svc, "7891000315507")

	sell := func(method domain.PaymentMethod, total string) {
		t.Helper()
		_, err := svc.AddToCart(cafe.ID, dec("1"))
		require.NoError(t, err)
		_, err = svc.FinalizeSale(ctx, FinalizeRequest{PaymentMethod: method, Total: dec(total)})
		require.NoError(t, err)
	}
	sell(domain.PaymentCash, "5")
	sell(domain.PaymentCard, "5")
	sell(domain.PaymentPIX, "5")
	sell(domain.PaymentCash, "4.50")

	closedAt := opened.Add(9 * time.Hour)
	svc.now = func() time.Time { return closedAt }
	closed, err := svc.CloseRegister(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.RegisterClosed, closed.Status)
	require.NotNil(t, closed.ClosingBalance)
	requireDecimal(t, "209.50", *closed.ClosingBalance)
	require.NotNil(t, closed.ClosingTime)
	assert.True(t, closed.ClosingTime.Equal(closedAt))
	assert.Len(t, closed.Transactions, 4)

	_, open := svc.CurrentRegister()
	assert.False(t, open)

	stored, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, stored.CashRegisterHistory, 1)
	assert.Equal(t, closed.ID, stored.CashRegisterHistory[0].ID)
}

func TestRegisterHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	loginAdmin(t, svc)

	first := openRegister(t, svc, "10")
	_, err := svc.CloseRegister(ctx)
	require.NoError(t, err)
	second := openRegister(t, svc, "20")
	_, err = svc.CloseRegister(ctx)
	require.NoError(t, err)

	history := svc.RegisterHistory()
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)
	requireDecimal(t, "20", *history[0].ClosingBalance)
}
