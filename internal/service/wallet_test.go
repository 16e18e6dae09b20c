package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartgate-service/internal/external"
	"smartgate-service/internal/model"
	"smartgate-service/internal/store"
	"smartgate-service/internal/store/memstore"
)

func newWalletService(t *testing.T, st store.Store, now time.Time) *WalletService {
	t.Helper()
	gateway := external.NewTouchNGoClient(external.TouchNGoConfig{}, zerolog.Nop())
	svc := NewWalletService(st, gateway, "MYR", zerolog.Nop())
	svc.now = testClock(now)
	return svc
}

func TestTopUpRejectsSmallAmounts(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := memstore.New()
	seedWalletProfile(t, st, "USR-W", 0, now)
	svc := newWalletService(t, st, now)

	for _, amount := range []float64{0, 0.5, -10} {
		_, err := svc.TopUp(ctx, "USR-W", amount, "card")
		require.ErrorIs(t, err, ErrInvalidInput, amount)
	}
}

func TestTopUpUnknownUser(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := newWalletService(t, st, time.Now())

	_, err := svc.TopUp(ctx, "USR-GHOST", 20, "card")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestTopUpCreditsBalance(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := memstore.New()
	seedWalletProfile(t, st, "USR-W", 5, now)
	svc := newWalletService(t, st, now)

	activity, err := svc.TopUp(ctx, "USR-W", 20, "card")
	require.NoError(t, err)

	assert.InDelta(t, 25.0, activity.Wallet.Balance, 0.001)
	require.NotNil(t, activity.Wallet.LastTopUp)
	assert.Equal(t, now, *activity.Wallet.LastTopUp)
	assert.Equal(t, "MYR", activity.Wallet.Currency)

	require.Len(t, activity.Transactions, 1)
	assert.Equal(t, model.WalletTxnTopUp, activity.Transactions[0].Type)
	assert.InDelta(t, 20.0, activity.Transactions[0].Amount, 0.001)

	payments, err := st.ListPayments(ctx)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, external.ProcessorTouchNGo, payments[0].Processor)
	assert.NotNil(t, payments[0].Reference)
}

func TestPayPassInvoice(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := memstore.New()
	seedWalletProfile(t, st, "USR-W", 100, now)
	pass := &model.Pass{
		UserID:    "USR-W",
		Role:      model.RoleStudent,
		PlanType:  "short_semester",
		ValidFrom: now,
		ValidTo:   now.AddDate(0, 0, 60),
		PriceRM:   30,
	}
	require.NoError(t, st.SavePass(ctx, pass))
	svc := newWalletService(t, st, now)

	paid, err := svc.PayPassInvoice(ctx, "USR-W", pass.ID)
	require.NoError(t, err)

	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, now, *paid.PaidAt)

	profile, err := st.GetProfile(ctx, "USR-W")
	require.NoError(t, err)
	assert.InDelta(t, 70.0, profile.WalletBalance, 0.001)

	payments, err := st.ListPayments(ctx)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "wallet", payments[0].Processor)
	require.NotNil(t, payments[0].PassID)
	assert.Equal(t, pass.ID, *payments[0].PassID)

	notes, err := st.ListNotifications(ctx, "USR-W")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Pass payment received: RM 30.00", notes[0].Message)
}

func TestPayPassInvoiceIdempotent(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := memstore.New()
	seedWalletProfile(t, st, "USR-W", 100, now)
	pass := &model.Pass{
		UserID:    "USR-W",
		Role:      model.RoleStudent,
		PlanType:  "short_semester",
		ValidFrom: now,
		ValidTo:   now.AddDate(0, 0, 60),
		PriceRM:   30,
	}
	require.NoError(t, st.SavePass(ctx, pass))
	svc := newWalletService(t, st, now)

	_, err := svc.PayPassInvoice(ctx, "USR-W", pass.ID)
	require.NoError(t, err)
	again, err := svc.PayPassInvoice(ctx, "USR-W", pass.ID)
	require.NoError(t, err)
	assert.True(t, again.IsPaid)

	profile, err := st.GetProfile(ctx, "USR-W")
	require.NoError(t, err)
	assert.InDelta(t, 70.0, profile.WalletBalance, 0.001)

	txns, err := st.ListWalletTransactions(ctx, "USR-W", 0)
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestPayPassInvoiceInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := memstore.New()
	seedWalletProfile(t, st, "USR-W", 10, now)
	pass := &model.Pass{
		UserID:    "USR-W",
		Role:      model.RoleStudent,
		PlanType:  "short_semester",
		ValidFrom: now,
		ValidTo:   now.AddDate(0, 0, 60),
		PriceRM:   12.5,
	}
	require.NoError(t, st.SavePass(ctx, pass))
	svc := newWalletService(t, st, now)

	_, err := svc.PayPassInvoice(ctx, "USR-W", pass.ID)
	require.ErrorIs(t, err, store.ErrInvalidOperation)

	stored, err := st.GetPass(ctx, pass.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsPaid)

	profile, err := st.GetProfile(ctx, "USR-W")
	require.NoError(t, err)
	assert.InDelta(t, 10.0, profile.WalletBalance, 0.001)
}

func TestWalletBalanceNeverNegative(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := memstore.New()
	seedWalletProfile(t, st, "USR-W", 0, now)
	svc := newWalletService(t, st, now)

	_, err := svc.TopUp(ctx, "USR-W", 20, "card")
	require.NoError(t, err)

	charge := func(price float64) error {
		pass := &model.Pass{
			UserID:    "USR-W",
			Role:      model.RoleStudent,
			PlanType:  "short_semester",
			ValidFrom: now,
			ValidTo:   now.AddDate(0, 0, 60),
			PriceRM:   price,
		}
		require.NoError(t, st.SavePass(ctx, pass))
		_, err := svc.PayPassInvoice(ctx, "USR-W", pass.ID)
		return err
	}

	require.NoError(t, charge(12.5))
	require.NoError(t, charge(7.5))

	// The balance sits at zero; any further debit bounces without mutating it.
	require.ErrorIs(t, charge(0.01), store.ErrInvalidOperation)

	profile, err := st.GetProfile(ctx, "USR-W")
	require.NoError(t, err)
	assert.InDelta(t, 0.0, profile.WalletBalance, 1e-6)
	assert.GreaterOrEqual(t, profile.WalletBalance, 0.0)
}

func TestPayPassInvoiceWrongOwner(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	st := memstore.New()
	seedWalletProfile(t, st, "USR-W", 100, now)
	require.NoError(t, st.SaveUser(ctx, &model.User{ID: "USR-OTHER", Name: "Olga Other", Role: model.RoleStudent}))
	pass := &model.Pass{
		UserID:    "USR-OTHER",
		Role:      model.RoleStudent,
		PlanType:  "short_semester",
		ValidFrom: now,
		ValidTo:   now.AddDate(0, 0, 60),
		PriceRM:   30,
	}
	require.NoError(t, st.SavePass(ctx, pass))
	svc := newWalletService(t, st, now)

	_, err := svc.PayPassInvoice(ctx, "USR-W", pass.ID)
	require.ErrorIs(t, err, ErrInvalidInput)
}
