package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
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

func newGuestService(t *testing.T, st store.Store, now time.Time) *GuestService {
	t.Helper()
	gateway := external.NewTouchNGoClient(external.TouchNGoConfig{}, zerolog.Nop())
	svc := NewGuestService(st, nil, gateway, "MYR", zerolog.Nop())
	svc.now = testClock(now)
	return svc
}

func seedGuestRate(t *testing.T, st store.Store) {
	t.Helper()
	require.NoError(t, st.SaveGuestRate(context.Background(), model.GuestRate{BaseRate: 2.5, PerMinuteRate: 0.75}))
}

func seedWalletProfile(t *testing.T, st store.Store, userID string, balance float64, now time.Time) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.SaveUser(ctx, &model.User{ID: userID, Name: "Wendy Wallet", Role: model.RoleStudent}))
	require.NoError(t, st.SaveProfile(ctx, &model.ClientProfile{
		UserID:         userID,
		RegistrationID: "REG-SEED",
		Status:         model.ProfileStatusActive,
		GuestPIN:       "1234",
		WalletBalance:  balance,
		CreatedAt:      now,
		UpdatedAt:      now,
	}))
}

func TestCloseSessionComputesFee(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	st := memstore.New()
	seedGuestRate(t, st)
	svc := newGuestService(t, st, start)

	session, err := svc.OpenSession(ctx, "wxy-1234!")
	require.NoError(t, err)
	assert.Equal(t, "WXY 1234", session.PlateText)

	svc.now = testClock(start.Add(5*time.Minute + 30*time.Second))
	closed, err := svc.CloseSession(ctx, session.ID)
	require.NoError(t, err)

	assert.Equal(t, model.GuestSessionClosed, closed.Status)
	require.NotNil(t, closed.Minutes)
	assert.Equal(t, 5, *closed.Minutes)
	require.NotNil(t, closed.Fee)
	assert.InDelta(t, 6.25, *closed.Fee, 0.001)
	assert.NotNil(t, closed.EndTime)
}

func TestCloseSessionMinimumOneMinute(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	st := memstore.New()
	seedGuestRate(t, st)
	svc := newGuestService(t, st, start)

	session, err := svc.OpenSession(ctx, "QUICK1")
	require.NoError(t, err)

	svc.now = testClock(start.Add(10 * time.Second))
	closed, err := svc.CloseSession(ctx, session.ID)
	require.NoError(t, err)

	require.NotNil(t, closed.Minutes)
	assert.Equal(t, 1, *closed.Minutes)
	assert.InDelta(t, 3.25, *closed.Fee, 0.001)
}

func TestCloseSessionAlreadyClosedNoOp(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	st := memstore.New()
	seedGuestRate(t, st)
	svc := newGuestService(t, st, start)

	session, err := svc.OpenSession(ctx, "IDEM1")
	require.NoError(t, err)

	svc.now = testClock(start.Add(3 * time.Minute))
	first, err := svc.CloseSession(ctx, session.ID)
	require.NoError(t, err)

	// A later second close must not re-meter the session.
	svc.now = testClock(start.Add(2 * time.Hour))
	second, err := svc.CloseSession(ctx, session.ID)
	require.NoError(t, err)

	assert.Equal(t, *first.Minutes, *second.Minutes)
	assert.InDelta(t, *first.Fee, *second.Fee, 0.001)
	assert.Equal(t, model.GuestSessionClosed, second.Status)
}

func TestPaySessionFromWallet(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	st := memstore.New()
	seedGuestRate(t, st)
	seedWalletProfile(t, st, "USR-W", 50, start)
	svc := newGuestService(t, st, start)

	session, err := svc.OpenSession(ctx, "PAYME1")
	require.NoError(t, err)
	svc.now = testClock(start.Add(5 * time.Minute))
	_, err = svc.CloseSession(ctx, session.ID)
	require.NoError(t, err)

	payment, err := svc.PaySession(ctx, GuestPaymentInput{
		SessionID:     session.ID,
		PaymentSource: "wallet",
		UserID:        "USR-W",
	})
	require.NoError(t, err)

	assert.Equal(t, "wallet", payment.Processor)
	assert.InDelta(t, 6.25, payment.Amount, 0.001)
	require.NotNil(t, payment.SessionID)
	assert.Equal(t, session.ID, *payment.SessionID)

	stored, err := st.GetGuestSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GuestSessionPaid, stored.Status)

	profile, err := st.GetProfile(ctx, "USR-W")
	require.NoError(t, err)
	assert.InDelta(t, 43.75, profile.WalletBalance, 0.001)

	txns, err := st.ListWalletTransactions(ctx, "USR-W", 0)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, model.WalletTxnGuestPayment, txns[0].Type)
	assert.InDelta(t, -6.25, txns[0].Amount, 0.001)
}

func TestPaySessionWalletInsufficientRollsBack(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	st := memstore.New()
	seedGuestRate(t, st)
	seedWalletProfile(t, st, "USR-W", 2, start)
	svc := newGuestService(t, st, start)

	session, err := svc.OpenSession(ctx, "BROKE1")
	require.NoError(t, err)
	svc.now = testClock(start.Add(5 * time.Minute))
	_, err = svc.CloseSession(ctx, session.ID)
	require.NoError(t, err)

	_, err = svc.PaySession(ctx, GuestPaymentInput{
		SessionID:     session.ID,
		PaymentSource: "wallet",
		UserID:        "USR-W",
	})
	require.ErrorIs(t, err, store.ErrInvalidOperation)

	stored, err := st.GetGuestSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GuestSessionClosed, stored.Status)

	profile, err := st.GetProfile(ctx, "USR-W")
	require.NoError(t, err)
	assert.InDelta(t, 2.0, profile.WalletBalance, 0.001)

	payments, err := st.ListPayments(ctx)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestPaySessionExternal(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	st := memstore.New()
	seedGuestRate(t, st)
	svc := newGuestService(t, st, start)

	session, err := svc.OpenSession(ctx, "EXTPAY1")
	require.NoError(t, err)

	svc.now = testClock(start.Add(10 * time.Minute))
	payment, err := svc.PaySession(ctx, GuestPaymentInput{
		SessionID:     session.ID,
		PaymentSource: "touchngo",
	})
	require.NoError(t, err)

	assert.Equal(t, external.ProcessorTouchNGo, payment.Processor)
	require.NotNil(t, payment.Reference)
	assert.True(t, strings.HasPrefix(*payment.Reference, "TNG-"))
	assert.InDelta(t, 10.0, payment.Amount, 0.001)

	stored, err := st.GetGuestSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GuestSessionPaid, stored.Status)
	require.NotNil(t, stored.Minutes)
	assert.Equal(t, 10, *stored.Minutes)
}

func TestPaySessionUnknownSessionNotCharged(t *testing.T) {
	charges := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		charges++
		json.NewEncoder(w).Encode(external.ChargeResult{Success: true, Reference: "TNG-TEST123456", Status: "CONFIRMED"})
	}))
	defer server.Close()

	st := memstore.New()
	seedGuestRate(t, st)
	gateway := external.NewTouchNGoClient(external.TouchNGoConfig{BaseURL: server.URL}, zerolog.Nop())
	svc := NewGuestService(st, nil, gateway, "MYR", zerolog.Nop())

	amount := 5.0
	_, err := svc.PaySession(context.Background(), GuestPaymentInput{
		SessionID:     "GST-MISSING",
		Amount:        &amount,
		PaymentSource: "touchngo",
	})
	require.ErrorIs(t, err, store.ErrNotFound)

	// No charge reached the gateway for the unknown session.
	assert.Zero(t, charges)
	payments, err := st.ListPayments(context.Background())
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestLookupOpenSessionLiveMeter(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	st := memstore.New()
	seedGuestRate(t, st)
	svc := newGuestService(t, st, start)

	session, err := svc.OpenSession(ctx, "meter 9")
	require.NoError(t, err)

	svc.now = testClock(start.Add(10 * time.Minute))
	lookup, err := svc.Lookup(ctx, "", "meter 9")
	require.NoError(t, err)

	assert.Equal(t, session.ID, lookup.Session.ID)
	assert.InDelta(t, 10.0, lookup.AmountDue, 0.001)
	assert.Equal(t, model.GuestSessionOpen, lookup.Session.Status)
}

func TestLookupUnknownSession(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	seedGuestRate(t, st)
	svc := newGuestService(t, st, time.Now())

	_, err := svc.Lookup(ctx, "GST-MISSING", "NOPLATE")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateRateRejectsNegative(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := newGuestService(t, st, time.Now())

	_, err := svc.UpdateRate(ctx, -1, 0.5)
	require.ErrorIs(t, err, ErrInvalidInput)

	rate, err := svc.UpdateRate(ctx, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, 3.0, rate.BaseRate)
	assert.Equal(t, 1.0, rate.PerMinuteRate)
}
