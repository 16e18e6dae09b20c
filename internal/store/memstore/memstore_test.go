package memstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartgate-service/internal/model"
	"smartgate-service/internal/store"
)

func TestGetUserNotFound(t *testing.T) {
	ctx := context.Background()
	m := New()

	_, err := m.GetUser(ctx, "USR-MISSING")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestFindReturnsNilNilOnMiss(t *testing.T) {
	ctx := context.Background()
	m := New()

	vehicle, err := m.FindVehicleByPlate(ctx, "NOPE1")
	require.NoError(t, err)
	assert.Nil(t, vehicle)

	user, err := m.FindUserByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestSaveUserAssignsID(t *testing.T) {
	ctx := context.Background()
	m := New()

	user := &model.User{Name: "Ida ID", Role: model.RoleGuest}
	require.NoError(t, m.SaveUser(ctx, user))
	assert.NotEmpty(t, user.ID)

	stored, err := m.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ida ID", stored.Name)
}

func TestTransactRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	m := New()
	sentinel := errors.New("boom")

	err := m.Transact(ctx, func(tx store.Store) error {
		if err := tx.SaveUser(ctx, &model.User{ID: "USR-T", Name: "Tran Sact", Role: model.RoleGuest}); err != nil {
			return err
		}
		if err := tx.SaveGuestSession(ctx, &model.GuestSession{ID: "GST-T", PlateText: "TX1", StartTime: time.Now(), Status: model.GuestSessionOpen}); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	_, err = m.GetUser(ctx, "USR-T")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = m.GetGuestSession(ctx, "GST-T")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestTransactCommits(t *testing.T) {
	ctx := context.Background()
	m := New()

	err := m.Transact(ctx, func(tx store.Store) error {
		return tx.SaveUser(ctx, &model.User{ID: "USR-C", Name: "Com Mit", Role: model.RoleGuest})
	})
	require.NoError(t, err)

	_, err = m.GetUser(ctx, "USR-C")
	require.NoError(t, err)
}

func TestAccessEventRing(t *testing.T) {
	ctx := context.Background()
	m := New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	total := model.AccessEventCapacity + 25
	for i := 0; i < total; i++ {
		event := &model.AccessEvent{
			PlateText: fmt.Sprintf("PLT%d", i),
			Decision:  model.DecisionAllow,
			Role:      model.RoleStaff,
			Gate:      "outer",
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, m.AppendAccessEvent(ctx, event))
	}

	events, err := m.ListAccessEvents(ctx, 0)
	require.NoError(t, err)
	require.Len(t, events, model.AccessEventCapacity)

	// Newest first; the oldest 25 fell off.
	assert.Equal(t, fmt.Sprintf("PLT%d", total-1), events[0].PlateText)
	assert.Equal(t, fmt.Sprintf("PLT%d", total-model.AccessEventCapacity), events[len(events)-1].PlateText)

	limited, err := m.ListAccessEvents(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, limited, 10)
}

func TestWalletTransactionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, m.AddWalletTransaction(ctx, &model.WalletTransaction{
			UserID:    "USR-W",
			Amount:    float64(i + 1),
			Type:      model.WalletTxnTopUp,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	txns, err := m.ListWalletTransactions(ctx, "USR-W", 0)
	require.NoError(t, err)
	require.Len(t, txns, 3)
	assert.Equal(t, 3.0, txns[0].Amount)
	assert.Equal(t, 1.0, txns[2].Amount)

	limited, err := m.ListWalletTransactions(ctx, "USR-W", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestLatestPassPicksFurthestValidity(t *testing.T) {
	ctx := context.Background()
	m := New()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	older := &model.Pass{UserID: "USR-P", Role: model.RoleStaff, PlanType: "short_semester", ValidFrom: base.AddDate(0, 0, -100), ValidTo: base.AddDate(0, 0, -50), PriceRM: 30}
	newer := &model.Pass{UserID: "USR-P", Role: model.RoleStaff, PlanType: "annual", ValidFrom: base, ValidTo: base.AddDate(0, 0, 365), PriceRM: 120}
	require.NoError(t, m.SavePass(ctx, older))
	require.NoError(t, m.SavePass(ctx, newer))

	latest, err := m.LatestPass(ctx, "USR-P")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, newer.ID, latest.ID)

	none, err := m.LatestPass(ctx, "USR-OTHER")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestFindGuestSessionByPlateFiltersStatus(t *testing.T) {
	ctx := context.Background()
	m := New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, m.SaveGuestSession(ctx, &model.GuestSession{ID: "GST-1", PlateText: "AAA1", StartTime: base, Status: model.GuestSessionPaid}))
	require.NoError(t, m.SaveGuestSession(ctx, &model.GuestSession{ID: "GST-2", PlateText: "AAA1", StartTime: base.Add(time.Hour), Status: model.GuestSessionOpen}))

	open, err := m.FindGuestSessionByPlate(ctx, "AAA1", model.GuestSessionOpen)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, "GST-2", open.ID)

	missing, err := m.FindGuestSessionByPlate(ctx, "BBB2", model.GuestSessionOpen)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUnbindGatesFromVenue(t *testing.T) {
	ctx := context.Background()
	m := New()

	venueID := "VEN-1"
	entry := model.DirectionEntry
	require.NoError(t, m.SaveGate(ctx, &model.Gate{ID: "GATE-1", Name: "Main", Slug: "outer", MinRole: model.RoleGuest, ParkingVenueID: &venueID, ParkingDirection: &entry}))
	require.NoError(t, m.SaveGate(ctx, &model.Gate{ID: "GATE-2", Name: "Back", Slug: "inner", MinRole: model.RoleStaff}))

	require.NoError(t, m.UnbindGatesFromVenue(ctx, venueID))

	gate, err := m.GetGate(ctx, "GATE-1")
	require.NoError(t, err)
	assert.Nil(t, gate.ParkingVenueID)
	assert.Nil(t, gate.ParkingDirection)
}

func TestGuestRateNotSeeded(t *testing.T) {
	ctx := context.Background()
	m := New()

	_, err := m.GetGuestRate(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, m.SaveGuestRate(ctx, model.GuestRate{BaseRate: 2.5, PerMinuteRate: 0.75}))
	rate, err := m.GetGuestRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2.5, rate.BaseRate)
}
