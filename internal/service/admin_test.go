package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartgate-service/internal/model"
	"smartgate-service/internal/store"
	"smartgate-service/internal/store/memstore"
)

func newAdminService(t *testing.T, st store.Store, now time.Time) *AdminService {
	t.Helper()
	svc := NewAdminService(st)
	svc.now = testClock(now)
	return svc
}

func TestCreateUserDefaults(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC)
	st := memstore.New()
	svc := newAdminService(t, st, now)

	user, err := svc.CreateUser(ctx, UserInput{Name: "Carl Console"})
	require.NoError(t, err)

	assert.Equal(t, model.RoleGuest, user.Role)
	assert.NotEmpty(t, user.ID)

	hash, err := st.GetCredential(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
}

func TestCreateUserInvalidRole(t *testing.T) {
	ctx := context.Background()
	svc := newAdminService(t, memstore.New(), time.Now())

	_, err := svc.CreateUser(ctx, UserInput{Name: "Carl", Role: "wizard"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC)
	st := memstore.New()
	svc := newAdminService(t, st, now)

	require.NoError(t, st.SaveUser(ctx, &model.User{ID: "USR-D", Name: "Dana Delete", Role: model.RoleStudent}))
	vehicle := &model.Vehicle{PlateText: "DEL123", UserID: "USR-D"}
	require.NoError(t, st.SaveVehicle(ctx, vehicle))
	pass := &model.Pass{UserID: "USR-D", Role: model.RoleStudent, PlanType: "short_semester", ValidFrom: now, ValidTo: now.AddDate(0, 0, 50), PriceRM: 30}
	require.NoError(t, st.SavePass(ctx, pass))

	require.NoError(t, svc.DeleteUser(ctx, "USR-D"))

	_, err := st.GetUser(ctx, "USR-D")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.GetVehicle(ctx, vehicle.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.GetPass(ctx, pass.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateVehicleNormalizesPlate(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := newAdminService(t, st, time.Now())

	require.NoError(t, st.SaveUser(ctx, &model.User{ID: "USR-V", Name: "Vik Vehicle", Role: model.RoleStaff}))

	vehicle, err := svc.CreateVehicle(ctx, VehicleInput{PlateText: " wqx-7712! ", UserID: "USR-V"})
	require.NoError(t, err)
	assert.Equal(t, "WQX 7712", vehicle.PlateText)

	_, err = svc.CreateVehicle(ctx, VehicleInput{PlateText: "ANY1", UserID: "USR-GHOST"})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreatePassIssuesInvoice(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC)
	st := memstore.New()
	svc := newAdminService(t, st, now)

	require.NoError(t, st.SaveUser(ctx, &model.User{ID: "USR-P", Name: "Pat Pass", Role: model.RoleStaff}))

	pass, err := svc.CreatePass(ctx, PassInput{UserID: "USR-P", Role: model.RoleStaff, PlanType: "annual", StartsAt: now})
	require.NoError(t, err)

	assert.Equal(t, 120.0, pass.PriceRM)
	assert.False(t, pass.IsPaid)
	assert.Equal(t, now.AddDate(0, 0, 365), pass.ValidTo)

	notes, err := st.ListNotifications(ctx, "USR-P")
	require.NoError(t, err)
	require.NotEmpty(t, notes)
	assert.Equal(t, "Annual (365 days) pass issued. Pay RM 120.00 via wallet.", notes[0].Message)
}

func TestCreatePassUnknownPlan(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := newAdminService(t, st, time.Now())
	require.NoError(t, st.SaveUser(ctx, &model.User{ID: "USR-P", Name: "Pat Pass", Role: model.RoleStaff}))

	_, err := svc.CreatePass(ctx, PassInput{UserID: "USR-P", Role: model.RoleStaff, PlanType: "decade"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdatePassPlanChangeVoidsPayment(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC)
	st := memstore.New()
	svc := newAdminService(t, st, now)

	require.NoError(t, st.SaveUser(ctx, &model.User{ID: "USR-P", Name: "Pat Pass", Role: model.RoleStaff}))
	paidAt := now.Add(-time.Hour)
	pass := &model.Pass{
		UserID:    "USR-P",
		Role:      model.RoleStaff,
		PlanType:  "short_semester",
		ValidFrom: now.AddDate(0, 0, -5),
		ValidTo:   now.AddDate(0, 0, 45),
		PriceRM:   30,
		IsPaid:    true,
		PaidAt:    &paidAt,
	}
	require.NoError(t, st.SavePass(ctx, pass))

	plan := "annual"
	updated, err := svc.UpdatePass(ctx, pass.ID, PassUpdate{PlanType: &plan})
	require.NoError(t, err)

	assert.Equal(t, "annual", updated.PlanType)
	assert.Equal(t, 120.0, updated.PriceRM)
	assert.False(t, updated.IsPaid)
	assert.Nil(t, updated.PaidAt)
	assert.Equal(t, pass.ValidFrom.AddDate(0, 0, 365), updated.ValidTo)
}

func TestUpdatePassRoleOnlyKeepsPayment(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC)
	st := memstore.New()
	svc := newAdminService(t, st, now)

	require.NoError(t, st.SaveUser(ctx, &model.User{ID: "USR-P", Name: "Pat Pass", Role: model.RoleStaff}))
	paidAt := now.Add(-time.Hour)
	pass := &model.Pass{
		UserID:    "USR-P",
		Role:      model.RoleStaff,
		PlanType:  "short_semester",
		ValidFrom: now.AddDate(0, 0, -5),
		ValidTo:   now.AddDate(0, 0, 45),
		PriceRM:   30,
		IsPaid:    true,
		PaidAt:    &paidAt,
	}
	require.NoError(t, st.SavePass(ctx, pass))

	role := model.RoleSecurity
	updated, err := svc.UpdatePass(ctx, pass.ID, PassUpdate{Role: &role})
	require.NoError(t, err)

	assert.Equal(t, model.RoleSecurity, updated.Role)
	assert.True(t, updated.IsPaid)
}

func TestCreateGateSlugUniqueness(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := newAdminService(t, st, time.Now())

	gate, err := svc.CreateGate(ctx, GateInput{Name: "Main", Slug: " OUTER ", MinRole: model.RoleGuest, IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, "outer", gate.Slug)

	_, err = svc.CreateGate(ctx, GateInput{Name: "Other", Slug: "outer", MinRole: model.RoleStaff})
	require.ErrorIs(t, err, ErrConflict)
}

func TestUpdateGateSlugConflict(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := newAdminService(t, st, time.Now())

	_, err := svc.CreateGate(ctx, GateInput{ID: "GATE-1", Name: "Main", Slug: "outer", MinRole: model.RoleGuest})
	require.NoError(t, err)
	_, err = svc.CreateGate(ctx, GateInput{ID: "GATE-2", Name: "Back", Slug: "inner", MinRole: model.RoleStaff})
	require.NoError(t, err)

	slug := "outer"
	_, err = svc.UpdateGate(ctx, "GATE-2", GateUpdate{Slug: &slug})
	require.ErrorIs(t, err, ErrConflict)

	minRole := model.RoleSecurity
	updated, err := svc.UpdateGate(ctx, "GATE-2", GateUpdate{MinRole: &minRole})
	require.NoError(t, err)
	assert.Equal(t, model.RoleSecurity, updated.MinRole)
}

func TestListUsersEnrichesWalletBalance(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC)
	st := memstore.New()
	seedWalletProfile(t, st, "USR-W", 42.5, now)
	svc := newAdminService(t, st, now)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.InDelta(t, 42.5, users[0].WalletBalance, 0.001)
}

func TestEnsureGuestRateSeedsOnce(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := newAdminService(t, st, time.Now())

	require.NoError(t, svc.EnsureGuestRate(ctx, 2.5, 0.75))
	rate, err := st.GetGuestRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2.5, rate.BaseRate)

	// A stored rate is never overwritten by startup defaults.
	require.NoError(t, st.SaveGuestRate(ctx, model.GuestRate{BaseRate: 9, PerMinuteRate: 9}))
	require.NoError(t, svc.EnsureGuestRate(ctx, 2.5, 0.75))
	rate, err = st.GetGuestRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9.0, rate.BaseRate)
}
