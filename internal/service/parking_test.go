package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartgate-service/internal/model"
	"smartgate-service/internal/store"
	"smartgate-service/internal/store/memstore"
)

func TestCreateVenueClampsOccupancy(t *testing.T) {
	ctx := context.Background()
	svc := NewParkingService(memstore.New())

	venue, err := svc.CreateVenue(ctx, VenueInput{Name: "North Deck", Capacity: 10, Occupied: 15})
	require.NoError(t, err)

	assert.Equal(t, 10, venue.Occupied)
	assert.InDelta(t, 100.0, venue.Percent, 0.001)
	assert.NotEmpty(t, venue.ID)
}

func TestCreateVenueRequiresName(t *testing.T) {
	ctx := context.Background()
	svc := NewParkingService(memstore.New())

	_, err := svc.CreateVenue(ctx, VenueInput{Capacity: 10})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateVenueConflict(t *testing.T) {
	ctx := context.Background()
	svc := NewParkingService(memstore.New())

	_, err := svc.CreateVenue(ctx, VenueInput{ID: "VEN-A", Name: "Deck A", Capacity: 10})
	require.NoError(t, err)
	_, err = svc.CreateVenue(ctx, VenueInput{ID: "VEN-A", Name: "Deck A again", Capacity: 20})
	require.ErrorIs(t, err, ErrConflict)
}

func TestRecordEventClampsAtBounds(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := NewParkingService(st)
	require.NoError(t, st.SaveParkingVenue(ctx, &model.ParkingVenue{ID: "VEN-A", Name: "Deck A", Capacity: 2, Occupied: 0}))

	// Exit on an empty venue stays at zero.
	venue, err := svc.RecordEvent(ctx, "VEN-A", model.DirectionExit)
	require.NoError(t, err)
	assert.Equal(t, 0, venue.Occupied)

	for i := 0; i < 3; i++ {
		venue, err = svc.RecordEvent(ctx, "VEN-A", model.DirectionEntry)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, venue.Occupied)
	assert.InDelta(t, 100.0, venue.Percent, 0.001)
}

func TestRecordEventSequenceTracksClampedNet(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := NewParkingService(st)
	require.NoError(t, st.SaveParkingVenue(ctx, &model.ParkingVenue{ID: "VEN-A", Name: "Deck A", Capacity: 3, Occupied: 1}))

	steps := []struct {
		direction model.ParkingDirection
		want      int
	}{
		{model.DirectionEntry, 2},
		{model.DirectionEntry, 3},
		{model.DirectionEntry, 3},
		{model.DirectionExit, 2},
		{model.DirectionExit, 1},
		{model.DirectionExit, 0},
		{model.DirectionExit, 0},
		{model.DirectionEntry, 1},
		{model.DirectionExit, 0},
	}
	for i, step := range steps {
		venue, err := svc.RecordEvent(ctx, "VEN-A", step.direction)
		require.NoError(t, err, i)
		assert.Equal(t, step.want, venue.Occupied, i)
	}
}

func TestRecordEventInvalidDirection(t *testing.T) {
	ctx := context.Background()
	svc := NewParkingService(memstore.New())

	_, err := svc.RecordEvent(ctx, "VEN-A", "sideways")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestRecordEventUnknownVenue(t *testing.T) {
	ctx := context.Background()
	svc := NewParkingService(memstore.New())

	_, err := svc.RecordEvent(ctx, "VEN-MISSING", model.DirectionEntry)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateVenuePartial(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := NewParkingService(st)
	require.NoError(t, st.SaveParkingVenue(ctx, &model.ParkingVenue{ID: "VEN-A", Name: "Deck A", Capacity: 8, Occupied: 2}))

	occupied := 3
	venue, err := svc.UpdateVenue(ctx, "VEN-A", VenueUpdate{Occupied: &occupied})
	require.NoError(t, err)

	assert.Equal(t, "Deck A", venue.Name)
	assert.Equal(t, 8, venue.Capacity)
	assert.Equal(t, 3, venue.Occupied)
	assert.InDelta(t, 37.5, venue.Percent, 0.001)
}

func TestDeleteVenueUnbindsGates(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := NewParkingService(st)

	venueID := "VEN-A"
	entry := model.DirectionEntry
	require.NoError(t, st.SaveParkingVenue(ctx, &model.ParkingVenue{ID: venueID, Name: "Deck A", Capacity: 8}))
	require.NoError(t, st.SaveGate(ctx, &model.Gate{ID: "GATE-A", Name: "Gate A", Slug: "outer", MinRole: model.RoleGuest, IsActive: true, ParkingVenueID: &venueID, ParkingDirection: &entry}))

	require.NoError(t, svc.DeleteVenue(ctx, venueID))

	_, err := st.GetParkingVenue(ctx, venueID)
	require.ErrorIs(t, err, store.ErrNotFound)

	gate, err := st.GetGate(ctx, "GATE-A")
	require.NoError(t, err)
	assert.Nil(t, gate.ParkingVenueID)
	assert.Nil(t, gate.ParkingDirection)
}

func TestOverviewRecomputesPercent(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	svc := NewParkingService(st)
	require.NoError(t, st.SaveParkingVenue(ctx, &model.ParkingVenue{ID: "VEN-A", Name: "Deck A", Capacity: 8, Occupied: 3}))
	require.NoError(t, st.SaveParkingVenue(ctx, &model.ParkingVenue{ID: "VEN-B", Name: "Deck B", Capacity: 0, Occupied: 4}))

	overview, err := svc.Overview(ctx)
	require.NoError(t, err)
	require.Len(t, overview.Venues, 2)

	assert.InDelta(t, 37.5, overview.Venues[0].Percent, 0.001)
	assert.Equal(t, 0, overview.Venues[1].Occupied)
	assert.InDelta(t, 0.0, overview.Venues[1].Percent, 0.001)
}
