package service

import (
	"context"
	"fmt"

	"smartgate-service/internal/model"
	"smartgate-service/internal/store"
)

type ParkingService struct {
	store store.Store
}

func NewParkingService(st store.Store) *ParkingService {
	return &ParkingService{store: st}
}

func (s *ParkingService) Overview(ctx context.Context) (*model.ParkingOverview, error) {
	venues, err := s.store.ListParkingVenues(ctx)
	if err != nil {
		return nil, err
	}
	for idx := range venues {
		venues[idx].Clamp()
	}
	return &model.ParkingOverview{Venues: venues}, nil
}

func (s *ParkingService) ListVenues(ctx context.Context) ([]model.ParkingVenue, error) {
	return s.store.ListParkingVenues(ctx)
}

type VenueInput struct {
	ID       string
	Name     string
	Capacity int
	Occupied int
}

func (s *ParkingService) CreateVenue(ctx context.Context, input VenueInput) (*model.ParkingVenue, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	venue := &model.ParkingVenue{
		ID:       input.ID,
		Name:     input.Name,
		Capacity: input.Capacity,
		Occupied: input.Occupied,
	}
	venue.Clamp()
	err := s.store.Transact(ctx, func(tx store.Store) error {
		if venue.ID != "" {
			if _, err := tx.GetParkingVenue(ctx, venue.ID); err == nil {
				return fmt.Errorf("%w: venue %s already exists", ErrConflict, venue.ID)
			}
		}
		return tx.SaveParkingVenue(ctx, venue)
	})
	if err != nil {
		return nil, err
	}
	return venue, nil
}

type VenueUpdate struct {
	Name     *string
	Capacity *int
	Occupied *int
}

func (s *ParkingService) UpdateVenue(ctx context.Context, id string, update VenueUpdate) (*model.ParkingVenue, error) {
	var venue *model.ParkingVenue
	err := s.store.Transact(ctx, func(tx store.Store) error {
		var err error
		venue, err = tx.GetParkingVenue(ctx, id)
		if err != nil {
			return err
		}
		if update.Name != nil {
			venue.Name = *update.Name
		}
		if update.Capacity != nil {
			venue.Capacity = *update.Capacity
		}
		if update.Occupied != nil {
			venue.Occupied = *update.Occupied
		}
		venue.Clamp()
		return tx.SaveParkingVenue(ctx, venue)
	})
	if err != nil {
		return nil, err
	}
	return venue, nil
}

// DeleteVenue removes the venue and clears any gate bindings pointing at it
// in the same unit.
func (s *ParkingService) DeleteVenue(ctx context.Context, id string) error {
	return s.store.Transact(ctx, func(tx store.Store) error {
		if err := tx.DeleteParkingVenue(ctx, id); err != nil {
			return err
		}
		return tx.UnbindGatesFromVenue(ctx, id)
	})
}

// RecordEvent applies one entry/exit to the venue counter, clamped into
// [0, capacity].
func (s *ParkingService) RecordEvent(ctx context.Context, venueID string, direction model.ParkingDirection) (*model.ParkingVenue, error) {
	if direction != model.DirectionEntry && direction != model.DirectionExit {
		return nil, fmt.Errorf("%w: direction must be entry or exit", ErrInvalidInput)
	}
	var venue *model.ParkingVenue
	err := s.store.Transact(ctx, func(tx store.Store) error {
		var err error
		venue, err = tx.GetParkingVenue(ctx, venueID)
		if err != nil {
			return err
		}
		if direction == model.DirectionEntry {
			venue.Occupied++
		} else {
			venue.Occupied--
		}
		venue.Clamp()
		return tx.SaveParkingVenue(ctx, venue)
	})
	if err != nil {
		return nil, err
	}
	return venue, nil
}
