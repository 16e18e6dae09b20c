package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"smartgate-service/internal/auth"
	"smartgate-service/internal/model"
	"smartgate-service/internal/passes"
	"smartgate-service/internal/store"
	"smartgate-service/internal/utils"
)

// AdminService backs the operator console: CRUD over users, vehicles,
// passes and gates, plus the payment log.
type AdminService struct {
	store store.Store
	now   func() time.Time
}

func NewAdminService(st store.Store) *AdminService {
	return &AdminService{
		store: st,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

// ListUsers enriches each user with the wallet balance from their profile.
func (s *AdminService) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := s.store.Transact(ctx, func(tx store.Store) error {
		var err error
		users, err = tx.ListUsers(ctx)
		if err != nil {
			return err
		}
		now := s.now()
		for idx := range users {
			profile, err := ensureProfile(ctx, tx, users[idx].ID, model.ProfileStatusPending, now)
			if err != nil {
				return err
			}
			users[idx].WalletBalance = round2(profile.WalletBalance)
		}
		return nil
	})
	return users, err
}

func (s *AdminService) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.store.GetUser(ctx, id)
}

type UserInput struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Role      model.Role
	Programme string
}

// CreateUser provisions a user with the default console password.
func (s *AdminService) CreateUser(ctx context.Context, input UserInput) (*model.User, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	if input.Role != "" && !input.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, input.Role)
	}
	if input.Role == "" {
		input.Role = model.RoleGuest
	}
	hash, err := auth.HashPassword("password")
	if err != nil {
		return nil, err
	}
	user := &model.User{
		ID:        input.ID,
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		Role:      input.Role,
		Programme: input.Programme,
	}
	err = s.store.Transact(ctx, func(tx store.Store) error {
		if err := tx.SaveUser(ctx, user); err != nil {
			return err
		}
		return tx.SaveCredential(ctx, user.ID, hash)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

type UserUpdate struct {
	Name      *string
	Email     *string
	Phone     *string
	Role      *model.Role
	Programme *string
}

func (s *AdminService) UpdateUser(ctx context.Context, id string, update UserUpdate) (*model.User, error) {
	if update.Role != nil && !update.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, *update.Role)
	}
	var user *model.User
	err := s.store.Transact(ctx, func(tx store.Store) error {
		var err error
		user, err = tx.GetUser(ctx, id)
		if err != nil {
			return err
		}
		if update.Name != nil {
			user.Name = *update.Name
		}
		if update.Email != nil {
			user.Email = *update.Email
		}
		if update.Phone != nil {
			user.Phone = *update.Phone
		}
		if update.Role != nil {
			user.Role = *update.Role
		}
		if update.Programme != nil {
			user.Programme = *update.Programme
		}
		return tx.SaveUser(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes the user together with their vehicles and passes.
func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	return s.store.Transact(ctx, func(tx store.Store) error {
		if err := tx.DeleteUser(ctx, id); err != nil {
			return err
		}
		vehicles, err := tx.ListVehiclesByUser(ctx, id)
		if err != nil {
			return err
		}
		for _, vehicle := range vehicles {
			if err := tx.DeleteVehicle(ctx, vehicle.ID); err != nil {
				return err
			}
		}
		userPasses, err := tx.ListPassesByUser(ctx, id)
		if err != nil {
			return err
		}
		for _, pass := range userPasses {
			if err := tx.DeletePass(ctx, pass.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// ---------------------------------------------------------------------------
// Vehicles
// ---------------------------------------------------------------------------

func (s *AdminService) ListVehicles(ctx context.Context) ([]model.Vehicle, error) {
	return s.store.ListVehicles(ctx)
}

type VehicleInput struct {
	ID        string
	PlateText string
	UserID    string
}

func (s *AdminService) CreateVehicle(ctx context.Context, input VehicleInput) (*model.Vehicle, error) {
	plate := utils.NormalizePlate(input.PlateText)
	if plate == "" {
		return nil, fmt.Errorf("%w: plate_text required", ErrInvalidInput)
	}
	vehicle := &model.Vehicle{ID: input.ID, PlateText: plate, UserID: input.UserID}
	err := s.store.Transact(ctx, func(tx store.Store) error {
		if _, err := tx.GetUser(ctx, input.UserID); err != nil {
			return err
		}
		return tx.SaveVehicle(ctx, vehicle)
	})
	if err != nil {
		return nil, err
	}
	return vehicle, nil
}

type VehicleUpdate struct {
	PlateText *string
	UserID    *string
}

func (s *AdminService) UpdateVehicle(ctx context.Context, id string, update VehicleUpdate) (*model.Vehicle, error) {
	var vehicle *model.Vehicle
	err := s.store.Transact(ctx, func(tx store.Store) error {
		var err error
		vehicle, err = tx.GetVehicle(ctx, id)
		if err != nil {
			return err
		}
		if update.UserID != nil {
			if _, err := tx.GetUser(ctx, *update.UserID); err != nil {
				return err
			}
			vehicle.UserID = *update.UserID
		}
		if update.PlateText != nil {
			plate := utils.NormalizePlate(*update.PlateText)
			if plate == "" {
				return fmt.Errorf("%w: plate_text required", ErrInvalidInput)
			}
			vehicle.PlateText = plate
		}
		return tx.SaveVehicle(ctx, vehicle)
	})
	if err != nil {
		return nil, err
	}
	return vehicle, nil
}

func (s *AdminService) DeleteVehicle(ctx context.Context, id string) error {
	return s.store.DeleteVehicle(ctx, id)
}

// ---------------------------------------------------------------------------
// Passes
// ---------------------------------------------------------------------------

func (s *AdminService) ListPasses(ctx context.Context) ([]model.Pass, error) {
	return s.store.ListPasses(ctx)
}

func (s *AdminService) PassPlans() []passes.PlanDefinition {
	return passes.Plans()
}

type PassInput struct {
	UserID   string
	Role     model.Role
	PlanType string
	StartsAt time.Time
}

// CreatePass issues an unpaid pass for the plan's validity window and
// notifies the owner of the invoice.
func (s *AdminService) CreatePass(ctx context.Context, input PassInput) (*model.Pass, error) {
	var pass *model.Pass
	err := s.store.Transact(ctx, func(tx store.Store) error {
		var err error
		pass, err = issuePass(ctx, tx, input.UserID, input.Role, input.PlanType, input.StartsAt, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return pass, nil
}

type PassUpdate struct {
	Role     *model.Role
	PlanType *string
	StartsAt *time.Time
}

// UpdatePass rewrites pass fields. A plan or start change recomputes the
// validity window and voids the payment, reissuing the invoice.
func (s *AdminService) UpdatePass(ctx context.Context, id string, update PassUpdate) (*model.Pass, error) {
	var pass *model.Pass
	err := s.store.Transact(ctx, func(tx store.Store) error {
		var err error
		pass, err = tx.GetPass(ctx, id)
		if err != nil {
			return err
		}
		if update.Role != nil {
			pass.Role = *update.Role
		}
		if update.PlanType != nil || update.StartsAt != nil {
			planType := pass.PlanType
			if update.PlanType != nil {
				planType = *update.PlanType
			}
			start := pass.ValidFrom
			if update.StartsAt != nil {
				start = *update.StartsAt
			}
			from, to, plan, err := passes.ValidityWindow(planType, start)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}
			pass.PlanType = plan.PlanType
			pass.ValidFrom = from
			pass.ValidTo = to
			pass.PriceRM = plan.PriceRM
			pass.IsPaid = false
			pass.PaidAt = nil
			message := fmt.Sprintf("%s pass updated. Pay RM %.2f via wallet.", plan.Label, plan.PriceRM)
			if err := notify(ctx, tx, pass.UserID, message, s.now()); err != nil {
				return err
			}
		}
		return tx.SavePass(ctx, pass)
	})
	if err != nil {
		return nil, err
	}
	return pass, nil
}

func (s *AdminService) DeletePass(ctx context.Context, id string) error {
	return s.store.DeletePass(ctx, id)
}

// ---------------------------------------------------------------------------
// Gates
// ---------------------------------------------------------------------------

func (s *AdminService) ListGates(ctx context.Context) ([]model.Gate, error) {
	return s.store.ListGates(ctx)
}

func (s *AdminService) GetGate(ctx context.Context, id string) (*model.Gate, error) {
	return s.store.GetGate(ctx, id)
}

type GateInput struct {
	ID               string
	Name             string
	Slug             string
	MinRole          model.Role
	Location         string
	IsActive         bool
	ParkingVenueID   *string
	ParkingDirection *model.ParkingDirection
}

func (s *AdminService) CreateGate(ctx context.Context, input GateInput) (*model.Gate, error) {
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if slug == "" || input.Name == "" {
		return nil, fmt.Errorf("%w: name and slug required", ErrInvalidInput)
	}
	if !input.MinRole.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, input.MinRole)
	}
	gate := &model.Gate{
		ID:               input.ID,
		Name:             input.Name,
		Slug:             slug,
		MinRole:          input.MinRole,
		Location:         input.Location,
		IsActive:         input.IsActive,
		ParkingVenueID:   input.ParkingVenueID,
		ParkingDirection: input.ParkingDirection,
	}
	err := s.store.Transact(ctx, func(tx store.Store) error {
		existing, err := tx.GetGateBySlug(ctx, slug)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: gate slug %s already exists", ErrConflict, slug)
		}
		return tx.SaveGate(ctx, gate)
	})
	if err != nil {
		return nil, err
	}
	return gate, nil
}

type GateUpdate struct {
	Name             *string
	Slug             *string
	MinRole          *model.Role
	Location         *string
	IsActive         *bool
	ParkingVenueID   *string
	ParkingDirection *model.ParkingDirection
}

func (s *AdminService) UpdateGate(ctx context.Context, id string, update GateUpdate) (*model.Gate, error) {
	if update.MinRole != nil && !update.MinRole.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, *update.MinRole)
	}
	var gate *model.Gate
	err := s.store.Transact(ctx, func(tx store.Store) error {
		var err error
		gate, err = tx.GetGate(ctx, id)
		if err != nil {
			return err
		}
		if update.Slug != nil {
			slug := strings.ToLower(strings.TrimSpace(*update.Slug))
			if slug != gate.Slug {
				existing, err := tx.GetGateBySlug(ctx, slug)
				if err != nil {
					return err
				}
				if existing != nil {
					return fmt.Errorf("%w: gate slug %s already exists", ErrConflict, slug)
				}
				gate.Slug = slug
			}
		}
		if update.Name != nil {
			gate.Name = *update.Name
		}
		if update.MinRole != nil {
			gate.MinRole = *update.MinRole
		}
		if update.Location != nil {
			gate.Location = *update.Location
		}
		if update.IsActive != nil {
			gate.IsActive = *update.IsActive
		}
		if update.ParkingVenueID != nil {
			gate.ParkingVenueID = update.ParkingVenueID
		}
		if update.ParkingDirection != nil {
			gate.ParkingDirection = update.ParkingDirection
		}
		return tx.SaveGate(ctx, gate)
	})
	if err != nil {
		return nil, err
	}
	return gate, nil
}

func (s *AdminService) DeleteGate(ctx context.Context, id string) error {
	return s.store.DeleteGate(ctx, id)
}

// ---------------------------------------------------------------------------
// Payments
// ---------------------------------------------------------------------------

func (s *AdminService) ListPayments(ctx context.Context) ([]model.Payment, error) {
	return s.store.ListPayments(ctx)
}

// EnsureGuestRate seeds the metering configuration when none is stored yet.
func (s *AdminService) EnsureGuestRate(ctx context.Context, base, perMinute float64) error {
	_, err := s.store.GetGuestRate(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return s.store.SaveGuestRate(ctx, model.GuestRate{BaseRate: base, PerMinuteRate: perMinute})
}
