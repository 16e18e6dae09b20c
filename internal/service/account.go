package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smartgate-service/internal/auth"
	"smartgate-service/internal/model"
	"smartgate-service/internal/store"
	"smartgate-service/internal/utils"
)

type AccountService struct {
	store    store.Store
	issuer   *auth.Issuer
	currency string
	now      func() time.Time
}

func NewAccountService(st store.Store, issuer *auth.Issuer, currency string) *AccountService {
	return &AccountService{
		store:    st,
		issuer:   issuer,
		currency: currency,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type SignupInput struct {
	Name      string
	Email     string
	Phone     string
	Programme string
	Password  string
}

type AuthResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Signup creates a guest portal account with a hashed credential and
// returns a signed token.
func (s *AccountService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	if input.Name == "" || input.Email == "" {
		return nil, fmt.Errorf("%w: name and email required", ErrInvalidInput)
	}
	if !auth.ValidPassword(input.Password) {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	var user *model.User
	err = s.store.Transact(ctx, func(tx store.Store) error {
		existing, err := tx.FindUserByEmail(ctx, input.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: email already registered", ErrConflict)
		}
		user = &model.User{
			Name:      input.Name,
			Email:     input.Email,
			Phone:     input.Phone,
			Role:      model.RoleGuest,
			Programme: input.Programme,
		}
		if err := tx.SaveUser(ctx, user); err != nil {
			return err
		}
		if err := tx.SaveCredential(ctx, user.ID, hash); err != nil {
			return err
		}
		_, err = ensureProfile(ctx, tx, user.ID, model.ProfileStatusPending, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	token, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: *user}, nil
}

// Login accepts an email, display name or user id as the identifier.
func (s *AccountService) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	target := strings.ToLower(strings.TrimSpace(identifier))
	if target == "" {
		return nil, fmt.Errorf("%w: identifier required", ErrInvalidInput)
	}

	user, err := s.store.FindUserByEmail(ctx, target)
	if err != nil {
		return nil, err
	}
	if user == nil {
		users, err := s.store.ListUsers(ctx)
		if err != nil {
			return nil, err
		}
		for idx := range users {
			if strings.ToLower(users[idx].Name) == target || strings.ToLower(users[idx].ID) == target {
				user = &users[idx]
				break
			}
		}
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user", store.ErrNotFound)
	}

	hash, err := s.store.GetCredential(ctx, user.ID)
	if err != nil || !auth.VerifyPassword(password, hash) {
		return nil, fmt.Errorf("%w: invalid credentials", ErrPermissionDenied)
	}

	token, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: *user}, nil
}

type RegistrationInput struct {
	Name      string
	Email     string
	Phone     string
	Role      model.Role
	Programme string
	PlanType  string
	Vehicles  []string
}

type RegistrationResult struct {
	Registration model.ClientRegistration `json:"registration"`
	Profile      model.ClientProfile      `json:"profile"`
	User         model.User               `json:"user"`
	Pass         *model.Pass              `json:"pass_info"`
	Vehicles     []model.Vehicle          `json:"vehicles"`
	Application  model.PassApplication    `json:"pass_application"`
}

// RegisterClient runs the full onboarding in one unit: user upsert by
// email, pending registration and profile, a pass application, and vehicle
// rows for plates not yet on file.
func (s *AccountService) RegisterClient(ctx context.Context, input RegistrationInput) (*RegistrationResult, error) {
	if input.Role == model.RoleGuest {
		return nil, fmt.Errorf("%w: guest role cannot receive parking passes", ErrInvalidInput)
	}
	if !input.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, input.Role)
	}
	if input.Name == "" || input.Email == "" {
		return nil, fmt.Errorf("%w: name and email required", ErrInvalidInput)
	}

	var result RegistrationResult
	err := s.store.Transact(ctx, func(tx store.Store) error {
		now := s.now()

		user, err := tx.FindUserByEmail(ctx, input.Email)
		if err != nil {
			return err
		}
		if user != nil {
			if user.Role != input.Role {
				user.Role = input.Role
				if err := tx.SaveUser(ctx, user); err != nil {
					return err
				}
			}
		} else {
			user = &model.User{
				Name:      input.Name,
				Email:     input.Email,
				Phone:     input.Phone,
				Role:      input.Role,
				Programme: input.Programme,
			}
			if err := tx.SaveUser(ctx, user); err != nil {
				return err
			}
		}

		registration, err := ensureRegistration(ctx, tx, user.ID, model.ProfileStatusPending, now)
		if err != nil {
			return err
		}
		registration.Status = model.ProfileStatusPending
		if err := tx.SaveRegistration(ctx, registration); err != nil {
			return err
		}

		profile, err := ensureProfile(ctx, tx, user.ID, model.ProfileStatusPending, now)
		if err != nil {
			return err
		}
		profile.Status = model.ProfileStatusPending
		profile.UpdatedAt = now
		if err := tx.SaveProfile(ctx, profile); err != nil {
			return err
		}

		pass, err := tx.LatestPass(ctx, user.ID)
		if err != nil {
			return err
		}

		application, err := submitPassApplication(ctx, tx, user.ID, input.Role, input.PlanType, input.Vehicles, now)
		if err != nil {
			return err
		}

		for _, plate := range input.Vehicles {
			normalized := utils.NormalizePlate(plate)
			if normalized == "" {
				continue
			}
			existing, err := tx.FindVehicleByPlate(ctx, normalized)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			vehicle := &model.Vehicle{PlateText: normalized, UserID: user.ID}
			if err := tx.SaveVehicle(ctx, vehicle); err != nil {
				return err
			}
		}
		vehicles, err := tx.ListVehiclesByUser(ctx, user.ID)
		if err != nil {
			return err
		}

		result = RegistrationResult{
			Registration: *registration,
			Profile:      *profile,
			User:         *user,
			Pass:         pass,
			Vehicles:     vehicles,
			Application:  *application,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

type ClientSummary struct {
	User         model.User                 `json:"user"`
	Pass         *model.Pass                `json:"pass_info"`
	Vehicles     []model.Vehicle            `json:"vehicles"`
	Profile      model.ClientProfile        `json:"profile"`
	Wallet       model.ClientWallet         `json:"wallet"`
	GuestSession []model.GuestSession       `json:"guest_sessions"`
	RoleUpgrades []model.RoleUpgradeRequest `json:"role_upgrades"`
	Applications []model.PassApplication    `json:"pass_applications"`
}

// Summary assembles everything the client portal shows on its landing view.
func (s *AccountService) Summary(ctx context.Context, userID string) (*ClientSummary, error) {
	var summary ClientSummary
	err := s.store.Transact(ctx, func(tx store.Store) error {
		now := s.now()
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}

		defaultStatus := model.ProfileStatusActive
		if user.Role == model.RoleGuest {
			defaultStatus = model.ProfileStatusPending
		}
		profile, err := ensureProfile(ctx, tx, userID, defaultStatus, now)
		if err != nil {
			return err
		}
		wallet, err := walletSnapshot(ctx, tx, userID, s.currency, now)
		if err != nil {
			return err
		}
		user.WalletBalance = wallet.Balance

		pass, err := tx.LatestPass(ctx, userID)
		if err != nil {
			return err
		}
		vehicles, err := tx.ListVehiclesByUser(ctx, userID)
		if err != nil {
			return err
		}
		plates := make([]string, 0, len(vehicles))
		for _, vehicle := range vehicles {
			plates = append(plates, utils.NormalizePlate(vehicle.PlateText))
		}
		sessions, err := tx.ListGuestSessionsByPlates(ctx, plates)
		if err != nil {
			return err
		}
		upgrades, err := tx.ListRoleUpgradesByUser(ctx, userID)
		if err != nil {
			return err
		}
		allApplications, err := tx.ListPassApplications(ctx, "")
		if err != nil {
			return err
		}
		applications := make([]model.PassApplication, 0)
		for _, application := range allApplications {
			if application.UserID == userID {
				applications = append(applications, application)
			}
		}

		summary = ClientSummary{
			User:         *user,
			Pass:         pass,
			Vehicles:     vehicles,
			Profile:      *profile,
			Wallet:       wallet,
			GuestSession: sessions,
			RoleUpgrades: upgrades,
			Applications: applications,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *AccountService) Notifications(ctx context.Context, userID string) ([]model.Notification, error) {
	return s.store.ListNotifications(ctx, userID)
}

func (s *AccountService) AcknowledgeNotification(ctx context.Context, userID, notificationID string) (*model.Notification, error) {
	var note *model.Notification
	err := s.store.Transact(ctx, func(tx store.Store) error {
		var err error
		note, err = tx.GetNotification(ctx, userID, notificationID)
		if err != nil {
			return err
		}
		note.IsRead = true
		return tx.SaveNotification(ctx, note)
	})
	if err != nil {
		return nil, err
	}
	return note, nil
}
