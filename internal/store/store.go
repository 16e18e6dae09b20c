// Package store defines the persistence contract shared by the in-memory and
// postgres implementations. Business rules live in the services; the store
// only guarantees atomicity (Transact) and entity-level primitives.
package store

import (
	"context"
	"errors"

	"smartgate-service/internal/model"
)

var (
	// ErrNotFound covers unknown ids, slugs, sessions and users.
	ErrNotFound = errors.New("not found")
	// ErrInvalidOperation covers rejected state changes: duplicate gate
	// slugs, insufficient wallet balance, wrong plan types and the like.
	ErrInvalidOperation = errors.New("invalid operation")
)

// Store is the substitution seam between deployment modes. Get methods
// return ErrNotFound for unknown ids; Find methods return (nil, nil) when
// nothing matches.
//
// Compound mutations must run inside Transact: the memory store executes the
// callback under its single mutex, the gorm store inside one database
// transaction. Partial application of a multi-entity change is never
// observable either way.
type Store interface {
	Transact(ctx context.Context, fn func(Store) error) error

	// Users
	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	SaveUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id string) error
	GetCredential(ctx context.Context, userID string) (string, error)
	SaveCredential(ctx context.Context, userID, passwordHash string) error

	// Vehicles
	ListVehicles(ctx context.Context) ([]model.Vehicle, error)
	ListVehiclesByUser(ctx context.Context, userID string) ([]model.Vehicle, error)
	GetVehicle(ctx context.Context, id string) (*model.Vehicle, error)
	FindVehicleByPlate(ctx context.Context, normalizedPlate string) (*model.Vehicle, error)
	SaveVehicle(ctx context.Context, vehicle *model.Vehicle) error
	DeleteVehicle(ctx context.Context, id string) error

	// Passes
	ListPasses(ctx context.Context) ([]model.Pass, error)
	ListPassesByUser(ctx context.Context, userID string) ([]model.Pass, error)
	GetPass(ctx context.Context, id string) (*model.Pass, error)
	LatestPass(ctx context.Context, userID string) (*model.Pass, error)
	SavePass(ctx context.Context, pass *model.Pass) error
	DeletePass(ctx context.Context, id string) error

	// Pass applications
	ListPassApplications(ctx context.Context, status model.ReviewStatus) ([]model.PassApplication, error)
	GetPassApplication(ctx context.Context, id string) (*model.PassApplication, error)
	SavePassApplication(ctx context.Context, application *model.PassApplication) error

	// Role upgrade requests
	ListRoleUpgrades(ctx context.Context, status model.ReviewStatus) ([]model.RoleUpgradeRequest, error)
	ListRoleUpgradesByUser(ctx context.Context, userID string) ([]model.RoleUpgradeRequest, error)
	GetRoleUpgrade(ctx context.Context, id string) (*model.RoleUpgradeRequest, error)
	SaveRoleUpgrade(ctx context.Context, request *model.RoleUpgradeRequest) error

	// Access events (bounded, newest first)
	AppendAccessEvent(ctx context.Context, event *model.AccessEvent) error
	ListAccessEvents(ctx context.Context, limit int) ([]model.AccessEvent, error)

	// Gates
	ListGates(ctx context.Context) ([]model.Gate, error)
	GetGate(ctx context.Context, id string) (*model.Gate, error)
	GetGateBySlug(ctx context.Context, slug string) (*model.Gate, error)
	SaveGate(ctx context.Context, gate *model.Gate) error
	DeleteGate(ctx context.Context, id string) error
	UnbindGatesFromVenue(ctx context.Context, venueID string) error

	// Guest sessions
	ListGuestSessions(ctx context.Context) ([]model.GuestSession, error)
	ListGuestSessionsByPlates(ctx context.Context, plates []string) ([]model.GuestSession, error)
	GetGuestSession(ctx context.Context, id string) (*model.GuestSession, error)
	FindGuestSessionByPlate(ctx context.Context, plate string, status model.GuestSessionStatus) (*model.GuestSession, error)
	SaveGuestSession(ctx context.Context, session *model.GuestSession) error

	// Guest rate (global metering configuration)
	GetGuestRate(ctx context.Context) (model.GuestRate, error)
	SaveGuestRate(ctx context.Context, rate model.GuestRate) error

	// Client registrations and profiles
	FindRegistrationByUser(ctx context.Context, userID string) (*model.ClientRegistration, error)
	SaveRegistration(ctx context.Context, registration *model.ClientRegistration) error
	GetProfile(ctx context.Context, userID string) (*model.ClientProfile, error)
	SaveProfile(ctx context.Context, profile *model.ClientProfile) error

	// Wallet ledger (newest first)
	AddWalletTransaction(ctx context.Context, txn *model.WalletTransaction) error
	ListWalletTransactions(ctx context.Context, userID string, limit int) ([]model.WalletTransaction, error)

	// Payments
	RecordPayment(ctx context.Context, payment *model.Payment) error
	ListPayments(ctx context.Context) ([]model.Payment, error)

	// Parking venues
	ListParkingVenues(ctx context.Context) ([]model.ParkingVenue, error)
	GetParkingVenue(ctx context.Context, id string) (*model.ParkingVenue, error)
	SaveParkingVenue(ctx context.Context, venue *model.ParkingVenue) error
	DeleteParkingVenue(ctx context.Context, id string) error

	// Notifications (newest first)
	AddNotification(ctx context.Context, notification *model.Notification) error
	ListNotifications(ctx context.Context, userID string) ([]model.Notification, error)
	GetNotification(ctx context.Context, userID, id string) (*model.Notification, error)
	SaveNotification(ctx context.Context, notification *model.Notification) error
}
