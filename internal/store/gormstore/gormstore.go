// Package gormstore implements the store contract on postgres. Compound
// operations run inside one database transaction via Transact.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"smartgate-service/internal/model"
	"smartgate-service/internal/store"
)

type Gorm struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (g *Gorm) Transact(ctx context.Context, fn func(store.Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Gorm{db: tx})
	})
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", store.ErrNotFound, fmt.Sprintf(format, args...))
	}
	return err
}

// save upserts by primary key; BeforeCreate hooks fill missing ids.
func (g *Gorm) save(ctx context.Context, value any) error {
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(value).Error
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func (g *Gorm) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := g.db.WithContext(ctx).Order("id").Find(&users).Error
	return users, err
}

func (g *Gorm) GetUser(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err, "user %s", id)
	}
	return &user, nil
}

func (g *Gorm) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := g.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (g *Gorm) SaveUser(ctx context.Context, user *model.User) error {
	return g.save(ctx, user)
}

func (g *Gorm) DeleteUser(ctx context.Context, id string) error {
	res := g.db.WithContext(ctx).Where("id = ?", id).Delete(&model.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %s", store.ErrNotFound, id)
	}
	return g.db.WithContext(ctx).Where("user_id = ?", id).Delete(&model.UserCredential{}).Error
}

func (g *Gorm) GetCredential(ctx context.Context, userID string) (string, error) {
	var credential model.UserCredential
	if err := g.db.WithContext(ctx).Where("user_id = ?", userID).First(&credential).Error; err != nil {
		return "", notFound(err, "credential for %s", userID)
	}
	return credential.PasswordHash, nil
}

func (g *Gorm) SaveCredential(ctx context.Context, userID, passwordHash string) error {
	return g.save(ctx, &model.UserCredential{UserID: userID, PasswordHash: passwordHash})
}

// ---------------------------------------------------------------------------
// Vehicles
// ---------------------------------------------------------------------------

func (g *Gorm) ListVehicles(ctx context.Context) ([]model.Vehicle, error) {
	var vehicles []model.Vehicle
	err := g.db.WithContext(ctx).Order("id").Find(&vehicles).Error
	return vehicles, err
}

func (g *Gorm) ListVehiclesByUser(ctx context.Context, userID string) ([]model.Vehicle, error) {
	var vehicles []model.Vehicle
	err := g.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&vehicles).Error
	return vehicles, err
}

func (g *Gorm) GetVehicle(ctx context.Context, id string) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&vehicle).Error; err != nil {
		return nil, notFound(err, "vehicle %s", id)
	}
	return &vehicle, nil
}

func (g *Gorm) FindVehicleByPlate(ctx context.Context, plate string) (*model.Vehicle, error) {
	if plate == "" {
		return nil, nil
	}
	var vehicle model.Vehicle
	err := g.db.WithContext(ctx).Where("plate_text = ?", plate).First(&vehicle).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (g *Gorm) SaveVehicle(ctx context.Context, vehicle *model.Vehicle) error {
	return g.save(ctx, vehicle)
}

func (g *Gorm) DeleteVehicle(ctx context.Context, id string) error {
	res := g.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Vehicle{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: vehicle %s", store.ErrNotFound, id)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Passes
// ---------------------------------------------------------------------------

func (g *Gorm) ListPasses(ctx context.Context) ([]model.Pass, error) {
	var passes []model.Pass
	err := g.db.WithContext(ctx).Order("id").Find(&passes).Error
	return passes, err
}

func (g *Gorm) ListPassesByUser(ctx context.Context, userID string) ([]model.Pass, error) {
	var passes []model.Pass
	err := g.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&passes).Error
	return passes, err
}

func (g *Gorm) GetPass(ctx context.Context, id string) (*model.Pass, error) {
	var pass model.Pass
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&pass).Error; err != nil {
		return nil, notFound(err, "pass %s", id)
	}
	return &pass, nil
}

func (g *Gorm) LatestPass(ctx context.Context, userID string) (*model.Pass, error) {
	var pass model.Pass
	err := g.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("valid_to DESC").
		First(&pass).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pass, nil
}

func (g *Gorm) SavePass(ctx context.Context, pass *model.Pass) error {
	return g.save(ctx, pass)
}

func (g *Gorm) DeletePass(ctx context.Context, id string) error {
	res := g.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Pass{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: pass %s", store.ErrNotFound, id)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Pass applications
// ---------------------------------------------------------------------------

func (g *Gorm) ListPassApplications(ctx context.Context, status model.ReviewStatus) ([]model.PassApplication, error) {
	var applications []model.PassApplication
	query := g.db.WithContext(ctx).Model(&model.PassApplication{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("submitted_at DESC").Find(&applications).Error
	return applications, err
}

func (g *Gorm) GetPassApplication(ctx context.Context, id string) (*model.PassApplication, error) {
	var application model.PassApplication
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&application).Error; err != nil {
		return nil, notFound(err, "pass application %s", id)
	}
	return &application, nil
}

func (g *Gorm) SavePassApplication(ctx context.Context, application *model.PassApplication) error {
	return g.save(ctx, application)
}

// ---------------------------------------------------------------------------
// Role upgrade requests
// ---------------------------------------------------------------------------

func (g *Gorm) ListRoleUpgrades(ctx context.Context, status model.ReviewStatus) ([]model.RoleUpgradeRequest, error) {
	var requests []model.RoleUpgradeRequest
	query := g.db.WithContext(ctx).Model(&model.RoleUpgradeRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("submitted_at DESC").Find(&requests).Error
	return requests, err
}

func (g *Gorm) ListRoleUpgradesByUser(ctx context.Context, userID string) ([]model.RoleUpgradeRequest, error) {
	var requests []model.RoleUpgradeRequest
	err := g.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("submitted_at DESC").
		Find(&requests).Error
	return requests, err
}

func (g *Gorm) GetRoleUpgrade(ctx context.Context, id string) (*model.RoleUpgradeRequest, error) {
	var request model.RoleUpgradeRequest
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&request).Error; err != nil {
		return nil, notFound(err, "role upgrade %s", id)
	}
	return &request, nil
}

func (g *Gorm) SaveRoleUpgrade(ctx context.Context, request *model.RoleUpgradeRequest) error {
	return g.save(ctx, request)
}

// ---------------------------------------------------------------------------
// Access events
// ---------------------------------------------------------------------------

func (g *Gorm) AppendAccessEvent(ctx context.Context, event *model.AccessEvent) error {
	if err := g.db.WithContext(ctx).Create(event).Error; err != nil {
		return err
	}
	// Trim the audit ring to its capacity, oldest rows first.
	return g.db.WithContext(ctx).Exec(
		`DELETE FROM access_events WHERE id NOT IN (
			SELECT id FROM access_events ORDER BY timestamp DESC LIMIT ?
		)`, model.AccessEventCapacity).Error
}

func (g *Gorm) ListAccessEvents(ctx context.Context, limit int) ([]model.AccessEvent, error) {
	if limit <= 0 || limit > model.AccessEventCapacity {
		limit = model.AccessEventCapacity
	}
	var events []model.AccessEvent
	err := g.db.WithContext(ctx).Order("timestamp DESC").Limit(limit).Find(&events).Error
	return events, err
}

// ---------------------------------------------------------------------------
// Gates
// ---------------------------------------------------------------------------

func (g *Gorm) ListGates(ctx context.Context) ([]model.Gate, error) {
	var gates []model.Gate
	err := g.db.WithContext(ctx).Order("slug").Find(&gates).Error
	return gates, err
}

func (g *Gorm) GetGate(ctx context.Context, id string) (*model.Gate, error) {
	var gate model.Gate
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&gate).Error; err != nil {
		return nil, notFound(err, "gate %s", id)
	}
	return &gate, nil
}

func (g *Gorm) GetGateBySlug(ctx context.Context, slug string) (*model.Gate, error) {
	var gate model.Gate
	err := g.db.WithContext(ctx).Where("slug = ?", slug).First(&gate).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &gate, nil
}

func (g *Gorm) SaveGate(ctx context.Context, gate *model.Gate) error {
	return g.save(ctx, gate)
}

func (g *Gorm) DeleteGate(ctx context.Context, id string) error {
	res := g.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Gate{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: gate %s", store.ErrNotFound, id)
	}
	return nil
}

func (g *Gorm) UnbindGatesFromVenue(ctx context.Context, venueID string) error {
	return g.db.WithContext(ctx).
		Model(&model.Gate{}).
		Where("parking_venue_id = ?", venueID).
		Updates(map[string]any{"parking_venue_id": nil, "parking_direction": nil}).Error
}

// ---------------------------------------------------------------------------
// Guest sessions
// ---------------------------------------------------------------------------

func (g *Gorm) ListGuestSessions(ctx context.Context) ([]model.GuestSession, error) {
	var sessions []model.GuestSession
	err := g.db.WithContext(ctx).Order("start_time DESC").Find(&sessions).Error
	return sessions, err
}

func (g *Gorm) ListGuestSessionsByPlates(ctx context.Context, plates []string) ([]model.GuestSession, error) {
	if len(plates) == 0 {
		return nil, nil
	}
	var sessions []model.GuestSession
	err := g.db.WithContext(ctx).
		Where("plate_text IN ?", plates).
		Order("start_time DESC").
		Find(&sessions).Error
	return sessions, err
}

func (g *Gorm) GetGuestSession(ctx context.Context, id string) (*model.GuestSession, error) {
	var session model.GuestSession
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, notFound(err, "guest session %s", id)
	}
	return &session, nil
}

func (g *Gorm) FindGuestSessionByPlate(ctx context.Context, plate string, status model.GuestSessionStatus) (*model.GuestSession, error) {
	query := g.db.WithContext(ctx).Where("plate_text = ?", plate)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var session model.GuestSession
	err := query.Order("start_time DESC").First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (g *Gorm) SaveGuestSession(ctx context.Context, session *model.GuestSession) error {
	return g.save(ctx, session)
}

// ---------------------------------------------------------------------------
// Guest rate
// ---------------------------------------------------------------------------

func (g *Gorm) GetGuestRate(ctx context.Context) (model.GuestRate, error) {
	var rate model.GuestRate
	if err := g.db.WithContext(ctx).Where("id = ?", 1).First(&rate).Error; err != nil {
		return model.GuestRate{}, notFound(err, "guest rate")
	}
	return rate, nil
}

func (g *Gorm) SaveGuestRate(ctx context.Context, rate model.GuestRate) error {
	rate.ID = 1
	return g.save(ctx, &rate)
}

// ---------------------------------------------------------------------------
// Client registrations and profiles
// ---------------------------------------------------------------------------

func (g *Gorm) FindRegistrationByUser(ctx context.Context, userID string) (*model.ClientRegistration, error) {
	var registration model.ClientRegistration
	err := g.db.WithContext(ctx).Where("user_id = ?", userID).First(&registration).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &registration, nil
}

func (g *Gorm) SaveRegistration(ctx context.Context, registration *model.ClientRegistration) error {
	return g.save(ctx, registration)
}

func (g *Gorm) GetProfile(ctx context.Context, userID string) (*model.ClientProfile, error) {
	var profile model.ClientProfile
	if err := g.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, notFound(err, "profile for %s", userID)
	}
	return &profile, nil
}

func (g *Gorm) SaveProfile(ctx context.Context, profile *model.ClientProfile) error {
	return g.save(ctx, profile)
}

// ---------------------------------------------------------------------------
// Wallet ledger
// ---------------------------------------------------------------------------

func (g *Gorm) AddWalletTransaction(ctx context.Context, txn *model.WalletTransaction) error {
	return g.db.WithContext(ctx).Create(txn).Error
}

func (g *Gorm) ListWalletTransactions(ctx context.Context, userID string, limit int) ([]model.WalletTransaction, error) {
	query := g.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var txns []model.WalletTransaction
	err := query.Find(&txns).Error
	return txns, err
}

// ---------------------------------------------------------------------------
// Payments
// ---------------------------------------------------------------------------

func (g *Gorm) RecordPayment(ctx context.Context, payment *model.Payment) error {
	return g.db.WithContext(ctx).Create(payment).Error
}

func (g *Gorm) ListPayments(ctx context.Context) ([]model.Payment, error) {
	var payments []model.Payment
	err := g.db.WithContext(ctx).Order("timestamp DESC").Find(&payments).Error
	return payments, err
}

// ---------------------------------------------------------------------------
// Parking venues
// ---------------------------------------------------------------------------

func (g *Gorm) ListParkingVenues(ctx context.Context) ([]model.ParkingVenue, error) {
	var venues []model.ParkingVenue
	err := g.db.WithContext(ctx).Order("id").Find(&venues).Error
	return venues, err
}

func (g *Gorm) GetParkingVenue(ctx context.Context, id string) (*model.ParkingVenue, error) {
	var venue model.ParkingVenue
	if err := g.db.WithContext(ctx).Where("id = ?", id).First(&venue).Error; err != nil {
		return nil, notFound(err, "parking venue %s", id)
	}
	return &venue, nil
}

func (g *Gorm) SaveParkingVenue(ctx context.Context, venue *model.ParkingVenue) error {
	return g.save(ctx, venue)
}

func (g *Gorm) DeleteParkingVenue(ctx context.Context, id string) error {
	res := g.db.WithContext(ctx).Where("id = ?", id).Delete(&model.ParkingVenue{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: parking venue %s", store.ErrNotFound, id)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Notifications
// ---------------------------------------------------------------------------

func (g *Gorm) AddNotification(ctx context.Context, notification *model.Notification) error {
	return g.db.WithContext(ctx).Create(notification).Error
}

func (g *Gorm) ListNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	var notes []model.Notification
	err := g.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notes).Error
	return notes, err
}

func (g *Gorm) GetNotification(ctx context.Context, userID, id string) (*model.Notification, error) {
	var note model.Notification
	err := g.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&note).Error
	if err != nil {
		return nil, notFound(err, "notification %s", id)
	}
	return &note, nil
}

func (g *Gorm) SaveNotification(ctx context.Context, notification *model.Notification) error {
	return g.save(ctx, notification)
}
