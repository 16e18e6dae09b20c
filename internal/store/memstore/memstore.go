// Package memstore keeps the whole domain in process memory behind a single
// mutex. It backs demo deployments and tests; the gorm store is the
// production twin.
package memstore

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"

	"smartgate-service/internal/model"
	"smartgate-service/internal/store"
)

// Memory serializes every operation through one lock. Transact runs its
// callback while the lock is held, so compound mutations are indivisible.
type Memory struct {
	mu   sync.Mutex
	data state
}

func New() *Memory {
	return &Memory{data: newState()}
}

// Transact snapshots the state before running the callback and restores it
// when the callback fails, mirroring a database rollback.
func (m *Memory) Transact(ctx context.Context, fn func(store.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := m.data.clone()
	if err := fn(&m.data); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

func (m *Memory) locked() func() {
	m.mu.Lock()
	return m.mu.Unlock
}

// ---------------------------------------------------------------------------
// Locked wrappers
// ---------------------------------------------------------------------------

func (m *Memory) ListUsers(ctx context.Context) ([]model.User, error) {
	defer m.locked()()
	return m.data.ListUsers(ctx)
}

func (m *Memory) GetUser(ctx context.Context, id string) (*model.User, error) {
	defer m.locked()()
	return m.data.GetUser(ctx, id)
}

func (m *Memory) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	defer m.locked()()
	return m.data.FindUserByEmail(ctx, email)
}

func (m *Memory) SaveUser(ctx context.Context, user *model.User) error {
	defer m.locked()()
	return m.data.SaveUser(ctx, user)
}

func (m *Memory) DeleteUser(ctx context.Context, id string) error {
	defer m.locked()()
	return m.data.DeleteUser(ctx, id)
}

func (m *Memory) GetCredential(ctx context.Context, userID string) (string, error) {
	defer m.locked()()
	return m.data.GetCredential(ctx, userID)
}

func (m *Memory) SaveCredential(ctx context.Context, userID, passwordHash string) error {
	defer m.locked()()
	return m.data.SaveCredential(ctx, userID, passwordHash)
}

func (m *Memory) ListVehicles(ctx context.Context) ([]model.Vehicle, error) {
	defer m.locked()()
	return m.data.ListVehicles(ctx)
}

func (m *Memory) ListVehiclesByUser(ctx context.Context, userID string) ([]model.Vehicle, error) {
	defer m.locked()()
	return m.data.ListVehiclesByUser(ctx, userID)
}

func (m *Memory) GetVehicle(ctx context.Context, id string) (*model.Vehicle, error) {
	defer m.locked()()
	return m.data.GetVehicle(ctx, id)
}

func (m *Memory) FindVehicleByPlate(ctx context.Context, plate string) (*model.Vehicle, error) {
	defer m.locked()()
	return m.data.FindVehicleByPlate(ctx, plate)
}

func (m *Memory) SaveVehicle(ctx context.Context, vehicle *model.Vehicle) error {
	defer m.locked()()
	return m.data.SaveVehicle(ctx, vehicle)
}

func (m *Memory) DeleteVehicle(ctx context.Context, id string) error {
	defer m.locked()()
	return m.data.DeleteVehicle(ctx, id)
}

func (m *Memory) ListPasses(ctx context.Context) ([]model.Pass, error) {
	defer m.locked()()
	return m.data.ListPasses(ctx)
}

func (m *Memory) ListPassesByUser(ctx context.Context, userID string) ([]model.Pass, error) {
	defer m.locked()()
	return m.data.ListPassesByUser(ctx, userID)
}

func (m *Memory) GetPass(ctx context.Context, id string) (*model.Pass, error) {
	defer m.locked()()
	return m.data.GetPass(ctx, id)
}

func (m *Memory) LatestPass(ctx context.Context, userID string) (*model.Pass, error) {
	defer m.locked()()
	return m.data.LatestPass(ctx, userID)
}

func (m *Memory) SavePass(ctx context.Context, pass *model.Pass) error {
	defer m.locked()()
	return m.data.SavePass(ctx, pass)
}

func (m *Memory) DeletePass(ctx context.Context, id string) error {
	defer m.locked()()
	return m.data.DeletePass(ctx, id)
}

func (m *Memory) ListPassApplications(ctx context.Context, status model.ReviewStatus) ([]model.PassApplication, error) {
	defer m.locked()()
	return m.data.ListPassApplications(ctx, status)
}

func (m *Memory) GetPassApplication(ctx context.Context, id string) (*model.PassApplication, error) {
	defer m.locked()()
	return m.data.GetPassApplication(ctx, id)
}

func (m *Memory) SavePassApplication(ctx context.Context, application *model.PassApplication) error {
	defer m.locked()()
	return m.data.SavePassApplication(ctx, application)
}

func (m *Memory) ListRoleUpgrades(ctx context.Context, status model.ReviewStatus) ([]model.RoleUpgradeRequest, error) {
	defer m.locked()()
	return m.data.ListRoleUpgrades(ctx, status)
}

func (m *Memory) ListRoleUpgradesByUser(ctx context.Context, userID string) ([]model.RoleUpgradeRequest, error) {
	defer m.locked()()
	return m.data.ListRoleUpgradesByUser(ctx, userID)
}

func (m *Memory) GetRoleUpgrade(ctx context.Context, id string) (*model.RoleUpgradeRequest, error) {
	defer m.locked()()
	return m.data.GetRoleUpgrade(ctx, id)
}

func (m *Memory) SaveRoleUpgrade(ctx context.Context, request *model.RoleUpgradeRequest) error {
	defer m.locked()()
	return m.data.SaveRoleUpgrade(ctx, request)
}

func (m *Memory) AppendAccessEvent(ctx context.Context, event *model.AccessEvent) error {
	defer m.locked()()
	return m.data.AppendAccessEvent(ctx, event)
}

func (m *Memory) ListAccessEvents(ctx context.Context, limit int) ([]model.AccessEvent, error) {
	defer m.locked()()
	return m.data.ListAccessEvents(ctx, limit)
}

func (m *Memory) ListGates(ctx context.Context) ([]model.Gate, error) {
	defer m.locked()()
	return m.data.ListGates(ctx)
}

func (m *Memory) GetGate(ctx context.Context, id string) (*model.Gate, error) {
	defer m.locked()()
	return m.data.GetGate(ctx, id)
}

func (m *Memory) GetGateBySlug(ctx context.Context, slug string) (*model.Gate, error) {
	defer m.locked()()
	return m.data.GetGateBySlug(ctx, slug)
}

func (m *Memory) SaveGate(ctx context.Context, gate *model.Gate) error {
	defer m.locked()()
	return m.data.SaveGate(ctx, gate)
}

func (m *Memory) DeleteGate(ctx context.Context, id string) error {
	defer m.locked()()
	return m.data.DeleteGate(ctx, id)
}

func (m *Memory) UnbindGatesFromVenue(ctx context.Context, venueID string) error {
	defer m.locked()()
	return m.data.UnbindGatesFromVenue(ctx, venueID)
}

func (m *Memory) ListGuestSessions(ctx context.Context) ([]model.GuestSession, error) {
	defer m.locked()()
	return m.data.ListGuestSessions(ctx)
}

func (m *Memory) ListGuestSessionsByPlates(ctx context.Context, plates []string) ([]model.GuestSession, error) {
	defer m.locked()()
	return m.data.ListGuestSessionsByPlates(ctx, plates)
}

func (m *Memory) GetGuestSession(ctx context.Context, id string) (*model.GuestSession, error) {
	defer m.locked()()
	return m.data.GetGuestSession(ctx, id)
}

func (m *Memory) FindGuestSessionByPlate(ctx context.Context, plate string, status model.GuestSessionStatus) (*model.GuestSession, error) {
	defer m.locked()()
	return m.data.FindGuestSessionByPlate(ctx, plate, status)
}

func (m *Memory) SaveGuestSession(ctx context.Context, session *model.GuestSession) error {
	defer m.locked()()
	return m.data.SaveGuestSession(ctx, session)
}

func (m *Memory) GetGuestRate(ctx context.Context) (model.GuestRate, error) {
	defer m.locked()()
	return m.data.GetGuestRate(ctx)
}

func (m *Memory) SaveGuestRate(ctx context.Context, rate model.GuestRate) error {
	defer m.locked()()
	return m.data.SaveGuestRate(ctx, rate)
}

func (m *Memory) FindRegistrationByUser(ctx context.Context, userID string) (*model.ClientRegistration, error) {
	defer m.locked()()
	return m.data.FindRegistrationByUser(ctx, userID)
}

func (m *Memory) SaveRegistration(ctx context.Context, registration *model.ClientRegistration) error {
	defer m.locked()()
	return m.data.SaveRegistration(ctx, registration)
}

func (m *Memory) GetProfile(ctx context.Context, userID string) (*model.ClientProfile, error) {
	defer m.locked()()
	return m.data.GetProfile(ctx, userID)
}

func (m *Memory) SaveProfile(ctx context.Context, profile *model.ClientProfile) error {
	defer m.locked()()
	return m.data.SaveProfile(ctx, profile)
}

func (m *Memory) AddWalletTransaction(ctx context.Context, txn *model.WalletTransaction) error {
	defer m.locked()()
	return m.data.AddWalletTransaction(ctx, txn)
}

func (m *Memory) ListWalletTransactions(ctx context.Context, userID string, limit int) ([]model.WalletTransaction, error) {
	defer m.locked()()
	return m.data.ListWalletTransactions(ctx, userID, limit)
}

func (m *Memory) RecordPayment(ctx context.Context, payment *model.Payment) error {
	defer m.locked()()
	return m.data.RecordPayment(ctx, payment)
}

func (m *Memory) ListPayments(ctx context.Context) ([]model.Payment, error) {
	defer m.locked()()
	return m.data.ListPayments(ctx)
}

func (m *Memory) ListParkingVenues(ctx context.Context) ([]model.ParkingVenue, error) {
	defer m.locked()()
	return m.data.ListParkingVenues(ctx)
}

func (m *Memory) GetParkingVenue(ctx context.Context, id string) (*model.ParkingVenue, error) {
	defer m.locked()()
	return m.data.GetParkingVenue(ctx, id)
}

func (m *Memory) SaveParkingVenue(ctx context.Context, venue *model.ParkingVenue) error {
	defer m.locked()()
	return m.data.SaveParkingVenue(ctx, venue)
}

func (m *Memory) DeleteParkingVenue(ctx context.Context, id string) error {
	defer m.locked()()
	return m.data.DeleteParkingVenue(ctx, id)
}

func (m *Memory) AddNotification(ctx context.Context, notification *model.Notification) error {
	defer m.locked()()
	return m.data.AddNotification(ctx, notification)
}

func (m *Memory) ListNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	defer m.locked()()
	return m.data.ListNotifications(ctx, userID)
}

func (m *Memory) GetNotification(ctx context.Context, userID, id string) (*model.Notification, error) {
	defer m.locked()()
	return m.data.GetNotification(ctx, userID, id)
}

func (m *Memory) SaveNotification(ctx context.Context, notification *model.Notification) error {
	defer m.locked()()
	return m.data.SaveNotification(ctx, notification)
}

// ---------------------------------------------------------------------------
// Unlocked state
// ---------------------------------------------------------------------------

type state struct {
	users         map[string]model.User
	credentials   map[string]string
	vehicles      map[string]model.Vehicle
	passes        map[string]model.Pass
	applications  map[string]model.PassApplication
	upgrades      map[string]model.RoleUpgradeRequest
	accessEvents  []model.AccessEvent
	gates         map[string]model.Gate
	guestSessions map[string]model.GuestSession
	guestRate     *model.GuestRate
	registrations map[string]model.ClientRegistration
	profiles      map[string]model.ClientProfile
	walletTxns    map[string][]model.WalletTransaction
	payments      []model.Payment
	parkingVenues map[string]model.ParkingVenue
	notifications map[string][]model.Notification
}

func newState() state {
	return state{
		users:         make(map[string]model.User),
		credentials:   make(map[string]string),
		vehicles:      make(map[string]model.Vehicle),
		passes:        make(map[string]model.Pass),
		applications:  make(map[string]model.PassApplication),
		upgrades:      make(map[string]model.RoleUpgradeRequest),
		gates:         make(map[string]model.Gate),
		guestSessions: make(map[string]model.GuestSession),
		registrations: make(map[string]model.ClientRegistration),
		profiles:      make(map[string]model.ClientProfile),
		walletTxns:    make(map[string][]model.WalletTransaction),
		parkingVenues: make(map[string]model.ParkingVenue),
		notifications: make(map[string][]model.Notification),
	}
}

// clone copies every collection so a restored snapshot cannot alias live
// backing arrays.
func (s *state) clone() state {
	next := state{
		users:         maps.Clone(s.users),
		credentials:   maps.Clone(s.credentials),
		vehicles:      maps.Clone(s.vehicles),
		passes:        maps.Clone(s.passes),
		applications:  maps.Clone(s.applications),
		upgrades:      maps.Clone(s.upgrades),
		accessEvents:  slices.Clone(s.accessEvents),
		gates:         maps.Clone(s.gates),
		guestSessions: maps.Clone(s.guestSessions),
		registrations: maps.Clone(s.registrations),
		profiles:      maps.Clone(s.profiles),
		walletTxns:    make(map[string][]model.WalletTransaction, len(s.walletTxns)),
		payments:      slices.Clone(s.payments),
		parkingVenues: maps.Clone(s.parkingVenues),
		notifications: make(map[string][]model.Notification, len(s.notifications)),
	}
	for userID, txns := range s.walletTxns {
		next.walletTxns[userID] = slices.Clone(txns)
	}
	for userID, notes := range s.notifications {
		next.notifications[userID] = slices.Clone(notes)
	}
	if s.guestRate != nil {
		rate := *s.guestRate
		next.guestRate = &rate
	}
	return next
}

// Transact on the unlocked state supports nesting inside an outer critical
// section.
func (s *state) Transact(ctx context.Context, fn func(store.Store) error) error {
	return fn(s)
}

func (s *state) ListUsers(ctx context.Context) ([]model.User, error) {
	users := make([]model.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *state) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", store.ErrNotFound, id)
	}
	return &user, nil
}

func (s *state) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			u := user
			return &u, nil
		}
	}
	return nil, nil
}

func (s *state) SaveUser(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = model.NewID("USR")
	}
	s.users[user.ID] = *user
	return nil
}

func (s *state) DeleteUser(ctx context.Context, id string) error {
	if _, ok := s.users[id]; !ok {
		return fmt.Errorf("%w: user %s", store.ErrNotFound, id)
	}
	delete(s.users, id)
	delete(s.credentials, id)
	return nil
}

func (s *state) GetCredential(ctx context.Context, userID string) (string, error) {
	hash, ok := s.credentials[userID]
	if !ok {
		return "", fmt.Errorf("%w: credential for %s", store.ErrNotFound, userID)
	}
	return hash, nil
}

func (s *state) SaveCredential(ctx context.Context, userID, passwordHash string) error {
	s.credentials[userID] = passwordHash
	return nil
}

func (s *state) ListVehicles(ctx context.Context) ([]model.Vehicle, error) {
	vehicles := make([]model.Vehicle, 0, len(s.vehicles))
	for _, vehicle := range s.vehicles {
		vehicles = append(vehicles, vehicle)
	}
	sort.Slice(vehicles, func(i, j int) bool { return vehicles[i].ID < vehicles[j].ID })
	return vehicles, nil
}

func (s *state) ListVehiclesByUser(ctx context.Context, userID string) ([]model.Vehicle, error) {
	var vehicles []model.Vehicle
	for _, vehicle := range s.vehicles {
		if vehicle.UserID == userID {
			vehicles = append(vehicles, vehicle)
		}
	}
	sort.Slice(vehicles, func(i, j int) bool { return vehicles[i].ID < vehicles[j].ID })
	return vehicles, nil
}

func (s *state) GetVehicle(ctx context.Context, id string) (*model.Vehicle, error) {
	vehicle, ok := s.vehicles[id]
	if !ok {
		return nil, fmt.Errorf("%w: vehicle %s", store.ErrNotFound, id)
	}
	return &vehicle, nil
}

func (s *state) FindVehicleByPlate(ctx context.Context, plate string) (*model.Vehicle, error) {
	for _, vehicle := range s.vehicles {
		if vehicle.PlateText == plate {
			v := vehicle
			return &v, nil
		}
	}
	return nil, nil
}

func (s *state) SaveVehicle(ctx context.Context, vehicle *model.Vehicle) error {
	if vehicle.ID == "" {
		vehicle.ID = model.NewID("VEH")
	}
	s.vehicles[vehicle.ID] = *vehicle
	return nil
}

func (s *state) DeleteVehicle(ctx context.Context, id string) error {
	if _, ok := s.vehicles[id]; !ok {
		return fmt.Errorf("%w: vehicle %s", store.ErrNotFound, id)
	}
	delete(s.vehicles, id)
	return nil
}

func (s *state) ListPasses(ctx context.Context) ([]model.Pass, error) {
	passes := make([]model.Pass, 0, len(s.passes))
	for _, pass := range s.passes {
		passes = append(passes, pass)
	}
	sort.Slice(passes, func(i, j int) bool { return passes[i].ID < passes[j].ID })
	return passes, nil
}

func (s *state) ListPassesByUser(ctx context.Context, userID string) ([]model.Pass, error) {
	var passes []model.Pass
	for _, pass := range s.passes {
		if pass.UserID == userID {
			passes = append(passes, pass)
		}
	}
	sort.Slice(passes, func(i, j int) bool { return passes[i].ID < passes[j].ID })
	return passes, nil
}

func (s *state) GetPass(ctx context.Context, id string) (*model.Pass, error) {
	pass, ok := s.passes[id]
	if !ok {
		return nil, fmt.Errorf("%w: pass %s", store.ErrNotFound, id)
	}
	return &pass, nil
}

func (s *state) LatestPass(ctx context.Context, userID string) (*model.Pass, error) {
	var latest *model.Pass
	for _, pass := range s.passes {
		if pass.UserID != userID {
			continue
		}
		p := pass
		if latest == nil || p.ValidTo.After(latest.ValidTo) {
			latest = &p
		}
	}
	return latest, nil
}

func (s *state) SavePass(ctx context.Context, pass *model.Pass) error {
	if pass.ID == "" {
		pass.ID = model.NewID("PASS")
	}
	s.passes[pass.ID] = *pass
	return nil
}

func (s *state) DeletePass(ctx context.Context, id string) error {
	if _, ok := s.passes[id]; !ok {
		return fmt.Errorf("%w: pass %s", store.ErrNotFound, id)
	}
	delete(s.passes, id)
	return nil
}

func (s *state) ListPassApplications(ctx context.Context, status model.ReviewStatus) ([]model.PassApplication, error) {
	var applications []model.PassApplication
	for _, application := range s.applications {
		if status == "" || application.Status == status {
			applications = append(applications, application)
		}
	}
	sort.Slice(applications, func(i, j int) bool {
		return applications[i].SubmittedAt.After(applications[j].SubmittedAt)
	})
	return applications, nil
}

func (s *state) GetPassApplication(ctx context.Context, id string) (*model.PassApplication, error) {
	application, ok := s.applications[id]
	if !ok {
		return nil, fmt.Errorf("%w: pass application %s", store.ErrNotFound, id)
	}
	return &application, nil
}

func (s *state) SavePassApplication(ctx context.Context, application *model.PassApplication) error {
	if application.ID == "" {
		application.ID = model.NewID("APP")
	}
	s.applications[application.ID] = *application
	return nil
}

func (s *state) ListRoleUpgrades(ctx context.Context, status model.ReviewStatus) ([]model.RoleUpgradeRequest, error) {
	var requests []model.RoleUpgradeRequest
	for _, request := range s.upgrades {
		if status == "" || request.Status == status {
			requests = append(requests, request)
		}
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].SubmittedAt.After(requests[j].SubmittedAt)
	})
	return requests, nil
}

func (s *state) ListRoleUpgradesByUser(ctx context.Context, userID string) ([]model.RoleUpgradeRequest, error) {
	var requests []model.RoleUpgradeRequest
	for _, request := range s.upgrades {
		if request.UserID == userID {
			requests = append(requests, request)
		}
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].SubmittedAt.After(requests[j].SubmittedAt)
	})
	return requests, nil
}

func (s *state) GetRoleUpgrade(ctx context.Context, id string) (*model.RoleUpgradeRequest, error) {
	request, ok := s.upgrades[id]
	if !ok {
		return nil, fmt.Errorf("%w: role upgrade %s", store.ErrNotFound, id)
	}
	return &request, nil
}

func (s *state) SaveRoleUpgrade(ctx context.Context, request *model.RoleUpgradeRequest) error {
	if request.ID == "" {
		request.ID = model.NewID("URQ")
	}
	s.upgrades[request.ID] = *request
	return nil
}

func (s *state) AppendAccessEvent(ctx context.Context, event *model.AccessEvent) error {
	if event.ID == "" {
		event.ID = model.NewID("EVT")
	}
	s.accessEvents = append([]model.AccessEvent{*event}, s.accessEvents...)
	if len(s.accessEvents) > model.AccessEventCapacity {
		s.accessEvents = s.accessEvents[:model.AccessEventCapacity]
	}
	return nil
}

func (s *state) ListAccessEvents(ctx context.Context, limit int) ([]model.AccessEvent, error) {
	if limit <= 0 || limit > len(s.accessEvents) {
		limit = len(s.accessEvents)
	}
	events := make([]model.AccessEvent, limit)
	copy(events, s.accessEvents[:limit])
	return events, nil
}

func (s *state) ListGates(ctx context.Context) ([]model.Gate, error) {
	gates := make([]model.Gate, 0, len(s.gates))
	for _, gate := range s.gates {
		gates = append(gates, gate)
	}
	sort.Slice(gates, func(i, j int) bool { return gates[i].Slug < gates[j].Slug })
	return gates, nil
}

func (s *state) GetGate(ctx context.Context, id string) (*model.Gate, error) {
	gate, ok := s.gates[id]
	if !ok {
		return nil, fmt.Errorf("%w: gate %s", store.ErrNotFound, id)
	}
	return &gate, nil
}

func (s *state) GetGateBySlug(ctx context.Context, slug string) (*model.Gate, error) {
	for _, gate := range s.gates {
		if gate.Slug == slug {
			g := gate
			return &g, nil
		}
	}
	return nil, nil
}

func (s *state) SaveGate(ctx context.Context, gate *model.Gate) error {
	if gate.ID == "" {
		gate.ID = model.NewID("GTE")
	}
	s.gates[gate.ID] = *gate
	return nil
}

func (s *state) DeleteGate(ctx context.Context, id string) error {
	if _, ok := s.gates[id]; !ok {
		return fmt.Errorf("%w: gate %s", store.ErrNotFound, id)
	}
	delete(s.gates, id)
	return nil
}

func (s *state) UnbindGatesFromVenue(ctx context.Context, venueID string) error {
	for id, gate := range s.gates {
		if gate.ParkingVenueID != nil && *gate.ParkingVenueID == venueID {
			gate.ParkingVenueID = nil
			gate.ParkingDirection = nil
			s.gates[id] = gate
		}
	}
	return nil
}

func (s *state) ListGuestSessions(ctx context.Context) ([]model.GuestSession, error) {
	sessions := make([]model.GuestSession, 0, len(s.guestSessions))
	for _, session := range s.guestSessions {
		sessions = append(sessions, session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartTime.After(sessions[j].StartTime)
	})
	return sessions, nil
}

func (s *state) ListGuestSessionsByPlates(ctx context.Context, plates []string) ([]model.GuestSession, error) {
	wanted := make(map[string]struct{}, len(plates))
	for _, plate := range plates {
		wanted[plate] = struct{}{}
	}
	var sessions []model.GuestSession
	for _, session := range s.guestSessions {
		if _, ok := wanted[session.PlateText]; ok {
			sessions = append(sessions, session)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartTime.After(sessions[j].StartTime)
	})
	return sessions, nil
}

func (s *state) GetGuestSession(ctx context.Context, id string) (*model.GuestSession, error) {
	session, ok := s.guestSessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: guest session %s", store.ErrNotFound, id)
	}
	return &session, nil
}

func (s *state) FindGuestSessionByPlate(ctx context.Context, plate string, status model.GuestSessionStatus) (*model.GuestSession, error) {
	for _, session := range s.guestSessions {
		if session.PlateText == plate && (status == "" || session.Status == status) {
			found := session
			return &found, nil
		}
	}
	return nil, nil
}

func (s *state) SaveGuestSession(ctx context.Context, session *model.GuestSession) error {
	if session.ID == "" {
		session.ID = model.NewID("GST")
	}
	s.guestSessions[session.ID] = *session
	return nil
}

func (s *state) GetGuestRate(ctx context.Context) (model.GuestRate, error) {
	if s.guestRate == nil {
		return model.GuestRate{}, fmt.Errorf("%w: guest rate", store.ErrNotFound)
	}
	return *s.guestRate, nil
}

func (s *state) SaveGuestRate(ctx context.Context, rate model.GuestRate) error {
	s.guestRate = &rate
	return nil
}

func (s *state) FindRegistrationByUser(ctx context.Context, userID string) (*model.ClientRegistration, error) {
	for _, registration := range s.registrations {
		if registration.UserID == userID {
			r := registration
			return &r, nil
		}
	}
	return nil, nil
}

func (s *state) SaveRegistration(ctx context.Context, registration *model.ClientRegistration) error {
	if registration.ID == "" {
		registration.ID = model.NewID("REG")
	}
	s.registrations[registration.ID] = *registration
	return nil
}

func (s *state) GetProfile(ctx context.Context, userID string) (*model.ClientProfile, error) {
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("%w: profile for %s", store.ErrNotFound, userID)
	}
	return &profile, nil
}

func (s *state) SaveProfile(ctx context.Context, profile *model.ClientProfile) error {
	s.profiles[profile.UserID] = *profile
	return nil
}

func (s *state) AddWalletTransaction(ctx context.Context, txn *model.WalletTransaction) error {
	if txn.ID == "" {
		txn.ID = model.NewID("TXN")
	}
	s.walletTxns[txn.UserID] = append([]model.WalletTransaction{*txn}, s.walletTxns[txn.UserID]...)
	return nil
}

func (s *state) ListWalletTransactions(ctx context.Context, userID string, limit int) ([]model.WalletTransaction, error) {
	txns := s.walletTxns[userID]
	if limit <= 0 || limit > len(txns) {
		limit = len(txns)
	}
	out := make([]model.WalletTransaction, limit)
	copy(out, txns[:limit])
	return out, nil
}

func (s *state) RecordPayment(ctx context.Context, payment *model.Payment) error {
	if payment.ID == "" {
		payment.ID = model.NewID("PAY")
	}
	s.payments = append([]model.Payment{*payment}, s.payments...)
	return nil
}

func (s *state) ListPayments(ctx context.Context) ([]model.Payment, error) {
	payments := make([]model.Payment, len(s.payments))
	copy(payments, s.payments)
	return payments, nil
}

func (s *state) ListParkingVenues(ctx context.Context) ([]model.ParkingVenue, error) {
	venues := make([]model.ParkingVenue, 0, len(s.parkingVenues))
	for _, venue := range s.parkingVenues {
		venues = append(venues, venue)
	}
	sort.Slice(venues, func(i, j int) bool { return venues[i].ID < venues[j].ID })
	return venues, nil
}

func (s *state) GetParkingVenue(ctx context.Context, id string) (*model.ParkingVenue, error) {
	venue, ok := s.parkingVenues[id]
	if !ok {
		return nil, fmt.Errorf("%w: parking venue %s", store.ErrNotFound, id)
	}
	return &venue, nil
}

func (s *state) SaveParkingVenue(ctx context.Context, venue *model.ParkingVenue) error {
	if venue.ID == "" {
		venue.ID = model.NewID("VEN")
	}
	s.parkingVenues[venue.ID] = *venue
	return nil
}

func (s *state) DeleteParkingVenue(ctx context.Context, id string) error {
	if _, ok := s.parkingVenues[id]; !ok {
		return fmt.Errorf("%w: parking venue %s", store.ErrNotFound, id)
	}
	delete(s.parkingVenues, id)
	return nil
}

func (s *state) AddNotification(ctx context.Context, notification *model.Notification) error {
	if notification.ID == "" {
		notification.ID = model.NewID("NTF")
	}
	s.notifications[notification.UserID] = append(
		[]model.Notification{*notification}, s.notifications[notification.UserID]...)
	return nil
}

func (s *state) ListNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	notes := s.notifications[userID]
	out := make([]model.Notification, len(notes))
	copy(out, notes)
	return out, nil
}

func (s *state) GetNotification(ctx context.Context, userID, id string) (*model.Notification, error) {
	for _, note := range s.notifications[userID] {
		if note.ID == id {
			n := note
			return &n, nil
		}
	}
	return nil, fmt.Errorf("%w: notification %s", store.ErrNotFound, id)
}

func (s *state) SaveNotification(ctx context.Context, notification *model.Notification) error {
	notes := s.notifications[notification.UserID]
	for idx, note := range notes {
		if note.ID == notification.ID {
			notes[idx] = *notification
			return nil
		}
	}
	return fmt.Errorf("%w: notification %s", store.ErrNotFound, notification.ID)
}

