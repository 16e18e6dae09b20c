package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"smartgate-service/internal/cache"
	"smartgate-service/internal/detect"
	"smartgate-service/internal/metrics"
	"smartgate-service/internal/model"
	"smartgate-service/internal/store"
	"smartgate-service/internal/utils"
)

// accessEventCacheLen caps the cached copy of the event feed; the store
// keeps the full ring.
const accessEventCacheLen = 100

// AccessDecision is the verdict returned to the gate hardware, enriched
// with owner details when the plate is registered.
type AccessDecision struct {
	PlateText        string         `json:"plate_text"`
	Confidence       float64        `json:"confidence"`
	Decision         model.Decision `json:"decision"`
	Role             model.Role     `json:"role"`
	Reason           string         `json:"reason"`
	Gate             string         `json:"gate"`
	OwnerName        *string        `json:"owner_name"`
	OwnerPhone       *string        `json:"owner_phone"`
	OwnerAffiliation *string        `json:"owner_affiliation"`
	PassValidTo      *time.Time     `json:"pass_valid_to"`
}

type InferInput struct {
	Gate          string
	PlateOverride string
	Snapshot      []byte
	SnapshotURL   *string
}

type InferenceResult struct {
	Decision AccessDecision    `json:"decision"`
	Event    model.AccessEvent `json:"event"`
}

type AccessService struct {
	store    store.Store
	cache    *cache.Cache
	detector detect.Detector
	log      zerolog.Logger
	now      func() time.Time
}

func NewAccessService(st store.Store, ch *cache.Cache, detector detect.Detector, log zerolog.Logger) *AccessService {
	return &AccessService{
		store:    st,
		cache:    ch,
		detector: detector,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Infer runs one gate cycle: plate detection, the admission decision, the
// audit event, and for admitted traffic the guest session and parking side
// effects. The decision and its side effects commit as one unit.
func (s *AccessService) Infer(ctx context.Context, input InferInput) (*InferenceResult, error) {
	reading, err := s.detector.Detect(ctx, input.Snapshot, input.PlateOverride)
	if err != nil {
		return nil, err
	}

	var (
		decision    AccessDecision
		event       model.AccessEvent
		openedGuest *model.GuestSession
	)
	err = s.store.Transact(ctx, func(tx store.Store) error {
		now := s.now()
		gateSlug, minRole, gate, err := s.resolveGate(ctx, tx, input.Gate)
		if err != nil {
			return err
		}

		decision, openedGuest, err = s.decide(ctx, tx, reading, gateSlug, minRole, now)
		if err != nil {
			return err
		}

		event = model.AccessEvent{
			PlateText:   decision.PlateText,
			Confidence:  decision.Confidence,
			Decision:    decision.Decision,
			Role:        decision.Role,
			Reason:      decision.Reason,
			Gate:        decision.Gate,
			SnapshotURL: input.SnapshotURL,
			Timestamp:   now,
		}
		if err := tx.AppendAccessEvent(ctx, &event); err != nil {
			return err
		}

		if decision.Decision == model.DecisionAllow || decision.Decision == model.DecisionGuest {
			s.updateParking(ctx, tx, gate)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.PushJSON(ctx, cache.AccessEventsKey(), event, accessEventCacheLen)
	s.cache.SetJSON(ctx, cache.InferenceKey(decision.Gate), decision, 0)
	if openedGuest != nil {
		s.cache.SetJSON(ctx, cache.GuestSessionKey(openedGuest.PlateText), openedGuest, time.Hour)
	}
	metrics.RecordDecision(decision.Gate, string(decision.Decision))

	return &InferenceResult{Decision: decision, Event: event}, nil
}

// resolveGate prefers the configured active gate row; unconfigured slugs
// fall back to the built-in thresholds, unknown slugs to guest.
func (s *AccessService) resolveGate(ctx context.Context, tx store.Store, slug string) (string, model.Role, *model.Gate, error) {
	target := strings.ToLower(strings.TrimSpace(slug))
	if target == "" {
		target = "outer"
	}
	gate, err := tx.GetGateBySlug(ctx, target)
	if err != nil {
		return "", "", nil, err
	}
	if gate != nil && gate.IsActive {
		return gate.Slug, gate.MinRole, gate, nil
	}
	// An inactive gate row falls back to the built-in threshold and its
	// venue binding is ignored, so it never moves parking.
	minRole, ok := model.DefaultGateMinRole[target]
	if !ok {
		minRole = model.RoleGuest
	}
	return target, minRole, nil, nil
}

func (s *AccessService) decide(ctx context.Context, tx store.Store, reading detect.Reading, gateSlug string, minRole model.Role, now time.Time) (AccessDecision, *model.GuestSession, error) {
	decision := AccessDecision{
		PlateText:  reading.PlateText,
		Confidence: reading.Confidence,
		Role:       model.RoleGuest,
		Gate:       gateSlug,
	}
	requiredWeight := minRole.Weight()

	plate := utils.NormalizePlate(reading.PlateText)
	vehicle, err := tx.FindVehicleByPlate(ctx, plate)
	if err != nil {
		return decision, nil, err
	}

	if vehicle == nil {
		if requiredWeight > model.RoleGuest.Weight() {
			decision.Decision = model.DecisionDeny
			decision.Reason = "Unregistered plate - " + gateSlug + " requires " + string(minRole) + "+"
			return decision, nil, nil
		}
		session, err := s.ensureGuestSession(ctx, tx, plate, now)
		if err != nil {
			return decision, nil, err
		}
		decision.Decision = model.DecisionGuest
		decision.Reason = "Unregistered plate, guest flow started"
		return decision, session, nil
	}

	user, err := tx.GetUser(ctx, vehicle.UserID)
	if err != nil {
		return decision, nil, err
	}
	decision.Role = user.Role
	decision.OwnerName = &user.Name
	decision.OwnerPhone = &user.Phone
	decision.OwnerAffiliation = &user.Programme

	latest, err := tx.LatestPass(ctx, user.ID)
	if err != nil {
		return decision, nil, err
	}
	if latest != nil && !latest.IsPaid {
		decision.Decision = model.DecisionDeny
		decision.Reason = "Pass unpaid - settle wallet invoice"
		return decision, nil, nil
	}
	if latest == nil {
		decision.Decision = model.DecisionDeny
		decision.Reason = "No pass on file"
		return decision, nil, nil
	}
	decision.PassValidTo = &latest.ValidTo

	if !latest.ValidTo.After(now) {
		decision.Decision = model.DecisionDeny
		decision.Reason = "Pass expired (" + latest.ValidTo.Format("2006-01-02") + ")"
		return decision, nil, nil
	}

	if user.Role.Weight() >= requiredWeight {
		decision.Decision = model.DecisionAllow
		decision.Reason = titleRole(user.Role) + " role >= " + string(minRole) + " gate threshold"
		return decision, nil, nil
	}
	decision.Decision = model.DecisionDeny
	decision.Reason = titleRole(user.Role) + " role below " + gateSlug + " requirement"
	return decision, nil, nil
}

// ensureGuestSession reuses an open session for the plate or opens one,
// inside the caller's transaction so concurrent reads of the same plate
// cannot race into duplicates.
func (s *AccessService) ensureGuestSession(ctx context.Context, tx store.Store, plate string, now time.Time) (*model.GuestSession, error) {
	existing, err := tx.FindGuestSessionByPlate(ctx, plate, model.GuestSessionOpen)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	session := &model.GuestSession{
		PlateText: plate,
		StartTime: now,
		Status:    model.GuestSessionOpen,
	}
	if err := tx.SaveGuestSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// updateParking moves the occupancy counter for gates bound to a venue.
// Failures are logged and never veto the admission.
func (s *AccessService) updateParking(ctx context.Context, tx store.Store, gate *model.Gate) {
	if gate == nil || gate.ParkingVenueID == nil || gate.ParkingDirection == nil {
		return
	}
	venue, err := tx.GetParkingVenue(ctx, *gate.ParkingVenueID)
	if err != nil {
		s.log.Warn().Err(err).Str("gate", gate.Slug).Msg("parking update skipped")
		return
	}
	if *gate.ParkingDirection == model.DirectionEntry {
		venue.Occupied++
	} else {
		venue.Occupied--
	}
	venue.Clamp()
	if err := tx.SaveParkingVenue(ctx, venue); err != nil {
		s.log.Warn().Err(err).Str("gate", gate.Slug).Msg("parking update failed")
	}
}

// ListEvents serves the audit feed, preferring the cached copy.
func (s *AccessService) ListEvents(ctx context.Context, limit int) ([]model.AccessEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	if cached, ok := cache.ListJSON[model.AccessEvent](ctx, s.cache, cache.AccessEventsKey(), int64(limit)); ok {
		return cached, nil
	}
	return s.store.ListAccessEvents(ctx, limit)
}

func titleRole(role model.Role) string {
	raw := string(role)
	if raw == "" {
		return raw
	}
	return strings.ToUpper(raw[:1]) + raw[1:]
}
