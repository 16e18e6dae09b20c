package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"smartgate-service/internal/cache"
	"smartgate-service/internal/external"
	"smartgate-service/internal/model"
	"smartgate-service/internal/store"
	"smartgate-service/internal/utils"
)

type GuestService struct {
	store    store.Store
	cache    *cache.Cache
	gateway  *external.TouchNGoClient
	currency string
	log      zerolog.Logger
	now      func() time.Time
}

func NewGuestService(st store.Store, ch *cache.Cache, gateway *external.TouchNGoClient, currency string, log zerolog.Logger) *GuestService {
	return &GuestService{
		store:    st,
		cache:    ch,
		gateway:  gateway,
		currency: currency,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *GuestService) ListSessions(ctx context.Context) ([]model.GuestSession, error) {
	return s.store.ListGuestSessions(ctx)
}

// OpenSession starts metering for a plate.
func (s *GuestService) OpenSession(ctx context.Context, plateText string) (*model.GuestSession, error) {
	plate := utils.NormalizePlate(plateText)
	if plate == "" {
		return nil, fmt.Errorf("%w: plate_text required", ErrInvalidInput)
	}
	session := &model.GuestSession{
		PlateText: plate,
		StartTime: s.now(),
		Status:    model.GuestSessionOpen,
	}
	if err := s.store.SaveGuestSession(ctx, session); err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, cache.GuestSessionKey(plate), session, time.Hour)
	return session, nil
}

// CloseSession freezes an open session: billable minutes are the floored
// elapsed time with a one-minute minimum, the fee is computed from the
// current rate. Closing a non-open session is a no-op.
func (s *GuestService) CloseSession(ctx context.Context, sessionID string) (*model.GuestSession, error) {
	var session *model.GuestSession
	err := s.store.Transact(ctx, func(tx store.Store) error {
		var err error
		session, err = tx.GetGuestSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if session.Status != model.GuestSessionOpen {
			return nil
		}
		rate, err := tx.GetGuestRate(ctx)
		if err != nil {
			return err
		}
		end := s.now()
		minutes := model.BillableMinutes(session.StartTime, end)
		fee := round2(rate.Fee(minutes))
		session.EndTime = &end
		session.Minutes = &minutes
		session.Fee = &fee
		session.Status = model.GuestSessionClosed
		return tx.SaveGuestSession(ctx, session)
	})
	if err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, cache.GuestSessionKey(session.PlateText))
	return session, nil
}

type GuestPaymentInput struct {
	SessionID     string
	Amount        *float64
	PaymentSource string
	UserID        string
}

// PaySession settles a session. External payments are charged before the
// session transitions; wallet payments debit the ledger in the same unit as
// the transition, so a failed debit leaves the session untouched.
func (s *GuestService) PaySession(ctx context.Context, input GuestPaymentInput) (*model.Payment, error) {
	if input.SessionID == "" {
		return nil, fmt.Errorf("%w: session_id required", ErrInvalidInput)
	}
	wallet := input.PaymentSource == "wallet"
	if wallet && input.UserID == "" {
		return nil, fmt.Errorf("%w: user_id required for wallet payments", ErrInvalidInput)
	}

	// The session must exist before any money moves.
	if _, err := s.store.GetGuestSession(ctx, input.SessionID); err != nil {
		return nil, err
	}

	// Pre-compute the amount so the external charge can run outside the
	// store's critical section.
	amount := 0.0
	if input.Amount != nil && *input.Amount > 0 {
		amount = round2(*input.Amount)
	} else {
		lookup, err := s.Lookup(ctx, input.SessionID, "")
		if err != nil {
			return nil, err
		}
		amount = lookup.AmountDue
	}

	processor := "wallet"
	var reference *string
	if !wallet {
		charge, err := s.gateway.ChargeGuest(ctx, input.SessionID, amount)
		if err != nil {
			return nil, fmt.Errorf("%w: guest charge failed: %v", store.ErrInvalidOperation, err)
		}
		processor = external.ProcessorTouchNGo
		reference = &charge.Reference
	}

	var (
		payment *model.Payment
		plate   string
	)
	err := s.store.Transact(ctx, func(tx store.Store) error {
		session, err := tx.GetGuestSession(ctx, input.SessionID)
		if err != nil {
			return err
		}
		now := s.now()
		if session.EndTime == nil {
			session.EndTime = &now
		}
		if session.Minutes == nil {
			minutes := model.BillableMinutes(session.StartTime, now)
			session.Minutes = &minutes
		}
		fee := round2(amount)
		session.Fee = &fee
		session.Status = model.GuestSessionPaid
		if err := tx.SaveGuestSession(ctx, session); err != nil {
			return err
		}
		plate = session.PlateText

		if wallet {
			txn, err := applyWalletDelta(ctx, tx, input.UserID, -fee, model.WalletTxnGuestPayment,
				"Guest session "+session.ID, "wallet", now)
			if err != nil {
				return err
			}
			reference = &txn.ID
		}
		payment, err = recordPayment(ctx, tx, fee, processor, reference, &session.ID, nil, s.currency, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.cache.Delete(ctx, cache.GuestSessionKey(plate))
	return payment, nil
}

type GuestSessionLookup struct {
	Session   model.GuestSession `json:"session"`
	AmountDue float64            `json:"amount_due"`
}

// Lookup resolves a session by id or plate and computes what is currently
// owed: the frozen fee when closed, a live meter reading while open.
func (s *GuestService) Lookup(ctx context.Context, sessionID, plateText string) (*GuestSessionLookup, error) {
	if sessionID == "" && plateText == "" {
		return nil, fmt.Errorf("%w: session_id or plate_text required", ErrInvalidInput)
	}
	var session *model.GuestSession
	if sessionID != "" {
		found, err := s.store.GetGuestSession(ctx, sessionID)
		if err == nil {
			session = found
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	if session == nil && plateText != "" {
		found, err := s.store.FindGuestSessionByPlate(ctx, utils.NormalizePlate(plateText), "")
		if err != nil {
			return nil, err
		}
		session = found
	}
	if session == nil {
		return nil, fmt.Errorf("%w: guest session", store.ErrNotFound)
	}

	minutes := 0
	if session.Minutes != nil {
		minutes = *session.Minutes
	} else {
		minutes = model.BillableMinutes(session.StartTime, s.now())
	}
	amount := 0.0
	if session.Fee != nil {
		amount = *session.Fee
	} else {
		rate, err := s.store.GetGuestRate(ctx)
		if err != nil {
			return nil, err
		}
		amount = rate.Fee(minutes)
	}
	return &GuestSessionLookup{Session: *session, AmountDue: round2(amount)}, nil
}

func (s *GuestService) Rate(ctx context.Context) (model.GuestRate, error) {
	return s.store.GetGuestRate(ctx)
}

func (s *GuestService) UpdateRate(ctx context.Context, base, perMinute float64) (model.GuestRate, error) {
	if base < 0 || perMinute < 0 {
		return model.GuestRate{}, fmt.Errorf("%w: rates must be non-negative", ErrInvalidInput)
	}
	rate := model.GuestRate{BaseRate: base, PerMinuteRate: perMinute}
	if err := s.store.SaveGuestRate(ctx, rate); err != nil {
		return model.GuestRate{}, err
	}
	return rate, nil
}
