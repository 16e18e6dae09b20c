package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"smartgate-service/internal/external"
	"smartgate-service/internal/model"
	"smartgate-service/internal/store"
)

type WalletService struct {
	store    store.Store
	gateway  *external.TouchNGoClient
	currency string
	log      zerolog.Logger
	now      func() time.Time
}

func NewWalletService(st store.Store, gateway *external.TouchNGoClient, currency string, log zerolog.Logger) *WalletService {
	return &WalletService{
		store:    st,
		gateway:  gateway,
		currency: currency,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// TopUp collects the amount through the gateway first and only then credits
// the ledger, so a failed charge leaves the balance untouched.
func (s *WalletService) TopUp(ctx context.Context, userID string, amount float64, source string) (*model.ClientWalletActivity, error) {
	if amount <= 0.5 {
		return nil, fmt.Errorf("%w: top-up amount must exceed RM 0.50", ErrInvalidInput)
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	charge, err := s.gateway.ChargeWalletTopUp(ctx, userID, amount)
	if err != nil {
		return nil, fmt.Errorf("%w: top-up charge failed: %v", store.ErrInvalidOperation, err)
	}

	var activity *model.ClientWalletActivity
	err = s.store.Transact(ctx, func(tx store.Store) error {
		now := s.now()
		if _, err := applyWalletDelta(ctx, tx, userID, amount, model.WalletTxnTopUp,
			fmt.Sprintf("Wallet top-up (%s)", source), source, now); err != nil {
			return err
		}
		reference := charge.Reference
		if _, err := recordPayment(ctx, tx, amount, external.ProcessorTouchNGo, &reference, nil, nil, s.currency, now); err != nil {
			return err
		}
		var err error
		activity, err = walletActivity(ctx, tx, userID, s.currency, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return activity, nil
}

func (s *WalletService) Activity(ctx context.Context, userID string) (*model.ClientWalletActivity, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	var activity *model.ClientWalletActivity
	err := s.store.Transact(ctx, func(tx store.Store) error {
		var err error
		activity, err = walletActivity(ctx, tx, userID, s.currency, s.now())
		return err
	})
	return activity, err
}

// PayPassInvoice settles a pass from the wallet: debit, mark paid, payment
// record and owner notification commit together. Paying an already-paid
// pass returns it unchanged.
func (s *WalletService) PayPassInvoice(ctx context.Context, userID, passID string) (*model.Pass, error) {
	var pass *model.Pass
	err := s.store.Transact(ctx, func(tx store.Store) error {
		var err error
		pass, err = tx.GetPass(ctx, passID)
		if err != nil {
			return err
		}
		if pass.UserID != userID {
			return fmt.Errorf("%w: pass does not belong to user", ErrInvalidInput)
		}
		if pass.IsPaid {
			return nil
		}
		now := s.now()
		price := pass.PriceRM
		txn, err := applyWalletDelta(ctx, tx, userID, -price, model.WalletTxnPassPayment,
			"Pass "+pass.PlanType, "wallet", now)
		if err != nil {
			return err
		}
		pass.IsPaid = true
		pass.PaidAt = &now
		if err := tx.SavePass(ctx, pass); err != nil {
			return err
		}
		if _, err := recordPayment(ctx, tx, price, "wallet", &txn.ID, nil, &pass.ID, s.currency, now); err != nil {
			return err
		}
		return notify(ctx, tx, userID, fmt.Sprintf("Pass payment received: RM %.2f", price), now)
	})
	if err != nil {
		return nil, err
	}
	return pass, nil
}
