// Package service implements the business rules on top of the store
// contract: gate decisions, guest metering, the wallet ledger, parking
// occupancy, review workflows and the client portal.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"smartgate-service/internal/model"
	"smartgate-service/internal/store"
)

var (
	ErrNotFound         = store.ErrNotFound
	ErrInvalidInput     = errors.New("invalid input")
	ErrPermissionDenied = errors.New("permission denied")
	ErrConflict         = errors.New("conflict")
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func notify(ctx context.Context, tx store.Store, userID, message string, now time.Time) error {
	return tx.AddNotification(ctx, &model.Notification{
		UserID:    userID,
		Message:   message,
		CreatedAt: now,
	})
}

// ensureRegistration returns the user's registration, creating a pending one
// when none exists.
func ensureRegistration(ctx context.Context, tx store.Store, userID string, status model.ProfileStatus, now time.Time) (*model.ClientRegistration, error) {
	registration, err := tx.FindRegistrationByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if registration != nil {
		return registration, nil
	}
	registration = &model.ClientRegistration{
		UserID:      userID,
		Status:      status,
		SubmittedAt: now,
	}
	if err := tx.SaveRegistration(ctx, registration); err != nil {
		return nil, err
	}
	return registration, nil
}

// ensureProfile returns the user's wallet profile, creating an empty one
// with a fresh guest PIN when none exists.
func ensureProfile(ctx context.Context, tx store.Store, userID string, defaultStatus model.ProfileStatus, now time.Time) (*model.ClientProfile, error) {
	profile, err := tx.GetProfile(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	registration, err := ensureRegistration(ctx, tx, userID, defaultStatus, now)
	if err != nil {
		return nil, err
	}
	profile = &model.ClientProfile{
		UserID:         userID,
		RegistrationID: registration.ID,
		Status:         defaultStatus,
		GuestPIN:       fmt.Sprintf("%04d", rand.Intn(9000)+1000),
		WalletBalance:  0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := tx.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// applyWalletDelta moves the balance by delta and appends the ledger entry.
// A delta that would push the balance below zero is rejected without any
// mutation.
func applyWalletDelta(ctx context.Context, tx store.Store, userID string, delta float64, txnType model.WalletTransactionType, description, source string, now time.Time) (*model.WalletTransaction, error) {
	profile, err := ensureProfile(ctx, tx, userID, model.ProfileStatusPending, now)
	if err != nil {
		return nil, err
	}
	newBalance := round2(profile.WalletBalance + delta)
	if newBalance < -1e-6 {
		return nil, fmt.Errorf("%w: insufficient wallet balance", store.ErrInvalidOperation)
	}
	profile.WalletBalance = newBalance
	profile.UpdatedAt = now
	if err := tx.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}
	txn := &model.WalletTransaction{
		UserID:      userID,
		Amount:      round2(delta),
		Type:        txnType,
		Description: description,
		Source:      source,
		Timestamp:   now,
	}
	if err := tx.AddWalletTransaction(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func recordPayment(ctx context.Context, tx store.Store, amount float64, processor string, reference *string, sessionID, passID *string, currency string, now time.Time) (*model.Payment, error) {
	payment := &model.Payment{
		Amount:    round2(amount),
		Status:    "succeeded",
		Processor: processor,
		Reference: reference,
		Currency:  currency,
		SessionID: sessionID,
		PassID:    passID,
		Timestamp: now,
	}
	if err := tx.RecordPayment(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

func walletSnapshot(ctx context.Context, tx store.Store, userID, currency string, now time.Time) (model.ClientWallet, error) {
	profile, err := ensureProfile(ctx, tx, userID, model.ProfileStatusPending, now)
	if err != nil {
		return model.ClientWallet{}, err
	}
	txns, err := tx.ListWalletTransactions(ctx, userID, 0)
	if err != nil {
		return model.ClientWallet{}, err
	}
	var lastTopUp *time.Time
	for _, txn := range txns {
		if txn.Type == model.WalletTxnTopUp {
			ts := txn.Timestamp
			lastTopUp = &ts
			break
		}
	}
	return model.ClientWallet{
		UserID:    userID,
		Balance:   round2(profile.WalletBalance),
		LastTopUp: lastTopUp,
		Currency:  currency,
	}, nil
}

func walletActivity(ctx context.Context, tx store.Store, userID, currency string, now time.Time) (*model.ClientWalletActivity, error) {
	wallet, err := walletSnapshot(ctx, tx, userID, currency, now)
	if err != nil {
		return nil, err
	}
	txns, err := tx.ListWalletTransactions(ctx, userID, 20)
	if err != nil {
		return nil, err
	}
	return &model.ClientWalletActivity{Wallet: wallet, Transactions: txns}, nil
}
