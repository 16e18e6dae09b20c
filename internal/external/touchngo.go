// Package external holds clients for third-party services. The Touch 'n Go
// client runs in mock mode unless a gateway URL is configured, so the rest
// of the service can always assume a working payment processor.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const ProcessorTouchNGo = "touchngo"

type TouchNGoConfig struct {
	BaseURL    string
	MerchantID string
	APIKey     string
	Timeout    time.Duration
}

type TouchNGoClient struct {
	baseURL    string
	merchantID string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

type ChargeRequest struct {
	MerchantID string  `json:"merchantId"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	OrderID    string  `json:"orderId"`
	Purpose    string  `json:"purpose"`
}

type ChargeResult struct {
	Success   bool   `json:"success"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

func NewTouchNGoClient(cfg TouchNGoConfig, log zerolog.Logger) *TouchNGoClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &TouchNGoClient{
		baseURL:    cfg.BaseURL,
		merchantID: cfg.MerchantID,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

// Mock reports whether charges are settled locally instead of hitting a
// gateway.
func (tc *TouchNGoClient) Mock() bool { return tc.baseURL == "" }

func mockReference() string {
	hex := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "TNG-" + hex[:10]
}

// Charge settles a single payment. In mock mode it always succeeds and
// fabricates a gateway reference.
func (tc *TouchNGoClient) Charge(ctx context.Context, amount float64, orderID, purpose string) (*ChargeResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("charge amount must be positive, got %.2f", amount)
	}
	if tc.Mock() {
		ref := mockReference()
		tc.log.Debug().
			Str("order_id", orderID).
			Str("purpose", purpose).
			Float64("amount", amount).
			Str("reference", ref).
			Msg("mock touchngo charge")
		return &ChargeResult{Success: true, Reference: ref, Status: "CONFIRMED"}, nil
	}

	req := ChargeRequest{
		MerchantID: tc.merchantID,
		Amount:     amount,
		Currency:   "MYR",
		OrderID:    orderID,
		Purpose:    purpose,
	}
	jsonBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal charge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, tc.baseURL+"/v1/payments/charge", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build charge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+tc.apiKey)

	resp, err := tc.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to charge: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	var result ChargeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode charge response: %w", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("charge declined: %s", result.Status)
	}
	return &result, nil
}

// ChargePass settles a pass invoice.
func (tc *TouchNGoClient) ChargePass(ctx context.Context, passID string, amount float64) (*ChargeResult, error) {
	return tc.Charge(ctx, amount, passID, "pass")
}

// ChargeGuest settles a metered guest session.
func (tc *TouchNGoClient) ChargeGuest(ctx context.Context, sessionID string, amount float64) (*ChargeResult, error) {
	return tc.Charge(ctx, amount, sessionID, "guest_session")
}

// ChargeWalletTopUp collects funds before the wallet is credited.
func (tc *TouchNGoClient) ChargeWalletTopUp(ctx context.Context, userID string, amount float64) (*ChargeResult, error) {
	return tc.Charge(ctx, amount, userID, "wallet_top_up")
}
