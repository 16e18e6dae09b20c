package external

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockCharge(t *testing.T) {
	client := NewTouchNGoClient(TouchNGoConfig{}, zerolog.Nop())
	require.True(t, client.Mock())

	result, err := client.ChargeGuest(context.Background(), "GST-1", 6.25)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "CONFIRMED", result.Status)
	assert.True(t, strings.HasPrefix(result.Reference, "TNG-"))
	assert.Len(t, result.Reference, 14)
}

func TestChargeRejectsNonPositiveAmount(t *testing.T) {
	client := NewTouchNGoClient(TouchNGoConfig{}, zerolog.Nop())

	for _, amount := range []float64{0, -5} {
		_, err := client.Charge(context.Background(), amount, "GST-1", "guest_session")
		require.Error(t, err, amount)
	}
}

func TestChargeAgainstGateway(t *testing.T) {
	var captured ChargeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/charge", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(ChargeResult{Success: true, Reference: "TNG-GATEWAY1", Status: "CONFIRMED"})
	}))
	defer server.Close()

	client := NewTouchNGoClient(TouchNGoConfig{
		BaseURL:    server.URL,
		MerchantID: "M-1",
		APIKey:     "test-key",
	}, zerolog.Nop())
	require.False(t, client.Mock())

	result, err := client.ChargeWalletTopUp(context.Background(), "USR-1", 20)
	require.NoError(t, err)

	assert.Equal(t, "TNG-GATEWAY1", result.Reference)
	assert.Equal(t, "M-1", captured.MerchantID)
	assert.Equal(t, "MYR", captured.Currency)
	assert.Equal(t, "wallet_top_up", captured.Purpose)
	assert.Equal(t, 20.0, captured.Amount)
}

func TestChargeDeclined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ChargeResult{Success: false, Status: "DECLINED"})
	}))
	defer server.Close()

	client := NewTouchNGoClient(TouchNGoConfig{BaseURL: server.URL}, zerolog.Nop())

	_, err := client.ChargePass(context.Background(), "PASS-1", 30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DECLINED")
}
