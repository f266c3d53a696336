package chain_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Males-For-Females-llc/dapps/internal/delegate/chain"
)

func newTestGateway(t *testing.T, handler http.Handler) *chain.Gateway {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gateway, err := chain.NewGateway(chain.GatewayConfig{
		Endpoint:  server.URL,
		JWTSecret: "test-secret",
		JWTIssuer: "dapps-test",
	})
	require.NoError(t, err)

	return gateway
}

func TestSubmitAuthorization(t *testing.T) {
	var gotAuth string

	gateway := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/delegation/authorizations", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "session", body["mode"])
		assert.EqualValues(t, 3600, body["duration_seconds"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"tx_hash":      "0xabc",
			"block_number": 12,
			"timestamp_ms": time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).UnixMilli(),
		})
	}))

	receipt, err := gateway.SubmitAuthorization(context.Background(), &chain.AuthorizationRequest{
		Mode:             chain.ModeSession,
		Owner:            "0xowner",
		Program:          "0xprogram",
		DelegatedAddress: "0xdelegated",
		AllowedActions:   []string{"increment"},
		Duration:         time.Hour,
	})
	require.NoError(t, err)
	assert.Equal(t, "0xabc", receipt.TxHash)
	assert.EqualValues(t, 12, receipt.BlockNumber)

	// 配置了密钥时每个请求都带 Bearer Token
	assert.True(t, strings.HasPrefix(gotAuth, "Bearer "))
}

func TestQueryAuthorizationNotFound(t *testing.T) {
	gateway := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	record, err := gateway.QueryAuthorization(context.Background(), "0xowner", "0xprogram")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestQueryVoucherBalance(t *testing.T) {
	gateway := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0xowner", r.URL.Query().Get("owner"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":                "v-1",
			"owner":             "0xowner",
			"program":           "0xprogram",
			"delegated_address": "0xdelegated",
			"remaining_balance": 18_000_000_000_000,
			"expires_at_ms":     time.Now().Add(time.Hour).UnixMilli(),
		})
	}))

	voucher, err := gateway.QueryVoucherBalance(context.Background(), "0xowner", "0xprogram")
	require.NoError(t, err)
	require.NotNil(t, voucher)
	assert.Equal(t, "0xdelegated", voucher.DelegatedAddress)
	assert.EqualValues(t, 18_000_000_000_000, voucher.RemainingBalance)
}

func TestStructuredErrorMapping(t *testing.T) {
	gateway := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code":    "insufficient_voucher",
			"message": "voucher drained",
		})
	}))

	_, err := gateway.SubmitTransaction(context.Background(), &chain.SignedTransaction{
		Program: "0xprogram",
		Action:  "increment",
	})
	require.Error(t, err)
	assert.True(t, chain.IsCode(err, chain.CodeInsufficientVoucher))
}

func TestUnreachableGatewayMapsToUnavailable(t *testing.T) {
	gateway, err := chain.NewGateway(chain.GatewayConfig{
		Endpoint: "http://127.0.0.1:1",
		Timeout:  100 * time.Millisecond,
	})
	require.NoError(t, err)

	_, err = gateway.ChainTime(context.Background())
	require.Error(t, err)
	assert.True(t, chain.IsCode(err, chain.CodeUnavailable))
}

func TestChainTime(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	gateway := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chain/time", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]int64{"timestamp_ms": now.UnixMilli()})
	}))

	got, err := gateway.ChainTime(context.Background())
	require.NoError(t, err)
	assert.True(t, got.Equal(now))
}
