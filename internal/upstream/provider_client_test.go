package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trust-scanner/internal/config"
	"github.com/trust-scanner/internal/errors"
)

func providerConfig(baseURL string) *config.ProviderConfig {
	return &config.ProviderConfig{
		BaseURL:           baseURL,
		SecretKey:         "test-secret",
		ChainID:           "30",
		RequestsPerSecond: 100,
		MaxAttempts:       1,
	}
}

func TestFetchWalletData_Success(t *testing.T) {
	var gotPath, gotSecret string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSecret = r.Header.Get("x-secret-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message": "{\"accountBalance\": \"1 RBTC\"}"}`))
	}))
	defer srv.Close()

	client := NewProviderClient(providerConfig(srv.URL), nil)
	payload, err := client.FetchWalletData(context.Background(), "0xabc")

	require.NoError(t, err)
	// Body passes through untouched; parsing is the normalizer's job
	assert.JSONEq(t, `{"message": "{\"accountBalance\": \"1 RBTC\"}"}`, string(payload))

	assert.Equal(t, "/chat", gotPath)
	assert.Equal(t, "test-secret", gotSecret)
	assert.Equal(t, false, gotBody["stream"])
	assert.Contains(t, gotBody["message"], "0xabc")

	filter, ok := gotBody["context_filter"].(map[string]interface{})
	require.True(t, ok, "context_filter missing from request body")
	assert.Equal(t, "0xabc", filter["wallet_address"])
	assert.Equal(t, []interface{}{"30"}, filter["chain_ids"])
}

func TestFetchWalletData_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewProviderClient(providerConfig(srv.URL), nil)
	_, err := client.FetchWalletData(context.Background(), "0xabc")

	require.Error(t, err)
	catErr := errors.Categorize(err)
	assert.Equal(t, errors.CategoryUpstreamData, catErr.Category)
	assert.Equal(t, "UPSTREAM_DATA_ERROR", catErr.Code)
	assert.Equal(t, http.StatusBadGateway, catErr.StatusCode)
	assert.Equal(t, http.StatusServiceUnavailable, catErr.Details["upstreamStatus"])
}

func TestFetchWalletData_MissingSecretKey(t *testing.T) {
	cfg := providerConfig("http://unused.invalid")
	cfg.SecretKey = ""

	client := NewProviderClient(cfg, nil)
	_, err := client.FetchWalletData(context.Background(), "0xabc")

	require.Error(t, err)
	catErr := errors.Categorize(err)
	assert.Equal(t, errors.CategoryUpstreamData, catErr.Category)
}

func TestFetchWalletData_ServerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	client := NewProviderClient(providerConfig(srv.URL), nil)
	_, err := client.FetchWalletData(context.Background(), "0xabc")

	require.Error(t, err)
	assert.True(t, errors.IsUpstream(err), "transport failure should carry an upstream category")
}
