// Package upstream contains the HTTP clients for the two external
// collaborators: the wallet-data provider and the scoring model. Both return
// the raw response body; interpreting it belongs to the normalizer and the
// validator respectively.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/trust-scanner/internal/circuitbreaker"
	"github.com/trust-scanner/internal/config"
	"github.com/trust-scanner/internal/errors"
	"github.com/trust-scanner/internal/logging"
	"github.com/trust-scanner/internal/retry"
)

// DataProvider fetches raw on-chain activity data for an address
type DataProvider interface {
	FetchWalletData(ctx context.Context, address string) ([]byte, error)
}

// ProviderClient talks to the Nebula-style wallet data API
type ProviderClient struct {
	baseURL   string
	secretKey string
	chainID   string
	client    *http.Client
	limiter   *tokenLimiter
	breaker   *circuitbreaker.CircuitBreaker
	retryCfg  *retry.Config
	logger    *logging.Logger
}

// NewProviderClient creates a wallet data provider client
func NewProviderClient(cfg *config.ProviderConfig, logger *logging.Logger) *ProviderClient {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	retryCfg := retry.SingleAttempt()
	if cfg.MaxAttempts > 1 {
		retryCfg = retry.DefaultConfig()
		retryCfg.MaxAttempts = cfg.MaxAttempts
	}

	return &ProviderClient{
		baseURL:   cfg.BaseURL,
		secretKey: cfg.SecretKey,
		chainID:   cfg.ChainID,
		client:    &http.Client{Timeout: 120 * time.Second},
		limiter:   newTokenLimiter(cfg.RequestsPerSecond),
		breaker:   circuitbreaker.New(circuitbreaker.DefaultConfig("data_provider"), logger),
		retryCfg:  retryCfg,
		logger:    logger,
	}
}

// walletDataRequest is the provider's chat-style request shape
type walletDataRequest struct {
	Message        string         `json:"message"`
	Stream         bool           `json:"stream"`
	ResponseFormat responseFormat `json:"response_format"`
	ContextFilter  contextFilter  `json:"context_filter"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type contextFilter struct {
	ChainIDs      []string `json:"chain_ids"`
	WalletAddress string   `json:"wallet_address"`
}

// walletDataInstruction asks the provider for the activity categories the
// normalizer maps into a WalletProfile.
func walletDataInstruction(address string) string {
	return fmt.Sprintf(`Provide comprehensive data about the wallet %s in a structured way. I need DETAILED information about:
1. Transaction history (last 50 transactions with dates, amounts, and counterparty addresses)
2. Smart contract interactions (which contracts, interaction types, how many times, and any known flagged contracts)
3. Token holdings (types, amounts, token classification like stablecoin/governance/NFT)
4. Age of address (first transaction date as well as age in days)
5. Unique addresses interacted with (exact count)
6. Current account balance

Format the response as structured data that can be parsed as JSON.`, address)
}

// FetchWalletData requests the raw wallet payload for an address. Transport
// failures, non-2xx statuses and a missing credential all surface as
// UPSTREAM_DATA_ERROR.
func (c *ProviderClient) FetchWalletData(ctx context.Context, address string) ([]byte, error) {
	if c.secretKey == "" {
		return nil, errors.NewUpstreamDataError("provider secret key is not configured", 0, nil)
	}

	body, err := json.Marshal(walletDataRequest{
		Message:        walletDataInstruction(address),
		Stream:         false,
		ResponseFormat: responseFormat{Type: "json_object"},
		ContextFilter: contextFilter{
			ChainIDs:      []string{c.chainID},
			WalletAddress: address,
		},
	})
	if err != nil {
		return nil, errors.NewUpstreamDataError("failed to encode provider request", 0, err)
	}

	var payload []byte
	err = retry.Do(ctx, c.retryCfg, func(ctx context.Context, attempt int) error {
		return c.breaker.Execute(ctx, func() error {
			var callErr error
			payload, callErr = c.post(ctx, body)
			return callErr
		})
	})
	if err != nil {
		return nil, asUpstreamDataError(err)
	}

	c.logger.WithFields(map[string]interface{}{
		"address": address,
		"bytes":   len(payload),
	}).Debug("Fetched wallet payload")

	return payload, nil
}

func (c *ProviderClient) post(ctx context.Context, body []byte) ([]byte, error) {
	if err := c.limiter.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-secret-key", c.secretKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WithFields(map[string]interface{}{
			"status": resp.StatusCode,
			"body":   truncate(string(payload), 500),
		}).Error("Data provider returned an error response")
		return nil, errors.NewUpstreamDataError(
			fmt.Sprintf("data provider error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
			resp.StatusCode, nil)
	}

	return payload, nil
}

// asUpstreamDataError makes sure transport and breaker errors carry the
// data-provider category
func asUpstreamDataError(err error) error {
	if catErr := errors.Categorize(err); catErr.Category == errors.CategoryUpstreamData {
		return catErr
	}
	return errors.NewUpstreamDataError(err.Error(), 0, err)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
