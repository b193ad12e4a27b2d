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

// ScoringModel invokes the external language-model service with a prepared
// scoring prompt and returns the raw reply envelope.
type ScoringModel interface {
	Score(ctx context.Context, prompt string) ([]byte, error)
}

// ModelClient talks to an OpenAI-compatible chat completion API
type ModelClient struct {
	baseURL   string
	apiKey    string
	model     string
	referer   string
	maxTokens int
	client    *http.Client
	limiter   *tokenLimiter
	breaker   *circuitbreaker.CircuitBreaker
	retryCfg  *retry.Config
	logger    *logging.Logger
}

// NewModelClient creates a scoring model client
func NewModelClient(cfg *config.ModelConfig, logger *logging.Logger) *ModelClient {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	retryCfg := retry.SingleAttempt()
	if cfg.MaxAttempts > 1 {
		retryCfg = retry.DefaultConfig()
		retryCfg.MaxAttempts = cfg.MaxAttempts
	}

	return &ModelClient{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		referer:   cfg.Referer,
		maxTokens: cfg.MaxTokens,
		client:    &http.Client{Timeout: 120 * time.Second},
		limiter:   newTokenLimiter(cfg.RequestsPerSecond),
		breaker:   circuitbreaker.New(circuitbreaker.DefaultConfig("scoring_model"), logger),
		retryCfg:  retryCfg,
		logger:    logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens"`
}

// Score sends the scoring prompt and returns the raw reply envelope. The
// temperature is pinned low; rubric adherence is what makes scores
// reproducible, and sampling noise works against it.
func (c *ModelClient) Score(ctx context.Context, prompt string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, errors.NewUpstreamModelError("model API key is not configured", 0, nil)
	}

	body, err := json.Marshal(chatRequest{
		Model:          c.model,
		Messages:       []chatMessage{{Role: "user", Content: prompt}},
		ResponseFormat: responseFormat{Type: "json_object"},
		Temperature:    0.2,
		MaxTokens:      c.maxTokens,
	})
	if err != nil {
		return nil, errors.NewUpstreamModelError("failed to encode model request", 0, err)
	}

	var reply []byte
	err = retry.Do(ctx, c.retryCfg, func(ctx context.Context, attempt int) error {
		return c.breaker.Execute(ctx, func() error {
			var callErr error
			reply, callErr = c.post(ctx, body)
			return callErr
		})
	})
	if err != nil {
		return nil, asUpstreamModelError(err)
	}

	c.logger.WithField("bytes", len(reply)).Debug("Received model reply")
	return reply, nil
}

func (c *ModelClient) post(ctx context.Context, body []byte) ([]byte, error) {
	if err := c.limiter.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("HTTP-Referer", c.referer)
	req.Header.Set("X-Title", "TrustScan")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	reply, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WithFields(map[string]interface{}{
			"status": resp.StatusCode,
			"body":   truncate(string(reply), 500),
		}).Error("Scoring model returned an error response")
		return nil, errors.NewUpstreamModelError(
			fmt.Sprintf("scoring model error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
			resp.StatusCode, nil)
	}

	return reply, nil
}

func asUpstreamModelError(err error) error {
	if catErr := errors.Categorize(err); catErr.Category == errors.CategoryUpstreamModel {
		return catErr
	}
	return errors.NewUpstreamModelError(err.Error(), 0, err)
}
