// Package service contains the analysis orchestrator.
package service

import (
	"context"

	"github.com/trust-scanner/internal/errors"
	"github.com/trust-scanner/internal/logging"
	"github.com/trust-scanner/internal/models"
	"github.com/trust-scanner/internal/normalizer"
	"github.com/trust-scanner/internal/prompt"
	"github.com/trust-scanner/internal/storage"
	"github.com/trust-scanner/internal/types"
	"github.com/trust-scanner/internal/upstream"
	"github.com/trust-scanner/internal/validator"
)

// HistoryWriter records fresh analyses for audit. Optional; may be nil.
type HistoryWriter interface {
	Insert(ctx context.Context, record *models.AnalysisRecord) error
	ListByAddress(ctx context.Context, address string, limit int) ([]*models.AnalysisRecord, error)
}

// AnalysisResult is the orchestrator's successful outcome
type AnalysisResult struct {
	Source   types.ResultSource  `json:"source"`
	Address  string              `json:"address"`
	Analysis types.TrustAnalysis `json:"analysis"`
	// Profile carries the normalized upstream data for fresh analyses;
	// cache hits don't have it.
	Profile *types.WalletProfile `json:"profile,omitempty"`
}

// AnalysisService sequences one analysis request: cache lookup, fetch,
// normalize, prompt, score, validate, cache store. Concurrent requests for
// the same address run independently; the last writer wins the cache slot.
type AnalysisService struct {
	provider   upstream.DataProvider
	model      upstream.ScoringModel
	normalizer *normalizer.Normalizer
	validator  *validator.Validator
	cache      storage.AnalysisCache
	history    HistoryWriter
	logger     *logging.Logger
}

// NewAnalysisService creates the orchestrator. history may be nil.
func NewAnalysisService(
	provider upstream.DataProvider,
	model upstream.ScoringModel,
	norm *normalizer.Normalizer,
	valid *validator.Validator,
	cache storage.AnalysisCache,
	history HistoryWriter,
	logger *logging.Logger,
) *AnalysisService {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &AnalysisService{
		provider:   provider,
		model:      model,
		normalizer: norm,
		validator:  valid,
		cache:      cache,
		history:    history,
		logger:     logger,
	}
}

// Analyze runs the full pipeline for an address. The only failure modes are
// the two upstream collaborators; everything downstream of a model reply is
// total, so a structurally broken reply still comes back as a successful,
// error-shaped analysis tagged "fresh".
func (s *AnalysisService) Analyze(ctx context.Context, address string) (*AnalysisResult, error) {
	logger := s.logger.WithField("address", address)

	cached, hit, err := s.cache.Get(ctx, address)
	if err != nil {
		// A broken cache degrades to a miss, not a failed analysis
		logger.WithError(err).Warn("Cache lookup failed, proceeding without it")
	}
	if hit {
		logger.Debug("Serving analysis from cache")
		return &AnalysisResult{
			Source:   types.SourceCache,
			Address:  address,
			Analysis: cached,
		}, nil
	}

	logger.Info("Fetching wallet data")
	payload, err := s.provider.FetchWalletData(ctx, address)
	if err != nil {
		logger.WithError(err).Error("Wallet data fetch failed")
		return nil, err
	}

	profile := s.normalizer.Normalize(payload, address)
	logger.WithFields(map[string]interface{}{
		"transactions": len(profile.TransactionHistory),
		"interactions": len(profile.ContractInteractions),
		"holdings":     len(profile.TokenHoldings),
		"age":          profile.AddressAge,
	}).Debug("Normalized wallet profile")

	scoringPrompt := prompt.Build(profile, address)

	logger.Info("Scoring wallet data")
	reply, err := s.model.Score(ctx, scoringPrompt)
	if err != nil {
		logger.WithError(err).Error("Model scoring failed")
		return nil, err
	}

	analysis := s.validator.Validate(reply)

	// Stored unconditionally: even a validator-repaired error result
	// supersedes stale data for this address.
	if err := s.cache.Put(ctx, address, analysis); err != nil {
		logger.WithError(err).Warn("Failed to cache analysis")
	}

	s.recordHistory(ctx, address, analysis, len(payload), len(reply))

	logger.WithFields(map[string]interface{}{
		"trustScore":     analysis.TrustScore,
		"classification": analysis.Classification,
	}).Info("Analysis complete")

	return &AnalysisResult{
		Source:   types.SourceFresh,
		Address:  address,
		Analysis: analysis,
		Profile:  &profile,
	}, nil
}

// recordHistory writes the audit row best-effort
func (s *AnalysisService) recordHistory(ctx context.Context, address string, analysis types.TrustAnalysis, payloadBytes, replyBytes int) {
	if s.history == nil {
		return
	}
	record := models.NewAnalysisRecord(storage.CacheKey(address), analysis, payloadBytes, replyBytes)
	if err := s.history.Insert(ctx, record); err != nil {
		s.logger.WithError(err).Warn("Failed to record analysis history")
	}
}

// History returns past analyses for an address, newest first
func (s *AnalysisService) History(ctx context.Context, address string, limit int) ([]*models.AnalysisRecord, error) {
	if s.history == nil {
		return nil, errors.NewInternalError("analysis history is not enabled", nil)
	}
	return s.history.ListByAddress(ctx, address, limit)
}

// InvalidateCache drops the cached analysis for one address
func (s *AnalysisService) InvalidateCache(ctx context.Context, address string) error {
	return s.cache.Evict(ctx, address)
}

// InvalidateAllCache drops all cached analyses
func (s *AnalysisService) InvalidateAllCache(ctx context.Context) error {
	return s.cache.EvictAll(ctx)
}
