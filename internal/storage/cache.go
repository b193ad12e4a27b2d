// Package storage provides the analysis cache stores and the optional
// analysis history repository.
package storage

import (
	"context"
	"strings"

	"github.com/trust-scanner/internal/types"
)

// AnalysisCache memoizes trust analyses per address. Keys are case-folded;
// entries expire after the store's TTL, checked lazily on lookup. Writers for
// the same key race last-writer-wins; stores only guarantee atomic get/put
// per key.
type AnalysisCache interface {
	// Get returns the cached analysis for an address, if present and unexpired
	Get(ctx context.Context, address string) (types.TrustAnalysis, bool, error)
	// Put stores an analysis for an address, superseding any previous entry
	Put(ctx context.Context, address string, analysis types.TrustAnalysis) error
	// Evict removes the entry for an address
	Evict(ctx context.Context, address string) error
	// EvictAll removes all entries
	EvictAll(ctx context.Context) error
}

// CacheKey normalizes an address into its cache key. Case folding only:
// checksum-cased and lower-cased forms of one account share an entry, but no
// checksum validation is performed.
func CacheKey(address string) string {
	return strings.ToLower(address)
}

// copyAnalysis returns a deep copy so cache callers can't mutate the owned
// entry. Empty slices stay empty rather than becoming nil; analyses carry
// non-nil slices by contract.
func copyAnalysis(a types.TrustAnalysis) types.TrustAnalysis {
	out := a
	out.Factors = append(make([]types.Factor, 0, len(a.Factors)), a.Factors...)
	out.Recommendations = append(make([]string, 0, len(a.Recommendations)), a.Recommendations...)
	out.RiskAreas = append(make([]string, 0, len(a.RiskAreas)), a.RiskAreas...)
	return out
}
