package api

import (
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/trust-scanner/internal/logging"
	"github.com/trust-scanner/internal/types"
)

// analyzeResponse is the wire shape for a successful analysis
type analyzeResponse struct {
	Success bool                 `json:"success"`
	Source  types.ResultSource   `json:"source"`
	Address string               `json:"address"`
	Data    types.TrustAnalysis  `json:"data"`
	RawData *types.WalletProfile `json:"rawData,omitempty"`
}

// validAddress gates the address path parameter. Hex-format only; checksum
// casing is not validated, and the cache folds case anyway.
func validAddress(address string) bool {
	return common.IsHexAddress(address)
}

// handleAnalyze runs or recalls a trust analysis for an address.
// GET /api/v1/analyze/{address}
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if !validAddress(address) {
		respondError(w, http.StatusBadRequest, "INVALID_ADDRESS", "Invalid address parameter", map[string]interface{}{
			"address": address,
		})
		return
	}

	logger := logging.FromContext(r.Context())
	logger.WithField("address", address).Info("Processing analysis request")

	result, err := s.analysisService.Analyze(r.Context(), address)
	if err != nil {
		respondCategorizedError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, analyzeResponse{
		Success: true,
		Source:  result.Source,
		Address: result.Address,
		Data:    result.Analysis,
		RawData: result.Profile,
	})
}

// handleHistory lists past analyses for an address, newest first.
// GET /api/v1/history/{address}?limit=N
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !s.historyEnabled {
		respondError(w, http.StatusNotFound, "HISTORY_DISABLED", "Analysis history is not enabled", nil)
		return
	}

	address := mux.Vars(r)["address"]
	if !validAddress(address) {
		respondError(w, http.StatusBadRequest, "INVALID_ADDRESS", "Invalid address parameter", map[string]interface{}{
			"address": address,
		})
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			respondError(w, http.StatusBadRequest, "INVALID_PARAMETER", "limit must be an integer between 1 and 500", nil)
			return
		}
		limit = parsed
	}

	records, err := s.analysisService.History(r.Context(), address, limit)
	if err != nil {
		respondCategorizedError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"address": address,
		"records": records,
	})
}

// handleEvictAddress drops the cached analysis for one address.
// DELETE /api/v1/cache/{address}
func (s *Server) handleEvictAddress(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if !validAddress(address) {
		respondError(w, http.StatusBadRequest, "INVALID_ADDRESS", "Invalid address parameter", map[string]interface{}{
			"address": address,
		})
		return
	}

	if err := s.analysisService.InvalidateCache(r.Context(), address); err != nil {
		respondCategorizedError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"address": address,
	})
}

// handleEvictAll drops all cached analyses.
// DELETE /api/v1/cache
func (s *Server) handleEvictAll(w http.ResponseWriter, r *http.Request) {
	if err := s.analysisService.InvalidateAllCache(r.Context()); err != nil {
		respondCategorizedError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}
