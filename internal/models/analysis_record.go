// Package models provides persistence models for the trust scanner.
package models

import (
	"time"

	"github.com/trust-scanner/internal/types"
)

// AnalysisRecord is one row in the analysis history: a fresh analysis of an
// address at a point in time. Cache hits are not recorded.
type AnalysisRecord struct {
	ID             int64     `json:"id"`
	Address        string    `json:"address"` // case-folded
	TrustScore     float64   `json:"trustScore"`
	Classification string    `json:"classification"`
	Summary        string    `json:"summary"`
	PayloadBytes   int       `json:"payloadBytes"` // size of the raw provider payload
	ReplyBytes     int       `json:"replyBytes"`   // size of the raw model reply
	CreatedAt      time.Time `json:"createdAt"`
}

// NewAnalysisRecord builds a history record from a validated analysis
func NewAnalysisRecord(address string, analysis types.TrustAnalysis, payloadBytes, replyBytes int) *AnalysisRecord {
	return &AnalysisRecord{
		Address:        address,
		TrustScore:     analysis.TrustScore,
		Classification: analysis.Classification,
		Summary:        analysis.Summary,
		PayloadBytes:   payloadBytes,
		ReplyBytes:     replyBytes,
	}
}
