package storage

import (
	"context"

	"github.com/trust-scanner/internal/errors"
	"github.com/trust-scanner/internal/models"
)

// HistoryRepository persists the analysis audit trail in Postgres. Writes are
// best-effort from the orchestrator's point of view: a failed insert is
// logged there, never surfaced to the caller.
type HistoryRepository struct {
	db *PostgresDB
}

// NewHistoryRepository creates an analysis history repository
func NewHistoryRepository(db *PostgresDB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Insert records one fresh analysis
func (r *HistoryRepository) Insert(ctx context.Context, record *models.AnalysisRecord) error {
	query := `
		INSERT INTO analysis_history (address, trust_score, classification, summary, payload_bytes, reply_bytes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.Pool().QueryRow(ctx, query,
		record.Address,
		record.TrustScore,
		record.Classification,
		record.Summary,
		record.PayloadBytes,
		record.ReplyBytes,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return errors.NewDatabaseError("insert analysis record", err)
	}
	return nil
}

// ListByAddress returns the most recent analyses for an address, newest first
func (r *HistoryRepository) ListByAddress(ctx context.Context, address string, limit int) ([]*models.AnalysisRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, address, trust_score, classification, summary, payload_bytes, reply_bytes, created_at
		FROM analysis_history
		WHERE address = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Pool().Query(ctx, query, CacheKey(address), limit)
	if err != nil {
		return nil, errors.NewDatabaseError("list analysis records", err)
	}
	defer rows.Close()

	records := make([]*models.AnalysisRecord, 0, limit)
	for rows.Next() {
		record := &models.AnalysisRecord{}
		if err := rows.Scan(
			&record.ID,
			&record.Address,
			&record.TrustScore,
			&record.Classification,
			&record.Summary,
			&record.PayloadBytes,
			&record.ReplyBytes,
			&record.CreatedAt,
		); err != nil {
			return nil, errors.NewDatabaseError("scan analysis record", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDatabaseError("iterate analysis records", err)
	}

	return records, nil
}
