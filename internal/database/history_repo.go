package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kdimtricp/leafscan/internal/models"
)

// HistoryRepository stores one row per scored detection. Rows are only ever
// inserted, so concurrent requests never contend on existing data.
type HistoryRepository struct {
	db *DB
}

func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Append(ctx context.Context, rec *models.DetectionRecord) error {
	diseases, err := json.Marshal(nonNilStrings(rec.DetectedDiseases))
	if err != nil {
		return fmt.Errorf("failed to marshal detected diseases: %w", err)
	}
	scores, err := json.Marshal(nonNilFloats(rec.ConfidenceScores))
	if err != nil {
		return fmt.Errorf("failed to marshal confidence scores: %w", err)
	}

	query := r.db.rebind(`
		INSERT INTO detection_history (id, crop_type, detected_diseases, confidence_scores, image_hash, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`)

	_, err = r.db.conn.ExecContext(ctx, query,
		rec.ID,
		rec.CropType,
		string(diseases),
		string(scores),
		rec.ImageHash,
		rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert detection history: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first. The limit is clamped
// with models.HistoryLimit.
func (r *HistoryRepository) Recent(ctx context.Context, limit int) ([]models.DetectionRecord, error) {
	limit = models.HistoryLimit(limit)

	query := r.db.rebind(`
		SELECT id, crop_type, detected_diseases, confidence_scores, image_hash, timestamp
		FROM detection_history
		ORDER BY timestamp DESC
		LIMIT ?`)

	rows, err := r.db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query detection history: %w", err)
	}
	defer rows.Close()

	records := []models.DetectionRecord{}
	for rows.Next() {
		var rec models.DetectionRecord
		var diseases, scores []byte

		if err := rows.Scan(&rec.ID, &rec.CropType, &diseases, &scores, &rec.ImageHash, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan detection history: %w", err)
		}
		if err := json.Unmarshal(diseases, &rec.DetectedDiseases); err != nil {
			return nil, fmt.Errorf("failed to unmarshal detected diseases: %w", err)
		}
		if err := json.Unmarshal(scores, &rec.ConfidenceScores); err != nil {
			return nil, fmt.Errorf("failed to unmarshal confidence scores: %w", err)
		}
		rec.Timestamp = rec.Timestamp.UTC()

		records = append(records, rec)
	}

	return records, rows.Err()
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilFloats(f []float64) []float64 {
	if f == nil {
		return []float64{}
	}
	return f
}
