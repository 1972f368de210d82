package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

// HistoryLimit maps a requested page size onto [1, MaxHistoryLimit]; zero or
// negative means DefaultHistoryLimit.
func HistoryLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	return min(limit, MaxHistoryLimit)
}

// DetectionRecord is the audit entry written for every scored upload.
type DetectionRecord struct {
	ID               string    `json:"id" bson:"_id"`
	CropType         string    `json:"crop_type" bson:"crop_type"`
	DetectedDiseases []string  `json:"detected_diseases" bson:"detected_diseases"`
	ConfidenceScores []float64 `json:"confidence_scores" bson:"confidence_scores"`
	ImageHash        string    `json:"image_hash" bson:"image_hash"`
	Timestamp        time.Time `json:"timestamp" bson:"timestamp"`
}

func NewDetectionRecord(cropType string, diseases []string, scores []float64, imageHash string) *DetectionRecord {
	return &DetectionRecord{
		ID:               uuid.New().String(),
		CropType:         cropType,
		DetectedDiseases: diseases,
		ConfidenceScores: scores,
		ImageHash:        imageHash,
		Timestamp:        time.Now().UTC(),
	}
}
