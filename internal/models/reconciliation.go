package models

import (
	"time"

	"github.com/google/uuid"
)

type BatchKind string

const (
	BatchImport   BatchKind = "import"
	BatchMatching BatchKind = "matching"
)

const (
	BatchProcessing = "processing"
	BatchCompleted  = "completed"
	BatchFailed     = "failed"
)

// ReconciliationBatch tracks one import or matching run for a school.
type ReconciliationBatch struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SchoolID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"school_id"`
	Kind              BatchKind  `gorm:"size:20;not null" json:"kind"`
	Filename          string     `json:"filename,omitempty"`
	TotalTransactions int        `json:"total_transactions"`
	ProcessedCount    int        `json:"processed_count"`
	AutoMatchedCount  int        `json:"auto_matched_count"`
	ManualReviewCount int        `json:"manual_review_count"`
	UnmatchedCount    int        `json:"unmatched_count"`
	FailedCount       int        `json:"failed_count"`
	Status            string     `gorm:"size:20;not null" json:"status"`
	StartedAt         time.Time  `json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

type ReconciliationStatus string

const (
	StatusAutoMatched  ReconciliationStatus = "auto_matched"
	StatusManualReview ReconciliationStatus = "manual_review"
	StatusUnmatched    ReconciliationStatus = "unmatched"
)
