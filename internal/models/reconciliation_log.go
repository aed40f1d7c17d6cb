package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ReconciliationLog is the write-once outcome of one matching attempt.
type ReconciliationLog struct {
	ID                   uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	SchoolID             uuid.UUID            `gorm:"type:uuid;not null;index" json:"school_id"`
	BatchID              *uuid.UUID           `gorm:"type:uuid;index" json:"batch_id,omitempty"`
	BankTransactionID    uuid.UUID            `gorm:"type:uuid;not null;index" json:"bank_transaction_id"`
	TransactionReference string               `gorm:"size:100;not null" json:"transaction_reference"`
	MatchedStudentID     *uuid.UUID           `gorm:"type:uuid;index" json:"matched_student_id,omitempty"`
	InvoiceID            *uuid.UUID           `gorm:"type:uuid" json:"invoice_id,omitempty"`
	PaymentID            *uuid.UUID           `gorm:"type:uuid" json:"payment_id,omitempty"`
	ConfidenceScore      float64              `gorm:"not null" json:"confidence_score"`
	Status               ReconciliationStatus `gorm:"size:20;not null;index" json:"status"`
	MatchDetails         datatypes.JSON       `json:"match_details,omitempty"`
	ProcessedAt          time.Time            `gorm:"not null" json:"processed_at"`
}
