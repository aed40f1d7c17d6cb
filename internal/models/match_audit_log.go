package models

import (
	"time"

	"github.com/google/uuid"
)

const AuditActionApprove = "approve"

// MatchAuditLog records a human decision taken on a bank transaction.
type MatchAuditLog struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SchoolID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"school_id"`
	TransactionID uuid.UUID  `gorm:"type:uuid;not null;index" json:"transaction_id"`
	Action        string     `gorm:"size:20;not null" json:"action"`
	StudentID     *uuid.UUID `gorm:"type:uuid" json:"student_id,omitempty"`
	InvoiceID     *uuid.UUID `gorm:"type:uuid" json:"invoice_id,omitempty"`
	PaymentID     *uuid.UUID `gorm:"type:uuid" json:"payment_id,omitempty"`
	PerformedBy   string     `gorm:"size:100" json:"performed_by"`
	CreatedAt     time.Time  `json:"created_at"`
}
