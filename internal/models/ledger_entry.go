package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryDebit  EntryType = "debit"
	EntryCredit EntryType = "credit"
)

// LedgerEntry is append-only: a debit per issued invoice, a credit per matched payment.
type LedgerEntry struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SchoolID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"school_id"`
	StudentID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"student_id"`
	InvoiceID   *uuid.UUID      `gorm:"type:uuid;index" json:"invoice_id,omitempty"`
	PaymentID   *uuid.UUID      `gorm:"type:uuid;index" json:"payment_id,omitempty"`
	EntryType   EntryType       `gorm:"size:10;not null;index" json:"entry_type"`
	Amount      decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount"`
	Description string          `gorm:"type:text" json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}
