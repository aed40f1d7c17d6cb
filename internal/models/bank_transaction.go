package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BankTransaction is one imported statement line. Matched only ever flips false -> true.
type BankTransaction struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SchoolID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:ux_bank_tx_school_reference,priority:1" json:"school_id"`
	ImportBatchID   *uuid.UUID      `gorm:"type:uuid;index" json:"import_batch_id,omitempty"`
	Amount          decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount"`
	Narration       string          `gorm:"type:text;not null" json:"narration"`
	Reference       string          `gorm:"size:100;not null;index;uniqueIndex:ux_bank_tx_school_reference,priority:2" json:"reference"`
	TransactionDate time.Time       `gorm:"column:transaction_date;index;not null" json:"transaction_date"`
	Matched         bool            `gorm:"not null;default:false;index" json:"matched"`
	ConfidenceScore *float64        `json:"confidence_score,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
