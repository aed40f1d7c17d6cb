package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCash         PaymentMethod = "cash"
	MethodCard         PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodBankTransfer, MethodCash, MethodCard:
		return true
	}
	return false
}

// Payment is money received. Matched payments count towards their invoice and carry a ledger credit.
type Payment struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SchoolID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"school_id"`
	StudentID       *uuid.UUID      `gorm:"type:uuid;index" json:"student_id,omitempty"`
	InvoiceID       *uuid.UUID      `gorm:"type:uuid;index" json:"invoice_id,omitempty"`
	Amount          decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"amount"`
	Method          PaymentMethod   `gorm:"column:payment_method;size:20;not null" json:"payment_method"`
	Reference       string          `gorm:"size:100;not null;uniqueIndex" json:"reference"`
	Narration       string          `gorm:"type:text" json:"narration"`
	TransactionDate time.Time       `gorm:"not null" json:"transaction_date"`
	Matched         bool            `gorm:"not null;default:false;index" json:"matched"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
