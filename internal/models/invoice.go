package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceUnpaid  InvoiceStatus = "unpaid"
	InvoicePartial InvoiceStatus = "partial"
	InvoicePaid    InvoiceStatus = "paid"
)

// OpenInvoiceStatuses are the statuses a payment can still be applied to.
var OpenInvoiceStatuses = []InvoiceStatus{InvoiceUnpaid, InvoicePartial}

type Invoice struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SchoolID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:ux_invoice_school_student_term,priority:1" json:"school_id"`
	StudentID   uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:ux_invoice_school_student_term,priority:2" json:"student_id"`
	TermID      uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:ux_invoice_school_student_term,priority:3" json:"term_id"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"total_amount"`
	AmountPaid  decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"amount_paid"`
	Balance     decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0;index" json:"balance"`
	Status      InvoiceStatus   `gorm:"size:10;not null;default:unpaid;index" json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ResolveInvoiceStatus derives the status from what has been paid against the total.
// Overpayment leaves a negative balance and still resolves to paid.
func ResolveInvoiceStatus(amountPaid, total decimal.Decimal) InvoiceStatus {
	switch {
	case total.Sub(amountPaid).LessThanOrEqual(decimal.Zero):
		return InvoicePaid
	case amountPaid.GreaterThan(decimal.Zero):
		return InvoicePartial
	default:
		return InvoiceUnpaid
	}
}

// ApplyAmountPaid sets amount paid, balance and status together and reports whether any changed.
func (inv *Invoice) ApplyAmountPaid(amountPaid decimal.Decimal) bool {
	balance := inv.TotalAmount.Sub(amountPaid)
	status := ResolveInvoiceStatus(amountPaid, inv.TotalAmount)

	changed := !inv.AmountPaid.Equal(amountPaid) || !inv.Balance.Equal(balance) || inv.Status != status
	inv.AmountPaid = amountPaid
	inv.Balance = balance
	inv.Status = status
	return changed
}

// IsOpen reports whether payments can still be applied.
func (inv *Invoice) IsOpen() bool {
	return inv.Status == InvoiceUnpaid || inv.Status == InvoicePartial
}
