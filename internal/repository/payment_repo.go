package repository

import (
	"context"

	"school-finance-backend/internal/apperrors"
	"school-finance-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (s *GormStore) CreatePayment(ctx context.Context, payment *models.Payment) error {
	err := s.conn(ctx).Create(payment).Error
	if isUniqueViolation(err) {
		return apperrors.Wrap(err, apperrors.KindConflict, apperrors.CodeDuplicateReference,
			"payment reference already exists").WithContext("reference", payment.Reference)
	}
	return writeError(err, "payment")
}

func (s *GormStore) SumMatchedPayments(ctx context.Context, schoolID, invoiceID uuid.UUID) (decimal.Decimal, error) {
	total, err := sum(s.conn(ctx).Model(&models.Payment{}).
		Where("school_id = ? AND invoice_id = ? AND matched = ?", schoolID, invoiceID, true), "amount")
	if err != nil {
		return decimal.Zero, apperrors.Internal("sum payments", err)
	}
	return total, nil
}

func (s *GormStore) ListPayments(ctx context.Context, schoolID uuid.UUID, filter PaymentFilter) ([]models.Payment, error) {
	var payments []models.Payment

	query := s.conn(ctx).Where("school_id = ?", schoolID)
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.InvoiceID != nil {
		query = query.Where("invoice_id = ?", *filter.InvoiceID)
	}
	if filter.Method != "" {
		query = query.Where("payment_method = ?", filter.Method)
	}

	err := query.Order("transaction_date DESC").Find(&payments).Error
	return payments, readError(err, "payment", nil)
}

// AppendLedgerEntry only ever inserts; ledger rows are never updated or deleted.
func (s *GormStore) AppendLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error {
	return writeError(s.conn(ctx).Create(entry).Error, "ledger entry")
}

func (s *GormStore) ListLedgerEntries(ctx context.Context, schoolID uuid.UUID, filter LedgerFilter) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry

	query := s.conn(ctx).Where("school_id = ?", schoolID)
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.InvoiceID != nil {
		query = query.Where("invoice_id = ?", *filter.InvoiceID)
	}
	if filter.EntryType != "" {
		query = query.Where("entry_type = ?", filter.EntryType)
	}

	err := query.Order("created_at ASC").Find(&entries).Error
	return entries, readError(err, "ledger entry", nil)
}
