package repository

import (
	"context"
	"time"

	"school-finance-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

func (s *GormStore) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	return writeError(s.conn(ctx).Create(invoice).Error, "invoice")
}

func (s *GormStore) GetInvoice(ctx context.Context, schoolID, invoiceID uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := s.conn(ctx).First(&invoice, "id = ? AND school_id = ?", invoiceID, schoolID).Error; err != nil {
		return nil, readError(err, "invoice", invoiceID)
	}
	return &invoice, nil
}

func (s *GormStore) LockInvoice(ctx context.Context, schoolID, invoiceID uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := s.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&invoice, "id = ? AND school_id = ?", invoiceID, schoolID).Error
	if err != nil {
		return nil, readError(err, "invoice", invoiceID)
	}
	return &invoice, nil
}

func (s *GormStore) FindInvoice(ctx context.Context, schoolID, studentID, termID uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := s.conn(ctx).
		Where("school_id = ? AND student_id = ? AND term_id = ?", schoolID, studentID, termID).
		First(&invoice).Error
	if err != nil {
		return nil, readError(err, "invoice", studentID)
	}
	return &invoice, nil
}

// FindOpenInvoiceByBalance is the amount correlation used to boost a name match. The row is locked
// FOR UPDATE; a row settled by a concurrent payment is re-checked against the filter once the lock
// is granted, so it is no longer returned.
func (s *GormStore) FindOpenInvoiceByBalance(ctx context.Context, schoolID, studentID uuid.UUID, amount decimal.Decimal) (*models.Invoice, error) {
	var invoice models.Invoice
	err := s.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("school_id = ? AND student_id = ?", schoolID, studentID).
		Where("balance = ?", amount).
		Where("status IN ?", models.OpenInvoiceStatuses).
		Order("created_at ASC").
		First(&invoice).Error
	if err != nil {
		return nil, readError(err, "invoice", studentID)
	}
	return &invoice, nil
}

func (s *GormStore) SaveInvoiceBalance(ctx context.Context, invoice *models.Invoice) error {
	invoice.UpdatedAt = time.Now()
	err := s.conn(ctx).Model(&models.Invoice{}).
		Where("id = ? AND school_id = ?", invoice.ID, invoice.SchoolID).
		Updates(map[string]interface{}{
			"amount_paid": invoice.AmountPaid,
			"balance":     invoice.Balance,
			"status":      invoice.Status,
			"updated_at":  invoice.UpdatedAt,
		}).Error
	return writeError(err, "invoice")
}

// ListInvoices used for listing with optional filters
func (s *GormStore) ListInvoices(ctx context.Context, schoolID uuid.UUID, filter InvoiceFilter) ([]models.Invoice, error) {
	var invoices []models.Invoice

	query := s.conn(ctx).Model(&models.Invoice{}).Where("school_id = ?", schoolID)
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.TermID != nil {
		query = query.Where("term_id = ?", *filter.TermID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	err := query.Order("created_at DESC").Find(&invoices).Error
	return invoices, readError(err, "invoice", nil)
}
