package memory

import (
	"context"
	"sort"
	"time"

	"school-finance-backend/internal/apperrors"
	"school-finance-backend/internal/models"
	"school-finance-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (s *Store) CreateInvoice(ctx context.Context, invoice *models.Invoice) error {
	defer s.guard()()
	for _, existing := range s.db.st.invoices {
		if existing.SchoolID == invoice.SchoolID && existing.StudentID == invoice.StudentID && existing.TermID == invoice.TermID {
			return apperrors.Conflict("invoice", "invoice already exists for student and term", nil)
		}
	}
	newID(&invoice.ID)
	stamp(&invoice.CreatedAt)
	stamp(&invoice.UpdatedAt)
	s.db.st.invoices = append(s.db.st.invoices, *invoice)
	return nil
}

func (s *Store) invoiceIndex(schoolID, invoiceID uuid.UUID) int {
	for i, invoice := range s.db.st.invoices {
		if invoice.ID == invoiceID && invoice.SchoolID == schoolID {
			return i
		}
	}
	return -1
}

func (s *Store) GetInvoice(ctx context.Context, schoolID, invoiceID uuid.UUID) (*models.Invoice, error) {
	defer s.guard()()
	i := s.invoiceIndex(schoolID, invoiceID)
	if i < 0 {
		return nil, apperrors.NotFound("invoice", invoiceID)
	}
	invoice := s.db.st.invoices[i]
	return &invoice, nil
}

// LockInvoice is GetInvoice: the database mutex already serializes transactions.
func (s *Store) LockInvoice(ctx context.Context, schoolID, invoiceID uuid.UUID) (*models.Invoice, error) {
	return s.GetInvoice(ctx, schoolID, invoiceID)
}

func (s *Store) FindInvoice(ctx context.Context, schoolID, studentID, termID uuid.UUID) (*models.Invoice, error) {
	defer s.guard()()
	for _, invoice := range s.db.st.invoices {
		if invoice.SchoolID == schoolID && invoice.StudentID == studentID && invoice.TermID == termID {
			return &invoice, nil
		}
	}
	return nil, apperrors.NotFound("invoice", studentID)
}

func (s *Store) FindOpenInvoiceByBalance(ctx context.Context, schoolID, studentID uuid.UUID, amount decimal.Decimal) (*models.Invoice, error) {
	defer s.guard()()
	var found *models.Invoice
	for _, invoice := range s.db.st.invoices {
		invoice := invoice
		if invoice.SchoolID != schoolID || invoice.StudentID != studentID {
			continue
		}
		if !invoice.IsOpen() || !invoice.Balance.Equal(amount) {
			continue
		}
		if found == nil || invoice.CreatedAt.Before(found.CreatedAt) {
			found = &invoice
		}
	}
	if found == nil {
		return nil, apperrors.NotFound("invoice", studentID)
	}
	return found, nil
}

func (s *Store) SaveInvoiceBalance(ctx context.Context, invoice *models.Invoice) error {
	defer s.guard()()
	i := s.invoiceIndex(invoice.SchoolID, invoice.ID)
	if i < 0 {
		return apperrors.NotFound("invoice", invoice.ID)
	}
	invoice.UpdatedAt = time.Now()
	stored := &s.db.st.invoices[i]
	stored.AmountPaid = invoice.AmountPaid
	stored.Balance = invoice.Balance
	stored.Status = invoice.Status
	stored.UpdatedAt = invoice.UpdatedAt
	return nil
}

func (s *Store) ListInvoices(ctx context.Context, schoolID uuid.UUID, filter repository.InvoiceFilter) ([]models.Invoice, error) {
	defer s.guard()()
	var invoices []models.Invoice
	for _, invoice := range s.db.st.invoices {
		if invoice.SchoolID != schoolID {
			continue
		}
		if filter.StudentID != nil && invoice.StudentID != *filter.StudentID {
			continue
		}
		if filter.TermID != nil && invoice.TermID != *filter.TermID {
			continue
		}
		if filter.Status != "" && invoice.Status != filter.Status {
			continue
		}
		invoices = append(invoices, invoice)
	}
	sort.SliceStable(invoices, func(i, j int) bool { return invoices[i].CreatedAt.After(invoices[j].CreatedAt) })
	return invoices, nil
}

func (s *Store) CreatePayment(ctx context.Context, payment *models.Payment) error {
	defer s.guard()()
	for _, existing := range s.db.st.payments {
		if existing.Reference == payment.Reference {
			return apperrors.New(apperrors.KindConflict, apperrors.CodeDuplicateReference,
				"payment reference already exists").WithContext("reference", payment.Reference)
		}
	}
	newID(&payment.ID)
	stamp(&payment.CreatedAt)
	stamp(&payment.UpdatedAt)
	s.db.st.payments = append(s.db.st.payments, *payment)
	return nil
}

func (s *Store) SumMatchedPayments(ctx context.Context, schoolID, invoiceID uuid.UUID) (decimal.Decimal, error) {
	defer s.guard()()
	total := decimal.Zero
	for _, payment := range s.db.st.payments {
		if payment.SchoolID == schoolID && payment.Matched && payment.InvoiceID != nil && *payment.InvoiceID == invoiceID {
			total = total.Add(payment.Amount)
		}
	}
	return total, nil
}

func (s *Store) ListPayments(ctx context.Context, schoolID uuid.UUID, filter repository.PaymentFilter) ([]models.Payment, error) {
	defer s.guard()()
	var payments []models.Payment
	for _, payment := range s.db.st.payments {
		if payment.SchoolID != schoolID {
			continue
		}
		if filter.StudentID != nil && (payment.StudentID == nil || *payment.StudentID != *filter.StudentID) {
			continue
		}
		if filter.InvoiceID != nil && (payment.InvoiceID == nil || *payment.InvoiceID != *filter.InvoiceID) {
			continue
		}
		if filter.Method != "" && payment.Method != filter.Method {
			continue
		}
		payments = append(payments, payment)
	}
	sort.SliceStable(payments, func(i, j int) bool {
		return payments[i].TransactionDate.After(payments[j].TransactionDate)
	})
	return payments, nil
}

func (s *Store) AppendLedgerEntry(ctx context.Context, entry *models.LedgerEntry) error {
	defer s.guard()()
	newID(&entry.ID)
	stamp(&entry.CreatedAt)
	s.db.st.ledger = append(s.db.st.ledger, *entry)
	return nil
}

func (s *Store) ListLedgerEntries(ctx context.Context, schoolID uuid.UUID, filter repository.LedgerFilter) ([]models.LedgerEntry, error) {
	defer s.guard()()
	var entries []models.LedgerEntry
	for _, entry := range s.db.st.ledger {
		if entry.SchoolID != schoolID {
			continue
		}
		if filter.StudentID != nil && entry.StudentID != *filter.StudentID {
			continue
		}
		if filter.InvoiceID != nil && (entry.InvoiceID == nil || *entry.InvoiceID != *filter.InvoiceID) {
			continue
		}
		if filter.EntryType != "" && entry.EntryType != filter.EntryType {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
