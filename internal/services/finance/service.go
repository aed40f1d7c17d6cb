package finance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"school-finance-backend/internal/apperrors"
	"school-finance-backend/internal/models"
	"school-finance-backend/internal/repository"
	"school-finance-backend/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MinimumPayment is the smallest amount a payment may carry.
var MinimumPayment = decimal.New(1, -2)

var errInvoiceRace = errors.New("invoice created concurrently")

type Service struct {
	store    repository.Store
	log      *zap.Logger
	validate *validator.Validate
}

func NewService(store repository.Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:    store,
		log:      log.Named("finance"),
		validate: validation.New(),
	}
}

// GenerateInvoice returns the student's invoice for the term, creating it from the class fee
// structure when none exists. created reports whether this call issued the invoice.
func (s *Service) GenerateInvoice(ctx context.Context, schoolID, studentID, termID uuid.UUID) (invoice *models.Invoice, created bool, err error) {
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		student, err := tx.GetStudent(ctx, schoolID, studentID)
		if err != nil {
			return err
		}
		term, err := tx.GetTerm(ctx, schoolID, termID)
		if err != nil {
			return err
		}

		existing, err := tx.FindInvoice(ctx, schoolID, studentID, termID)
		if err == nil {
			invoice = existing
			return nil
		}
		if !apperrors.Is(err, apperrors.KindNotFound) {
			return err
		}

		fee, err := tx.FindFeeStructure(ctx, schoolID, student.ClassRoomID, termID)
		if apperrors.Is(err, apperrors.KindNotFound) {
			return apperrors.New(apperrors.KindNotFound, apperrors.CodeNoFeeStructure,
				fmt.Sprintf("no fee structure for class of student %s in term %s", studentID, term.Name)).
				WithContext("student_id", studentID).
				WithContext("term_id", termID)
		}
		if err != nil {
			return err
		}

		total := fee.Total()
		now := time.Now()
		inv := &models.Invoice{
			ID:          uuid.New(),
			SchoolID:    schoolID,
			StudentID:   studentID,
			TermID:      termID,
			TotalAmount: total,
			AmountPaid:  decimal.Zero,
			Balance:     total,
			Status:      models.InvoiceUnpaid,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.CreateInvoice(ctx, inv); err != nil {
			if apperrors.Is(err, apperrors.KindConflict) {
				return errInvoiceRace
			}
			return err
		}

		invoiceID := inv.ID
		if err := tx.AppendLedgerEntry(ctx, &models.LedgerEntry{
			ID:          uuid.New(),
			SchoolID:    schoolID,
			StudentID:   studentID,
			InvoiceID:   &invoiceID,
			EntryType:   models.EntryDebit,
			Amount:      total,
			Description: fmt.Sprintf("Invoice issued for %s", term.Name),
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		invoice, created = inv, true
		return nil
	})

	if errors.Is(err, errInvoiceRace) {
		invoice, err = s.store.FindInvoice(ctx, schoolID, studentID, termID)
		return invoice, false, err
	}
	if err != nil {
		return nil, false, err
	}

	if created {
		s.log.Info("invoice issued",
			zap.String("school_id", schoolID.String()),
			zap.String("invoice_id", invoice.ID.String()),
			zap.String("total", invoice.TotalAmount.StringFixed(2)))
	}
	return invoice, created, nil
}

// RecomputeInvoice re-derives an invoice's paid amount, balance and status from its matched payments.
func (s *Service) RecomputeInvoice(ctx context.Context, schoolID, invoiceID uuid.UUID) (*models.Invoice, error) {
	var invoice *models.Invoice
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		invoice, _, err = UpdateBalance(ctx, tx, schoolID, invoiceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// UpdateBalance recomputes the invoice under a row lock. It must run inside tx's transaction.
// changed is false when the stored values were already current.
func UpdateBalance(ctx context.Context, tx repository.Store, schoolID, invoiceID uuid.UUID) (*models.Invoice, bool, error) {
	invoice, err := tx.LockInvoice(ctx, schoolID, invoiceID)
	if err != nil {
		return nil, false, err
	}

	paid, err := tx.SumMatchedPayments(ctx, schoolID, invoiceID)
	if err != nil {
		return nil, false, err
	}

	if !invoice.ApplyAmountPaid(paid) {
		return invoice, false, nil
	}
	if err := tx.SaveInvoiceBalance(ctx, invoice); err != nil {
		return nil, false, err
	}
	return invoice, true, nil
}

// ApplyPayment stores the payment and, when it is matched, appends its ledger credit and
// recomputes the linked invoice. It must run inside tx's transaction.
func ApplyPayment(ctx context.Context, tx repository.Store, payment *models.Payment) error {
	if payment.InvoiceID != nil {
		// Serialize with other payments against the same invoice before inserting.
		if _, err := tx.LockInvoice(ctx, payment.SchoolID, *payment.InvoiceID); err != nil {
			return err
		}
	}

	if err := tx.CreatePayment(ctx, payment); err != nil {
		return err
	}
	if !payment.Matched {
		return nil
	}
	if payment.StudentID == nil {
		return apperrors.MissingField("student_id")
	}

	paymentID := payment.ID
	if err := tx.AppendLedgerEntry(ctx, &models.LedgerEntry{
		ID:          uuid.New(),
		SchoolID:    payment.SchoolID,
		StudentID:   *payment.StudentID,
		InvoiceID:   payment.InvoiceID,
		PaymentID:   &paymentID,
		EntryType:   models.EntryCredit,
		Amount:      payment.Amount,
		Description: fmt.Sprintf("Payment received: %s", payment.Reference),
		CreatedAt:   time.Now(),
	}); err != nil {
		return err
	}

	if payment.InvoiceID != nil {
		if _, _, err := UpdateBalance(ctx, tx, payment.SchoolID, *payment.InvoiceID); err != nil {
			return err
		}
	}
	return nil
}
