package reconciliation

import (
	"context"
	"time"

	"school-finance-backend/internal/apperrors"
	"school-finance-backend/internal/models"
	"school-finance-backend/internal/repository"
	"school-finance-backend/internal/services/finance"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// createPaymentFromMatch turns a bank transaction into a matched bank-transfer payment, flips the
// transaction to matched and applies the payment to the ledger and invoice. It must run inside
// tx's transaction and returns nil when the transaction was already matched.
func createPaymentFromMatch(ctx context.Context, tx repository.Store, bt *models.BankTransaction, studentID uuid.UUID, invoiceID *uuid.UUID) (*models.Payment, error) {
	flipped, err := tx.MarkTransactionMatched(ctx, bt.SchoolID, bt.ID)
	if err != nil {
		return nil, err
	}
	if !flipped {
		return nil, nil
	}
	bt.Matched = true

	now := time.Now()
	payment := &models.Payment{
		ID:              uuid.New(),
		SchoolID:        bt.SchoolID,
		StudentID:       &studentID,
		InvoiceID:       invoiceID,
		Amount:          bt.Amount,
		Method:          models.MethodBankTransfer,
		Reference:       bt.Reference,
		Narration:       bt.Narration,
		TransactionDate: bt.TransactionDate,
		Matched:         true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := finance.ApplyPayment(ctx, tx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}

// CreatePaymentFromMatch materializes a match in its own transaction. It returns nil, nil when the
// bank transaction is already matched.
func (s *ReconciliationService) CreatePaymentFromMatch(ctx context.Context, schoolID, transactionID, studentID uuid.UUID, invoiceID *uuid.UUID) (*models.Payment, error) {
	var payment *models.Payment
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		bt, err := tx.LockBankTransaction(ctx, schoolID, transactionID)
		if err != nil {
			return err
		}
		if bt.Matched {
			return nil
		}
		payment, err = createPaymentFromMatch(ctx, tx, bt, studentID, invoiceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

type ApproveInput struct {
	StudentID   uuid.UUID
	InvoiceID   *uuid.UUID
	PerformedBy string
}

// ApproveMatch materializes a human-approved match for the transaction with the given reference.
// A transaction that is already matched yields an AlreadyMatched error and no payment.
func (s *ReconciliationService) ApproveMatch(ctx context.Context, schoolID uuid.UUID, reference string, in ApproveInput) (*models.Payment, error) {
	var payment *models.Payment
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		bt, err := tx.LockBankTransactionByReference(ctx, schoolID, reference)
		if err != nil {
			return err
		}
		if bt.Matched {
			return apperrors.AlreadyMatched(reference)
		}

		if _, err := tx.GetStudent(ctx, schoolID, in.StudentID); err != nil {
			return err
		}
		if in.InvoiceID != nil {
			invoice, err := tx.GetInvoice(ctx, schoolID, *in.InvoiceID)
			if err != nil {
				return err
			}
			if invoice.StudentID != in.StudentID {
				return apperrors.Validation("invoice_id", "invoice does not belong to student")
			}
		}

		p, err := createPaymentFromMatch(ctx, tx, bt, in.StudentID, in.InvoiceID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperrors.AlreadyMatched(reference)
		}

		studentID, paymentID := in.StudentID, p.ID
		if err := tx.CreateMatchAuditLog(ctx, &models.MatchAuditLog{
			ID:            uuid.New(),
			SchoolID:      schoolID,
			TransactionID: bt.ID,
			Action:        models.AuditActionApprove,
			StudentID:     &studentID,
			InvoiceID:     in.InvoiceID,
			PaymentID:     &paymentID,
			PerformedBy:   in.PerformedBy,
			CreatedAt:     time.Now(),
		}); err != nil {
			return err
		}

		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("match approved",
		zap.String("school_id", schoolID.String()),
		zap.String("reference", reference),
		zap.String("payment_id", payment.ID.String()),
		zap.String("performed_by", in.PerformedBy))
	return payment, nil
}
